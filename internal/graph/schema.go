// Package graph assembles the GraphQL schema and maps its fields onto the
// service layer.
//
// Mutations never fail at the GraphQL level: every outcome, including
// UNAUTHORIZED and INTERNAL_ERROR, comes back as data in a payload of the
// form {entity, errors}. Queries that cannot be answered return a GraphQL
// error whose extensions.code carries the same code vocabulary.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/sakif/event-logger/internal/service"
)

// Schema is the executable GraphQL schema plus the services its resolvers
// call.
type Schema struct {
	schema     graphql.Schema
	identities *service.IdentityService
	events     *service.LoggableEventService
	labels     *service.EventLabelService
	logger     *slog.Logger
}

// Request is one GraphQL operation as sent by a client.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

func NewSchema(
	identities *service.IdentityService,
	events *service.LoggableEventService,
	labels *service.EventLabelService,
	logger *slog.Logger,
) (*Schema, error) {
	s := &Schema{
		identities: identities,
		events:     events,
		labels:     labels,
		logger:     logger,
	}

	t := s.defineTypes()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"user": &graphql.Field{
				Type:        t.user,
				Description: "The authenticated caller, or null for an anonymous request",
				Resolve:     s.resolveUser,
			},
			"loggableEventsForUser": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.loggableEvent))),
				Description: "The caller's loggable events, oldest first",
				Resolve:     s.resolveLoggableEventsForUser,
			},
			"eventLabelsForUser": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.eventLabel))),
				Description: "The caller's event labels",
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{
						Type:        graphql.ID,
						Description: "Must be the caller's own id when given",
					},
				},
				Resolve: s.resolveEventLabelsForUser,
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createLoggableEvent": &graphql.Field{
				Type:    graphql.NewNonNull(t.loggableEventPayload),
				Args:    inputArg(t.createLoggableEventInput),
				Resolve: s.resolveCreateLoggableEvent,
			},
			"updateLoggableEvent": &graphql.Field{
				Type:    graphql.NewNonNull(t.loggableEventPayload),
				Args:    inputArg(t.updateLoggableEventInput),
				Resolve: s.resolveUpdateLoggableEvent,
			},
			"deleteLoggableEvent": &graphql.Field{
				Type:    graphql.NewNonNull(t.loggableEventPayload),
				Args:    inputArg(t.deleteLoggableEventInput),
				Resolve: s.resolveDeleteLoggableEvent,
			},
			"addTimestampToEvent": &graphql.Field{
				Type:        graphql.NewNonNull(t.loggableEventPayload),
				Description: "Record one occurrence of a loggable event",
				Args:        inputArg(t.addTimestampInput),
				Resolve:     s.resolveAddTimestampToEvent,
			},
			"createEventLabel": &graphql.Field{
				Type:    graphql.NewNonNull(t.eventLabelPayload),
				Args:    inputArg(t.createEventLabelInput),
				Resolve: s.resolveCreateEventLabel,
			},
			"updateEventLabel": &graphql.Field{
				Type:    graphql.NewNonNull(t.eventLabelPayload),
				Args:    inputArg(t.updateEventLabelInput),
				Resolve: s.resolveUpdateEventLabel,
			},
			"deleteEventLabel": &graphql.Field{
				Type:    graphql.NewNonNull(t.eventLabelPayload),
				Args:    inputArg(t.deleteEventLabelInput),
				Resolve: s.resolveDeleteEventLabel,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return nil, fmt.Errorf("graph: building schema: %w", err)
	}

	s.schema = schema
	return s, nil
}

// Execute runs one operation. The context carries the authenticated user
// (see auth.Middleware) down to the resolvers.
func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

func inputArg(t *graphql.InputObject) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"input": &graphql.ArgumentConfig{
			Type: graphql.NewNonNull(t),
		},
	}
}
