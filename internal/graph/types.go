package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/sakif/event-logger/internal/apperror"
)

type types struct {
	user          *graphql.Object
	loggableEvent *graphql.Object
	eventLabel    *graphql.Object

	mutationError        *graphql.Object
	loggableEventPayload *graphql.Object
	eventLabelPayload    *graphql.Object

	createLoggableEventInput *graphql.InputObject
	updateLoggableEventInput *graphql.InputObject
	deleteLoggableEventInput *graphql.InputObject
	addTimestampInput        *graphql.InputObject
	createEventLabelInput    *graphql.InputObject
	updateEventLabelInput    *graphql.InputObject
	deleteEventLabelInput    *graphql.InputObject
}

func (s *Schema) defineTypes() *types {
	t := &types{}

	// Record types. Scalar fields resolve from the models' json tags; the
	// relation fields are added below once all three objects exist.
	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	t.loggableEvent = graphql.NewObject(graphql.ObjectConfig{
		Name: "LoggableEvent",
		Fields: graphql.Fields{
			"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"dateTimeRecords": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(graphql.DateTime))),
				Description: "Every recorded occurrence, oldest first",
			},
			"warningThresholdInDays": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"createdAt":              &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt":              &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	t.eventLabel = graphql.NewObject(graphql.ObjectConfig{
		Name: "EventLabel",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.DateTime)},
		},
	})

	events := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.loggableEvent)))
	labels := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.eventLabel)))

	t.user.AddFieldConfig("loggableEvents", &graphql.Field{Type: events, Resolve: s.resolveUserLoggableEvents})
	t.user.AddFieldConfig("eventLabels", &graphql.Field{Type: labels, Resolve: s.resolveUserEventLabels})
	t.loggableEvent.AddFieldConfig("user", &graphql.Field{Type: graphql.NewNonNull(t.user), Resolve: s.resolveLoggableEventUser})
	t.loggableEvent.AddFieldConfig("labels", &graphql.Field{Type: labels, Resolve: s.resolveLoggableEventLabels})
	t.eventLabel.AddFieldConfig("user", &graphql.Field{Type: graphql.NewNonNull(t.user), Resolve: s.resolveEventLabelUser})
	t.eventLabel.AddFieldConfig("loggableEvents", &graphql.Field{Type: events, Resolve: s.resolveEventLabelLoggableEvents})

	// Mutation payloads.
	codeEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "MutationErrorCode",
		Values: graphql.EnumValueConfigMap{
			string(apperror.CodeUnauthorized): &graphql.EnumValueConfig{Value: apperror.CodeUnauthorized},
			string(apperror.CodeValidation):   &graphql.EnumValueConfig{Value: apperror.CodeValidation},
			string(apperror.CodeNotFound):     &graphql.EnumValueConfig{Value: apperror.CodeNotFound},
			string(apperror.CodeForbidden):    &graphql.EnumValueConfig{Value: apperror.CodeForbidden},
			string(apperror.CodeInternal):     &graphql.EnumValueConfig{Value: apperror.CodeInternal},
		},
	})

	t.mutationError = graphql.NewObject(graphql.ObjectConfig{
		Name: "MutationError",
		Fields: graphql.Fields{
			"code": &graphql.Field{Type: graphql.NewNonNull(codeEnum)},
			"field": &graphql.Field{
				Type:        graphql.String,
				Description: "Dotted path of the offending input field, e.g. name or labelIds.0",
			},
			"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	errorList := graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t.mutationError)))

	t.loggableEventPayload = graphql.NewObject(graphql.ObjectConfig{
		Name: "LoggableEventMutationPayload",
		Fields: graphql.Fields{
			"loggableEvent": &graphql.Field{Type: t.loggableEvent},
			"errors":        &graphql.Field{Type: errorList},
		},
	})

	t.eventLabelPayload = graphql.NewObject(graphql.ObjectConfig{
		Name: "EventLabelMutationPayload",
		Fields: graphql.Fields{
			"eventLabel": &graphql.Field{Type: t.eventLabel},
			"errors":     &graphql.Field{Type: errorList},
		},
	})

	// Inputs. Ids are non-null so a missing one is a GraphQL error, while an
	// empty one reaches validation and comes back as VALIDATION_ERROR.
	id := &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)}
	labelIDs := &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(graphql.ID))}

	t.createLoggableEventInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateLoggableEventInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":                   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"warningThresholdInDays": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"labelIds":               labelIDs,
		},
	})

	t.updateLoggableEventInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateLoggableEventInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":                     id,
			"name":                   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"warningThresholdInDays": &graphql.InputObjectFieldConfig{Type: graphql.Int},
			"labelIds": &graphql.InputObjectFieldConfig{
				Type:        graphql.NewList(graphql.NewNonNull(graphql.ID)),
				Description: "Replaces the event's labels when given",
			},
		},
	})

	t.deleteLoggableEventInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "DeleteLoggableEventInput",
		Fields: graphql.InputObjectConfigFieldMap{"id": id},
	})

	t.addTimestampInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AddTimestampToEventInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id": id,
			"timestamp": &graphql.InputObjectFieldConfig{
				Type:        graphql.DateTime,
				Description: "When it happened; defaults to now",
			},
		},
	})

	t.createEventLabelInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CreateEventLabelInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	t.updateEventLabelInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UpdateEventLabelInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":   id,
			"name": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	t.deleteEventLabelInput = graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   "DeleteEventLabelInput",
		Fields: graphql.InputObjectConfigFieldMap{"id": id},
	})

	return t
}
