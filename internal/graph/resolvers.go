package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/auth"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/service"
)

// Payload shapes. The default resolver matches GraphQL field names against
// these json tags.

type loggableEventPayload struct {
	LoggableEvent *model.LoggableEvent  `json:"loggableEvent"`
	Errors        []apperror.FieldError `json:"errors"`
}

type eventLabelPayload struct {
	EventLabel *model.EventLabel     `json:"eventLabel"`
	Errors     []apperror.FieldError `json:"errors"`
}

func newEventPayload(event *model.LoggableEvent, err error) loggableEventPayload {
	if err != nil {
		return loggableEventPayload{Errors: apperror.ToFieldErrors(err)}
	}
	return loggableEventPayload{LoggableEvent: event, Errors: []apperror.FieldError{}}
}

func newLabelPayload(label *model.EventLabel, err error) eventLabelPayload {
	if err != nil {
		return eventLabelPayload{Errors: apperror.ToFieldErrors(err)}
	}
	return eventLabelPayload{EventLabel: label, Errors: []apperror.FieldError{}}
}

func caller(p graphql.ResolveParams) *model.User {
	user, _ := auth.UserFromContext(p.Context)
	return user
}

// =========================================================================
// QUERIES
// =========================================================================

func (s *Schema) resolveUser(p graphql.ResolveParams) (interface{}, error) {
	if user := caller(p); user != nil {
		return user, nil
	}
	return nil, nil
}

func (s *Schema) resolveLoggableEventsForUser(p graphql.ResolveParams) (interface{}, error) {
	events, err := s.events.ListForUser(p.Context, caller(p))
	if err != nil {
		return nil, queryError(err)
	}
	return events, nil
}

func (s *Schema) resolveEventLabelsForUser(p graphql.ResolveParams) (interface{}, error) {
	userID, _ := p.Args["userId"].(string)
	labels, err := s.labels.ListForUser(p.Context, caller(p), userID)
	if err != nil {
		return nil, queryError(err)
	}
	return labels, nil
}

// =========================================================================
// MUTATIONS
// =========================================================================
//
// Each mutation decodes its input, hands it to the service together with the
// caller, and folds the outcome into a payload. The returned error is always
// nil.

func (s *Schema) resolveCreateLoggableEvent(p graphql.ResolveParams) (interface{}, error) {
	var in service.CreateLoggableEventInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newEventPayload(nil, err), nil
	}
	return newEventPayload(s.events.Create(p.Context, caller(p), in)), nil
}

func (s *Schema) resolveUpdateLoggableEvent(p graphql.ResolveParams) (interface{}, error) {
	var in service.UpdateLoggableEventInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newEventPayload(nil, err), nil
	}
	return newEventPayload(s.events.Update(p.Context, caller(p), in)), nil
}

func (s *Schema) resolveDeleteLoggableEvent(p graphql.ResolveParams) (interface{}, error) {
	var in service.DeleteLoggableEventInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newEventPayload(nil, err), nil
	}
	return newEventPayload(s.events.Delete(p.Context, caller(p), in)), nil
}

func (s *Schema) resolveAddTimestampToEvent(p graphql.ResolveParams) (interface{}, error) {
	var in service.AddTimestampInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newEventPayload(nil, err), nil
	}
	return newEventPayload(s.events.AddTimestamp(p.Context, caller(p), in)), nil
}

func (s *Schema) resolveCreateEventLabel(p graphql.ResolveParams) (interface{}, error) {
	var in service.CreateEventLabelInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newLabelPayload(nil, err), nil
	}
	return newLabelPayload(s.labels.Create(p.Context, caller(p), in)), nil
}

func (s *Schema) resolveUpdateEventLabel(p graphql.ResolveParams) (interface{}, error) {
	var in service.UpdateEventLabelInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newLabelPayload(nil, err), nil
	}
	return newLabelPayload(s.labels.Update(p.Context, caller(p), in)), nil
}

func (s *Schema) resolveDeleteEventLabel(p graphql.ResolveParams) (interface{}, error) {
	var in service.DeleteEventLabelInput
	if err := decodeInput(p.Args, &in); err != nil {
		return newLabelPayload(nil, err), nil
	}
	return newLabelPayload(s.labels.Delete(p.Context, caller(p), in)), nil
}

// =========================================================================
// RELATION FIELDS
// =========================================================================
//
// A record is only reachable through its owner, so these need no ownership
// check of their own. A missing owner raises an error. Relations already
// loaded on the record (deleted records) are returned as they are.

func (s *Schema) resolveUserLoggableEvents(p graphql.ResolveParams) (interface{}, error) {
	user, err := source[model.User](p.Source)
	if err != nil {
		return nil, err
	}
	events, err := s.events.EventsOfUser(p.Context, user.ID)
	if err != nil {
		return nil, queryError(err)
	}
	return events, nil
}

func (s *Schema) resolveUserEventLabels(p graphql.ResolveParams) (interface{}, error) {
	user, err := source[model.User](p.Source)
	if err != nil {
		return nil, err
	}
	labels, err := s.labels.LabelsOfUser(p.Context, user.ID)
	if err != nil {
		return nil, queryError(err)
	}
	return labels, nil
}

func (s *Schema) resolveLoggableEventUser(p graphql.ResolveParams) (interface{}, error) {
	event, err := source[model.LoggableEvent](p.Source)
	if err != nil {
		return nil, err
	}
	return s.owner(p, event.UserID)
}

func (s *Schema) resolveLoggableEventLabels(p graphql.ResolveParams) (interface{}, error) {
	event, err := source[model.LoggableEvent](p.Source)
	if err != nil {
		return nil, err
	}
	if event.Labels != nil {
		return event.Labels, nil
	}
	labels, err := s.labels.LabelsOfEvent(p.Context, event.ID)
	if err != nil {
		return nil, queryError(err)
	}
	return labels, nil
}

func (s *Schema) resolveEventLabelUser(p graphql.ResolveParams) (interface{}, error) {
	label, err := source[model.EventLabel](p.Source)
	if err != nil {
		return nil, err
	}
	return s.owner(p, label.UserID)
}

func (s *Schema) resolveEventLabelLoggableEvents(p graphql.ResolveParams) (interface{}, error) {
	label, err := source[model.EventLabel](p.Source)
	if err != nil {
		return nil, err
	}
	if label.LoggableEvents != nil {
		return label.LoggableEvents, nil
	}
	events, err := s.events.EventsOfLabel(p.Context, label.ID)
	if err != nil {
		return nil, queryError(err)
	}
	return events, nil
}

// owner short-circuits to the caller when the record is theirs, which is
// every case reachable through the schema today.
func (s *Schema) owner(p graphql.ResolveParams, userID string) (interface{}, error) {
	if user := caller(p); user != nil && user.ID == userID {
		return user, nil
	}
	user, err := s.identities.Owner(p.Context, userID)
	if err != nil {
		return nil, queryError(err)
	}
	return user, nil
}

// source unwraps a parent value. Single records arrive as pointers, list
// elements as values.
func source[T any](src any) (*T, error) {
	switch v := src.(type) {
	case *T:
		if v != nil {
			return v, nil
		}
	case T:
		return &v, nil
	}
	return nil, fmt.Errorf("graph: unexpected parent %T", src)
}
