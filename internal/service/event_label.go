package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
)

// EventLabelService handles business logic for event labels.
type EventLabelService struct {
	labels   repository.EventLabelRepository
	events   repository.LoggableEventRepository
	validate Validator
	logger   *slog.Logger
}

func NewEventLabelService(
	labels repository.EventLabelRepository,
	events repository.LoggableEventRepository,
	validate Validator,
	logger *slog.Logger,
) *EventLabelService {
	return &EventLabelService{
		labels:   labels,
		events:   events,
		validate: validate,
		logger:   logger,
	}
}

// Create adds a label owned by the caller.
func (s *EventLabelService) Create(ctx context.Context, caller *model.User, in CreateEventLabelInput) (*model.EventLabel, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	label := &model.EventLabel{UserID: caller.ID, Name: in.Name}
	if err := s.labels.Create(ctx, label); err != nil {
		return nil, internal(ctx, s.logger, "creating event label", err,
			slog.String("userID", caller.ID),
			slog.String("name", in.Name),
		)
	}

	s.logger.Info("event label created",
		slog.String("id", label.ID),
		slog.String("userID", caller.ID),
	)
	return label, nil
}

// Update renames a label the caller owns. A nil name leaves the label as it
// is and returns it.
func (s *EventLabelService) Update(ctx context.Context, caller *model.User, in UpdateEventLabelInput) (*model.EventLabel, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.ID = strings.TrimSpace(in.ID)
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	label, err := s.owned(ctx, caller, in.ID, "update")
	if err != nil {
		return nil, err
	}
	if in.Name == nil {
		return label, nil
	}

	label, err = s.labels.Update(ctx, in.ID, *in.Name)
	if err != nil {
		return nil, internal(ctx, s.logger, "updating event label", err, slog.String("id", in.ID))
	}

	s.logger.Info("event label updated", slog.String("id", label.ID))
	return label, nil
}

// Delete removes a label the caller owns and detaches it from its events.
// The returned label still lists the events it was attached to.
func (s *EventLabelService) Delete(ctx context.Context, caller *model.User, in DeleteEventLabelInput) (*model.EventLabel, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.ID = strings.TrimSpace(in.ID)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	label, err := s.owned(ctx, caller, in.ID, "delete")
	if err != nil {
		return nil, err
	}

	events, err := s.events.ListByLabel(ctx, in.ID)
	if err != nil {
		return nil, internal(ctx, s.logger, "loading events of deleted label", err, slog.String("id", in.ID))
	}
	label.LoggableEvents = events

	if err := s.labels.Delete(ctx, in.ID); err != nil {
		return nil, internal(ctx, s.logger, "deleting event label", err, slog.String("id", in.ID))
	}

	s.logger.Info("event label deleted", slog.String("id", in.ID))
	return label, nil
}

// ListForUser returns the labels of userID, which defaults to the caller.
// Asking for another user's labels is FORBIDDEN.
func (s *EventLabelService) ListForUser(ctx context.Context, caller *model.User, userID string) ([]model.EventLabel, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if userID = strings.TrimSpace(userID); userID == "" {
		userID = caller.ID
	}
	if userID != caller.ID {
		return nil, apperror.Forbidden("You do not have permission to view these event labels")
	}
	return s.LabelsOfUser(ctx, userID)
}

// LabelsOfUser backs the User.eventLabels field.
func (s *EventLabelService) LabelsOfUser(ctx context.Context, userID string) ([]model.EventLabel, error) {
	labels, err := s.labels.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.logger, "listing event labels", err, slog.String("userID", userID))
	}
	return labels, nil
}

// LabelsOfEvent backs the LoggableEvent.labels field.
func (s *EventLabelService) LabelsOfEvent(ctx context.Context, eventID string) ([]model.EventLabel, error) {
	labels, err := s.labels.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, internal(ctx, s.logger, "listing event labels by event", err, slog.String("eventID", eventID))
	}
	return labels, nil
}

func (s *EventLabelService) owned(ctx context.Context, caller *model.User, id, verb string) (*model.EventLabel, error) {
	label, err := s.labels.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundField("id", "Event label not found")
	}
	if err != nil {
		return nil, internal(ctx, s.logger, "loading event label", err, slog.String("id", id))
	}

	if !label.OwnedBy(caller.ID) {
		s.logger.Warn("event label access denied",
			slog.String("id", id),
			slog.String("userID", caller.ID),
			slog.String("action", verb),
		)
		return nil, apperror.Forbidden("You do not have permission to " + verb + " this event label")
	}
	return label, nil
}
