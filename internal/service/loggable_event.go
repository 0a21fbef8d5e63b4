package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
)

// LoggableEventService handles business logic for loggable events.
type LoggableEventService struct {
	events   repository.LoggableEventRepository
	labels   repository.EventLabelRepository
	validate Validator
	logger   *slog.Logger
	now      func() time.Time
}

func NewLoggableEventService(
	events repository.LoggableEventRepository,
	labels repository.EventLabelRepository,
	validate Validator,
	logger *slog.Logger,
) *LoggableEventService {
	return &LoggableEventService{
		events:   events,
		labels:   labels,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// Create validates in and stores a new event owned by caller, connected to
// the given labels. Every label must exist and belong to caller.
func (s *LoggableEventService) Create(ctx context.Context, caller *model.User, in CreateLoggableEventInput) (*model.LoggableEvent, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	if err := checkLabels(ctx, s.labels, caller, in.LabelIDs); err != nil {
		return nil, internal(ctx, s.logger, "checking labels", err)
	}

	event := &model.LoggableEvent{
		UserID:                 caller.ID,
		Name:                   in.Name,
		WarningThresholdInDays: in.WarningThresholdInDays,
	}
	if err := s.events.Create(ctx, event, in.LabelIDs); err != nil {
		return nil, internal(ctx, s.logger, "creating loggable event", err,
			slog.String("userID", caller.ID),
			slog.String("name", in.Name),
		)
	}

	s.logger.Info("loggable event created",
		slog.String("id", event.ID),
		slog.String("userID", caller.ID),
	)
	return event, nil
}

// Update applies the non-nil fields of in to an event the caller owns.
func (s *LoggableEventService) Update(ctx context.Context, caller *model.User, in UpdateLoggableEventInput) (*model.LoggableEvent, error) {
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

	if _, err := s.owned(ctx, caller, in.ID, "update"); err != nil {
		return nil, err
	}

	if in.LabelIDs != nil {
		if err := checkLabels(ctx, s.labels, caller, *in.LabelIDs); err != nil {
			return nil, internal(ctx, s.logger, "checking labels", err)
		}
	}

	event, err := s.events.Update(ctx, in.ID, repository.LoggableEventUpdate{
		Name:                   in.Name,
		WarningThresholdInDays: in.WarningThresholdInDays,
		LabelIDs:               in.LabelIDs,
	})
	if err != nil {
		return nil, internal(ctx, s.logger, "updating loggable event", err, slog.String("id", in.ID))
	}

	s.logger.Info("loggable event updated", slog.String("id", event.ID))
	return event, nil
}

// Delete removes an event the caller owns and returns it as it was,
// labels included.
func (s *LoggableEventService) Delete(ctx context.Context, caller *model.User, in DeleteLoggableEventInput) (*model.LoggableEvent, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.ID = strings.TrimSpace(in.ID)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	event, err := s.owned(ctx, caller, in.ID, "delete")
	if err != nil {
		return nil, err
	}

	// The cascade removes the join rows, so the labels are read first.
	labels, err := s.labels.ListByEvent(ctx, in.ID)
	if err != nil {
		return nil, internal(ctx, s.logger, "loading labels of deleted event", err, slog.String("id", in.ID))
	}
	event.Labels = labels

	if err := s.events.Delete(ctx, in.ID); err != nil {
		return nil, internal(ctx, s.logger, "deleting loggable event", err, slog.String("id", in.ID))
	}

	s.logger.Info("loggable event deleted", slog.String("id", in.ID))
	return event, nil
}

// AddTimestamp records one occurrence of an event the caller owns.
func (s *LoggableEventService) AddTimestamp(ctx context.Context, caller *model.User, in AddTimestampInput) (*model.LoggableEvent, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	in.ID = strings.TrimSpace(in.ID)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, caller, in.ID, "update"); err != nil {
		return nil, err
	}

	at := s.now()
	if in.Timestamp != nil {
		at = *in.Timestamp
	}

	event, err := s.events.AddTimestamp(ctx, in.ID, at)
	if err != nil {
		return nil, internal(ctx, s.logger, "adding timestamp", err, slog.String("id", in.ID))
	}
	return event, nil
}

// ListForUser returns the caller's events, oldest first.
func (s *LoggableEventService) ListForUser(ctx context.Context, caller *model.User) ([]model.LoggableEvent, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.EventsOfUser(ctx, caller.ID)
}

// EventsOfUser backs the User.loggableEvents field.
func (s *LoggableEventService) EventsOfUser(ctx context.Context, userID string) ([]model.LoggableEvent, error) {
	events, err := s.events.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.logger, "listing loggable events", err, slog.String("userID", userID))
	}
	return events, nil
}

// EventsOfLabel backs the EventLabel.loggableEvents field.
func (s *LoggableEventService) EventsOfLabel(ctx context.Context, labelID string) ([]model.LoggableEvent, error) {
	events, err := s.events.ListByLabel(ctx, labelID)
	if err != nil {
		return nil, internal(ctx, s.logger, "listing loggable events by label", err, slog.String("labelID", labelID))
	}
	return events, nil
}

// owned loads the event and checks the caller owns it. verb names the
// attempted action in the FORBIDDEN message.
func (s *LoggableEventService) owned(ctx context.Context, caller *model.User, id, verb string) (*model.LoggableEvent, error) {
	event, err := s.events.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFoundField("id", "Loggable event not found")
	}
	if err != nil {
		return nil, internal(ctx, s.logger, "loading loggable event", err, slog.String("id", id))
	}

	if !event.OwnedBy(caller.ID) {
		s.logger.Warn("loggable event access denied",
			slog.String("id", id),
			slog.String("userID", caller.ID),
			slog.String("action", verb),
		)
		return nil, apperror.Forbidden("You do not have permission to " + verb + " this loggable event")
	}
	return event, nil
}
