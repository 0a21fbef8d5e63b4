package repository

import (
	"context"
	"time"

	"github.com/sakif/event-logger/internal/model"
)

type UserRepository interface {
	// Upsert inserts the user keyed by GoogleID, or updates only the display
	// name of an existing match. The passed struct is filled with the stored row.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// LoggableEventUpdate carries the optional fields of an update. Nil means
// "leave unchanged".
type LoggableEventUpdate struct {
	Name                   *string
	WarningThresholdInDays *int
	LabelIDs               *[]string // replaces the whole label set when non-nil
}

type LoggableEventRepository interface {
	// Create inserts the event and connects labelIDs in one transaction.
	Create(ctx context.Context, event *model.LoggableEvent, labelIDs []string) error
	GetByID(ctx context.Context, id string) (*model.LoggableEvent, error)
	ListByUser(ctx context.Context, userID string) ([]model.LoggableEvent, error)
	ListByLabel(ctx context.Context, labelID string) ([]model.LoggableEvent, error)
	Update(ctx context.Context, id string, upd LoggableEventUpdate) (*model.LoggableEvent, error)
	Delete(ctx context.Context, id string) error
	AddTimestamp(ctx context.Context, id string, at time.Time) (*model.LoggableEvent, error)
}

type EventLabelRepository interface {
	Create(ctx context.Context, label *model.EventLabel) error
	GetByID(ctx context.Context, id string) (*model.EventLabel, error)
	// GetManyByID returns the labels that exist among ids, in no particular order.
	GetManyByID(ctx context.Context, ids []string) ([]model.EventLabel, error)
	ListByUser(ctx context.Context, userID string) ([]model.EventLabel, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.EventLabel, error)
	Update(ctx context.Context, id string, name string) (*model.EventLabel, error)
	Delete(ctx context.Context, id string) error
}
