package model

import "time"

// EventLabel is a user-defined tag, e.g. "Car" or "House". Labels and
// events are many-to-many; both belong to exactly one user.
type EventLabel struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// LoggableEvents is only set when the events were read together with
	// the label; see LoggableEvent.Labels.
	LoggableEvents []LoggableEvent `json:"-"`
}

func (l *EventLabel) OwnedBy(userID string) bool {
	return l.UserID == userID
}
