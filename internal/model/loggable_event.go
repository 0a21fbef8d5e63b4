package model

import "time"

// LoggableEvent is something a user does repeatedly, e.g. "Changed air filter".
//
// Timestamps records each time the event happened, oldest first.
// WarningThresholdInDays tells the client when to nag: if the latest
// timestamp is older than this many days, the event is overdue.
//
// UserID is set on creation and never changes; it is the only thing that
// decides who may read or modify the event.
type LoggableEvent struct {
	ID                     string      `json:"id"`
	UserID                 string      `json:"userId"`
	Name                   string      `json:"name"`
	WarningThresholdInDays int         `json:"warningThresholdInDays"`
	Timestamps             []time.Time `json:"dateTimeRecords"`
	CreatedAt              time.Time   `json:"createdAt"`
	UpdatedAt              time.Time   `json:"updatedAt"`

	// Labels is only set when the labels were read together with the
	// event, as Delete does before the join rows go away. Nil means load
	// them from the store.
	Labels []EventLabel `json:"-"`
}

// OwnedBy reports whether userID owns the event.
func (e *LoggableEvent) OwnedBy(userID string) bool {
	return e.UserID == userID
}
