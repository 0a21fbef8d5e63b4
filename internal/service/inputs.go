package service

import "time"

// Mutation inputs. Field names and json tags match the GraphQL input types,
// so validation errors carry the path the client sent.

type CreateLoggableEventInput struct {
	Name                   string   `json:"name" validate:"min=1,max=25"`
	WarningThresholdInDays int      `json:"warningThresholdInDays" validate:"min=0"`
	LabelIDs               []string `json:"labelIds" validate:"omitempty,dive,required"`
}

// UpdateLoggableEventInput changes only the fields that are non-nil.
// A non-nil LabelIDs replaces the label set, so an empty slice detaches all.
type UpdateLoggableEventInput struct {
	ID                     string    `json:"id" validate:"required"`
	Name                   *string   `json:"name" validate:"omitnil,min=1,max=25"`
	WarningThresholdInDays *int      `json:"warningThresholdInDays" validate:"omitnil,min=0"`
	LabelIDs               *[]string `json:"labelIds" validate:"omitnil,dive,required"`
}

type DeleteLoggableEventInput struct {
	ID string `json:"id" validate:"required"`
}

// AddTimestampInput records one occurrence. A nil Timestamp means now.
type AddTimestampInput struct {
	ID        string     `json:"id" validate:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

type CreateEventLabelInput struct {
	Name string `json:"name" validate:"min=1,max=25"`
}

type UpdateEventLabelInput struct {
	ID   string  `json:"id" validate:"required"`
	Name *string `json:"name" validate:"omitnil,min=1,max=25"`
}

type DeleteEventLabelInput struct {
	ID string `json:"id" validate:"required"`
}
