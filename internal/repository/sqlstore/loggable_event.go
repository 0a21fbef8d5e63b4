package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
)

var _ repository.LoggableEventRepository = (*LoggableEventStore)(nil)

type LoggableEventStore struct {
	db *DB
}

const eventColumns = `e.id, e.user_id, e.name, e.warning_threshold_in_days, e.created_at, e.updated_at`

// Create inserts event and connects it to labelIDs. The event and its join
// rows are written in one transaction; a dangling label id fails the whole
// insert through the foreign key.
func (s *LoggableEventStore) Create(ctx context.Context, event *model.LoggableEvent, labelIDs []string) error {
	event.ID = xid.New().String()
	event.CreatedAt = now()
	event.UpdatedAt = event.CreatedAt
	event.Timestamps = []time.Time{}

	return s.db.withTx(ctx, func(r runner) error {
		_, err := r.exec(ctx,
			`INSERT INTO loggable_events (id, user_id, name, warning_threshold_in_days, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.UserID,
			event.Name,
			event.WarningThresholdInDays,
			event.CreatedAt,
			event.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: creating loggable event: %w", err)
		}
		return connectLabels(ctx, r, event.ID, labelIDs)
	})
}

func (s *LoggableEventStore) GetByID(ctx context.Context, id string) (*model.LoggableEvent, error) {
	return getEvent(ctx, s.db.runner(), id)
}

// ListByUser returns the user's events, oldest first.
func (s *LoggableEventStore) ListByUser(ctx context.Context, userID string) ([]model.LoggableEvent, error) {
	return listEvents(ctx, s.db.runner(),
		`SELECT `+eventColumns+` FROM loggable_events e
		 WHERE e.user_id = ?
		 ORDER BY e.created_at, e.id`,
		userID,
	)
}

// ListByLabel returns the events tagged with labelID.
func (s *LoggableEventStore) ListByLabel(ctx context.Context, labelID string) ([]model.LoggableEvent, error) {
	return listEvents(ctx, s.db.runner(),
		`SELECT `+eventColumns+` FROM loggable_events e
		 JOIN loggable_event_labels l ON l.event_id = e.id
		 WHERE l.label_id = ?
		 ORDER BY e.created_at, e.id`,
		labelID,
	)
}

// Update applies the non-nil fields of upd and returns the stored event.
func (s *LoggableEventStore) Update(ctx context.Context, id string, upd repository.LoggableEventUpdate) (*model.LoggableEvent, error) {
	var updated *model.LoggableEvent

	err := s.db.withTx(ctx, func(r runner) error {
		sets := []string{"updated_at = ?"}
		args := []any{now()}
		if upd.Name != nil {
			sets = append(sets, "name = ?")
			args = append(args, *upd.Name)
		}
		if upd.WarningThresholdInDays != nil {
			sets = append(sets, "warning_threshold_in_days = ?")
			args = append(args, *upd.WarningThresholdInDays)
		}
		args = append(args, id)

		result, err := r.exec(ctx,
			`UPDATE loggable_events SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("sqlstore: updating loggable event %s: %w", id, err)
		}
		if err := requireRow(result, "loggable event", id); err != nil {
			return err
		}

		if upd.LabelIDs != nil {
			if _, err := r.exec(ctx, `DELETE FROM loggable_event_labels WHERE event_id = ?`, id); err != nil {
				return fmt.Errorf("sqlstore: clearing labels of loggable event %s: %w", id, err)
			}
			if err := connectLabels(ctx, r, id, *upd.LabelIDs); err != nil {
				return err
			}
		}

		updated, err = getEvent(ctx, r, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the event. Join rows and timestamp records go with it
// (ON DELETE CASCADE).
func (s *LoggableEventStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.runner().exec(ctx, `DELETE FROM loggable_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting loggable event %s: %w", id, err)
	}
	return requireRow(result, "loggable event", id)
}

// AddTimestamp records one more occurrence of the event.
func (s *LoggableEventStore) AddTimestamp(ctx context.Context, id string, at time.Time) (*model.LoggableEvent, error) {
	var updated *model.LoggableEvent

	err := s.db.withTx(ctx, func(r runner) error {
		result, err := r.exec(ctx,
			`UPDATE loggable_events SET updated_at = ? WHERE id = ?`, now(), id)
		if err != nil {
			return fmt.Errorf("sqlstore: touching loggable event %s: %w", id, err)
		}
		if err := requireRow(result, "loggable event", id); err != nil {
			return err
		}

		_, err = r.exec(ctx,
			`INSERT INTO loggable_event_timestamps (event_id, recorded_at) VALUES (?, ?)`,
			id, at.UTC().Truncate(time.Microsecond))
		if err != nil {
			return fmt.Errorf("sqlstore: recording timestamp for loggable event %s: %w", id, err)
		}

		updated, err = getEvent(ctx, r, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func connectLabels(ctx context.Context, r runner, eventID string, labelIDs []string) error {
	seen := make(map[string]bool, len(labelIDs))
	for _, labelID := range labelIDs {
		if seen[labelID] {
			continue
		}
		seen[labelID] = true
		_, err := r.exec(ctx,
			`INSERT INTO loggable_event_labels (event_id, label_id) VALUES (?, ?)`,
			eventID, labelID)
		if err != nil {
			return fmt.Errorf("sqlstore: connecting label %s to loggable event %s: %w", labelID, eventID, err)
		}
	}
	return nil
}

func getEvent(ctx context.Context, r runner, id string) (*model.LoggableEvent, error) {
	var e model.LoggableEvent
	err := scanEvent(r.queryRow(ctx,
		`SELECT `+eventColumns+` FROM loggable_events e WHERE e.id = ?`, id), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("loggable event", id)
		}
		return nil, fmt.Errorf("sqlstore: getting loggable event %s: %w", id, err)
	}

	byEvent, err := loadTimestamps(ctx, r, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.Timestamps = byEvent[e.ID]
	if e.Timestamps == nil {
		e.Timestamps = []time.Time{}
	}
	return &e, nil
}

func listEvents(ctx context.Context, r runner, query string, args ...any) ([]model.LoggableEvent, error) {
	events, err := func() ([]model.LoggableEvent, error) {
		rows, err := r.query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: listing loggable events: %w", err)
		}
		defer rows.Close()

		events := []model.LoggableEvent{}
		for rows.Next() {
			var e model.LoggableEvent
			if err := scanEvent(rows, &e); err != nil {
				return nil, fmt.Errorf("sqlstore: scanning loggable event row: %w", err)
			}
			events = append(events, e)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("sqlstore: iterating loggable events: %w", err)
		}
		return events, nil
	}()
	if err != nil || len(events) == 0 {
		return events, err
	}

	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	byEvent, err := loadTimestamps(ctx, r, ids)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Timestamps = byEvent[events[i].ID]
		if events[i].Timestamps == nil {
			events[i].Timestamps = []time.Time{}
		}
	}
	return events, nil
}

// loadTimestamps fetches the timestamp records of several events in one
// query, oldest first per event.
func loadTimestamps(ctx context.Context, r runner, eventIDs []string) (map[string][]time.Time, error) {
	rows, err := r.query(ctx,
		`SELECT event_id, recorded_at FROM loggable_event_timestamps
		 WHERE event_id IN (`+placeholders(len(eventIDs))+`)
		 ORDER BY recorded_at`,
		stringArgs(eventIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: loading timestamps: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]time.Time, len(eventIDs))
	for rows.Next() {
		var (
			eventID string
			at      time.Time
		)
		if err := rows.Scan(&eventID, &at); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning timestamp row: %w", err)
		}
		out[eventID] = append(out[eventID], at.UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating timestamps: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner, e *model.LoggableEvent) error {
	return row.Scan(
		&e.ID,
		&e.UserID,
		&e.Name,
		&e.WarningThresholdInDays,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

func requireRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlstore: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
