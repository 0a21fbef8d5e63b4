package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/event-logger/internal/apperror"
	"github.com/sakif/event-logger/internal/model"
	"github.com/sakif/event-logger/internal/repository"
)

var _ repository.EventLabelRepository = (*EventLabelStore)(nil)

type EventLabelStore struct {
	db *DB
}

const labelColumns = `l.id, l.user_id, l.name, l.created_at, l.updated_at`

func (s *EventLabelStore) Create(ctx context.Context, label *model.EventLabel) error {
	label.ID = xid.New().String()
	label.CreatedAt = now()
	label.UpdatedAt = label.CreatedAt

	_, err := s.db.runner().exec(ctx,
		`INSERT INTO event_labels (id, user_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		label.ID,
		label.UserID,
		label.Name,
		label.CreatedAt,
		label.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: creating event label: %w", err)
	}
	return nil
}

func (s *EventLabelStore) GetByID(ctx context.Context, id string) (*model.EventLabel, error) {
	return getLabel(ctx, s.db.runner(), id)
}

func (s *EventLabelStore) GetManyByID(ctx context.Context, ids []string) ([]model.EventLabel, error) {
	if len(ids) == 0 {
		return []model.EventLabel{}, nil
	}
	return listLabels(ctx, s.db.runner(),
		`SELECT `+labelColumns+` FROM event_labels l
		 WHERE l.id IN (`+placeholders(len(ids))+`)`,
		stringArgs(ids)...,
	)
}

func (s *EventLabelStore) ListByUser(ctx context.Context, userID string) ([]model.EventLabel, error) {
	return listLabels(ctx, s.db.runner(),
		`SELECT `+labelColumns+` FROM event_labels l
		 WHERE l.user_id = ?
		 ORDER BY l.created_at, l.id`,
		userID,
	)
}

// ListByEvent walks the join table: the labels attached to eventID.
func (s *EventLabelStore) ListByEvent(ctx context.Context, eventID string) ([]model.EventLabel, error) {
	return listLabels(ctx, s.db.runner(),
		`SELECT `+labelColumns+` FROM event_labels l
		 JOIN loggable_event_labels j ON j.label_id = l.id
		 WHERE j.event_id = ?
		 ORDER BY l.created_at, l.id`,
		eventID,
	)
}

func (s *EventLabelStore) Update(ctx context.Context, id string, name string) (*model.EventLabel, error) {
	r := s.db.runner()
	result, err := r.exec(ctx,
		`UPDATE event_labels SET name = ?, updated_at = ? WHERE id = ?`,
		name, now(), id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: updating event label %s: %w", id, err)
	}
	if err := requireRow(result, "event label", id); err != nil {
		return nil, err
	}
	return getLabel(ctx, r, id)
}

// Delete removes the label; it is detached from every event it tagged.
func (s *EventLabelStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.runner().exec(ctx, `DELETE FROM event_labels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting event label %s: %w", id, err)
	}
	return requireRow(result, "event label", id)
}

func getLabel(ctx context.Context, r runner, id string) (*model.EventLabel, error) {
	var l model.EventLabel
	err := scanLabel(r.queryRow(ctx,
		`SELECT `+labelColumns+` FROM event_labels l WHERE l.id = ?`, id), &l)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event label", id)
		}
		return nil, fmt.Errorf("sqlstore: getting event label %s: %w", id, err)
	}
	return &l, nil
}

func listLabels(ctx context.Context, r runner, query string, args ...any) ([]model.EventLabel, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing event labels: %w", err)
	}
	defer rows.Close()

	labels := []model.EventLabel{}
	for rows.Next() {
		var l model.EventLabel
		if err := scanLabel(rows, &l); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning event label row: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating event labels: %w", err)
	}
	return labels, nil
}

func scanLabel(row scanner, l *model.EventLabel) error {
	return row.Scan(
		&l.ID,
		&l.UserID,
		&l.Name,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}
