package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is shared by both dialects; {{TIME}} becomes DATETIME on SQLite
// and TIMESTAMPTZ on Postgres.
//
// loggable_event_labels is the many-to-many join table. Deleting an event or
// a label removes its join rows; deleting an event also removes its
// timestamp records. Users are never deleted.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		google_id  TEXT NOT NULL UNIQUE,
		email      TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at {{TIME}} NOT NULL,
		updated_at {{TIME}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loggable_events (
		id                        TEXT PRIMARY KEY,
		user_id                   TEXT NOT NULL REFERENCES users(id),
		name                      TEXT NOT NULL,
		warning_threshold_in_days INTEGER NOT NULL DEFAULT 0,
		created_at                {{TIME}} NOT NULL,
		updated_at                {{TIME}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loggable_events_user_id ON loggable_events(user_id)`,
	`CREATE TABLE IF NOT EXISTS event_labels (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		name       TEXT NOT NULL,
		created_at {{TIME}} NOT NULL,
		updated_at {{TIME}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_labels_user_id ON event_labels(user_id)`,
	`CREATE TABLE IF NOT EXISTS loggable_event_labels (
		event_id TEXT NOT NULL REFERENCES loggable_events(id) ON DELETE CASCADE,
		label_id TEXT NOT NULL REFERENCES event_labels(id) ON DELETE CASCADE,
		PRIMARY KEY (event_id, label_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loggable_event_labels_label_id ON loggable_event_labels(label_id)`,
	`CREATE TABLE IF NOT EXISTS loggable_event_timestamps (
		event_id    TEXT NOT NULL REFERENCES loggable_events(id) ON DELETE CASCADE,
		recorded_at {{TIME}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_loggable_event_timestamps_event_id ON loggable_event_timestamps(event_id)`,
}

// migrate creates all tables. Every statement is idempotent, so this runs
// on every start.
func (db *DB) migrate(ctx context.Context) error {
	timeType := "DATETIME"
	if db.dialect == dialectPostgres {
		timeType = "TIMESTAMPTZ"
	}

	for i, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{TIME}}", timeType)
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i, err)
		}
	}
	return nil
}
