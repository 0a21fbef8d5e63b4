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

var _ repository.UserRepository = (*UserStore)(nil)

type UserStore struct {
	db *DB
}

const userColumns = `id, google_id, email, name, created_at, updated_at`

// Upsert creates the user on first sight of a Google identity, or refreshes
// the display name of the existing row.
//
// ON CONFLICT makes this a single atomic statement on both SQLite and
// Postgres, so two concurrent first requests for the same identity still
// produce exactly one row. Email is deliberately absent from the UPDATE
// clause. The stored row is read back into user afterwards.
func (s *UserStore) Upsert(ctx context.Context, user *model.User) error {
	if user.GoogleID == "" {
		return fmt.Errorf("sqlstore: upserting user: empty google id")
	}

	r := s.db.runner()
	ts := now()

	_, err := r.exec(ctx,
		`INSERT INTO users (id, google_id, email, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (google_id) DO UPDATE
		 SET name = excluded.name, updated_at = excluded.updated_at`,
		xid.New().String(),
		user.GoogleID,
		user.Email,
		user.Name,
		ts,
		ts,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: upserting user (googleID=%s): %w", user.GoogleID, err)
	}

	stored, err := scanUser(r.queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = ?`, user.GoogleID))
	if err != nil {
		return fmt.Errorf("sqlstore: reading back user (googleID=%s): %w", user.GoogleID, err)
	}

	*user = *stored
	return nil
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.runner().queryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlstore: getting user %s: %w", id, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.GoogleID,
		&u.Email,
		&u.Name,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
