package sqlstore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"
	"github.com/rs/xid"

	"github.com/sakif/event-logger/internal/model"
)

// newPostgresDB opens the Postgres database named by DATABASE_URL, e.g.
//
//	DATABASE_URL=postgres://localhost/event_logger_test?sslmode=disable go test ./...
//
// Tests are skipped when it is unset or points elsewhere. The database is
// shared, so each test works under its own users and removes them when done.
func newPostgresDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://") {
		t.Skip("DATABASE_URL is not a postgres URL; skipping postgres store tests")
	}

	db, err := Open(url)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	if db.dialect != dialectPostgres {
		t.Fatalf("dialect = %s, want postgres", db.dialect)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createPostgresUser upserts a user with a unique google id and deletes
// everything it owns at cleanup.
func createPostgresUser(t *testing.T, db *DB, name string) *model.User {
	t.Helper()
	u := createTestUser(t, db, "pg-"+xid.New().String(), name)

	t.Cleanup(func() {
		ctx := context.Background()
		r := db.runner()
		for _, q := range []string{
			`DELETE FROM loggable_events WHERE user_id = ?`,
			`DELETE FROM event_labels WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		} {
			if _, err := r.exec(ctx, q, u.ID); err != nil {
				t.Errorf("cleanup %q: %v", q, err)
			}
		}
	})
	return u
}

func TestPostgres_MigrateIdempotent(t *testing.T) {
	db := newPostgresDB(t)

	if err := db.migrate(context.Background()); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestPostgres_UserUpsert(t *testing.T) {
	db := newPostgresDB(t)
	first := createPostgresUser(t, db, "Old Name")

	again := &model.User{GoogleID: first.GoogleID, Email: "changed@example.com", Name: "New Name"}
	if err := db.Users().Upsert(context.Background(), again); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if again.ID != first.ID {
		t.Errorf("ID = %q, want %q", again.ID, first.ID)
	}
	if again.Name != "New Name" {
		t.Errorf("Name = %q, want New Name", again.Name)
	}
	if again.Email != first.Email {
		t.Errorf("Email = %q, want unchanged %q", again.Email, first.Email)
	}

	got, err := db.Users().GetUserByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if diff := deep.Equal(got, again); diff != nil {
		t.Error(diff)
	}
}

func TestPostgres_EventLifecycle(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	user := createPostgresUser(t, db, "Ann")

	car := createTestLabel(t, db, user.ID, "Car")
	home := createTestLabel(t, db, user.ID, "Home")
	event := createTestEvent(t, db, user.ID, "Oil change", car.ID, home.ID)

	got, err := db.Events().GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if diff := deep.Equal(got, event); diff != nil {
		t.Error(diff)
	}

	labels, err := db.Labels().ListByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(labels) != 2 {
		t.Errorf("labels = %d, want 2", len(labels))
	}

	byLabel, err := db.Events().ListByLabel(ctx, car.ID)
	if err != nil {
		t.Fatalf("ListByLabel() error = %v", err)
	}
	if len(byLabel) != 1 || byLabel[0].ID != event.ID {
		t.Errorf("ListByLabel() = %+v", byLabel)
	}

	at := time.Date(2024, 3, 1, 9, 30, 0, 123000, time.FixedZone("CET", 3600))
	stamped, err := db.Events().AddTimestamp(ctx, event.ID, at)
	if err != nil {
		t.Fatalf("AddTimestamp() error = %v", err)
	}
	if len(stamped.Timestamps) != 1 || !stamped.Timestamps[0].Equal(at) {
		t.Errorf("Timestamps = %v, want [%v]", stamped.Timestamps, at)
	}
	if loc := stamped.Timestamps[0].Location(); loc != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", loc)
	}

	if err := db.Events().Delete(ctx, event.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if labels, _ := db.Labels().ListByUser(ctx, user.ID); len(labels) != 2 {
		t.Errorf("labels after event delete = %d, want 2", len(labels))
	}
	if byLabel, _ := db.Events().ListByLabel(ctx, car.ID); len(byLabel) != 0 {
		t.Errorf("join rows survived the delete: %+v", byLabel)
	}
}
