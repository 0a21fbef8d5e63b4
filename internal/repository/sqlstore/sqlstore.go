// Package sqlstore implements the repository interfaces on database/sql.
//
// Two backends are supported, chosen by the DATABASE_URL scheme:
//
//	postgres://... or postgresql://...  → PostgreSQL via github.com/lib/pq
//	sqlite://path, file:path, :memory:  → SQLite via modernc.org/sqlite (pure Go, no CGo)
//
// All queries are written once with "?" placeholders. For Postgres they are
// rebound to "$1, $2, ..." right before execution (see rebind).
//
// The three record kinds each get their own store type (UserStore,
// LoggableEventStore, EventLabelStore) hanging off a shared *DB, because
// the repository interfaces reuse method names like Create and GetByID.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// DB wraps a sql.DB connection pool shared by all stores.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open connects to the database named by rawURL and runs migrations.
func Open(rawURL string) (*DB, error) {
	driver, dsn, d, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", d, err)
	}

	db := &DB{conn: conn, dialect: d}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a SQLite database at path (":memory:" for tests).
func OpenSQLite(path string) (*DB, error) {
	return Open("sqlite://" + path)
}

func parseURL(rawURL string) (driver, dsn string, d dialect, err error) {
	switch {
	case rawURL == "":
		return "", "", 0, errors.New("sqlstore: empty database URL")
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		if _, err := url.Parse(rawURL); err != nil {
			return "", "", 0, fmt.Errorf("sqlstore: invalid postgres URL: %w", err)
		}
		return "postgres", rawURL, dialectPostgres, nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		return "sqlite", strings.TrimPrefix(rawURL, "sqlite://"), dialectSQLite, nil
	case strings.HasPrefix(rawURL, "file:"), rawURL == ":memory:":
		return "sqlite", rawURL, dialectSQLite, nil
	default:
		return "", "", 0, fmt.Errorf("sqlstore: unsupported database URL scheme in %q", redact(rawURL))
	}
}

// redact strips credentials so a bad DATABASE_URL can be logged.
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	u.User = url.User(u.User.Username())
	return u.String()
}

func (db *DB) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if db.dialect == dialectSQLite {
		// SQLite allows one writer at a time, and ":memory:" databases are
		// per-connection, so the pool is pinned to a single connection.
		// PRAGMAs are per-connection too, which this also takes care of.
		db.conn.SetMaxOpenConns(1)
	} else {
		db.conn.SetMaxOpenConns(10)
		db.conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlstore: pinging %s database: %w", db.dialect, err)
	}

	if db.dialect == dialectSQLite {
		if _, err := db.conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("sqlstore: setting WAL mode: %w", err)
		}
		// Foreign keys are OFF by default in SQLite; the cascade deletes on
		// the join tables depend on them.
		if _, err := db.conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("sqlstore: enabling foreign keys: %w", err)
		}
	}

	if err := db.migrate(ctx); err != nil {
		return fmt.Errorf("sqlstore: running migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the /healthz endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Users() *UserStore {
	return &UserStore{db: db}
}

func (db *DB) Events() *LoggableEventStore {
	return &LoggableEventStore{db: db}
}

func (db *DB) Labels() *EventLabelStore {
	return &EventLabelStore{db: db}
}

func (db *DB) runner() runner {
	return runner{q: db.conn, dialect: db.dialect}
}

func (db *DB) txRunner(tx *sql.Tx) runner {
	return runner{q: tx, dialect: db.dialect}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// runner rebinds placeholders for the active dialect before delegating.
type runner struct {
	q       querier
	dialect dialect
}

func (r runner) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, rebind(r.dialect, query), args...)
}

func (r runner) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, rebind(r.dialect, query), args...)
}

func (r runner) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, rebind(r.dialect, query), args...)
}

// rebind turns "?" placeholders into "$n" for Postgres. Queries in this
// package never contain a literal "?" inside a string.
func rebind(d dialect, query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// placeholders returns "?, ?, ?" with n entries, for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(r runner) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	if err := fn(db.txRunner(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: committing transaction: %w", err)
	}
	return nil
}

// now returns the current time in UTC, truncated to microseconds so values
// round-trip identically through both SQLite and Postgres.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
