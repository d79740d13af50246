package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DefaultPostgresTable holds one row per session.
const DefaultPostgresTable = "jwt_sessions"

// PostgresStore keeps sessions as rows with an optional expiry column.
type PostgresStore struct {
	db    *sql.DB
	table string
	ttl   time.Duration
	now   func() time.Time
	owned bool

	insertSQL string
	existsSQL string
	deleteSQL string
}

// NewPostgres wraps an open database handle. The caller keeps ownership of db.
func NewPostgres(db *sql.DB, table string, ttl time.Duration) *PostgresStore {
	if table == "" {
		table = DefaultPostgresTable
	}
	if ttl < 0 {
		ttl = 0
	}
	quoted := pq.QuoteIdentifier(table)
	return &PostgresStore{
		db:    db,
		table: table,
		ttl:   ttl,
		now:   time.Now,

		insertSQL: "INSERT INTO " + quoted + " (id, created_at, expires_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
		existsSQL: "SELECT EXISTS(SELECT 1 FROM " + quoted + " WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2))",
		deleteSQL: "DELETE FROM " + quoted + " WHERE id = $1",
	}
}

// EnsureSchema creates the session table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmt := "CREATE TABLE IF NOT EXISTS " + pq.QuoteIdentifier(s.table) + ` (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NULL
)`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return unavailable("postgres schema", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	sess := newSession(id, s.now(), s.ttl)
	var expires sql.NullTime
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		expires = sql.NullTime{Time: exp, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, s.insertSQL, sess.ID, sess.CreatedAt, expires); err != nil {
		return unavailable("postgres create", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, s.existsSQL, id, s.now().UTC()).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, unavailable("postgres exists", err)
	}
	return exists, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, id); err != nil {
		return unavailable("postgres revoke", err)
	}
	return nil
}

// Close releases the handle when the store opened it through the registry.
func (s *PostgresStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
