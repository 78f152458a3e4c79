package corral

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// SessionStore reads the session and user tables of the shared Better Auth
// database. Each lookup opens its own connection and closes it before
// returning; validation trades round trips for freedom from stale state.
//
// A row that does not exist is an empty result, never an error. Errors are
// reserved for infrastructure failures (unreachable file, broken schema) and
// carry the internal category; see IsStoreError.
type SessionStore struct {
	dbPath string
}

// NewSessionStore creates a read-only store over the given SQLite database.
func NewSessionStore(dbPath string) *SessionStore {
	return &SessionStore{dbPath: dbPath}
}

func (s *SessionStore) open() (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, s.dbPath)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open auth database").
			WithMetadata(map[string]any{"db_path": s.dbPath})
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// FindSession resolves a token to its session row by exact match. The token
// column is the table's unique key, so at most one row can match.
func (s *SessionStore) FindSession(ctx context.Context, token string) (*Session, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	record := &Session{}
	err = db.NewSelect().
		Model(record).
		Where(`?TableAlias."token" = ?`, token).
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "session lookup failed")
	}

	return record, nil
}

// FindUser hydrates the user owning a session. Null optional columns degrade
// to the documented defaults (free plan, user role, unverified) instead of
// failing the lookup.
func (s *SessionStore) FindUser(ctx context.Context, userID string) (*User, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	record := &userRow{}
	err = db.NewSelect().
		Model(record).
		Where(`?TableAlias."id" = ?`, userID).
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed").
			WithMetadata(map[string]any{"user_id": userID})
	}

	return record.hydrate(), nil
}
