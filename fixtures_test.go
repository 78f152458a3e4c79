package corral_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newAuthDB creates a throwaway Better Auth database with the session and
// user tables and returns its path plus a writer handle for fixtures.
func newAuthDB(t *testing.T) (string, *sql.DB) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "auth.db")
	db, err := sql.Open(sqliteshim.ShimName, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE "session" (
		"token" TEXT PRIMARY KEY,
		"userId" TEXT NOT NULL,
		"expiresAt" TEXT NOT NULL
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE "user" (
		"id" TEXT PRIMARY KEY,
		"email" TEXT NOT NULL,
		"name" TEXT,
		"plan" TEXT,
		"role" TEXT,
		"emailVerified" INTEGER,
		"createdAt" TEXT
	)`)
	require.NoError(t, err)

	return path, db
}

func seedSession(t *testing.T, db *sql.DB, token, userID, expiresAt string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO "session" ("token", "userId", "expiresAt") VALUES (?, ?, ?)`,
		token, userID, expiresAt,
	)
	require.NoError(t, err)
}

// seedUser inserts a user row; nil optional values land as NULL columns.
func seedUser(t *testing.T, db *sql.DB, id, email string, name, plan, role any, verified any, createdAt any) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO "user" ("id", "email", "name", "plan", "role", "emailVerified", "createdAt")
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, email, name, plan, role, verified, createdAt,
	)
	require.NoError(t, err)
}
