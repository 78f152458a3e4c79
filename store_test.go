package corral_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-corral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreFindSession(t *testing.T) {
	path, db := newAuthDB(t)
	seedSession(t, db, "tok_abc", "u1", "2999-01-01T00:00:00Z")

	store := corral.NewSessionStore(path)

	session, err := store.FindSession(context.Background(), "tok_abc")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "tok_abc", session.Token)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "2999-01-01T00:00:00Z", session.ExpiresAt)
}

func TestSessionStoreFindSessionNotFound(t *testing.T) {
	path, _ := newAuthDB(t)

	store := corral.NewSessionStore(path)

	session, err := store.FindSession(context.Background(), "tok_missing")
	assert.NoError(t, err)
	assert.Nil(t, session)
}

func TestSessionStoreFindUser(t *testing.T) {
	path, db := newAuthDB(t)
	seedUser(t, db, "u1", "u1@example.com", "Uma One", "enterprise", "user", 0, "2024-06-01T10:00:00Z")

	store := corral.NewSessionStore(path)

	user, err := store.FindUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, corral.PlanEnterprise, user.Plan)
	assert.False(t, user.EmailVerified)
}

func TestSessionStoreFindUserMalformedVerifiedFlag(t *testing.T) {
	// SQLite's flexible typing allows non-boolean values in emailVerified; the
	// flag degrades to false instead of failing the lookup.
	path, db := newAuthDB(t)
	seedUser(t, db, "u1", "u1@example.com", nil, "pro", nil, "yes", nil)

	store := corral.NewSessionStore(path)

	user, err := store.FindUser(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, corral.PlanPro, user.Plan)
}

func TestSessionStoreFindUserNotFound(t *testing.T) {
	path, _ := newAuthDB(t)

	store := corral.NewSessionStore(path)

	user, err := store.FindUser(context.Background(), "u_missing")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionStoreSchemaFailureIsStoreError(t *testing.T) {
	store := corral.NewSessionStore(t.TempDir() + "/no-schema.db")

	_, err := store.FindSession(context.Background(), "tok_abc")
	require.Error(t, err)
	assert.True(t, corral.IsStoreError(err))

	_, err = store.FindUser(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, corral.IsStoreError(err))
}

func TestIsStoreErrorRejectsNilAndForeignErrors(t *testing.T) {
	assert.False(t, corral.IsStoreError(nil))
	assert.False(t, corral.IsStoreError(corral.ErrSessionInvalid))
	assert.False(t, corral.IsStoreError(assert.AnError))
}
