package corral

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// expiresAtNaive is the fallback expiry format, interpreted as UTC. Better
// Auth writes RFC 3339 by default but some drivers store naive timestamps.
const expiresAtNaive = "2006-01-02 15:04:05"

// Validator resolves session tokens to users against the shared Better Auth
// database. It is safe for concurrent use: every validation opens its own
// store connection and the only shared mutable state is the managed auth
// server handle, which keeps its own lock.
//
// Callers are contractually required to invoke Close when done with the
// validator; that is what guarantees the managed subprocess is terminated.
type Validator struct {
	store             *SessionStore
	config            Config
	configSet         bool
	logger            Logger
	authServer        *authServer
	authServerEnabled bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithAuthServer enables auto-spawning the Node auth server subprocess.
func WithAuthServer(enabled bool) Option {
	return func(v *Validator) {
		v.authServerEnabled = enabled
	}
}

// WithLogger overrides the default stdout logger.
func WithLogger(l Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithConfig bypasses environment loading and uses the given configuration.
func WithConfig(cfg Config) Option {
	return func(v *Validator) {
		v.config = cfg
		v.configSet = true
	}
}

// New creates a validator for the given SQLite database path. It fails only
// on invalid configuration: the store is opened lazily per validation, and
// every auth server supervision failure degrades to validation-only mode.
func New(dbPath string, opts ...Option) (*Validator, error) {
	v := &Validator{
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	if !v.configSet {
		cfg, err := LoadConfig(context.Background())
		if err != nil {
			return nil, err
		}
		v.config = cfg
	}

	if err := v.config.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid corral configuration")
	}

	v.store = NewSessionStore(dbPath)
	v.authServer = newAuthServer(dbPath, v.config, v.logger)

	if v.authServerEnabled {
		v.authServer.Start()
	}

	return v, nil
}

// Store exposes the underlying read-only session store.
func (v *Validator) Store() *SessionStore {
	return v.store
}

// AuthServerStatus reports the managed auth server's lifecycle state.
func (v *Validator) AuthServerStatus() AuthServerStatus {
	return v.authServer.Status()
}

// ValidateSession looks up a session token, checks expiry, and hydrates the
// owning user. Unknown, expired, and orphaned tokens all return (nil, nil);
// an error means the store itself failed and says nothing about the token.
func (v *Validator) ValidateSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := v.store.FindSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	expiresAt, ok := parseExpiry(session.ExpiresAt)
	if !ok {
		// Fail closed: an expiry we cannot read must never validate.
		v.logger.Debug("session has unparsable expiry %q, treating as expired", session.ExpiresAt)
		return nil, nil
	}
	if !expiresAt.After(time.Now().UTC()) {
		return nil, nil
	}

	user, err := v.store.FindUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		v.logger.Debug("session %s points at missing user %s", session.Token, session.UserID)
		return nil, nil
	}

	return user, nil
}

// Close stops the managed auth server if one is running. It is idempotent
// and always safe to defer, with or without WithAuthServer.
func (v *Validator) Close() error {
	return v.authServer.Stop()
}

// parseExpiry accepts the two textual formats Better Auth drivers produce:
// RFC 3339 with zone, or a naive timestamp taken as UTC.
func parseExpiry(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(expiresAtNaive, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
