package corral

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrTokenMissing is returned by the HTTP middleware when the request
// carries no session token in either the cookie or the Authorization header.
var ErrTokenMissing = goerrors.New("no session token in request", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_MISSING")

// ErrSessionInvalid is returned by the HTTP middleware for unknown, expired,
// and orphaned tokens alike. The three cases are deliberately
// indistinguishable so the response carries no token-enumeration signal.
var ErrSessionInvalid = goerrors.New("invalid or expired session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("SESSION_INVALID")

// ErrPlanRequired is returned by the HTTP middleware when the session is
// valid but the user's plan ranks below the configured minimum.
var ErrPlanRequired = goerrors.New("plan tier does not meet the required minimum", goerrors.CategoryAuth).
	WithCode(goerrors.CodeForbidden).
	WithTextCode("PLAN_REQUIRED")

// IsStoreError reports whether err is an infrastructure failure from the
// shared auth database (unreachable file, broken schema). Not-found outcomes
// are never errors, so any error crossing ValidateSession matches this.
func IsStoreError(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryInternal
	}
	return false
}
