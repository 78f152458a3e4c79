// Package corralware provides Fiber middleware that validates Better Auth
// session tokens through a corral.Validator. Hosts on go-router should use
// corral.Protected instead.
package corralware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-corral"
)

// Config configures the middleware.
type Config struct {
	// Validator resolves tokens to users. Required.
	Validator *corral.Validator

	// ContextKey is where the hydrated *corral.User lands in Locals.
	// Default "user".
	ContextKey string

	// MinimumPlan gates the route behind a plan tier when set.
	MinimumPlan corral.Plan

	// Filter skips the middleware for matching requests.
	Filter func(*fiber.Ctx) bool

	// ErrorHandler maps failures to responses. Receives
	// corral.ErrTokenMissing, corral.ErrSessionInvalid,
	// corral.ErrPlanRequired, or a store error.
	ErrorHandler fiber.ErrorHandler
}

// New returns the session-validation middleware. Responses for missing and
// invalid tokens are identical 401s on purpose.
func New(config ...Config) fiber.Handler {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Validator == nil {
		panic("CORRAL: middleware configuration: Validator is required.")
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		token, ok := tokenFromCtx(c)
		if !ok {
			return cfg.ErrorHandler(c, corral.ErrTokenMissing)
		}

		user, err := cfg.Validator.ValidateSession(c.UserContext(), token)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}
		if user == nil {
			return cfg.ErrorHandler(c, corral.ErrSessionInvalid)
		}

		if cfg.MinimumPlan != "" && !corral.RequirePlan(user, cfg.MinimumPlan) {
			return cfg.ErrorHandler(c, corral.ErrPlanRequired)
		}

		c.Locals(cfg.ContextKey, user)
		c.SetUserContext(corral.WithContext(c.UserContext(), user))

		return c.Next()
	}
}

// UserFromCtx extracts the user stored by the middleware.
func UserFromCtx(c *fiber.Ctx, key ...string) (*corral.User, bool) {
	k := "user"
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	user, ok := c.Locals(k).(*corral.User)
	return user, ok
}

func tokenFromCtx(c *fiber.Ctx) (string, bool) {
	if token := c.Cookies(corral.CookieName); token != "" {
		return token, true
	}
	return corral.ExtractToken([]corral.HeaderPair{
		{Name: fiber.HeaderCookie, Value: c.Get(fiber.HeaderCookie)},
		{Name: fiber.HeaderAuthorization, Value: c.Get(fiber.HeaderAuthorization)},
	})
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	switch err {
	case corral.ErrTokenMissing, corral.ErrSessionInvalid:
		return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
	case corral.ErrPlanRequired:
		return c.Status(fiber.StatusForbidden).SendString("Plan upgrade required")
	default:
		return c.Status(fiber.StatusInternalServerError).SendString("Internal error")
	}
}
