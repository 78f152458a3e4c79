package corral

import (
	"fmt"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// MiddlewareConfig configures the go-router session middleware.
type MiddlewareConfig struct {
	// ContextKey is where the hydrated *User lands in Locals. Default "user".
	ContextKey string

	// MinimumPlan gates the route behind a plan tier when set. The check runs
	// after validation with RequirePlan semantics: unknown names rank 0.
	MinimumPlan Plan

	// Filter skips the middleware for matching requests.
	Filter func(router.Context) bool

	// ErrorHandler maps failures to responses. Receives ErrTokenMissing,
	// ErrSessionInvalid, ErrPlanRequired, or a store error.
	ErrorHandler func(router.Context, error) error

	// Debug dumps the hydrated user to stdout on every request.
	Debug bool
}

// Protected returns middleware that validates the session token and stores
// the hydrated user in Locals and in the request context. Missing and invalid
// tokens become 401, a plan gate miss 403, and a store failure 500; the
// response never distinguishes unknown from expired from orphaned tokens.
func Protected(v *Validator, config ...MiddlewareConfig) router.MiddlewareFunc {
	cfg := MiddlewareConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			token, ok := tokenFromRouterContext(ctx)
			if !ok {
				return cfg.ErrorHandler(ctx, ErrTokenMissing)
			}

			user, err := v.ValidateSession(ctx.Context(), token)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}
			if user == nil {
				return cfg.ErrorHandler(ctx, ErrSessionInvalid)
			}

			if cfg.MinimumPlan != "" && !RequirePlan(user, cfg.MinimumPlan) {
				return cfg.ErrorHandler(ctx, ErrPlanRequired)
			}

			if cfg.Debug {
				fmt.Println(print.MaybePrettyJSON(user))
			}

			ctx.Locals(cfg.ContextKey, user)
			ctx.SetContext(WithContext(ctx.Context(), user))

			return ctx.Next()
		}
	}
}

// tokenFromRouterContext rebuilds the ordered header view ExtractToken wants
// from the framework's accessors. The framework cookie jar is checked first
// so the cookie-over-bearer priority holds even when the raw Cookie header is
// not exposed.
func tokenFromRouterContext(ctx router.Context) (string, bool) {
	if token := ctx.Cookies(CookieName); token != "" {
		return token, true
	}
	return ExtractToken([]HeaderPair{
		{Name: "Cookie", Value: ctx.GetString("Cookie", "")},
		{Name: "Authorization", Value: ctx.GetString(router.HeaderAuthorization, "")},
	})
}

func defaultErrorHandler(ctx router.Context, err error) error {
	switch err {
	case ErrTokenMissing, ErrSessionInvalid:
		return ctx.Status(router.StatusUnauthorized).SendString("Unauthorized")
	case ErrPlanRequired:
		return ctx.Status(router.StatusForbidden).SendString("Plan upgrade required")
	default:
		return ctx.Status(router.StatusInternalServerError).SendString("Internal error")
	}
}
