// Package corral validates Better Auth session tokens by reading the shared
// auth database directly, and exposes the resulting user plus a plan-tier
// authorization check to a hosting HTTP framework.
//
// Validation is read-only: sessions and users are created and mutated by the
// Better Auth Node server, never by this package. Every ValidateSession call
// opens a fresh connection to the database and releases it before returning,
// so there is no pooling and no stale-session state to invalidate.
//
// Auth server supervision:
//   - Pass WithAuthServer(true) to New to have the validator spawn
//     `node server/auth.js` as a managed subprocess so login/signup/token
//     endpoints are available next to your app. Validation works with the
//     subprocess entirely absent; every supervision failure degrades to
//     validation-only mode and is logged, never returned.
//   - Configure the subprocess port with CORRAL_AUTH_PORT (default 3456) and
//     the script location with CORRAL_AUTH_SERVER. The subprocess is stopped
//     (SIGTERM, then SIGKILL after 3s) when Close is called.
//
// Basic usage:
//
//	v, err := corral.New("/data/auth.db", corral.WithAuthServer(true))
//	if err != nil { ... }
//	defer v.Close()
//
//	user, err := v.ValidateSession(ctx, token)
//	if err != nil { /* store unreachable */ }
//	if user == nil { /* unknown, expired, or orphaned token */ }
//	if !corral.RequirePlan(user, corral.PlanPro) { /* upgrade required */ }
//
// HTTP hosts use the go-router middleware in this package or the Fiber
// middleware in middleware/corralware.
package corral
