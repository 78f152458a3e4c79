package corral

import (
	"database/sql"

	"github.com/uptrace/bun"
)

// UserRole is the user's role as stored by Better Auth
type UserRole = string

const (
	// RoleUser is the standard non-privileged role and the default for null columns
	RoleUser UserRole = "user"
	// RoleAdmin is the administrative role
	RoleAdmin UserRole = "admin"
)

// Session is a row in the Better Auth session table. Rows are written
// exclusively by the auth server; this package only reads them.
type Session struct {
	bun.BaseModel `bun:"table:session,alias:ses"`

	Token     string `bun:"token,pk" json:"token,omitempty"`
	UserID    string `bun:"userId,notnull" json:"user_id,omitempty"`
	ExpiresAt string `bun:"expiresAt,notnull" json:"expires_at,omitempty"`
}

// User is the authenticated user hydrated from the shared store. It is a
// transient snapshot taken at validation time, never cached or written back.
type User struct {
	ID            string   `json:"id,omitempty"`
	Email         string   `json:"email,omitempty"`
	Name          string   `json:"name,omitempty"`
	Plan          Plan     `json:"plan,omitempty"`
	Role          UserRole `json:"role,omitempty"`
	EmailVerified bool     `json:"email_verified,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// laxBool scans the emailVerified column under SQLite's flexible typing.
// The flag degrades to false on anything that is not a readable boolean; a
// malformed value must never fail the row.
type laxBool bool

func (b *laxBool) Scan(src any) error {
	switch v := src.(type) {
	case bool:
		*b = laxBool(v)
	case int64:
		*b = laxBool(v != 0)
	default:
		*b = false
	}
	return nil
}

// userRow scans the user table with its nullable columns intact so a null or
// unreadable optional field degrades to a default instead of failing the row.
type userRow struct {
	bun.BaseModel `bun:"table:user,alias:usr"`

	ID            string         `bun:"id,pk"`
	Email         string         `bun:"email,notnull"`
	Name          sql.NullString `bun:"name"`
	Plan          sql.NullString `bun:"plan"`
	Role          sql.NullString `bun:"role"`
	EmailVerified laxBool        `bun:"emailVerified"`
	CreatedAt     sql.NullString `bun:"createdAt"`
}

func (r *userRow) hydrate() *User {
	u := &User{
		ID:            r.ID,
		Email:         r.Email,
		Name:          r.Name.String,
		Plan:          Plan(r.Plan.String),
		Role:          r.Role.String,
		EmailVerified: bool(r.EmailVerified),
		CreatedAt:     r.CreatedAt.String,
	}
	if u.Plan == "" {
		u.Plan = PlanFree
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return u
}
