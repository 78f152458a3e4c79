package corral

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/sethvargo/go-envconfig"
)

// DefaultAuthPort is the port the auth server listens on when
// CORRAL_AUTH_PORT is unset.
const DefaultAuthPort = 3456

// Config holds the supervision knobs for the managed auth server. Validation
// itself needs nothing beyond the database path passed to New.
type Config struct {
	// AuthServerPath overrides auth server script discovery. When set it must
	// name an existing file; the ancestor-directory walk is skipped.
	AuthServerPath string `env:"CORRAL_AUTH_SERVER"`

	// AuthPort is the port handed to the auth server via AUTH_PORT and polled
	// for readiness.
	AuthPort int `env:"CORRAL_AUTH_PORT, default=3456"`
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to load corral configuration")
	}
	return cfg, nil
}

// Validate will validate the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.AuthPort, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}
