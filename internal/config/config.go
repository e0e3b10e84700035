package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the application configuration, read once at startup and
// injected into constructors. Nothing else reads the environment.
type Config struct {
	ServerPort   int    `env:"PORT" env-default:"8080"`
	DatabasePath string `env:"DATABASE_PATH" env-default:"./apphub.db"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`

	JWTSecret       string        `env:"JWT_SECRET" env-required:"true"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" env-default:"1h"`
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL" env-default:"15m"`

	// Mailgun credentials. When the API key is empty, outbound mail is
	// written to the log instead (development mode).
	MailgunAPIKey string `env:"MAILGUN_API_KEY" env-default:""`
	MailgunDomain string `env:"MAILGUN_DOMAIN" env-default:"mg.example.com"`

	// ResetURLBase is the frontend page the password-reset link points at;
	// the reset token is appended as a query parameter.
	ResetURLBase string `env:"RESET_URL_BASE" env-default:"http://localhost:3000/reset-password.html"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000"`

	// Janitor settings. UnverifiedRetention of 0 disables deletion of
	// stale unverified accounts; expired codes are always pruned.
	JanitorSchedule     string        `env:"JANITOR_SCHEDULE" env-default:"@hourly"`
	UnverifiedRetention time.Duration `env:"UNVERIFIED_RETENTION" env-default:"720h"`
}

// Load reads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return &cfg, nil
}
