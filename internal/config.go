package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeHeader   = "header"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Uploads   UploadsConfig     `yaml:"uploads"`
	Auth      AuthConfig        `yaml:"auth"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Uploads.Validate(); err != nil {
		return err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UploadsConfig holds the path to the document uploads directory.
type UploadsConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the uploads configuration.
func (c *UploadsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how caller identity is resolved:
//   - "disabled" (default): no identity required, suitable for local dev.
//   - "header": requests must carry an X-User-ID header naming an active
//     user, which is loaded and attached to the request context.
type AuthConfig struct {
	Mode string `yaml:"mode"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeHeader)),
	)
}

// AuthEnabled returns true when identity resolution is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeHeader
}

// RateLimitConfig bounds the login endpoint per client IP.
type RateLimitConfig struct {
	LoginRPS   float64 `yaml:"login_rps"`
	LoginBurst int     `yaml:"login_burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LoginRPS, validation.Required, validation.Min(0.1)),
		validation.Field(&c.LoginBurst, validation.Required, validation.Min(1)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./propflow.db",
		},
		Uploads: UploadsConfig{
			Dir: "./uploads",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		RateLimit: RateLimitConfig{
			LoginRPS:   1,
			LoginBurst: 5,
		},
	}
}
