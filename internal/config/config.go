package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Session cookie settings. TTL is in hours; sessions slide on activity.
	SessionCookie   string `mapstructure:"SESSION_COOKIE"`
	SessionTTLHours int    `mapstructure:"SESSION_TTL_HOURS"`
	CookieSecure    bool   `mapstructure:"COOKIE_SECURE"`

	// Optional external identity provider (OIDC). Login via local
	// credentials always works; these only enable the alternate path.
	OIDCProvider string `mapstructure:"OIDC_PROVIDER"` // "oidc" or "disabled"
	OIDCIssuer   string `mapstructure:"OIDC_ISSUER"`
	OIDCAudience string `mapstructure:"OIDC_AUDIENCE"`
	OIDCJWKSURL  string `mapstructure:"OIDC_JWKS_URL"`

	UploadDir string `mapstructure:"UPLOAD_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SESSION_COOKIE", "ayur_sid")
	v.SetDefault("SESSION_TTL_HOURS", 24*7)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("OIDC_PROVIDER", "disabled")
	v.SetDefault("UPLOAD_DIR", "./uploads")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SESSION_COOKIE")
	v.BindEnv("SESSION_TTL_HOURS")
	v.BindEnv("COOKIE_SECURE")
	v.BindEnv("OIDC_PROVIDER")
	v.BindEnv("OIDC_ISSUER")
	v.BindEnv("OIDC_AUDIENCE")
	v.BindEnv("OIDC_JWKS_URL")
	v.BindEnv("UPLOAD_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SessionTTL returns the configured session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Validate checks that the configuration is safe to run. When the OIDC
// provider is enabled, an issuer must be configured so ID tokens can be
// verified against a real authority.
func (c *Config) Validate() error {
	switch c.OIDCProvider {
	case "disabled":
	case "oidc":
		if c.OIDCIssuer == "" {
			return fmt.Errorf("OIDC_ISSUER must be set when OIDC_PROVIDER is \"oidc\"")
		}
	default:
		return fmt.Errorf("OIDC_PROVIDER must be \"oidc\" or \"disabled\", got %q", c.OIDCProvider)
	}

	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}

	return nil
}
