// Copyright (c) 2026 Contacts API. All rights reserved.
// Author: AnnetaDe

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token codec) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// # Configuration Schema

// Config holds all runtime configuration for the contacts API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENV"          envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	// Key-Value Cache (Redis). Empty means store-only mode.
	RedisURL string `env:"REDIS_URL"`

	// Token signing
	SecretKey      string        `env:"SECRET_KEY,required,notEmpty"`
	Algorithm      string        `env:"ALGORITHM"        envDefault:"HS256"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	EmailTokenTTL  time.Duration `env:"EMAIL_TOKEN_TTL"  envDefault:"15m"`

	// Identity cache and password hashing
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"300s"`
	BcryptCost   int           `env:"BCRYPT_COST"    envDefault:"10"`

	// PublicBaseURL is used to build links in outgoing emails.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Outbound mail (SMTP). Empty host falls back to the log notifier.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM"     envDefault:"no-reply@contacts.local"`

	// Object Storage for avatars (S3-compatible)
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"     envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	// TrustProxyHeaders keys rate limits on X-Real-IP / X-Forwarded-For.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// supportedAlgorithms lists the HMAC signing methods accepted for ALGORITHM.
var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if _, ok := supportedAlgorithms[c.Algorithm]; !ok {
		return fmt.Errorf("config: unsupported ALGORITHM %q", c.Algorithm)
	}

	if c.AccessTokenTTL <= 0 || c.EmailTokenTTL <= 0 {
		return fmt.Errorf("config: token lifetimes must be positive")
	}

	// Email tokens are single-action and must not outlive a session token.
	if c.EmailTokenTTL >= c.AccessTokenTTL {
		return fmt.Errorf("config: EMAIL_TOKEN_TTL (%s) must be shorter than ACCESS_TOKEN_TTL (%s)", c.EmailTokenTTL, c.AccessTokenTTL)
	}

	if c.UserCacheTTL <= 0 {
		return fmt.Errorf("config: USER_CACHE_TTL must be positive")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// CacheEnabled reports whether a Redis URL was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// MailEnabled reports whether SMTP delivery was configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// AvatarStorageEnabled reports whether an avatar bucket was configured.
func (c *Config) AvatarStorageEnabled() bool {
	return c.S3Bucket != ""
}
