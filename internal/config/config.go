package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DatabaseConfig holds PostgreSQL database connection settings (DB_* variables).
// Nested fields carry no envconfig tag on purpose: a tagged field falls back to the
// bare tag name (e.g. USER, PORT) when the prefixed variable is unset.
type DatabaseConfig struct {
	Host               string
	Port               string `default:"5432"`
	User               string
	Password           string
	Name               string
	SSLMode            string `default:"disable"`
	MaxOpenConns       int    `split_words:"true" default:"10"`
	MaxIdleConns       int    `split_words:"true" default:"5"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"300"`
}

// MinIOConfig holds object storage settings for MinIO.
// PublicURL, when set, is the base used to build the retrievable URL stored
// with each upload (e.g. a CDN or reverse proxy in front of the bucket).
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string        `split_words:"true"`
	SecretKey     string        `split_words:"true"`
	Bucket        string
	UseSSL        bool          `split_words:"true" default:"false"`
	PublicURL     string        `split_words:"true"`
	PresignExpiry time.Duration `split_words:"true" default:"15m"`
}

// ExpiryConfig controls the expiration badge computed for each document.
type ExpiryConfig struct {
	WindowDays      int  `split_words:"true" default:"30"`
	TodayIsExpiring bool `split_words:"true" default:"false"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost        string         `envconfig:"APP_HOST" default:"localhost:8080"`
	Port           string         `envconfig:"PORT" default:"8080"`
	Timezone       string         `envconfig:"APP_TIMEZONE" default:"UTC"`
	LogLevel       string         `envconfig:"LOG_LEVEL" default:"info"`
	MaxUploadMB    int            `envconfig:"MAX_UPLOAD_MB" default:"20"`   // request body cap, so also the largest upload
	ReconcileGrace time.Duration  `envconfig:"RECONCILE_GRACE" default:"5m"` // blobs younger than this are never swept
	Database       DatabaseConfig `envconfig:"DB"`
	MinIO          MinIOConfig    `envconfig:"MINIO"`
	Expiry         ExpiryConfig   `envconfig:"EXPIRY"`
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() (*AppConfig, error) {
	cfg := new(AppConfig)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}

	if cfg.ReconcileGrace < 0 {
		return nil, fmt.Errorf("RECONCILE_GRACE must not be negative, got %s", cfg.ReconcileGrace)
	}

	if cfg.Expiry.WindowDays <= 0 {
		return nil, fmt.Errorf("EXPIRY_WINDOW_DAYS must be positive, got %d", cfg.Expiry.WindowDays)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves APP_TIMEZONE. Calendar dates and log timestamps are interpreted in it.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
