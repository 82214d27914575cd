// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // PISO_TIMEZONE must resolve without system zoneinfo

	"github.com/joho/godotenv"

	"github.com/evcraddock/piso/internal/email"
	"github.com/evcraddock/piso/internal/notify"
	"github.com/evcraddock/piso/internal/session"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreREST   = "rest"
)

// Config holds all settings for the server and the CLI.
type Config struct {
	// Storage
	DBPath  string
	Store   string
	RESTURL string
	RESTKey string

	// Server
	Port      string
	DevMode   bool
	LogLevel  string
	RateLimit int // public POSTs per minute per IP
	// TrustProxy honours X-Forwarded-For for client IPs.
	TrustProxy bool

	// Admin gate
	AdminPassword     string
	AdminPasswordHash string

	// Presentation
	NotifyDelay time.Duration
	Location    *time.Location

	// Lead notification mail; disabled unless SMTP and NotifyTo are set.
	SMTP     email.SMTPConfig
	NotifyTo []string
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read parses the configuration without cross-field validation, for
// callers that layer further sources on top. A missing .env file is not
// an error.
func Read() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:            os.Getenv("PISO_DB"),
		Store:             strings.ToLower(envOrDefault("PISO_STORE", StoreSQLite)),
		RESTURL:           os.Getenv("PISO_REST_URL"),
		RESTKey:           os.Getenv("PISO_REST_KEY"),
		Port:              envOrDefault("PISO_PORT", "8080"),
		DevMode:           os.Getenv("PISO_DEV_MODE") == "true",
		TrustProxy:        os.Getenv("PISO_TRUST_PROXY") == "true",
		LogLevel:          os.Getenv("PISO_LOG_LEVEL"),
		AdminPassword:     envOrDefault("PISO_ADMIN_PASSWORD", session.DefaultPassword),
		AdminPasswordHash: os.Getenv("PISO_ADMIN_PASSWORD_HASH"),
		SMTP: email.SMTPConfig{
			Host: os.Getenv("PISO_SMTP_HOST"),
			Port: envOrDefault("PISO_SMTP_PORT", "587"),
			User: os.Getenv("PISO_SMTP_USER"),
			Pass: os.Getenv("PISO_SMTP_PASS"),
			From: os.Getenv("PISO_SMTP_FROM"),
		},
		NotifyTo: splitList(os.Getenv("PISO_NOTIFY_EMAIL")),
	}

	var err error
	cfg.RateLimit, err = strconv.Atoi(envOrDefault("PISO_RATE_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid PISO_RATE_LIMIT: %w", err)
	}
	cfg.NotifyDelay, err = time.ParseDuration(envOrDefault("PISO_NOTIFY_DELAY", notify.DefaultDelay.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid PISO_NOTIFY_DELAY: %w", err)
	}
	cfg.Location, err = time.LoadLocation(envOrDefault("PISO_TIMEZONE", "Europe/Madrid"))
	if err != nil {
		return nil, fmt.Errorf("invalid PISO_TIMEZONE: %w", err)
	}
	return cfg, nil
}

// Validate checks combinations that individual parsing cannot.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
	case StoreREST:
		if c.RESTURL == "" {
			return fmt.Errorf("PISO_REST_URL is required when PISO_STORE=%s", StoreREST)
		}
	default:
		return fmt.Errorf("invalid PISO_STORE %q: want %s or %s", c.Store, StoreSQLite, StoreREST)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid PISO_RATE_LIMIT: %d", c.RateLimit)
	}
	return nil
}

// MailEnabled reports whether new leads are mailed to the owner.
func (c *Config) MailEnabled() bool {
	return c.SMTP.IsConfigured() && len(c.NotifyTo) > 0
}

// Checker returns the admin credential checker.
func (c *Config) Checker() session.CredentialChecker {
	return session.NewChecker(c.AdminPassword, c.AdminPasswordHash)
}

// Level parses LogLevel. ok is false when no override is set.
func (c *Config) Level() (level slog.Level, ok bool, err error) {
	if c.LogLevel == "" {
		return 0, false, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, false, fmt.Errorf("invalid PISO_LOG_LEVEL: %w", err)
	}
	return level, true, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
