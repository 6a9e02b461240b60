package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret     string
	AdminPassword string
	AdminJWTExpiry time.Duration

	// Magic-link auth
	TokenMagicLinkExpiry time.Duration // link validity
	TokenReuseGrace      time.Duration // used token kept briefly for duplicate clicks
	SessionLifetime      time.Duration // absolute, never refreshed by use

	// Risk sweeper
	RiskSweepInterval      time.Duration
	RiskClickWindow        time.Duration
	RiskMaxClicksPerWindow int
	// RiskHoldDays is reported in flag metadata and admin views only. Holds
	// never auto-expire: they are cleared exclusively by an administrator.
	RiskHoldDays int

	// Maintenance
	CleanupInterval time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "ContentFlow"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:  envRequired("APP_URL"), // Required: base URL for magic-link emails
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/partnerhub.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret:      envRequired("JWT_SECRET"),
		AdminPassword:  envString("ADMIN_PASSWORD", ""),
		AdminJWTExpiry: envDuration("ADMIN_JWT_EXPIRY", 12*time.Hour),

		// Magic-link auth
		TokenMagicLinkExpiry: envDuration("TOKEN_MAGIC_LINK_EXPIRY", 15*time.Minute),
		TokenReuseGrace:      envDuration("TOKEN_REUSE_GRACE", 5*time.Minute),
		SessionLifetime:      envDuration("SESSION_LIFETIME", 30*24*time.Hour),

		// Risk sweeper
		RiskSweepInterval:      envDuration("RISK_SWEEP_INTERVAL", 10*time.Minute),
		RiskClickWindow:        envDuration("RISK_CLICK_WINDOW", 10*time.Minute),
		RiskMaxClicksPerWindow: envInt("RISK_MAX_CLICKS_PER_WINDOW", 40),
		RiskHoldDays:           envInt("RISK_HOLD_DAYS", 30),

		// Maintenance
		CleanupInterval: envDuration("CLEANUP_INTERVAL", time.Hour),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "partners@contentflow.app"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production
// deployments. Development allows email to fall back to log mode and the admin
// API to stay disabled.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if cfg.AdminPassword == "" {
		slog.Error("production deployment requires ADMIN_PASSWORD")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
