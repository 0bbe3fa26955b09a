// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Record store: PostgreSQL when DATABASE_URL is set, embedded SQLite otherwise
	DatabaseURL string
	SQLitePath  string

	// Anchor chain (LevelDB directory)
	AnchorDBPath string

	// Content spool for uploaded media bytes
	SpoolDir      string
	RetainContent bool

	// Ingestion limits
	MaxUploadBytes int64

	// Verdict policy override (YAML); empty means built-in defaults
	PolicyFile string

	// Security
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int

	// Background chain audit
	AuditInterval int // minutes

	// Optional static frontend build to serve
	StaticDir string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "data/guardian.db"),

		AnchorDBPath: getEnv("ANCHOR_DB_PATH", "data/anchors"),

		SpoolDir:      getEnv("SPOOL_DIR", "data/spool"),
		RetainContent: getEnvBool("RETAIN_CONTENT", false),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,

		PolicyFile: getEnv("POLICY_FILE", ""),

		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 60),

		AuditInterval: getEnvInt("CHAIN_AUDIT_INTERVAL", 5),

		StaticDir: getEnv("STATIC_DIR", ""),
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if cfg.AuditInterval <= 0 {
		return nil, fmt.Errorf("CHAIN_AUDIT_INTERVAL must be positive")
	}

	// Validate required fields in production
	if cfg.Environment == "production" {
		if cfg.JWTSecret == "dev-secret-change-in-production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
