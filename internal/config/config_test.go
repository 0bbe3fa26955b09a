package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "data/guardian.db", cfg.SQLitePath)
	assert.Equal(t, "data/anchors", cfg.AnchorDBPath)
	assert.Equal(t, "data/spool", cfg.SpoolDir)
	assert.False(t, cfg.RetainContent)
	assert.Equal(t, int64(32)<<20, cfg.MaxUploadBytes)
	assert.Equal(t, 60, cfg.RateLimitRPM)
	assert.Equal(t, 5, cfg.AuditInterval)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://guardian@localhost/guardian")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("RETAIN_CONTENT", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres://guardian@localhost/guardian", cfg.DatabaseURL)
	assert.Equal(t, int64(8)<<20, cfg.MaxUploadBytes)
	assert.True(t, cfg.RetainContent)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadProductionWithSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "an-actual-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "0")
	_, err := Load()
	assert.Error(t, err)
}
