package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://label.example")
	t.Setenv("API_BASE_URL", "https://api.label.example")
	t.Setenv("API_TOKEN", "jwt-token")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://label.example", cfg.BaseURL)
	assert.Equal(t, "https://api.label.example", cfg.APIBaseURL)
	assert.Equal(t, "jwt-token", cfg.APIToken)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_TypedValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")
	t.Setenv("PURGE_ORPHANED_FILES", "false")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 2.5, cfg.RateLimitPerSecond)
	assert.Equal(t, 5, cfg.RateLimitBurst, "invalid values fall back")
	assert.False(t, cfg.PurgeOrphanedFiles)
	assert.True(t, cfg.MinioUseSSL)
}
