package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("IMAGE_MAX_DIMENSION", "")
	t.Setenv("RATE_LIMIT_SWEEP_INTERVAL", "")
	t.Setenv("TRUST_PROXY_HEADERS", "")

	cfg := Load()

	assert.Equal(t, 50, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5*time.Minute, cfg.RateLimitSweepInterval)
	assert.Equal(t, "fs", cfg.StorageDriver)
	assert.Equal(t, 1920, cfg.ImageMaxDimension)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bumdes.id, https://admin.bumdes.id ,")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg := Load()

	assert.Equal(t, 5, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://bumdes.id", "https://admin.bumdes.id"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_MAX", "-3")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")

	cfg := Load()

	assert.Equal(t, 50, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
}
