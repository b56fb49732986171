package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.False(t, cfg.ImageHost.Enabled)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("IMAGE_HOST_API_KEY", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.ImageHost.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSAllowedOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "localstorage")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveCacheTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "0s")

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedNumbersFallBackToDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "lots")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Security.RateLimitPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestRedisRateLimitRequiresRedis(t *testing.T) {
	t.Setenv("RATE_LIMIT_REDIS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)

	cfg.Redis.Host = ""
	assert.Error(t, cfg.Validate())
}
