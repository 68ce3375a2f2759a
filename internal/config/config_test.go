package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_USER", "app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "jrr_session", cfg.Auth.SessionCookie)
	assert.Equal(t, "logs", cfg.RabbitMQ.LogDir)
	assert.Equal(t, []string{"GET"}, cfg.Cache.Methods)
	assert.False(t, cfg.App.IsProd())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"DB_USER": "app"}},
		{"mysql without user", map[string]string{"JWT_SECRET": "x"}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "oracle"}},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "DB_USER": "app", "SESSION_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetenv(t, "JWT_SECRET", "DB_USER")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadSQLite(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.True(t, cfg.App.IsProd())
}

func TestRateLimitNormalize(t *testing.T) {
	c := RateLimitConfig{Burst: 20, RefillEvery: 2 * time.Second, TTL: time.Second}
	c.normalize()
	assert.Equal(t, 20, c.Capacity)
	assert.Equal(t, 1, c.RefillTokens)
	assert.Equal(t, 2*time.Second, c.RefillInterval)
	assert.Equal(t, 10*time.Second, c.TTL)

	c = RateLimitConfig{}
	c.normalize()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, time.Second, c.RefillInterval)
}

func TestRedisAddress(t *testing.T) {
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380", Addr: "localhost:6379"}.Address())
	assert.Equal(t, "localhost:6379", RedisConfig{Addr: "localhost:6379"}.Address())
}

func TestCacheMethodSet(t *testing.T) {
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, CacheConfig{Methods: []string{" get", "HEAD", ""}}.MethodSet())
}

// unsetenv removes keys for the duration of the test.  envconfig treats a
// set but empty variable as present.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
