package src

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "info", config.LogConfig.Level)
	assert.Equal(t, "memory", config.CacheConfig.Backend)
	assert.Equal(t, 10*time.Minute, config.CacheConfig.MaxAge)
	assert.Equal(t, 15*time.Second, config.APIConfig.Timeout)
	assert.Equal(t, 3000, config.ServerConfig.Port)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_BASE_URL", "http://school.test/api")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_MAX_AGE", "90s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SERVER_PORT", "8081")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogConfig.Level)
	assert.Equal(t, "http://school.test/api", config.APIConfig.BaseURL)
	assert.Equal(t, "redis", config.CacheConfig.Backend)
	assert.Equal(t, 90*time.Second, config.CacheConfig.MaxAge)
	assert.Equal(t, "redis://localhost:6379/0", config.RedisURL)
	assert.Equal(t, 8081, config.ServerConfig.Port)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "redis without url", env: map[string]string{"CACHE_BACKEND": "redis"}},
		{name: "unknown backend", env: map[string]string{"CACHE_BACKEND": "indexeddb"}},
		{name: "bad port", env: map[string]string{"SERVER_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REDIS_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
