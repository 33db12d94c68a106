package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "CHAT_COOLDOWN_SECONDS", "CHAT_RETENTION_DAYS", "REDIS_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ChatCooldown)
	assert.Equal(t, 0, cfg.ChatRetention)
	assert.Empty(t, cfg.RedisURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("CHAT_COOLDOWN_SECONDS", "5")
	t.Setenv("CHAT_RETENTION_DAYS", "30")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.ChatCooldown)
	assert.Equal(t, 30, cfg.ChatRetention)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedInts(t *testing.T) {
	t.Setenv("CHAT_COOLDOWN_SECONDS", "soon")
	t.Setenv("CHAT_RETENTION_DAYS", "1.5")

	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.ChatCooldown)
	assert.Equal(t, 0, cfg.ChatRetention)
}
