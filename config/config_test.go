package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("AUTH_AUTO_PROVISION", "yes")
	t.Setenv("STORAGE_BACKEND", "MINIO")
	t.Setenv("CHAT_POLL_INTERVAL", "2s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := LoadConfig()
	assert.Equal(t, 8081, cfg.ServerPort)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.Auth.AutoProvision)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, 2*time.Second, cfg.Chat.PollInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("PR_TEST_BOOL", "maybe")
	t.Setenv("PR_TEST_DURATION", "-5s")
	t.Setenv("PR_TEST_DURATION_BAD", "soon")

	assert.True(t, getEnvBool("PR_TEST_BOOL", true))
	assert.False(t, getEnvBool("PR_TEST_MISSING", false))
	assert.Equal(t, time.Minute, getEnvDuration("PR_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, getEnvDuration("PR_TEST_DURATION_BAD", time.Minute))
	assert.Equal(t, "fallback", getEnv("PR_TEST_MISSING", "fallback"))
	assert.Equal(t, 7, getEnvInt("PR_TEST_MISSING", 7))
}
