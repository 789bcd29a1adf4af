package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TYPING_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, time.Duration(0), cfg.HiddenGrace)
	assert.Equal(t, 30, cfg.MessagesPerMinute)
	assert.Equal(t, "firebasestorage", cfg.StorageHostMarker)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PRESENCE_HIDDEN_GRACE", "15s")
	t.Setenv("TYPING_TTL", "5s")
	t.Setenv("MESSAGE_RATE_PER_MINUTE", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsMemoryStore())
	assert.Equal(t, 15*time.Second, cfg.HiddenGrace)
	assert.Equal(t, 5*time.Second, cfg.TypingTTL)
	assert.Equal(t, 12, cfg.MessagesPerMinute)
}
