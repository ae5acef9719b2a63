package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	for _, key := range []string{"PORT", "VOTE_THRESHOLD", "NATS_URL", "OPENROUTER_BASE_URL", "OPENROUTER_MODEL", "OPENROUTER_API_ACCESS_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Timer.TickInterval)
	assert.Equal(t, 3, cfg.Votes.Threshold)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
  shutdown_timeout: 3s
timer:
  tick_interval: 500ms
votes:
  threshold: 5
nats:
  url: nats://nats:4222
clustering:
  model: some/model
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("OPENROUTER_API_ACCESS_TOKEN", "secret")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Timer.TickInterval)
	assert.Equal(t, 5, cfg.Votes.Threshold)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "some/model", cfg.Clustering.Model)
	assert.Equal(t, "secret", cfg.Clustering.APIKey)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config")
}
