package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 6, cfg.RoomCodeLength)
	assert.Equal(t, 100, cfg.HTTPRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.HTTPRateWindow)
	assert.Equal(t, "kick", cfg.Backpressure)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(`
mode: debug
port: 7000
session_ttl: 3h
backpressure: drop
`), 0o644))
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("SPARK_PORT", "9090")
	t.Setenv("CLIENT_URL", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, 9090, cfg.Port, "environment wins over the file")
	assert.Equal(t, 3*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := Config{
		Port: 8080, PingPeriod: time.Second, PongWait: 2 * time.Second, SessionTTL: time.Hour,
		RoomCodeLength: 6, SendBuffer: 1, HTTPRateLimit: 1, HTTPRateWindow: time.Second,
	}
	require.NoError(t, base.Validate())

	slowPing := base
	slowPing.PingPeriod = 3 * time.Second
	assert.Error(t, slowPing.Validate())

	shortCode := base
	shortCode.RoomCodeLength = 3
	assert.Error(t, shortCode.Validate())
}
