package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "potential", cfg.Auth.JWTIssuer)
	assert.Equal(t, 64, cfg.Chat.SendBuffer)
	assert.Equal(t, 2*time.Minute, cfg.Master.EntryTTL())
	assert.Equal(t, 30*time.Second, cfg.Master.SweepInterval())
	assert.Equal(t, 30*time.Second, cfg.Chat.PingPeriod())
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL())
}

func TestLoadFromPathReadsFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9001
auth:
  jwt_secret: file-secret
  token_ttl_minutes: 5
chat:
  send_buffer: 16
  require_auth: true
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.Auth.TokenTTL())
	assert.True(t, cfg.Chat.RequireAuth)
	assert.Equal(t, 16, cfg.Chat.SendBuffer)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9001\n")

	t.Setenv("PORT", "9002")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("STEAM_ALLOW_UNVERIFIED", "true")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 9002, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.AllowUnverified)
}

func TestValidateRejectsBadValues(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "server:\n  port: 70000\n"))
	assert.Error(t, err)

	_, err = LoadFromPath(writeConfig(t, "chat:\n  send_buffer: -1\n"))
	assert.Error(t, err)

	_, err = LoadFromPath(writeConfig(t, "master:\n  entry_ttl_seconds: -5\n"))
	assert.Error(t, err)
}

func TestLoadFromPathRejectsMalformedYAML(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)
}
