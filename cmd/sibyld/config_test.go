package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8585", cfg.Listen)
	assert.Equal(t, "sibyl.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30, cfg.RateLimit)
	assert.Equal(t, "GEMINI_API_KEY", cfg.APIKeyEnv)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sibyld.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
db_path: /var/lib/sibyl.db
log_level: debug
rate_limit_per_minute: 5
attachment_dir: /srv/attachments
inference:
  model: gemini-3.1-pro-preview
  max_tokens: 4096
`), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/var/lib/sibyl.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, "/srv/attachments", cfg.AttachDir)
	assert.Equal(t, "gemini-3.1-pro-preview", cfg.Inference.Model)
	assert.Equal(t, 4096, cfg.Inference.MaxTokens)
	assert.Equal(t, "GEMINI_API_KEY", cfg.APIKeyEnv, "unset keys keep their defaults")
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SIBYL_LISTEN", ":7777")
	t.Setenv("SIBYL_DB", "override.db")
	t.Setenv("SIBYL_MODEL", "gemini-exp")

	cfg, err := loadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Listen)
	assert.Equal(t, "override.db", cfg.DBPath)
	assert.Equal(t, "gemini-exp", cfg.Inference.Model)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [not: valid"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_APIKey(t *testing.T) {
	t.Setenv("SIBYL_TEST_KEY", "secret")
	cfg := Config{APIKeyEnv: "SIBYL_TEST_KEY"}
	assert.Equal(t, "secret", cfg.APIKey())
}
