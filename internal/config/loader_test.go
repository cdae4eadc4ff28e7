package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	ctx := context.Background()

	cfg, err := Load(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "libsql", cfg.Store.Driver)
	assert.NotEmpty(t, cfg.Store.Path)

	assert.Equal(t, 5, cfg.Admission.MaxRequests)
	assert.Equal(t, time.Minute, cfg.Admission.Window)
	assert.Equal(t, 10000, cfg.Admission.MaxKeys)

	assert.Equal(t, "gemini", cfg.GenAI.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.GenAI.Model)
	assert.Equal(t, 30*time.Second, cfg.GenAI.Timeout)

	assert.Equal(t, 10, cfg.History.DefaultLimit)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "STRUCTURED", cfg.Logging.Profile)

	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Health.Enabled)
	assert.False(t, cfg.Debug.Enabled)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	ctx := context.Background()

	t.Setenv("CHATLENS_PORT", "9191")
	t.Setenv("CHATLENS_ADMISSION_MAX_REQUESTS", "20")
	t.Setenv("CHATLENS_ADMISSION_WINDOW", "30s")
	t.Setenv("CHATLENS_GENAI_API_KEY", "test-key")
	t.Setenv("CHATLENS_GENAI_MODEL", "gemini-2.5-pro")
	t.Setenv("CHATLENS_DB_PATH", "/tmp/chatlens-test.db")
	t.Setenv("CHATLENS_LOG_LEVEL", "debug")

	cfg, err := Load(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Admission.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.Admission.Window)
	assert.Equal(t, "test-key", cfg.GenAI.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.GenAI.Model)
	assert.Equal(t, "/tmp/chatlens-test.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFile(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
server:
  port: 7070
admission:
  max_requests: 3
  window: 45s
genai:
  model: gemini-2.0-flash-lite
history:
  default_limit: 25
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Admission.MaxRequests)
	assert.Equal(t, 45*time.Second, cfg.Admission.Window)
	assert.Equal(t, "gemini-2.0-flash-lite", cfg.GenAI.Model)
	assert.Equal(t, 25, cfg.History.DefaultLimit)

	// Defaults still apply to sections the file does not set.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "libsql", cfg.Store.Driver)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))

	t.Setenv("CHATLENS_PORT", "6060")

	cfg, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGetConfigAfterLoad(t *testing.T) {
	ctx := context.Background()

	cfg, err := Load(ctx, "")
	require.NoError(t, err)
	assert.Same(t, cfg, GetConfig())
}
