package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir into an empty dir so a developer's .env does not leak into tests.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.DevSeed)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_FromEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DEV_SEED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("HTTP_READ_TIMEOUT", "3s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.True(t, cfg.DevSeed)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\nHTTP_ADDR=:7000\n"), 0o600))
	t.Setenv("HTTP_ADDR", ":9100")
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9100", cfg.HTTPAddr)
}

func TestLoad_RejectsUnknownLogFormat(t *testing.T) {
	inTempDir(t)
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	assert.Error(t, err)
}
