package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VOICENOTE_CONFIG", "")
	t.Setenv("VOICENOTE_API_KEY", "secret")
	t.Setenv("VOICENOTE_LLM_PROVIDER", "")
	t.Setenv("VOICENOTE_STORAGE_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, int64(1<<20), cfg.MaxJSONBytes)
	assert.True(t, cfg.CORSEnabled)
	assert.False(t, cfg.Production())
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("VOICENOTE_CONFIG", "")
	t.Setenv("VOICENOTE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("VOICENOTE_CONFIG", "")
	t.Setenv("VOICENOTE_API_KEY", "k")
	t.Setenv("VOICENOTE_STORAGE_BACKEND", "redis")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voicenote.yaml")
	yml := `
port: "8081"
environment: production
storage_backend: sqlite
sqlite_path: /tmp/notes.db
log_level: debug
client:
  api_base_url: http://relay.local
  user_id: alice
  summary_timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("VOICENOTE_CONFIG", path)
	t.Setenv("VOICENOTE_API_KEY", "k")
	t.Setenv("VOICENOTE_LLM_PROVIDER", "mock")
	t.Setenv("VOICENOTE_STORAGE_BACKEND", "")
	t.Setenv("PORT", "9090")
	t.Setenv("VOICENOTE_LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageSQLite, cfg.StorageBackend)
	assert.Equal(t, "/tmp/notes.db", cfg.SQLitePath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Production())

	t.Setenv("VOICENOTE_API_URL", "")
	t.Setenv("VOICENOTE_USER_ID", "")
	t.Setenv("VOICENOTE_SUMMARY_TIMEOUT", "")
	cc, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://relay.local", cc.APIBaseURL)
	assert.Equal(t, "alice", cc.UserID)
	assert.Equal(t, 3*time.Second, cc.SummaryTimeout)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("nonsense"))
}
