package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LIFEBOARD_ADDR", "LIFEBOARD_CONFIG", "DATABASE_URL", "TELEGRAM_TOKEN",
		"DIGEST_TIME", "TMDB_BASE_URL", "TMDB_API_KEY",
		"COMMIT_TIMEOUT_SECONDS", "CACHE_SWEEP_MINUTES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "lifeboard.db", cfg.DatabaseURL)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDBBaseURL)
	assert.Equal(t, 10*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 15*time.Minute, cfg.CacheSweepInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIFEBOARD_ADDR", ":9090")
	t.Setenv("COMMIT_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.CommitTimeout)
}

func TestLoadYAMLFillsUnsetFields(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"addr: \":7070\"\ndatabase_url: from_file.db\ncache_sweep_minutes: 5\n",
	), 0o600))

	t.Setenv("LIFEBOARD_CONFIG", path)
	t.Setenv("LIFEBOARD_ADDR", ":9090") // environment wins over the file

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "from_file.db", cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.CacheSweepInterval)
}

func TestLoadRejectsDigestWithoutToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIGEST_TIME", "08:30")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadBadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIFEBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}
