package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "portrait", cfg.Video.Aspect)
	assert.Equal(t, 2, cfg.Worker.BatchWorkers)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.LLM.Provider = "deepseek"
	cfg.LLM.BaseURL = "https://api.deepseek.com"
	cfg.Material.PexelsAPIKeys = []string{"k1", "k2"}
	cfg.Worker.BatchWorkers = 4
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek", loaded.LLM.Provider)
	assert.Equal(t, []string{"k1", "k2"}, loaded.Material.PexelsAPIKeys)
	assert.Equal(t, 4, loaded.Worker.BatchWorkers)
	// Untouched fields keep defaults.
	assert.Equal(t, "random", loaded.Video.ConcatMode)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CLIPFORGE_LLM_PROVIDER", "ollama")
	t.Setenv("CLIPFORGE_LLM_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("CLIPFORGE_PEXELS_API_KEYS", "a, b ,c")
	t.Setenv("CLIPFORGE_BATCH_WORKERS", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Material.PexelsAPIKeys)
	assert.Equal(t, 3, cfg.Worker.BatchWorkers)
}

func TestWorkersClamped(t *testing.T) {
	cfg := Default()

	cfg.Worker.BatchWorkers = 0
	assert.Equal(t, 1, cfg.Workers())

	cfg.Worker.BatchWorkers = 99
	assert.Equal(t, 5, cfg.Workers())

	cfg.Worker.BatchWorkers = 3
	assert.Equal(t, 3, cfg.Workers())
}

func TestDurationFallbacks(t *testing.T) {
	cfg := Default()
	cfg.LLM.Timeout = "bogus"
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())

	cfg.Cache.TTL = ""
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL())

	cfg.LLM.Timeout = "90s"
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout())
}
