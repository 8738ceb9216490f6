package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemap/internal/rank"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.Cache.Location)
	assert.Equal(t, rank.DefaultConfig(), cfg.Rank)
	assert.Zero(t, cfg.Crawl.Workers)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CODEMAP_CACHE_DIR", "")
	t.Setenv("CODEMAP_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayersYAMLOverDefaults(t *testing.T) {
	t.Setenv("CODEMAP_CACHE_DIR", "")
	t.Setenv("CODEMAP_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "codemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  location: /tmp/custom/tags.db
crawl:
  workers: 3
  ignore: [dist, target]
rank:
  damping: 0.9
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom/tags.db", cfg.Cache.Location)
	assert.Equal(t, 3, cfg.Crawl.Workers)
	assert.Equal(t, []string{"dist", "target"}, cfg.Crawl.Ignore)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.9, cfg.Rank.Damping)
	// Unset ranking fields keep their defaults.
	assert.Equal(t, rank.DefaultConfig().Tolerance, cfg.Rank.Tolerance)
	assert.Equal(t, rank.DefaultConfig().MaxIterations, cfg.Rank.MaxIterations)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CODEMAP_CACHE_DIR", "/elsewhere/tags.db")
	t.Setenv("CODEMAP_LOG_LEVEL", "trace")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/tags.db", cfg.Cache.Location)
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codemap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache: [not: a: mapping\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
