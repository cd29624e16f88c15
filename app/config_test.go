package app

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"fileindex/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
roots:
  - /srv/share
  - /srv/data
db_path: /var/lib/fileindex/share.db
workers: 8
batch_size: 250
hash_mode: sha256
follow_symlinks: true
exclude:
  - "*.tmp"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/share", "/srv/data"}, cfg.Roots)
	assert.Equal(t, "/var/lib/fileindex/share.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, "sha256", cfg.HashMode)
	assert.True(t, cfg.FollowSymlinks)
	assert.Equal(t, []string{"*.tmp"}, cfg.Exclude)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
roots: [/srv/share]
workers: 8
`)

	// workers is present in the file, hash_mode is env-only.
	t.Setenv("FILEINDEX_WORKERS", "2")
	t.Setenv("FILEINDEX_HASH_MODE", "md5")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers, "environment wins over the file")
	assert.Equal(t, "md5", cfg.HashMode)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
roots: [/srv/share]
bacth_size: 100
`)

	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, ErrConfiguration), "misspelled keys must fail early, got %v", err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &models.ScanConfig{Roots: []string{"/srv"}}
	ApplyDefaults(cfg)

	assert.Equal(t, defaultDBPath, cfg.DBPath)
	assert.Equal(t, defaultBatchSize, cfg.BatchSize)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "none", cfg.HashMode)
}

func TestValidate(t *testing.T) {
	valid := func() *models.ScanConfig {
		return &models.ScanConfig{
			Roots:     []string{"/srv"},
			DBPath:    "x.db",
			Workers:   4,
			BatchSize: 100,
			HashMode:  "both",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Validate(valid()))
	})

	cases := []struct {
		name   string
		mutate func(*models.ScanConfig)
	}{
		{"no roots", func(c *models.ScanConfig) { c.Roots = nil }},
		{"empty db path", func(c *models.ScanConfig) { c.DBPath = "" }},
		{"zero batch size", func(c *models.ScanConfig) { c.BatchSize = 0 }},
		{"negative workers", func(c *models.ScanConfig) { c.Workers = -2 }},
		{"unknown hash mode", func(c *models.ScanConfig) { c.HashMode = "sha1" }},
		{"bad include glob", func(c *models.ScanConfig) { c.Include = []string{"[unclosed"} }},
		{"bad exclude glob", func(c *models.ScanConfig) { c.Exclude = []string{"[unclosed"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
		})
	}
}
