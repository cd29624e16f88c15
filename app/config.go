package app

import (
	"fmt"
	"path/filepath"

	"fileindex/models"

	"github.com/spf13/viper"
)

const (
	defaultDBPath    = "fileindex.db"
	defaultBatchSize = 500
)

// configKeys is the closed set of recognized settings; each one is also
// overridable through a FILEINDEX_* environment variable.
var configKeys = []string{
	"roots", "db_path", "include", "exclude",
	"workers", "batch_size", "hash_mode", "follow_symlinks", "fail_fast",
}

// LoadConfig reads a YAML config file into a ScanConfig. Values not present
// in the file keep their zero value; defaults and flag overlays are applied
// by the caller before validation.
func LoadConfig(path string) (*models.ScanConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FILEINDEX")
	// AutomaticEnv alone does not surface env-only keys to Unmarshal; each
	// key must be bound explicitly.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	var cfg models.ScanConfig
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *models.ScanConfig) {
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaultWorkers()
	}
	if cfg.HashMode == "" {
		cfg.HashMode = "none"
	}
}

// Validate rejects a malformed configuration before anything downstream is
// started. Root existence is checked at scan time, per root, so one bad
// root does not block the others.
func Validate(cfg *models.ScanConfig) error {
	if len(cfg.Roots) == 0 {
		return fmt.Errorf("%w: no root paths configured", ErrConfiguration)
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("%w: db_path is empty", ErrConfiguration)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrConfiguration, cfg.BatchSize)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrConfiguration, cfg.Workers)
	}
	if _, err := ParseHashMode(cfg.HashMode); err != nil {
		return err
	}
	for _, p := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if _, err := filepath.Match(p, "probe"); err != nil {
			return fmt.Errorf("%w: bad glob pattern %q: %v", ErrConfiguration, p, err)
		}
	}
	return nil
}
