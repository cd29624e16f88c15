package models

// ScanConfig is the full configuration for one scan run. It is built once
// from the config file and CLI flags, validated, and passed by reference
// into the run controller; nothing else mutates it afterwards.
type ScanConfig struct {
	Roots          []string `mapstructure:"roots"`
	DBPath         string   `mapstructure:"db_path"`
	Include        []string `mapstructure:"include"`
	Exclude        []string `mapstructure:"exclude"`
	Workers        int      `mapstructure:"workers"` // 0 = auto (CPU count)
	BatchSize      int      `mapstructure:"batch_size"`
	HashMode       string   `mapstructure:"hash_mode"` // none, sha256, md5, both
	FollowSymlinks bool     `mapstructure:"follow_symlinks"`
	FailFast       bool     `mapstructure:"fail_fast"`
}
