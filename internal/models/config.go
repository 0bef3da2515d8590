package models

import "time"

// Config represents the main configuration
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Settings SettingsConfig `mapstructure:"settings"`
	Scan     ScanConfig     `mapstructure:"scan"`
}

// HTTPConfig contains HTTP client settings for page fetching
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// SettingsConfig locates the persisted settings store
type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

// ScanConfig contains engine tuning knobs
type ScanConfig struct {
	MaxAncestorDepth   int           `mapstructure:"max_ancestor_depth"`
	MinContainerWidth  int           `mapstructure:"min_container_width"`
	MinContainerHeight int           `mapstructure:"min_container_height"`
	PollInterval       time.Duration `mapstructure:"poll_interval"`
	SettleDelay        time.Duration `mapstructure:"settle_delay"`
}
