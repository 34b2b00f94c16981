// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dnslogd/dnslogd/pkg/model"
)

// Config holds all configuration consumed by the persistence layer.
type Config struct {
	// DBFile is the path of the on-disk query store. Empty disables
	// long-term storage.
	DBFile string `yaml:"db_file"`

	// PrivacyLevel thresholds: at PrivacyMaximum individual records are
	// excluded, at PrivacyNoStats nothing is persisted at all.
	PrivacyLevel model.PrivacyLevel `yaml:"privacy_level"`

	// FlushInterval is the batch-flush period in seconds.
	FlushInterval int `yaml:"flush_interval"`

	// RetentionDays is the on-disk retention window.
	RetentionDays int `yaml:"retention_days"`

	// MaxLogAge is the reload window in seconds: how much recent history
	// is loaded back into memory at startup.
	MaxLogAge int `yaml:"max_log_age"`

	// AnalyzeAAAA controls whether AAAA queries are reloaded.
	AnalyzeAAAA bool `yaml:"analyze_aaaa"`

	// IgnoreLocalhost drops loopback clients on reload.
	IgnoreLocalhost bool `yaml:"ignore_localhost"`

	// Debug enables statement-level logging.
	Debug bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBFile:        "dnslogd.db",
		FlushInterval: 60,
		RetentionDays: 365,
		MaxLogAge:     86400,
		AnalyzeAAAA:   true,
	}
}

// Load reads a YAML configuration file over the defaults. Keys absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
