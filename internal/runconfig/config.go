// Package runconfig loads the YAML run configuration for a diff (spec.md
// §6), the way the teacher's internal/config loads its indexer config:
// read file, unmarshal, apply defaults, validate. Diffly additionally
// supports an environment variable override for partition_count, useful
// for tuning memory bounds per deployment without editing the file.
package runconfig

import (
	"os"
	"strconv"

	yaml "gopkg.in/yaml.v2"

	"github.com/difflyhq/difflycore/internal/diffopts"
	"github.com/difflyhq/difflycore/internal/diffyerr"
	"github.com/difflyhq/difflycore/internal/engine"
)

// partitionsEnvVar overrides partition_count from the config file when set,
// without requiring a config edit per deployment.
const partitionsEnvVar = "DIFFLY_ENGINE_PARTITIONS"

// Config is the on-disk run configuration.
type Config struct {
	KeyColumns             []string `yaml:"key_columns"`
	HeaderMode             string   `yaml:"header_mode"`
	EmitUnchanged          bool     `yaml:"emit_unchanged"`
	EmitProgress           bool     `yaml:"emit_progress"`
	ProgressIntervalEvents int      `yaml:"progress_interval_events"`
	PartitionCount         *int     `yaml:"partition_count"`
	LogLevel               string   `yaml:"log_level"`
}

// Load reads and unmarshals the configuration file at path, applies
// defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diffyerr.Wrap(diffyerr.StorageError, err, "failed to read config %s: %v", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, diffyerr.Wrap(diffyerr.InvalidConfig, err, "failed to parse config %s: %v", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HeaderMode == "" {
		c.HeaderMode = string(diffopts.HeaderModeStrict)
	}
	if c.EmitProgress && c.ProgressIntervalEvents == 0 {
		c.ProgressIntervalEvents = 1000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// applyEnvOverrides applies DIFFLY_ENGINE_PARTITIONS when set. Per spec.md
// §6, a set value must be a positive integer or the config is rejected —
// it is not silently ignored.
func (c *Config) applyEnvOverrides() error {
	raw, ok := os.LookupEnv(partitionsEnvVar)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return diffyerr.New(diffyerr.InvalidConfig, "%s must be a positive integer, got %q", partitionsEnvVar, raw)
	}
	c.PartitionCount = &n
	return nil
}

func (c *Config) validate() error {
	if _, err := diffopts.ParseHeaderMode(c.HeaderMode); err != nil {
		return err
	}
	if c.PartitionCount != nil && *c.PartitionCount <= 0 {
		return diffyerr.New(diffyerr.InvalidConfig, "partition_count must be a positive integer")
	}
	return nil
}

// Options derives the diff options this run should use.
func (c Config) Options() (diffopts.Options, error) {
	mode, err := diffopts.ParseHeaderMode(c.HeaderMode)
	if err != nil {
		return diffopts.Options{}, err
	}
	return diffopts.Options{
		KeyColumns:    c.KeyColumns,
		HeaderMode:    mode,
		EmitUnchanged: c.EmitUnchanged,
	}, nil
}

// RunConfig derives the engine run configuration this run should use.
func (c Config) RunConfig() engine.RunConfig {
	return engine.RunConfig{
		EmitProgress:           c.EmitProgress,
		ProgressIntervalEvents: c.ProgressIntervalEvents,
		PartitionCount:         c.PartitionCount,
	}
}
