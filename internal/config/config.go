// Package config provides configuration management for piemixer.
//
// Everything runs with compiled-in defaults when no config file exists: the
// mixer wires S/PDIF receivers into the playback device out of the box, and a
// config file only overrides the pieces it names.
//
// Config file locations (priority order):
//  1. $PIEMIXER_CONFIG
//  2. ./piemixer.yaml
//  3. ~/.config/piemixer/config.yaml
//  4. /etc/piemixer/config.yaml
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"piemixer/internal/domain"
)

// DefaultResyncInterval is how often the graph is re-enumerated to recover
// from missed monitor events
const DefaultResyncInterval = 30 * time.Second

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Database: DatabaseConfig{Path: "./piemixer.db"},
		API:      APIConfig{Addr: ":8090"},
		Logging:  LoggingConfig{Level: "info"},
		Graph: GraphConfig{
			DumpCommand:    "pw-dump",
			LinkCommand:    "pw-link",
			ResyncInterval: Duration(DefaultResyncInterval),
		},
	}
}

// DefaultRules wires S/PDIF receivers into an S/PDIF or analog playback
// device. Both sides select on the device description; the media role
// predicate keeps capture and playback devices apart when descriptions
// overlap, as they do for USB S/PDIF hardware.
func DefaultRules() []domain.MatchRule {
	return []domain.MatchRule{
		{
			Role:                domain.RuleRoleInput,
			DescriptionContains: "SPDIF",
			MediaRole:           domain.MediaRoleAudioInput,
		},
		{
			Role:                domain.RuleRoleInput,
			DescriptionContains: "S/PDIF",
			MediaRole:           domain.MediaRoleAudioInput,
		},
		{
			Role:                domain.RuleRoleOutput,
			DescriptionContains: "SPDIF",
			MediaRole:           domain.MediaRoleAudioOutput,
		},
		{
			Role:                domain.RuleRoleOutput,
			DescriptionContains: "Analog",
			MediaRole:           domain.MediaRoleAudioOutput,
		},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Database.Path == "" {
		c.Database.Path = "./piemixer.db"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8090"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Graph.DumpCommand == "" {
		c.Graph.DumpCommand = "pw-dump"
	}
	if c.Graph.LinkCommand == "" {
		c.Graph.LinkCommand = "pw-link"
	}
	if c.Graph.ResyncInterval == 0 {
		c.Graph.ResyncInterval = Duration(DefaultResyncInterval)
	}
}

// Validate checks the loaded config for contradictions
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: must be debug, info, warn or error", c.Logging.Level)
	}

	if c.Graph.ResyncInterval.Duration() < time.Second {
		return fmt.Errorf("graph.resync_interval %s: must be at least 1s", c.Graph.ResyncInterval.Duration())
	}

	if err := domain.ValidateRules(c.Rules); err != nil {
		return err
	}

	return nil
}
