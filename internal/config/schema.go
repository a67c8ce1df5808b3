package config

import (
	"time"

	"piemixer/internal/domain"
)

// Config is the root configuration structure
type Config struct {
	Version  int                `yaml:"version"`
	Rules    []domain.MatchRule `yaml:"rules,omitempty"` // empty = compiled-in defaults
	Database DatabaseConfig     `yaml:"database"`
	API      APIConfig          `yaml:"api"`
	Logging  LoggingConfig      `yaml:"logging"`
	Graph    GraphConfig        `yaml:"graph"`
}

// DatabaseConfig holds link ownership database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// APIConfig holds HTTP API settings
type APIConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // nil = enabled
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds log settings
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// GraphConfig holds settings for talking to the audio graph
type GraphConfig struct {
	DumpCommand    string   `yaml:"dump_command"`
	LinkCommand    string   `yaml:"link_command"`
	ResyncInterval Duration `yaml:"resync_interval"`
}

// APIEnabled reports whether the HTTP API should be served
func (c *Config) APIEnabled() bool {
	if c.API.Enabled == nil {
		return true
	}
	return *c.API.Enabled
}

// EffectiveRules returns the configured rules, or the defaults when the
// config declares none
func (c *Config) EffectiveRules() []domain.MatchRule {
	if len(c.Rules) == 0 {
		return DefaultRules()
	}
	return c.Rules
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the wrapped time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
