package config

import (
	"fmt"
	"time"
)

// Config represents a supervise.yaml configuration file.
// All values are optional and act as defaults for supervise flags.
// Environment variables and CLI flags override config values.
type Config struct {
	Label            string          `yaml:"label"`
	Channel          string          `yaml:"channel"`
	Target           string          `yaml:"target"`
	ParseInterval    Duration        `yaml:"parse_interval"`
	FallbackInterval Duration        `yaml:"fallback_interval"`
	Milestones       *bool           `yaml:"milestones,omitempty"`
	Thresholds       []float64       `yaml:"thresholds,omitempty"`
	Attachment       string          `yaml:"attachment"`
	GracePeriod      Duration        `yaml:"grace_period"`
	Semantic         SemanticConfig  `yaml:"semantic"`
	Transport        TransportConfig `yaml:"transport"`
}

// SemanticConfig holds external parser defaults from the config file.
type SemanticConfig struct {
	Enabled *bool    `yaml:"enabled,omitempty"`
	Command []string `yaml:"command,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// TransportConfig holds notification transport defaults from the config file.
type TransportConfig struct {
	Type        string        `yaml:"type"`
	SendTimeout Duration      `yaml:"send_timeout"`
	Gateway     GatewayConfig `yaml:"gateway"`
	Redis       RedisConfig   `yaml:"redis"`
}

// GatewayConfig configures the HTTP gateway transport.
type GatewayConfig struct {
	URL     string            `yaml:"url"`
	Token   string            `yaml:"token"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout"`
}

// RedisConfig configures the Redis pub/sub transport.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Channel  string `yaml:"channel,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = parsed
	return nil
}

// MilestonesEnabled returns the configured milestone switch, or def when unset.
func (c *Config) MilestonesEnabled(def bool) bool {
	if c == nil || c.Milestones == nil {
		return def
	}
	return *c.Milestones
}

// SemanticEnabled returns the configured parser switch, or def when unset.
func (c *Config) SemanticEnabled(def bool) bool {
	if c == nil || c.Semantic.Enabled == nil {
		return def
	}
	return *c.Semantic.Enabled
}
