package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/toolgate/internal/alert"
)

// RuleSpec is one entry in the ordered rule list. Type selects the
// builtin; the remaining fields apply per type.
type RuleSpec struct {
	Type     string   `yaml:"type"` // block_tool | allow_tool | require_approval | block_targets | rate_limit | allow_all
	Tool     string   `yaml:"tool,omitempty"`
	Reason   string   `yaml:"reason,omitempty"`
	Patterns []string `yaml:"patterns,omitempty"`
	MaxCalls int      `yaml:"max_calls,omitempty"`
	Window   string   `yaml:"window,omitempty"` // time.ParseDuration syntax
	PerAgent bool     `yaml:"per_agent,omitempty"`
}

// AuditConfig selects and sizes the audit backend.
type AuditConfig struct {
	Backend  string `yaml:"backend"` // memory | file | sqlite
	Path     string `yaml:"path,omitempty"`
	Capacity int    `yaml:"capacity,omitempty"`
	MaxBytes int64  `yaml:"max_bytes,omitempty"`
}

// Config is the YAML policy for one gate.
type Config struct {
	Default       string      `yaml:"default"` // allow | block | require_approval
	DefaultReason string      `yaml:"default_reason,omitempty"`
	DryRun        bool        `yaml:"dry_run,omitempty"`
	Rules         []RuleSpec  `yaml:"rules"`
	Audit         AuditConfig `yaml:"audit,omitempty"`

	// Alerts lists webhook destinations notified on matching decisions.
	Alerts []alert.Config `yaml:"alerts,omitempty"`
}

// DefaultConfig is the policy applied when no file exists: approve
// nothing automatically except plain http reads, rate-limit globally,
// keep audit in memory.
func DefaultConfig() *Config {
	return &Config{
		Default:       "require_approval",
		DefaultReason: "no rules matched",
		Rules: []RuleSpec{
			{Type: "rate_limit", MaxCalls: 30, Window: "1m", PerAgent: true},
			{Type: "allow_tool", Tool: "http"},
		},
		Audit: AuditConfig{Backend: "memory"},
	}
}

// DefaultPath is the policy location used when none is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolgate", "policy.yaml")
}

// Load reads a policy from a YAML file. Empty path falls back to
// ~/.toolgate/policy.yaml. Missing file returns defaults. Invalid YAML
// returns an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
		if path == "" {
			return DefaultConfig(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Default == "" {
		cfg.Default = "require_approval"
	}
	return &cfg, nil
}

// Write marshals the config to path, creating parent directories.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
