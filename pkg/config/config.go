// Package config loads run-time options for the interpreter from YAML:
// tool-calling bounds and the HTTP provider's connection settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunOptions bounds the prompt/tool-calling loop.
type RunOptions struct {
	MaxToolRounds int `yaml:"max_tool_rounds"`
	MaxToolCalls  int `yaml:"max_tool_calls"`
}

// DefaultRunOptions mirrors the interpreter's built-in defaults.
func DefaultRunOptions() RunOptions {
	return RunOptions{MaxToolRounds: 8, MaxToolCalls: 32}
}

// ProviderConfig describes how to reach an HTTP-backed prompt provider.
type ProviderConfig struct {
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Config is the full on-disk configuration document.
type Config struct {
	Run      RunOptions     `yaml:"run"`
	Provider ProviderConfig `yaml:"provider"`
}

// Load reads and parses a YAML config file, filling any unset RunOptions
// fields with their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	cfg := Config{Run: DefaultRunOptions()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if cfg.Run.MaxToolRounds == 0 {
		cfg.Run.MaxToolRounds = 8
	}
	if cfg.Run.MaxToolCalls == 0 {
		cfg.Run.MaxToolCalls = 32
	}

	return cfg, nil
}
