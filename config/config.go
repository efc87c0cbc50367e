package config

// Package config persists the coverpipe tool configuration. The NCover
// location is resolved once, when the configuration file is first created,
// and read back from disk afterwards.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/coverpipe/cli/ncover"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvNCoverPath overrides the configured NCover directory for one process.
const EnvNCoverPath = "COVERPIPE_NCOVER_PATH"

// Config is the persisted coverpipe configuration.
type Config struct {
	NCover ncover.ToolLocation `yaml:"ncover"`
	// HistoryDir overrides where reports are stored (default: .coverpipe/history
	// in the repository root).
	HistoryDir string `yaml:"history_dir,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/coverpipe/config.yaml, falling back to
// ~/.config and finally the temp directory.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home := os.Getenv("HOME"); home != "" {
			configHome = filepath.Join(home, ".config")
		} else if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome == "" {
		configHome = os.TempDir()
	}
	return filepath.Join(configHome, "coverpipe", "config.yaml")
}

// Load reads the configuration at path. When the file does not exist yet the
// NCover location is resolved and the new configuration is saved; a failed
// save is logged and the resolved configuration is still returned.
func Load(logger zerolog.Logger, path string) (*Config, error) {
	return load(logger, path, ncover.ResolveToolLocation)
}

func load(logger zerolog.Logger, path string, resolve func() ncover.ToolLocation) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		cfg := &Config{NCover: resolve()}
		if err := cfg.Save(path); err != nil {
			logger.Warn().
				Err(err).
				Str("config", path).
				Str("ncover", cfg.NCover.Path).
				Msg("Failed to save configuration, using resolved NCover location for this run only")
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv(EnvNCoverPath); dir != "" {
		c.NCover = ncover.ToolLocation{Path: dir, Source: ncover.LocationConfigured}
	}
}
