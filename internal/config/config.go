// Package config loads memtier settings from config.toml, the environment
// and command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the config file looked up in the config directory.
const FileName = "config.toml"

// ParseTOML decodes data into a Config without applying defaults.
func ParseTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path. A missing file yields the defaults;
// fields set in the file override them.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseTOML(data)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed. The file may
// hold an API key, so it is written owner-only.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if path == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// DefaultPath returns the config file used when none is given:
// $MEMTIER_CONFIG if set, else ~/.memtier/config.toml.
func DefaultPath() string {
	if env := os.Getenv("MEMTIER_CONFIG"); env != "" {
		return env
	}
	return filepath.Join(HomeDir(), FileName)
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig.
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = d.Store.Backend
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = d.Store.Dir
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = d.Store.SQLitePath
	}

	if cfg.Model.Provider == "" {
		cfg.Model.Provider = d.Model.Provider
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = d.Model.MaxTokens
	}
	if cfg.Model.Timeout == "" {
		cfg.Model.Timeout = d.Model.Timeout
	}

	if cfg.Prompt.Budget == 0 {
		cfg.Prompt.Budget = d.Prompt.Budget
	}
	if cfg.Prompt.Persona == "" {
		cfg.Prompt.Persona = d.Prompt.Persona
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store.backend: unknown backend %q (want file or sqlite)", c.Store.Backend)
	}
	if c.Model.Timeout != "" && c.Model.TimeoutDuration() <= 0 {
		return fmt.Errorf("model.timeout: invalid duration %q", c.Model.Timeout)
	}
	if c.Cache.TTL != "" && c.Cache.TTLDuration() <= 0 {
		return fmt.Errorf("cache.ttl: invalid duration %q", c.Cache.TTL)
	}
	return nil
}
