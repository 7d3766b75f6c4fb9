package config

import (
	"os"
	"path/filepath"
)

const (
	dirName = ".memtier"

	defaultBackend   = "file"
	defaultProvider  = "anthropic"
	defaultMaxTokens = 2048
	defaultTimeout   = "60s"
	defaultBudget    = 8000
	defaultPersona   = "你是一个负责整理长期记忆的助手。"
)

// HomeDir returns ~/.memtier, or .memtier when the home directory is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	base := HomeDir()
	return &Config{
		Store: StoreConfig{
			Backend:    defaultBackend,
			Dir:        filepath.Join(base, "memories"),
			SQLitePath: filepath.Join(base, "memory.db"),
		},
		Model: ModelConfig{
			Provider:  defaultProvider,
			MaxTokens: defaultMaxTokens,
			Timeout:   defaultTimeout,
		},
		Prompt: PromptConfig{
			Budget:  defaultBudget,
			Persona: defaultPersona,
		},
	}
}
