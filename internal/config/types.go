package config

import "time"

// Config is the memtier configuration stored as config.toml. The TOML layout
// uses sections for logical grouping.
type Config struct {
	Store  StoreConfig  `toml:"store" json:"store"`
	Model  ModelConfig  `toml:"model" json:"model"`
	Prompt PromptConfig `toml:"prompt" json:"prompt"`
	Cache  CacheConfig  `toml:"cache" json:"cache"`
	Log    LogConfig    `toml:"log" json:"log"`
}

// StoreConfig selects where memory documents live.
type StoreConfig struct {
	// Backend is "file" or "sqlite".
	Backend    string `toml:"backend,omitempty" json:"backend,omitempty"`
	Dir        string `toml:"dir,omitempty" json:"dir,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty" json:"sqlite_path,omitempty"`
}

// ModelConfig configures the language model used by refresh.
type ModelConfig struct {
	Provider  string `toml:"provider,omitempty" json:"provider,omitempty"`
	Name      string `toml:"name,omitempty" json:"name,omitempty"`
	APIKey    string `toml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL   string `toml:"base_url,omitempty" json:"base_url,omitempty"`
	MaxTokens int64  `toml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Timeout   string `toml:"timeout,omitempty" json:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, returning zero for an empty or invalid value.
func (m ModelConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(m.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// PromptConfig configures prompt rendering.
type PromptConfig struct {
	Budget       int    `toml:"budget,omitempty" json:"budget,omitempty"`
	Persona      string `toml:"persona,omitempty" json:"persona,omitempty"`
	Instructions string `toml:"instructions,omitempty" json:"instructions,omitempty"`
}

// CacheConfig configures the last-report cache. An empty RedisURL keeps
// reports in process.
type CacheConfig struct {
	RedisURL string `toml:"redis_url,omitempty" json:"redis_url,omitempty"`
	TTL      string `toml:"ttl,omitempty" json:"ttl,omitempty"`
}

// TTLDuration parses TTL, returning zero for an empty or invalid value.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0
	}
	return d
}

// LogConfig configures log output.
type LogConfig struct {
	Debug  bool `toml:"debug,omitempty" json:"debug,omitempty"`
	JSON   bool `toml:"json,omitempty" json:"json,omitempty"`
	Pretty bool `toml:"pretty,omitempty" json:"pretty,omitempty"`
}
