package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config file (path, or
// DefaultPath when empty) and binds environment variables with the
// MEMTIER_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound with BindPFlag)
//  2. Environment variables (MEMTIER_STORE_BACKEND, MEMTIER_MODEL_API_KEY, etc.)
//  3. config.toml values
//  4. Defaults from NewDefaultConfig()
func InitViper(path string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; a missing explicit one is not.
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("MEMTIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)

	v.SetDefault("model.provider", d.Model.Provider)
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.api_key", d.Model.APIKey)
	v.SetDefault("model.base_url", d.Model.BaseURL)
	v.SetDefault("model.max_tokens", d.Model.MaxTokens)
	v.SetDefault("model.timeout", d.Model.Timeout)

	v.SetDefault("prompt.budget", d.Prompt.Budget)
	v.SetDefault("prompt.persona", d.Prompt.Persona)
	v.SetDefault("prompt.instructions", d.Prompt.Instructions)

	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// FromViper resolves the effective Config from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Store: StoreConfig{
			Backend:    v.GetString("store.backend"),
			Dir:        v.GetString("store.dir"),
			SQLitePath: v.GetString("store.sqlite_path"),
		},
		Model: ModelConfig{
			Provider:  v.GetString("model.provider"),
			Name:      v.GetString("model.name"),
			APIKey:    v.GetString("model.api_key"),
			BaseURL:   v.GetString("model.base_url"),
			MaxTokens: v.GetInt64("model.max_tokens"),
			Timeout:   v.GetString("model.timeout"),
		},
		Prompt: PromptConfig{
			Budget:       v.GetInt("prompt.budget"),
			Persona:      v.GetString("prompt.persona"),
			Instructions: v.GetString("prompt.instructions"),
		},
		Cache: CacheConfig{
			RedisURL: v.GetString("cache.redis_url"),
			TTL:      v.GetString("cache.ttl"),
		},
		Log: LogConfig{
			Debug:  v.GetBool("log.debug"),
			JSON:   v.GetBool("log.json"),
			Pretty: v.GetBool("log.pretty"),
		},
	}
}
