// Package llm wraps language model providers behind a single completion call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is one completion call. Context is the conversation the prompt
// refers to; it is sent ahead of Prompt in the same user turn.
type Request struct {
	Prompt       string
	Context      string
	SystemPrompt string
}

// UserText joins context and prompt into one user message.
func (r Request) UserText() string {
	ctx := strings.TrimSpace(r.Context)
	if ctx == "" {
		return r.Prompt
	}
	return ctx + "\n\n" + r.Prompt
}

// Completer returns the raw text of a model reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultMaxTokens caps the reply length when none is configured.
const DefaultMaxTokens = 2048

// Config selects and configures a provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int64
}

// New builds the Completer named by cfg.Provider. An empty API key falls
// back to the provider's environment variable.
func New(cfg Config) (Completer, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic, "":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.APIKey == "" {
			return nil, errors.New("llm: anthropic API key not set (model.api_key or ANTHROPIC_API_KEY)")
		}
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.APIKey == "" {
			return nil, errors.New("llm: openai API key not set (model.api_key or OPENAI_API_KEY)")
		}
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
