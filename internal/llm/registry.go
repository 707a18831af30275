package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/config"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
)

// Constructor builds a provider from application configuration.
type Constructor func(cfg *config.Config) (Provider, error)

var registry = map[string]Constructor{
	"openai": func(cfg *config.Config) (Provider, error) {
		return NewOpenAIProvider(cfg.OpenAIAPIKey, config.DefaultModel("openai"))
	},
	"anthropic": func(cfg *config.Config) (Provider, error) {
		return NewAnthropicProvider(cfg.AnthropicAPIKey, config.DefaultModel("anthropic"))
	},
	"google": func(cfg *config.Config) (Provider, error) {
		return NewGoogleProvider(cfg.GoogleAPIKey, config.DefaultModel("google"))
	},
	"ollama": func(cfg *config.Config) (Provider, error) {
		return NewOllamaProvider(cfg.OllamaBaseURL, config.DefaultModel("ollama"))
	},
}

// New constructs the provider registered under a base name. Unknown
// names and missing credentials yield a configuration error before any
// debate begins.
func New(name string, cfg *config.Config) (Provider, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, errors.NewConfigError(
			fmt.Sprintf("unknown provider %q (available: %s)", name, strings.Join(Available(), ", ")),
			errors.ErrUnknownProvider,
		)
	}
	return ctor(cfg)
}

// Available returns the registered provider base names, sorted.
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
