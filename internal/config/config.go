// Package config loads MARS application configuration: provider
// credentials, base URLs, and default provider selection.
//
// Sources are layered with the highest priority first:
//
//  1. Process environment variables (prefix MARS_)
//  2. A local .env file in the working directory
//  3. The user-level config file at ~/.mars/config
//
// Lower-priority sources never override values that are already set,
// so loading happens in priority order with override disabled.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for all MARS settings.
const EnvPrefix = "MARS"

// DefaultOllamaBaseURL is used when MARS_OLLAMA_BASE_URL is unset.
const DefaultOllamaBaseURL = "http://localhost:11434"

// defaultModels maps provider base names to their default model.
var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-20250514",
	"google":    "gemini-2.0-flash",
	"ollama":    "llama3.2",
}

// Config holds resolved application configuration.
type Config struct {
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GoogleAPIKey     string
	OllamaBaseURL    string
	DefaultProviders string
}

// Dir returns the user-level MARS configuration directory (~/.mars).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mars"
	}
	return filepath.Join(home, ".mars")
}

// File returns the user-level MARS configuration file path.
func File() string {
	return filepath.Join(Dir(), "config")
}

// Load resolves configuration from the environment, a local .env file,
// and the user config file, in that priority order.
func Load() *Config {
	// godotenv never overrides variables that are already set, so the
	// process environment wins, then .env, then the home config file.
	_ = godotenv.Load()
	if cfgFile := File(); fileExists(cfgFile) {
		_ = godotenv.Load(cfgFile)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("ollama_base_url", DefaultOllamaBaseURL)

	return &Config{
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		AnthropicAPIKey:  v.GetString("anthropic_api_key"),
		GoogleAPIKey:     v.GetString("google_api_key"),
		OllamaBaseURL:    v.GetString("ollama_base_url"),
		DefaultProviders: v.GetString("default_providers"),
	}
}

// APIKey returns the credential for a provider base name, or "" when the
// provider needs none (ollama) or is unknown.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "google":
		return c.GoogleAPIKey
	default:
		return ""
	}
}

// DefaultModel returns the default model for a provider base name.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// DefaultProviderList returns the configured default providers, or
// ["openai", "anthropic"] when MARS_DEFAULT_PROVIDERS is unset. Entries
// are comma-separated and may carry a :model suffix.
func (c *Config) DefaultProviderList() []string {
	if c.DefaultProviders == "" {
		return []string{"openai", "anthropic"}
	}
	var out []string
	for _, p := range strings.Split(c.DefaultProviders, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"openai", "anthropic"}
	}
	return out
}

// PermissionWarning returns a warning message when the user config file
// is readable by group or others, or "" when permissions are acceptable.
func PermissionWarning() string {
	info, err := os.Stat(File())
	if err != nil {
		return ""
	}
	if mode := info.Mode().Perm(); mode&0o044 != 0 {
		return fmt.Sprintf("%s is readable by other users (mode %o). Run: chmod 600 %s",
			File(), mode, File())
	}
	return ""
}

// Save writes credential key-value pairs to the user config file with
// owner-only permissions, creating ~/.mars if needed.
func Save(values map[string]string) error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := godotenv.Write(values, File()); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	if err := os.Chmod(File(), 0o600); err != nil {
		return fmt.Errorf("config: set permissions: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
