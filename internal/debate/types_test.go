package debate

import (
	"testing"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
)

func validConfig() *Config {
	return &Config{
		Prompt:    "Is Python better than Rust?",
		Providers: []string{"openai", "anthropic"},
		Mode:      ModeRoundRobin,
		MaxRounds: DefaultMaxRounds,
		Threshold: DefaultThreshold,
		MaxTokens: DefaultMaxTokens,
		OutputDir: DefaultOutputDir,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid round-robin", func(c *Config) {}, false},
		{"empty prompt", func(c *Config) { c.Prompt = "  " }, true},
		{"no providers", func(c *Config) { c.Providers = nil }, true},
		{"duplicate providers", func(c *Config) { c.Providers = []string{"openai", "openai"} }, true},
		{"unknown mode", func(c *Config) { c.Mode = "tournament" }, true},
		{"zero rounds", func(c *Config) { c.MaxRounds = 0 }, true},
		{"threshold too high", func(c *Config) { c.Threshold = 1.5 }, true},
		{"threshold negative", func(c *Config) { c.Threshold = -0.1 }, true},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, true},
		{"temperature out of range", func(c *Config) { temp := 2.5; c.Temperature = &temp }, true},
		{"temperature in range", func(c *Config) { temp := 0.7; c.Temperature = &temp }, false},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"judge mode without judge", func(c *Config) { c.Mode = ModeJudge }, true},
		{"judge not selected", func(c *Config) {
			c.Mode = ModeJudge
			c.JudgeProvider = "google"
		}, true},
		{"judge mode valid", func(c *Config) {
			c.Mode = ModeJudge
			c.JudgeProvider = "anthropic"
		}, false},
		{"synthesis provider not selected", func(c *Config) { c.SynthesisProvider = "google" }, true},
		{"synthesis provider valid", func(c *Config) { c.SynthesisProvider = "openai" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *errors.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("error %v is not a ConfigError", err)
				}
			}
		})
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		participant string
		want        string
	}{
		{"openai", "openai"},
		{"openai:gpt-4.1", "openai"},
		{"ollama:llama3.2:8b", "ollama"},
	}
	for _, tt := range tests {
		if got := BaseName(tt.participant); got != tt.want {
			t.Errorf("BaseName(%q) = %q, want %q", tt.participant, got, tt.want)
		}
	}
}

func TestRoundResponse(t *testing.T) {
	round := Round{
		Number: 1,
		Responses: []llm.Response{
			{Provider: "openai", Content: "a"},
			{Provider: "anthropic", Content: "b"},
		},
	}

	resp, ok := round.Response("anthropic")
	if !ok || resp.Content != "b" {
		t.Errorf("Response(anthropic) = %+v, %v", resp, ok)
	}
	if _, ok := round.Response("google"); ok {
		t.Error("Response(google) should be absent")
	}
}

func TestLatestResponses(t *testing.T) {
	result := &Result{
		Rounds: []Round{
			{Number: 1, Responses: []llm.Response{
				{Provider: "openai", Content: "v1"},
				{Provider: "anthropic", Content: "w1"},
			}},
			{Number: 2, Responses: []llm.Response{
				{Provider: "openai", Content: "v2"},
			}},
		},
	}

	latest := result.LatestResponses()
	if latest["openai"].Content != "v2" {
		t.Errorf("openai latest = %q, want v2", latest["openai"].Content)
	}
	if latest["anthropic"].Content != "w1" {
		t.Errorf("anthropic latest = %q, want w1", latest["anthropic"].Content)
	}
}
