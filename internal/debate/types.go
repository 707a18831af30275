package debate

import (
	"fmt"
	"strings"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
)

// Mode selects the debate strategy.
type Mode string

const (
	// ModeRoundRobin runs iterative critique rounds until convergence,
	// then synthesises a final answer.
	ModeRoundRobin Mode = "round-robin"
	// ModeJudge runs one answer round, then a designated judge rules.
	ModeJudge Mode = "judge"
)

// Default configuration values.
const (
	DefaultMaxRounds  = 3
	DefaultThreshold  = 0.85
	DefaultMaxTokens  = 8192
	DefaultMaxRetries = 3
	DefaultOutputDir  = "./mars-output"
)

// BaseName extracts the provider base name from a participant ID:
// "openai:gpt-4.1" yields "openai"; "openai" is returned unchanged.
func BaseName(participant string) string {
	name, _, _ := strings.Cut(participant, ":")
	return name
}

// Config holds the options for one debate run. Immutable once validated.
type Config struct {
	Prompt            string
	Context           []string
	Providers         []string // ordered, distinct participant IDs
	ModelOverrides    map[string]string
	Mode              Mode
	MaxRounds         int
	JudgeProvider     string
	SynthesisProvider string
	Threshold         float64
	MaxTokens         int
	Temperature       *float64
	MaxRetries        int
	OutputDir         string
	Verbose           bool
}

// Validate checks the configuration before any provider is constructed.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Prompt) == "" {
		return errors.NewConfigError("a prompt is required", nil)
	}
	if len(c.Providers) == 0 {
		return errors.NewConfigError("at least one provider is required", nil)
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if seen[p] {
			return errors.NewConfigError(fmt.Sprintf("duplicate provider %q", p), nil)
		}
		seen[p] = true
	}
	if c.Mode != ModeRoundRobin && c.Mode != ModeJudge {
		return errors.NewConfigError(fmt.Sprintf("unknown mode %q", c.Mode), nil)
	}
	if c.MaxRounds < 1 {
		return errors.NewConfigError("rounds must be at least 1", nil)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return errors.NewConfigError("threshold must be between 0.0 and 1.0", nil)
	}
	if c.MaxTokens <= 0 {
		return errors.NewConfigError("max-tokens must be positive", nil)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return errors.NewConfigError("temperature must be between 0.0 and 2.0", nil)
	}
	if c.MaxRetries < 0 {
		return errors.NewConfigError("max-retries must not be negative", nil)
	}
	if c.Mode == ModeJudge {
		if c.JudgeProvider == "" {
			return errors.NewConfigError("judge mode requires a judge provider", errors.ErrJudgeRequired)
		}
		if !seen[c.JudgeProvider] {
			return errors.NewConfigError(
				fmt.Sprintf("judge provider %q is not among the selected providers", c.JudgeProvider), nil)
		}
	}
	if c.SynthesisProvider != "" && !seen[c.SynthesisProvider] {
		return errors.NewConfigError(
			fmt.Sprintf("synthesis provider %q is not among the selected providers", c.SynthesisProvider), nil)
	}
	return nil
}

// Model returns the model override for a participant, or "" when the
// participant uses its provider default.
func (c *Config) Model(participant string) string {
	if c.ModelOverrides == nil {
		return ""
	}
	return c.ModelOverrides[participant]
}

// Critique is one participant's evaluation of another's answer. The
// content holds the critique and the improved answer together, as
// returned by the provider.
type Critique struct {
	Author  string
	Target  string
	Content string
}

// Round holds one debate round's responses and, for rounds two onward,
// the critiques that produced them. Providers that failed in a round
// are simply absent; the round is valid iff at least one provider
// succeeded. Round numbers run 1..R; 0 is reserved for synthesis.
type Round struct {
	Number    int
	Responses []llm.Response
	Critiques []Critique
}

// Response returns the round's response for a participant, if present.
func (r Round) Response(participant string) (llm.Response, bool) {
	for _, resp := range r.Responses {
		if resp.Provider == participant {
			return resp, true
		}
	}
	return llm.Response{}, false
}

// Result is the full record of a completed debate.
type Result struct {
	Prompt  string
	Context []string
	Mode    Mode
	Rounds  []Round
	// Synthesis is the response that produced the final answer: the
	// synthesiser in round-robin mode, the judge in judge mode.
	Synthesis         *llm.Response
	FinalAnswer       string
	Resolution        string
	ConvergenceReason string
}

// LatestResponses returns each participant's most recent answer, keyed
// by participant ID, considering rounds in order.
func (r *Result) LatestResponses() map[string]llm.Response {
	latest := make(map[string]llm.Response)
	for _, round := range r.Rounds {
		for _, resp := range round.Responses {
			latest[resp.Provider] = resp
		}
	}
	return latest
}
