package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/config"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/orchestrator"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/render"
)

var debateCmd = &cobra.Command{
	Use:   "debate PROMPT",
	Short: "Run a multi-LLM debate on a prompt",
	Long: `Run a multi-LLM debate on PROMPT. Use @file to read the prompt
from a file (e.g. mars debate @question.txt).

In round-robin mode (default), providers answer independently, then
critique each other's answers for up to N rounds until convergence. A
final synthesis merges the best points from all providers.

In judge mode, all providers answer once, then a designated judge
provider evaluates and produces the final answer.`,
	Example: `  mars debate "Compare React vs Vue" -p openai -p anthropic
  mars debate @prompt.txt -c @data.csv -p openai -p google
  mars debate "Best algo?" -p openai -p google -m judge -j anthropic
  mars debate "Topic" -p openai -p anthropic -r 5 --threshold 0.9`,
	Args: cobra.ExactArgs(1),
	RunE: runDebate,
}

var (
	debateContext   []string
	debateProviders []string
	debateMode      string
	debateRounds    int
	debateJudge     string
	debateSynthesis string
	debateModels    []string
	debateThreshold float64
	debateMaxTokens int
	debateTemp      float64
	debateVerbose   bool
	debateOutputDir string
	debateRetries   int
)

func init() {
	flags := debateCmd.Flags()
	flags.StringArrayVarP(&debateContext, "context", "c", nil, "context text or @file path (repeatable)")
	flags.StringArrayVarP(&debateProviders, "provider", "p", nil, "provider or provider:model (repeatable)")
	flags.StringVarP(&debateMode, "mode", "m", string(debate.ModeRoundRobin), "debate mode: round-robin or judge")
	flags.IntVarP(&debateRounds, "rounds", "r", debate.DefaultMaxRounds, "max debate rounds")
	flags.StringVarP(&debateJudge, "judge-provider", "j", "", "provider to act as judge (judge mode)")
	flags.StringVarP(&debateSynthesis, "synthesis-provider", "s", "", "provider for final synthesis (default: auto)")
	flags.StringArrayVar(&debateModels, "model", nil, "provider:model override (repeatable)")
	flags.Float64Var(&debateThreshold, "threshold", debate.DefaultThreshold, "convergence similarity threshold (0.0-1.0)")
	flags.IntVar(&debateMaxTokens, "max-tokens", debate.DefaultMaxTokens, "max output tokens per LLM call")
	flags.Float64VarP(&debateTemp, "temperature", "t", -1, "temperature (0.0-2.0; default: provider default)")
	flags.BoolVarP(&debateVerbose, "verbose", "v", false, "stream responses in real-time")
	flags.StringVarP(&debateOutputDir, "output-dir", "o", defaultOutputDir(), "output directory")
	flags.IntVar(&debateRetries, "max-retries", debate.DefaultMaxRetries, "retry attempts for transient provider failures")
	rootCmd.AddCommand(debateCmd)
}

func runDebate(cmd *cobra.Command, args []string) error {
	appCfg := config.Load()
	if warning := config.PermissionWarning(); warning != "" {
		fmt.Fprintln(os.Stderr, "Warning:", warning)
	}

	prompt, err := resolveValue(args[0])
	if err != nil {
		return err
	}
	context := make([]string, 0, len(debateContext))
	for _, c := range debateContext {
		resolved, err := resolveValue(c)
		if err != nil {
			return err
		}
		context = append(context, resolved)
	}

	providers, overrides := parseProviderFlags(debateProviders, appCfg)
	if err := mergeModelOverrides(overrides, debateModels); err != nil {
		return err
	}

	cfg := &debate.Config{
		Prompt:            prompt,
		Context:           context,
		Providers:         providers,
		ModelOverrides:    overrides,
		Mode:              debate.Mode(debateMode),
		MaxRounds:         debateRounds,
		JudgeProvider:     debateJudge,
		SynthesisProvider: debateSynthesis,
		Threshold:         debateThreshold,
		MaxTokens:         debateMaxTokens,
		MaxRetries:        debateRetries,
		OutputDir:         debateOutputDir,
		Verbose:           debateVerbose,
	}
	if cmd.Flags().Changed("temperature") {
		temp := debateTemp
		cfg.Temperature = &temp
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := orchestrator.NewEngine(cfg, appCfg, render.New(debateVerbose))
	_, err = engine.Run(ctx)
	return err
}

// parseProviderFlags turns -p values into participant IDs. A name:model
// value makes the full string the participant ID with the model keyed
// under it, so the same provider can join twice with different models.
func parseProviderFlags(flags []string, appCfg *config.Config) ([]string, map[string]string) {
	values := flags
	if len(values) == 0 {
		values = appCfg.DefaultProviderList()
	}

	var providers []string
	overrides := make(map[string]string)
	for _, v := range values {
		providers = append(providers, v)
		if _, model, found := strings.Cut(v, ":"); found {
			overrides[v] = model
		}
	}
	return providers, overrides
}

// mergeModelOverrides applies --model provider:model entries.
func mergeModelOverrides(overrides map[string]string, flags []string) error {
	for _, v := range flags {
		provider, model, found := strings.Cut(v, ":")
		if !found || provider == "" || model == "" {
			return fmt.Errorf("invalid --model value %q, want provider:model", v)
		}
		overrides[provider] = model
	}
	return nil
}
