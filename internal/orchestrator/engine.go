package orchestrator

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/analysis"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/config"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/logging"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/output"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/render"
)

// deps bundles the components a strategy renders to and writes through.
type deps struct {
	renderer *render.Renderer
	writer   *output.Writer
	log      *logging.Logger
}

// Engine validates configuration, constructs providers, selects a
// strategy, and runs post-debate analysis.
type Engine struct {
	cfg      *debate.Config
	app      *config.Config
	renderer *render.Renderer
}

// NewEngine creates an Engine for one debate run.
func NewEngine(cfg *debate.Config, app *config.Config, renderer *render.Renderer) *Engine {
	return &Engine{cfg: cfg, app: app, renderer: renderer}
}

// Run executes the debate and returns the completed result. The audit
// directory is written step-wise, so a failed run still leaves a
// partial trail.
func (e *Engine) Run(ctx context.Context) (*debate.Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	writer, err := output.NewWriter(e.cfg.OutputDir, e.cfg.Prompt)
	if err != nil {
		return nil, err
	}

	level := logging.LevelInfo
	if e.cfg.Verbose {
		level = logging.LevelDebug
	}
	log, err := logging.NewLogger(writer.BasePath(), level)
	if err != nil {
		return nil, err
	}
	defer log.Close()

	participants, err := e.buildParticipants(log)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.id
	}
	e.renderer.StartDebate(e.cfg.Prompt, names, string(e.cfg.Mode))

	d := deps{renderer: e.renderer, writer: writer, log: log}
	var strategy Strategy
	if e.cfg.Mode == debate.ModeJudge {
		strategy = NewJudge(participants, e.cfg, d)
	} else {
		strategy = NewRoundRobin(participants, e.cfg, d)
	}

	result, err := strategy.Run(ctx)
	if err != nil {
		return nil, err
	}

	log.WithPhase("analysis").Info("debate complete, analyzing")
	attribution := analysis.NewAnalyzer().Analyze(result, e.cfg.Providers)
	costs := analysis.ComputeCosts(result, e.cfg.Providers)
	for _, warning := range costs.Warnings {
		log.WithPhase("analysis").Warn(warning)
	}

	e.renderer.ShowAttribution(attribution)
	e.renderer.ShowRoundDiffs(attribution.RoundDiffs)
	e.renderer.ShowCosts(costs)
	if err := writer.WriteAttribution(attribution); err != nil {
		return nil, err
	}
	if err := writer.WriteRoundDiffs(attribution.RoundDiffs); err != nil {
		return nil, err
	}
	if err := writer.WriteCosts(costs); err != nil {
		return nil, err
	}

	e.renderer.ShowFinalAnswer(result)
	e.renderer.ShowOutputPath(writer.BasePath())
	return result, nil
}

// Request pacing per provider back-end: a sustained rate of one
// request per second with burst headroom, shared by every participant
// on the same back-end.
const (
	requestsPerSecond = 1
	requestBurst      = 10
)

// buildParticipants constructs one retry-wrapped provider per
// configured participant ID. Participants sharing a back-end share its
// rate limiter.
func (e *Engine) buildParticipants(log *logging.Logger) ([]participant, error) {
	limiters := make(map[string]*rate.Limiter)
	participants := make([]participant, 0, len(e.cfg.Providers))
	for _, id := range e.cfg.Providers {
		base := debate.BaseName(id)
		provider, err := llm.New(base, e.app)
		if err != nil {
			return nil, err
		}
		limiter, ok := limiters[base]
		if !ok {
			limiter = rate.NewLimiter(requestsPerSecond, requestBurst)
			limiters[base] = limiter
		}
		wrapped := llm.WithRetry(provider, llm.RetryOptions{
			MaxRetries: e.cfg.MaxRetries,
			Limiter:    limiter,
			Logger:     log,
		})
		participants = append(participants, participant{id: id, provider: wrapped})
	}
	return participants, nil
}
