package orchestrator

import (
	"context"
	"fmt"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/textmatch"
)

// RoundRobin runs iterative critique rounds with convergence detection,
// then synthesises the final answer with provider fallback.
type RoundRobin struct {
	base
}

// NewRoundRobin creates the round-robin strategy.
func NewRoundRobin(participants []participant, cfg *debate.Config, deps deps) *RoundRobin {
	return &RoundRobin{base: newBase(participants, cfg, deps.renderer, deps.writer, deps.log)}
}

// Run executes the debate: INITIAL, then CRITIQUE/CONVERGENCE_CHECK
// cycles, then SYNTHESIS.
func (s *RoundRobin) Run(ctx context.Context) (*debate.Result, error) {
	result := &debate.Result{
		Prompt:  s.cfg.Prompt,
		Context: s.cfg.Context,
		Mode:    s.cfg.Mode,
	}

	if err := s.writer.WritePrompt(s.cfg.Prompt, s.cfg.Context); err != nil {
		return nil, err
	}

	latest := make(map[string]llm.Response)

	maxRoundsReached := true
	for roundNum := 1; roundNum <= s.cfg.MaxRounds; roundNum++ {
		s.renderer.StartRound(roundNum)
		s.log.WithRound(roundNum).Info("starting round")

		round := debate.Round{Number: roundNum}

		if roundNum == 1 {
			responses, firstErr := s.initialRound(ctx, "Round 1")
			if len(responses) == 0 {
				return nil, s.roundFailure(roundNum, firstErr)
			}
			round.Responses = responses
			if err := s.writer.WriteRound(roundNum, responses, nil); err != nil {
				return nil, err
			}
			for _, r := range responses {
				latest[r.Provider] = r
			}
			result.Rounds = append(result.Rounds, round)
			continue
		}

		critiques, responses, firstErr := s.critiqueRound(ctx, roundNum, latest)
		if len(responses) == 0 {
			if firstErr != nil {
				return nil, s.roundFailure(roundNum, firstErr)
			}
			// A sole surviving participant has no peer to critique, so
			// nothing was dispatched. The round is a no-op; the debate
			// still synthesises over the remaining answer.
			continue
		}
		round.Critiques = critiques
		round.Responses = responses
		if err := s.writer.WriteRound(roundNum, responses, critiques); err != nil {
			return nil, err
		}

		current := make(map[string]llm.Response, len(responses))
		for _, r := range responses {
			current[r.Provider] = r
		}
		converged := hasConverged(latest, current, s.cfg.Threshold)

		for _, r := range responses {
			latest[r.Provider] = r
		}
		result.Rounds = append(result.Rounds, round)

		if converged {
			reason := fmt.Sprintf(
				"Answers converged after round %d (similarity threshold %v reached).",
				roundNum, s.cfg.Threshold)
			result.ConvergenceReason = reason
			s.renderer.ShowConvergence(reason)
			if err := s.writer.WriteConvergence(reason); err != nil {
				return nil, err
			}
			maxRoundsReached = false
			break
		}
	}

	if maxRoundsReached {
		reason := fmt.Sprintf("Maximum rounds (%d) reached.", s.cfg.MaxRounds)
		result.ConvergenceReason = reason
		s.renderer.ShowConvergence(reason)
		if err := s.writer.WriteConvergence(reason); err != nil {
			return nil, err
		}
	}

	if err := s.synthesize(ctx, latest, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RoundRobin) roundFailure(roundNum int, cause error) error {
	s.log.WithRound(roundNum).Error("all providers failed")
	err := errors.ErrRoundFailed
	if cause != nil {
		err = errors.Join(err, cause)
	}
	return errors.NewDebateError("round", err)
}

// critiqueRound dispatches the critique prompt to every participant
// still present in latest that has at least one peer to critique.
func (s *RoundRobin) critiqueRound(ctx context.Context, roundNum int, latest map[string]llm.Response) ([]debate.Critique, []llm.Response, error) {
	var dispatches []dispatch
	for _, p := range s.participants {
		own, ok := latest[p.id]
		if !ok {
			continue
		}
		var others []llm.Response
		for _, q := range s.participants {
			if q.id == p.id {
				continue
			}
			if resp, ok := latest[q.id]; ok {
				others = append(others, resp)
			}
		}
		if len(others) == 0 {
			continue
		}
		dispatches = append(dispatches, dispatch{
			p:        p,
			messages: s.cfg.CritiqueMessages(p.id, own, others),
		})
	}

	responses, firstErr := s.gather(ctx, dispatches, fmt.Sprintf("Round %d critiques", roundNum))

	// Each response critiques every peer answer it was shown.
	var critiques []debate.Critique
	for _, r := range responses {
		for _, p := range s.participants {
			if p.id == r.Provider {
				continue
			}
			if _, ok := latest[p.id]; !ok {
				continue
			}
			critiques = append(critiques, debate.Critique{
				Author:  r.Provider,
				Target:  p.id,
				Content: r.Content,
			})
		}
	}
	return critiques, responses, firstErr
}

// synthesisOrder returns the candidates for synthesis in preference
// order: the configured synthesis provider first, otherwise anthropic
// then openai by base name, then everyone else in registration order.
func (s *RoundRobin) synthesisOrder() []string {
	if synth := s.cfg.SynthesisProvider; synth != "" {
		if _, ok := s.find(synth); ok {
			ordered := []string{synth}
			for _, p := range s.participants {
				if p.id != synth {
					ordered = append(ordered, p.id)
				}
			}
			return ordered
		}
	}

	var ordered []string
	seen := make(map[string]bool)
	for _, preferred := range []string{"anthropic", "openai"} {
		for _, p := range s.participants {
			if debate.BaseName(p.id) == preferred && !seen[p.id] {
				ordered = append(ordered, p.id)
				seen[p.id] = true
				break
			}
		}
	}
	for _, p := range s.participants {
		if !seen[p.id] {
			ordered = append(ordered, p.id)
		}
	}
	return ordered
}

// synthesize tries each candidate in order until one produces the
// final answer. The first success is canonical; exhaustion aborts the
// run with the last underlying cause.
func (s *RoundRobin) synthesize(ctx context.Context, latest map[string]llm.Response, result *debate.Result) error {
	var answers []llm.Response
	for _, p := range s.participants {
		if resp, ok := latest[p.id]; ok {
			answers = append(answers, resp)
		}
	}
	messages := s.cfg.SynthesisMessages(answers)

	var lastErr error
	for _, id := range s.synthesisOrder() {
		p, ok := s.find(id)
		if !ok {
			continue
		}

		s.renderer.StartRound(0)
		s.renderer.StartWork([]string{id}, "Synthesizing")
		resp, err := s.generate(ctx, p, messages)
		s.renderer.StopWork()
		if err != nil {
			lastErr = err
			s.log.WithPhase("synthesis").WithProvider(id).Error("synthesis failed", "error", err.Error())
			s.renderer.ShowError(id, "Synthesis failed: "+llm.SanitizeMessage(err.Error()))
			continue
		}

		final, resolution := debate.ParseFinalAnswer(resp.Content)
		result.Synthesis = &resp
		result.FinalAnswer = final
		result.Resolution = resolution
		if err := s.writer.WriteResolution(resolution); err != nil {
			return err
		}
		return s.writer.WriteFinal(final)
	}

	err := errors.ErrSynthesisExhausted
	if lastErr != nil {
		err = errors.Join(err, lastErr)
	}
	return errors.NewDebateError("synthesis", err)
}

// hasConverged reports whether every provider present in both rounds
// meets the similarity threshold. An empty intersection never
// converges.
func hasConverged(prev, curr map[string]llm.Response, threshold float64) bool {
	common := 0
	for name, prevResp := range prev {
		currResp, ok := curr[name]
		if !ok {
			continue
		}
		common++
		if textmatch.Ratio(prevResp.Content, currResp.Content) < threshold {
			return false
		}
	}
	return common > 0
}
