package orchestrator

import (
	"context"
	"fmt"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
)

// Judge runs a single answer round and then asks one designated
// provider to rule on all answers. If the judge call fails after retry,
// the run fails; there is no fallback.
type Judge struct {
	base
}

// NewJudge creates the judge strategy.
func NewJudge(participants []participant, cfg *debate.Config, deps deps) *Judge {
	return &Judge{base: newBase(participants, cfg, deps.renderer, deps.writer, deps.log)}
}

// Run executes the answer round and the judgment.
func (s *Judge) Run(ctx context.Context) (*debate.Result, error) {
	result := &debate.Result{
		Prompt:  s.cfg.Prompt,
		Context: s.cfg.Context,
		Mode:    s.cfg.Mode,
	}

	if err := s.writer.WritePrompt(s.cfg.Prompt, s.cfg.Context); err != nil {
		return nil, err
	}

	judge, ok := s.find(s.cfg.JudgeProvider)
	if !ok {
		return nil, errors.NewConfigError(
			fmt.Sprintf("judge provider %q is not among the selected providers", s.cfg.JudgeProvider),
			errors.ErrJudgeRequired)
	}

	s.renderer.StartRound(1)
	responses, firstErr := s.initialRound(ctx, "Round 1")
	if len(responses) == 0 {
		err := errors.ErrRoundFailed
		if firstErr != nil {
			err = errors.Join(err, firstErr)
		}
		return nil, errors.NewDebateError("round", err)
	}
	result.Rounds = append(result.Rounds, debate.Round{Number: 1, Responses: responses})
	if err := s.writer.WriteRound(1, responses, nil); err != nil {
		return nil, err
	}

	s.renderer.StartRound(2)
	s.renderer.StartWork([]string{judge.id}, "Judging")
	judgment, err := s.generate(ctx, judge, s.cfg.JudgeMessages(responses))
	s.renderer.StopWork()
	if err != nil {
		s.log.WithPhase("judge").WithProvider(judge.id).Error("judge failed", "error", err.Error())
		return nil, errors.NewDebateError("judge", errors.NewProviderError(judge.id, "judge", err))
	}

	final, resolution := debate.ParseFinalAnswer(judgment.Content)
	result.Synthesis = &judgment
	result.FinalAnswer = final
	result.Resolution = resolution
	result.ConvergenceReason = fmt.Sprintf("Judge (%s) evaluated all responses.", judge.id)

	if err := s.writer.WriteRound(2, []llm.Response{judgment}, nil); err != nil {
		return nil, err
	}
	if err := s.writer.WriteConvergence(result.ConvergenceReason); err != nil {
		return nil, err
	}
	if err := s.writer.WriteResolution(resolution); err != nil {
		return nil, err
	}
	return result, s.writer.WriteFinal(final)
}
