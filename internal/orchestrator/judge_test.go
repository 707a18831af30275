package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
)

func judgeConfig(judge string, providers ...string) *debate.Config {
	return &debate.Config{
		Prompt:        "Which approach should we take?",
		Providers:     providers,
		Mode:          debate.ModeJudge,
		JudgeProvider: judge,
		MaxRounds:     1,
		Threshold:     0.85,
		MaxTokens:     1024,
	}
}

func TestJudgeMode(t *testing.T) {
	cfg := judgeConfig("anthropic", "openai", "anthropic")
	h := newHarness(t, cfg)

	a := newStub("openai", stubCall{content: "Take the first approach because it is simpler."})
	judge := newStub("anthropic",
		stubCall{content: "Take the second approach because it scales better."},
		stubCall{content: "reasoning\n## Final Answer\nGo with X."},
	)

	strategy := NewJudge([]participant{
		{id: "openai", provider: a},
		{id: "anthropic", provider: judge},
	}, cfg, h.deps)

	result, err := strategy.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Resolution != "reasoning" {
		t.Errorf("resolution = %q, want %q", result.Resolution, "reasoning")
	}
	if result.FinalAnswer != "Go with X." {
		t.Errorf("final answer = %q, want %q", result.FinalAnswer, "Go with X.")
	}
	if result.Synthesis == nil || result.Synthesis.Provider != "anthropic" {
		t.Errorf("judgment provider not recorded: %+v", result.Synthesis)
	}
	if len(result.Rounds) != 1 {
		t.Errorf("rounds = %d, want 1 answer round", len(result.Rounds))
	}

	// The judgment is written to the audit trail as round 2.
	if _, err := os.Stat(filepath.Join(h.writer.BasePath(), "audit", "02-round-2-responses.md")); err != nil {
		t.Errorf("judgment audit file missing: %v", err)
	}
	final, err := os.ReadFile(filepath.Join(h.writer.BasePath(), "final-answer.md"))
	if err != nil {
		t.Fatalf("final-answer.md: %v", err)
	}
	if string(final) != "Go with X." {
		t.Errorf("final-answer.md = %q", final)
	}
}

func TestJudgeFailureAbortsWithoutFallback(t *testing.T) {
	cfg := judgeConfig("anthropic", "openai", "anthropic")
	h := newHarness(t, cfg)

	a := newStub("openai", stubCall{content: "An answer that is perfectly reasonable here."})
	judge := newStub("anthropic",
		stubCall{content: "Another reasonable answer from the judge itself."},
		stubCall{err: errors.New("400 malformed request")},
	)

	strategy := NewJudge([]participant{
		{id: "openai", provider: a},
		{id: "anthropic", provider: judge},
	}, cfg, h.deps)

	_, err := strategy.Run(context.Background())
	if err == nil {
		t.Fatal("judge failure must abort the run")
	}
	var debateErr *errors.DebateError
	if !errors.As(err, &debateErr) || debateErr.Phase != "judge" {
		t.Errorf("error = %v, want judge-phase DebateError", err)
	}
	// openai must not have been asked to judge.
	if a.callCount() != 1 {
		t.Errorf("openai calls = %d, want 1 (no fallback)", a.callCount())
	}
}

func TestJudgeAllProvidersFailRoundOne(t *testing.T) {
	cfg := judgeConfig("anthropic", "openai", "anthropic")
	h := newHarness(t, cfg)

	strategy := NewJudge([]participant{
		{id: "openai", provider: newStub("openai", stubCall{err: errors.New("401 bad key")})},
		{id: "anthropic", provider: newStub("anthropic", stubCall{err: errors.New("401 bad key")})},
	}, cfg, h.deps)

	_, err := strategy.Run(context.Background())
	if !errors.Is(err, errors.ErrRoundFailed) {
		t.Fatalf("Run() error = %v, want ErrRoundFailed", err)
	}
}
