package orchestrator

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/output"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/render"
)

// stubCall scripts one provider call outcome.
type stubCall struct {
	content string
	err     error
}

// stubProvider replays a scripted sequence of call outcomes. When the
// script runs out, the last entry repeats. Safe for concurrent use.
type stubProvider struct {
	mu     sync.Mutex
	name   string
	script []stubCall
	calls  int
}

func newStub(name string, script ...stubCall) *stubProvider {
	return &stubProvider{name: name, script: script}
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) DefaultModel() string { return s.name + "-default-model" }

func (s *stubProvider) next() stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.calls++
	return s.script[idx]
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubProvider) Generate(ctx context.Context, req llm.Request) (string, llm.TokenUsage, error) {
	call := s.next()
	if call.err != nil {
		return "", llm.TokenUsage{}, call.err
	}
	return call.content, llm.TokenUsage{InputTokens: 10, OutputTokens: 5}, nil
}

func (s *stubProvider) Stream(ctx context.Context, req llm.Request) (llm.Stream, error) {
	call := s.next()
	if call.err != nil {
		return nil, call.err
	}
	return &stubStream{chunks: []string{call.content}}, nil
}

type stubStream struct {
	chunks  []string
	drained bool
}

func (s *stubStream) Recv() (string, error) {
	if len(s.chunks) == 0 {
		s.drained = true
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func (s *stubStream) Usage() (llm.TokenUsage, error) {
	if !s.drained {
		return llm.TokenUsage{}, errors.ErrStreamNotDrained
	}
	return llm.TokenUsage{InputTokens: 10, OutputTokens: 5}, nil
}

func (s *stubStream) Close() error { return nil }

// testHarness bundles the pieces a strategy needs, writing renderer
// output to a buffer and audit files to a temp directory.
type testHarness struct {
	cfg    *debate.Config
	deps   deps
	buf    *bytes.Buffer
	writer *output.Writer
}

func newHarness(t *testing.T, cfg *debate.Config) *testHarness {
	t.Helper()
	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}
	writer, err := output.NewWriter(cfg.OutputDir, cfg.Prompt)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	var buf bytes.Buffer
	return &testHarness{
		cfg: cfg,
		deps: deps{
			renderer: render.NewWithWriter(&buf, cfg.Verbose),
			writer:   writer,
		},
		buf:    &buf,
		writer: writer,
	}
}

func roundRobinConfig(providers ...string) *debate.Config {
	return &debate.Config{
		Prompt:    "What color is the sky during the day?",
		Providers: providers,
		Mode:      debate.ModeRoundRobin,
		MaxRounds: 3,
		Threshold: 0.85,
		MaxTokens: 1024,
	}
}

func TestGatherOmitsFailedProviders(t *testing.T) {
	cfg := roundRobinConfig("openai", "anthropic", "google")
	h := newHarness(t, cfg)

	good1 := newStub("openai", stubCall{content: "The sky is blue today and all afternoon."})
	good2 := newStub("anthropic", stubCall{content: "During the day the sky appears blue."})
	bad := newStub("google", stubCall{err: errors.New("401 invalid api key")})

	b := newBase([]participant{
		{id: "openai", provider: good1},
		{id: "anthropic", provider: good2},
		{id: "google", provider: bad},
	}, cfg, h.deps.renderer, h.deps.writer, nil)

	responses, firstErr := b.initialRound(context.Background(), "Round 1")
	if len(responses) != 2 {
		t.Fatalf("responses length = %d, want 2", len(responses))
	}
	for _, r := range responses {
		if r.Provider == "google" {
			t.Error("failed provider must be omitted from the round")
		}
	}
	if firstErr == nil {
		t.Error("first failure should be reported for diagnostics")
	}
	if !bytes.Contains(h.buf.Bytes(), []byte("google")) {
		t.Error("renderer should have shown the provider failure")
	}
}

func TestGatherPreservesRegistrationOrder(t *testing.T) {
	cfg := roundRobinConfig("openai", "anthropic")
	h := newHarness(t, cfg)

	b := newBase([]participant{
		{id: "openai", provider: newStub("openai", stubCall{content: "Answer from the first provider here."})},
		{id: "anthropic", provider: newStub("anthropic", stubCall{content: "Answer from the second provider here."})},
	}, cfg, h.deps.renderer, h.deps.writer, nil)

	responses, _ := b.initialRound(context.Background(), "Round 1")
	if len(responses) != 2 {
		t.Fatalf("responses length = %d", len(responses))
	}
	if responses[0].Provider != "openai" || responses[1].Provider != "anthropic" {
		t.Errorf("responses out of registration order: %v, %v", responses[0].Provider, responses[1].Provider)
	}
}

func TestGatherVerboseStreams(t *testing.T) {
	cfg := roundRobinConfig("openai")
	cfg.Verbose = true
	h := newHarness(t, cfg)

	b := newBase([]participant{
		{id: "openai", provider: newStub("openai", stubCall{content: "Streamed answer text for the verbose mode."})},
	}, cfg, h.deps.renderer, h.deps.writer, nil)

	responses, _ := b.initialRound(context.Background(), "Round 1")
	if len(responses) != 1 {
		t.Fatalf("responses length = %d", len(responses))
	}
	if responses[0].Content != "Streamed answer text for the verbose mode." {
		t.Errorf("content = %q", responses[0].Content)
	}
	if responses[0].Usage.OutputTokens != 5 {
		t.Errorf("usage should come from the drained stream: %+v", responses[0].Usage)
	}
}

func TestResolvedModelUsesOverride(t *testing.T) {
	cfg := roundRobinConfig("openai:gpt-4.1")
	cfg.ModelOverrides = map[string]string{"openai:gpt-4.1": "gpt-4.1"}
	h := newHarness(t, cfg)

	stub := newStub("openai", stubCall{content: "Answer text long enough to matter here."})
	b := newBase([]participant{{id: "openai:gpt-4.1", provider: stub}}, cfg, h.deps.renderer, h.deps.writer, nil)

	responses, _ := b.initialRound(context.Background(), "Round 1")
	if responses[0].Model != "gpt-4.1" {
		t.Errorf("model = %q, want override", responses[0].Model)
	}
	if responses[0].Provider != "openai:gpt-4.1" {
		t.Errorf("provider = %q, want participant ID", responses[0].Provider)
	}
}
