package llm

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
)

// fakeProvider scripts a sequence of outcomes for Generate and Stream.
type fakeProvider struct {
	name         string
	genErrs      []error // consumed one per call; nil means success
	genCalls     int
	content      string
	usage        TokenUsage
	streamErrs   []error // errors returned when establishing the stream
	streamCalls  int
	chunks       []string
	firstRecvErr error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) DefaultModel() string { return "fake-model" }

func (f *fakeProvider) Generate(ctx context.Context, req Request) (string, TokenUsage, error) {
	f.genCalls++
	if len(f.genErrs) > 0 {
		err := f.genErrs[0]
		f.genErrs = f.genErrs[1:]
		if err != nil {
			return "", TokenUsage{}, err
		}
	}
	return f.content, f.usage, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	f.streamCalls++
	if len(f.streamErrs) > 0 {
		err := f.streamErrs[0]
		f.streamErrs = f.streamErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	s := &fakeStream{chunks: f.chunks, usage: f.usage, firstErr: f.firstRecvErr}
	f.firstRecvErr = nil
	return s, nil
}

type fakeStream struct {
	chunks   []string
	usage    TokenUsage
	firstErr error
	drained  bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.firstErr != nil {
		err := s.firstErr
		s.firstErr = nil
		return "", err
	}
	if len(s.chunks) == 0 {
		s.drained = true
		return "", io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}

func (s *fakeStream) Usage() (TokenUsage, error) {
	if !s.drained {
		return TokenUsage{}, errors.ErrStreamNotDrained
	}
	return s.usage, nil
}

func (s *fakeStream) Close() error { return nil }

func retryOpts(maxRetries int) RetryOptions {
	return RetryOptions{MaxRetries: maxRetries, BaseDelay: time.Millisecond}
}

func TestGenerateRetriesTransient(t *testing.T) {
	fake := &fakeProvider{
		name:    "openai",
		genErrs: []error{errors.New("rate_limit_error"), errors.New("timeout")},
		content: "answer",
		usage:   TokenUsage{InputTokens: 10, OutputTokens: 20},
	}
	p := WithRetry(fake, retryOpts(3))

	content, usage, err := p.Generate(context.Background(), Request{MaxTokens: 100})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if content != "answer" {
		t.Errorf("content = %q, want %q", content, "answer")
	}
	if usage.InputTokens != 10 || usage.OutputTokens != 20 {
		t.Errorf("usage = %+v", usage)
	}
	if fake.genCalls != 3 {
		t.Errorf("genCalls = %d, want 3", fake.genCalls)
	}
}

func TestGenerateFatalNotRetried(t *testing.T) {
	fatal := errors.New("401 invalid api key")
	fake := &fakeProvider{name: "openai", genErrs: []error{fatal}}
	p := WithRetry(fake, retryOpts(3))

	_, _, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, fatal) {
		t.Fatalf("Generate() error = %v, want fatal cause", err)
	}
	if fake.genCalls != 1 {
		t.Errorf("genCalls = %d, want 1", fake.genCalls)
	}
}

func TestGenerateExhaustionSurfacesLastCause(t *testing.T) {
	first := errors.New("timeout a")
	last := errors.New("timeout b")
	fake := &fakeProvider{name: "openai", genErrs: []error{first, last}}
	p := WithRetry(fake, retryOpts(1))

	_, _, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, last) {
		t.Fatalf("Generate() error = %v, want last transient cause", err)
	}
	if fake.genCalls != 2 {
		t.Errorf("genCalls = %d, want 2 (1 + 1 retry)", fake.genCalls)
	}
}

func TestGenerateNeverExceedsMaxRetries(t *testing.T) {
	fake := &fakeProvider{
		name:    "openai",
		genErrs: []error{errors.New("timeout"), errors.New("timeout"), errors.New("timeout"), errors.New("timeout")},
	}
	p := WithRetry(fake, retryOpts(2))

	_, _, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if fake.genCalls != 3 {
		t.Errorf("genCalls = %d, want 3 (1 + MaxRetries)", fake.genCalls)
	}
}

func TestStreamRetriesBeforeFirstChunk(t *testing.T) {
	fake := &fakeProvider{
		name:       "anthropic",
		streamErrs: []error{errors.New("connection refused")},
		chunks:     []string{"hello ", "world"},
		usage:      TokenUsage{InputTokens: 5, OutputTokens: 2},
	}
	p := WithRetry(fake, retryOpts(2))

	stream, err := p.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}

	var got string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		got += chunk
	}
	if got != "hello world" {
		t.Errorf("concatenated chunks = %q, want %q", got, "hello world")
	}
	if fake.streamCalls != 2 {
		t.Errorf("streamCalls = %d, want 2", fake.streamCalls)
	}

	usage, err := stream.Usage()
	if err != nil {
		t.Fatalf("Usage() error = %v", err)
	}
	if usage.InputTokens != 5 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestStreamRetriesFirstRecvFailure(t *testing.T) {
	fake := &fakeProvider{
		name:         "anthropic",
		chunks:       []string{"ok"},
		firstRecvErr: errors.New("connection reset by peer"),
	}
	p := WithRetry(fake, retryOpts(1))

	stream, err := p.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	chunk, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if chunk != "ok" {
		t.Errorf("chunk = %q, want %q", chunk, "ok")
	}
	if fake.streamCalls != 2 {
		t.Errorf("streamCalls = %d, want 2", fake.streamCalls)
	}
}

func TestStreamFatalEstablishmentNotRetried(t *testing.T) {
	fatal := errors.New("404 model does not exist")
	fake := &fakeProvider{name: "google", streamErrs: []error{fatal}}
	p := WithRetry(fake, retryOpts(3))

	_, err := p.Stream(context.Background(), Request{})
	if !errors.Is(err, fatal) {
		t.Fatalf("Stream() error = %v, want fatal cause", err)
	}
	if fake.streamCalls != 1 {
		t.Errorf("streamCalls = %d, want 1", fake.streamCalls)
	}
}

func TestBackoffRespectsCancellation(t *testing.T) {
	fake := &fakeProvider{
		name:    "openai",
		genErrs: []error{errors.New("timeout"), errors.New("timeout")},
	}
	p := WithRetry(fake, RetryOptions{MaxRetries: 5, BaseDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, _, err := p.Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestSanitizeMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "openai key",
			input: "auth failed for sk-abcdefgh12345678",
			want:  "auth failed for sk-abcdefgh...",
		},
		{
			name:  "bearer token",
			input: "header Bearer abc.def.ghi rejected",
			want:  "header Bearer [REDACTED] rejected",
		},
		{
			name:  "no secrets",
			input: "plain failure",
			want:  "plain failure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeMessage(tt.input); got != tt.want {
				t.Errorf("SanitizeMessage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
