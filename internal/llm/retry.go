package llm

import (
	"context"
	"io"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/errors"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/logging"
)

// RetryOptions configures the retry wrapper.
type RetryOptions struct {
	// MaxRetries is the number of additional attempts after the first
	// failure. Zero disables retries.
	MaxRetries int
	// BaseDelay is the backoff unit; attempt n sleeps BaseDelay·2^n.
	// Defaults to one second.
	BaseDelay time.Duration
	// Limiter optionally paces requests before each attempt.
	Limiter *rate.Limiter
	// Logger receives retry warnings. Defaults to a discard logger.
	Logger *logging.Logger
}

// WithRetry wraps a provider with exponential backoff over transient
// failures. Fatal failures surface immediately; after retry exhaustion
// the last transient cause is returned unchanged.
func WithRetry(inner Provider, opts RetryOptions) Provider {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &retrying{inner: inner, opts: opts}
}

type retrying struct {
	inner Provider
	opts  RetryOptions
}

func (r *retrying) Name() string { return r.inner.Name() }

func (r *retrying) DefaultModel() string { return r.inner.DefaultModel() }

// Generate retries the inner call on transient failures.
func (r *retrying) Generate(ctx context.Context, req Request) (string, TokenUsage, error) {
	var lastErr error
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := r.backoff(ctx, attempt-1, lastErr); err != nil {
				return "", TokenUsage{}, err
			}
		}
		if err := r.wait(ctx); err != nil {
			return "", TokenUsage{}, err
		}

		content, usage, err := r.inner.Generate(ctx, req)
		if err == nil {
			return content, usage, nil
		}
		if !errors.IsTransient(err) {
			return "", TokenUsage{}, err
		}
		lastErr = err
	}
	return "", TokenUsage{}, lastErr
}

// Stream retries establishing the stream up to and including receipt of
// the first chunk. Once a chunk has been delivered to the caller, a
// mid-stream failure is fatal for that call.
func (r *retrying) Stream(ctx context.Context, req Request) (Stream, error) {
	var lastErr error
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := r.backoff(ctx, attempt-1, lastErr); err != nil {
				return nil, err
			}
		}
		if err := r.wait(ctx); err != nil {
			return nil, err
		}

		stream, err := r.inner.Stream(ctx, req)
		if err == nil {
			first, recvErr := stream.Recv()
			switch {
			case recvErr == nil:
				return &primedStream{first: first, hasFirst: true, inner: stream}, nil
			case recvErr == io.EOF:
				return &primedStream{inner: stream, drained: true}, nil
			default:
				stream.Close()
				err = recvErr
			}
		}
		if !errors.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (r *retrying) wait(ctx context.Context) error {
	if r.opts.Limiter == nil {
		return nil
	}
	return r.opts.Limiter.Wait(ctx)
}

func (r *retrying) backoff(ctx context.Context, attempt int, cause error) error {
	delay := r.opts.BaseDelay << uint(attempt)
	r.opts.Logger.WithProvider(r.inner.Name()).Warn("retrying after transient failure",
		"attempt", attempt+1,
		"delay", delay.String(),
		"cause", SanitizeMessage(cause.Error()),
	)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// primedStream replays the chunk consumed while validating the stream,
// then delegates to the underlying stream.
type primedStream struct {
	inner    Stream
	first    string
	hasFirst bool
	drained  bool
}

func (s *primedStream) Recv() (string, error) {
	if s.hasFirst {
		s.hasFirst = false
		return s.first, nil
	}
	if s.drained {
		return "", io.EOF
	}
	return s.inner.Recv()
}

func (s *primedStream) Usage() (TokenUsage, error) { return s.inner.Usage() }

func (s *primedStream) Close() error { return s.inner.Close() }

// Credential-looking substrings are masked before retry causes reach
// the log.
var sanitizePatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(sk-[A-Za-z0-9_-]{8})[A-Za-z0-9_-]+`), "$1..."},
	{regexp.MustCompile(`(AIza[A-Za-z0-9_-]{8})[A-Za-z0-9_-]+`), "$1..."},
	{regexp.MustCompile(`(Bearer\s+)[A-Za-z0-9_./+-]+`), "$1[REDACTED]"},
}

// SanitizeMessage strips API-key-like tokens from error text so they
// never land in logs.
func SanitizeMessage(text string) string {
	for _, p := range sanitizePatterns {
		text = p.re.ReplaceAllString(text, p.replacement)
	}
	return text
}
