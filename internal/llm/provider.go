package llm

import "context"

// Request holds the parameters for one provider call. Model is empty to
// use the provider default. A nil Temperature is never transmitted to
// the back-end, so each vendor's own default applies.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Stream is a lazy finite sequence of text chunks. Chunks arrive in
// order; Recv returns io.EOF after the final chunk. Usage is only valid
// after the stream has been fully consumed.
type Stream interface {
	// Recv returns the next text chunk, or io.EOF when the stream is done.
	Recv() (string, error)
	// Usage returns the token usage for the call. It returns
	// errors.ErrStreamNotDrained until Recv has returned io.EOF.
	Usage() (TokenUsage, error)
	// Close releases the underlying connection. Safe to call more than once.
	Close() error
}

// Provider is the uniform contract over one model back-end.
// Implementations are safe for concurrent use.
type Provider interface {
	// Name is the stable provider identifier ("openai", "anthropic", ...).
	Name() string
	// DefaultModel is the model used when a request does not name one.
	DefaultModel() string
	// Generate returns the complete response content and usage, or fails.
	Generate(ctx context.Context, req Request) (string, TokenUsage, error)
	// Stream opens a streaming call. The returned stream yields chunks
	// whose concatenation equals the content Generate would return.
	Stream(ctx context.Context, req Request) (Stream, error)
}

// resolveModel picks the request model or falls back to the default.
func resolveModel(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}
