// Package llm provides a uniform contract over heterogeneous model
// back-ends: OpenAI, Anthropic, Google, and Ollama.
//
// A Provider exposes two operations. Generate returns the complete
// response content with token usage, or fails. Stream returns a lazy
// finite sequence of text chunks whose concatenation equals what
// Generate would have produced for the same inputs; token usage becomes
// queryable only after the stream is fully drained.
//
// # Retry
//
// WithRetry wraps a Provider with exponential backoff over transient
// failures (timeouts, rate limits, connection resets, overload status
// codes). Retrying a stream is permitted only before the first chunk has
// been delivered; once any chunk reaches the caller, a mid-stream
// failure is fatal for that call.
//
// # Construction
//
// Providers are built by name through the registry. Construction fails
// before any debate begins when a provider is unknown or its credentials
// are missing.
package llm
