// Package errors provides centralized error definitions and error handling
// utilities for MARS. It defines domain-specific error types, sentinel
// errors, and the transient-failure classification used by the provider
// retry layer.
//
// # Error Types
//
//   - ConfigError: invalid configuration detected before a run starts
//   - ProviderError: a failure from one model back-end, tagged with the
//     provider name and operation
//   - DebateError: a run-level failure (round failure, synthesis
//     exhaustion, cancellation)
//
// # Classification
//
// IsTransient reports whether an error is worth retrying. Different
// vendors expose different error taxonomies, so classification is a
// case-insensitive substring test over the error text rather than a
// vendor-specific type switch.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Re-export standard library functions for convenience so callers can
// import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors.
var (
	// ErrUnknownProvider indicates a provider name with no registered constructor.
	ErrUnknownProvider = New("unknown provider")
	// ErrMissingCredentials indicates a provider was selected without credentials.
	ErrMissingCredentials = New("missing credentials")
	// ErrRoundFailed indicates every provider failed within a single round.
	ErrRoundFailed = New("all providers failed in round")
	// ErrSynthesisExhausted indicates every synthesis candidate failed.
	ErrSynthesisExhausted = New("all providers failed during synthesis")
	// ErrJudgeRequired indicates judge mode was selected without a judge provider.
	ErrJudgeRequired = New("judge mode requires a judge provider")
	// ErrStreamNotDrained indicates stream usage was read before the stream
	// was fully consumed.
	ErrStreamNotDrained = New("stream usage not available until fully consumed")
)

// ConfigError represents invalid configuration detected before any debate
// begins.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError with an optional underlying cause.
func NewConfigError(msg string, err error) *ConfigError {
	return &ConfigError{Msg: msg, Err: err}
}

// ProviderError represents a failure from one model back-end.
type ProviderError struct {
	Provider string
	Op       string // "generate", "stream", "synthesis", "judge"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError tags err with the provider name and operation.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// DebateError represents a run-level failure that aborts the debate.
type DebateError struct {
	Phase string // "round", "synthesis", "judge"
	Err   error
}

func (e *DebateError) Error() string {
	return fmt.Sprintf("debate %s: %v", e.Phase, e.Err)
}

func (e *DebateError) Unwrap() error { return e.Err }

// NewDebateError wraps err with the debate phase in which it occurred.
func NewDebateError(phase string, err error) *DebateError {
	return &DebateError{Phase: phase, Err: err}
}

// transientMarkers are matched case-insensitively against error text.
// The substring test covers the common transient failure signatures
// across vendor APIs: timeouts, rate limits, connection resets, and
// overload status codes.
var transientMarkers = []string{
	"timeout",
	"rate_limit",
	"ratelimit",
	"connection",
	"503",
	"529",
	"internalserver",
}

// IsTransient reports whether err looks like a transient failure worth
// retrying. Network timeouts and deadline expiry are always transient;
// everything else is classified by substring.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	text := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
