// Package debate defines the data model for a multi-provider debate:
// configuration, rounds, critiques, and the final result, plus the
// prompt shapes used by each phase.
//
// # Lifecycle
//
// A Config is immutable for the duration of a run. Responses are created
// inside a strategy and never mutated. Rounds are appended to a Result
// in order and never reordered or deleted. Analysis reports are derived
// purely from the Result after the run completes.
//
// # Participants
//
// A participant ID is either a provider base name ("openai") or a
// name:model pair ("openai:gpt-4.1"). The full string identifies the
// participant throughout the debate; BaseName extracts the provider
// name for registry lookup.
package debate
