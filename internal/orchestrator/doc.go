// Package orchestrator runs debates: it selects a strategy, fans
// prompts out to providers, collects rounds, and invokes post-run
// analysis.
//
// # Strategies
//
// Two strategies share the same provider set, configuration, renderer,
// and writer, and differ only in Run:
//
//   - RoundRobin: an initial answer round, then critique rounds with
//     convergence detection, then synthesis with provider fallback.
//   - Judge: one answer round, then a single designated evaluator.
//
// # Concurrency
//
// In quiet mode, provider dispatches within a round run in parallel and
// are awaited together; renderer and writer access is serialised after
// the barrier, in registration order. In verbose mode dispatches run
// sequentially so streamed chunks are never interleaved. Rounds are
// strictly ordered; synthesis and judging always happen after every
// prior round completes.
package orchestrator
