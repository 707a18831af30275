// Package analysis derives attribution and cost reports from a
// completed debate transcript.
//
// Attribution works at sentence level: each text is split into
// sentences of at least twenty runes, and two sentences match when
// their case-insensitive sequence-matching ratio reaches the
// attribution threshold (0.6). From matches the analyzer computes each
// provider's contribution to the final answer, the survival rate of its
// round-one sentences, its influence on other providers' later rounds,
// and per-round sentence diffs.
//
// Cost analysis sums token usage per provider across all responses and
// prices it with a static per-model table using longest-prefix model
// matching. Unknown models contribute zero cost and a recorded warning.
package analysis
