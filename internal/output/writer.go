// Package output writes and reads the on-disk audit trail of a debate.
//
// Each run creates <output-dir>/<timestamp>_<slug>/ containing
// final-answer.md and an audit/ subtree with one file per step. Files
// are written as each step completes, so an interrupted run leaves a
// partial but consistent trail.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/analysis"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/util"
)

// timestampLayout orders run directories lexicographically by creation
// time.
const timestampLayout = "2006-01-02T15-04-05"

// Writer emits the audit files for one debate run. It is append-only
// per file and single-writer; strategies serialise calls.
type Writer struct {
	base  string
	audit string
}

// NewWriter creates the run directory under outputDir, named by
// timestamp and a slug of the prompt.
func NewWriter(outputDir, prompt string) (*Writer, error) {
	slug := util.Slugify(prompt, 60)
	base := filepath.Join(outputDir, time.Now().Format(timestampLayout)+"_"+slug)
	audit := filepath.Join(base, "audit")
	if err := os.MkdirAll(audit, 0o755); err != nil {
		return nil, fmt.Errorf("output: create audit directory: %w", err)
	}
	return &Writer{base: base, audit: audit}, nil
}

// BasePath returns the run directory.
func (w *Writer) BasePath() string { return w.base }

// WritePrompt records the prompt and its context blocks.
func (w *Writer) WritePrompt(prompt string, context []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Prompt\n\n%s\n", prompt)
	if len(context) > 0 {
		b.WriteString("\n# Context\n")
		for i, ctx := range context {
			fmt.Fprintf(&b, "\n## Context %d\n\n%s\n", i+1, ctx)
		}
	}
	return w.write(filepath.Join(w.audit, "00-prompt-and-context.md"), b.String())
}

// WriteRound records one round's responses and, for critique rounds,
// the critiques that produced them.
func (w *Writer) WriteRound(n int, responses []llm.Response, critiques []debate.Critique) error {
	var b strings.Builder
	label := "responses"
	if len(critiques) > 0 {
		label = "critiques"
		fmt.Fprintf(&b, "# Round %d - Critiques & Improved Answers\n", n)
		for _, c := range critiques {
			fmt.Fprintf(&b, "\n## %s critiques %s\n\n%s\n", c.Author, c.Target, c.Content)
		}
		b.WriteString("\n---\n\n# Improved Answers\n")
	} else {
		fmt.Fprintf(&b, "# Round %d - Initial Responses\n", n)
	}

	for _, r := range responses {
		fmt.Fprintf(&b, "\n## %s (%s)\n\n%s\n", r.Provider, r.Model, r.Content)
	}

	name := fmt.Sprintf("%02d-round-%d-%s.md", n, n, label)
	return w.write(filepath.Join(w.audit, name), b.String())
}

// WriteConvergence records why the critique loop ended.
func (w *Writer) WriteConvergence(reason string) error {
	return w.write(filepath.Join(w.audit, "convergence.md"), fmt.Sprintf("# Convergence\n\n%s\n", reason))
}

// WriteResolution records the synthesiser's reasoning.
func (w *Writer) WriteResolution(reasoning string) error {
	return w.write(filepath.Join(w.audit, "resolution.md"), fmt.Sprintf("# Resolution\n\n%s\n", reasoning))
}

// WriteFinal records the final answer at the run directory root.
func (w *Writer) WriteFinal(answer string) error {
	return w.write(filepath.Join(w.base, "final-answer.md"), answer)
}

// WriteAttribution records the attribution report as a Markdown table.
func (w *Writer) WriteAttribution(report *analysis.AttributionReport) error {
	var b strings.Builder
	b.WriteString("# Attribution Analysis\n\n")
	fmt.Fprintf(&b, "Similarity threshold: %.1f  \nFinal answer sentences: %d\n",
		report.Threshold, report.FinalSentences)
	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Provider | Model | Contribution | Survival | Influence |\n")
	b.WriteString("|----------|-------|-------------|----------|-----------|\n")
	for _, pa := range report.Providers {
		fmt.Fprintf(&b, "| %s | %s | %.1f%% (%d/%d) | %.1f%% (%d/%d) | %.1f%% |\n",
			pa.Provider, pa.Model,
			pa.Contribution*100, pa.ContributedSentences, report.FinalSentences,
			pa.Survival*100, pa.SurvivedSentences, pa.InitialSentences,
			pa.Influence*100,
		)
	}
	if report.NovelSentences > 0 {
		fmt.Fprintf(&b, "| *Synthesizer (novel)* | - | %.1f%% (%d/%d) | - | - |\n",
			report.NovelShare*100, report.NovelSentences, report.FinalSentences)
	}

	b.WriteString("\n## Metric Definitions\n\n")
	b.WriteString("- **Contribution**: share of final answer sentences whose best match (above threshold) traces to this provider.\n")
	b.WriteString("- **Survival**: share of this provider's round-1 sentences that appear (above threshold) in the final answer.\n")
	b.WriteString("- **Influence**: share of this provider's sentences that other providers adopted in subsequent rounds.\n")

	for _, pa := range report.Providers {
		if len(pa.InfluenceDetails) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s Influence Breakdown\n\n", pa.Provider)
		for target, share := range pa.InfluenceDetails {
			fmt.Fprintf(&b, "- Adopted by **%s**: %.1f%%\n", target, share*100)
		}
	}
	return w.write(filepath.Join(w.audit, "attribution.md"), b.String())
}

// WriteCosts records the cost report as a Markdown table.
func (w *Writer) WriteCosts(report *analysis.CostReport) error {
	var b strings.Builder
	b.WriteString("# Cost Summary\n\n")
	b.WriteString("| Provider | Model | Input Tokens | Output Tokens | Cost | Share |\n")
	b.WriteString("|----------|-------|-------------|--------------|------|-------|\n")
	for _, pc := range report.Providers {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | $%.4f | %.1f%% |\n",
			pc.Provider, pc.Model, pc.InputTokens, pc.OutputTokens,
			pc.TotalCost, pc.ShareOfTotal*100)
	}
	fmt.Fprintf(&b, "\n**Total**: %d tokens | $%.4f\n",
		report.TotalInputTokens+report.TotalOutputTokens, report.TotalCost)
	for _, warning := range report.Warnings {
		fmt.Fprintf(&b, "\n> Warning: %s\n", warning)
	}
	return w.write(filepath.Join(w.audit, "costs.md"), b.String())
}

// WriteRoundDiffs records the round-over-round change table. Writes
// nothing when the debate had a single round.
func (w *Writer) WriteRoundDiffs(diffs []analysis.RoundDiff) error {
	if len(diffs) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("# Round-over-Round Changes\n\n")
	b.WriteString("| Provider | Rounds | Similarity | Added | Removed | Unchanged |\n")
	b.WriteString("|----------|--------|-----------|-------|---------|-----------|\n")
	for _, d := range diffs {
		fmt.Fprintf(&b, "| %s | %d->%d | %.1f%% | +%d | -%d | %d |\n",
			d.Provider, d.FromRound, d.ToRound, d.Similarity*100,
			d.SentencesAdded, d.SentencesRemoved, d.SentencesUnchanged)
	}
	return w.write(filepath.Join(w.audit, "round-diffs.md"), b.String())
}

func (w *Writer) write(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("output: write %s: %w", filepath.Base(path), err)
	}
	return nil
}
