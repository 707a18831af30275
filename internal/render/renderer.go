// Package render draws debate progress, provider responses, and
// analysis reports to the terminal.
//
// A Renderer serialises all writes behind a mutex and holds at most one
// active progress indicator; starting a new progress scope stops the
// previous one. Streaming output is written raw between
// StartProviderStream and EndProviderStream so chunks appear as they
// arrive.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/analysis"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/util"
)

// Renderer draws debate output. Safe for use from a single strategy
// goroutine; writes from parallel provider dispatches must be routed
// through the strategy, which serialises them.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	verbose  bool
	animate  bool
	progress *progress
}

// New creates a Renderer writing to stdout.
func New(verbose bool) *Renderer {
	return &Renderer{
		out:     os.Stdout,
		verbose: verbose,
		animate: isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// NewWithWriter creates a Renderer writing to out with animation
// disabled. Intended for tests and non-terminal sinks.
func NewWithWriter(out io.Writer, verbose bool) *Renderer {
	return &Renderer{out: out, verbose: verbose}
}

// StartDebate draws the run banner.
func (r *Renderer) StartDebate(prompt string, participants []string, mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	body := fmt.Sprintf("%s\n\n%s\n%s",
		titleStyle.Render("MARS Debate"),
		util.TruncateString(prompt, 120),
		dimStyle.Render(fmt.Sprintf("mode: %s | providers: %s", mode, strings.Join(participants, ", "))),
	)
	fmt.Fprintln(r.out, panelStyle.Render(body))
}

// StartRound draws a round heading. Round 0 is the synthesis step.
func (r *Renderer) StartRound(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	label := fmt.Sprintf("Round %d", n)
	if n == 0 {
		label = "Synthesis"
	}
	fmt.Fprintln(r.out, roundStyle.Render("── "+label+" ──"))
}

// StartWork begins a progress scope for the named providers. Any
// previous scope is stopped first.
func (r *Renderer) StartWork(names []string, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()
	label := util.TruncateANSI(fmt.Sprintf("%s: %s", phase, strings.Join(names, ", ")), 100)
	r.progress = newProgress(r.out, label, r.animate)
}

// StopWork ends the active progress scope, if any.
func (r *Renderer) StopWork() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()
}

func (r *Renderer) stopProgressLocked() {
	if r.progress != nil {
		r.progress.stop()
		r.progress = nil
	}
}

// ShowResponse draws a provider's completed answer in a panel.
func (r *Renderer) ShowResponse(provider, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, providerStyle.Render(provider))
	fmt.Fprintln(r.out, panelStyle.Render(content))
}

// ShowError reports a provider failure without aborting the run.
func (r *Renderer) ShowError(provider, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, errorStyle.Render(fmt.Sprintf("✗ %s: %s", provider, msg)))
}

// StartProviderStream draws the header before raw streamed chunks.
func (r *Renderer) StartProviderStream(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, providerStyle.Render("── "+provider+" ──"))
}

// StreamChunk writes one streamed chunk verbatim.
func (r *Renderer) StreamChunk(chunk string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, chunk)
}

// EndProviderStream terminates the streamed block.
func (r *Renderer) EndProviderStream() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, "\n\n")
}

// ShowConvergence reports why the critique loop ended.
func (r *Renderer) ShowConvergence(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, successStyle.Render("✓ "+reason))
}

// ShowAttribution draws the per-provider attribution table.
func (r *Renderer) ShowAttribution(report *analysis.AttributionReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, roundStyle.Render("── Attribution ──"))

	tbl := newTable().Headers("Provider", "Model", "Contribution", "Survival", "Influence")
	for _, pa := range report.Providers {
		tbl.Row(
			pa.Provider,
			pa.Model,
			fmt.Sprintf("%.1f%% (%d/%d)", pa.Contribution*100, pa.ContributedSentences, report.FinalSentences),
			fmt.Sprintf("%.1f%% (%d/%d)", pa.Survival*100, pa.SurvivedSentences, pa.InitialSentences),
			fmt.Sprintf("%.1f%%", pa.Influence*100),
		)
	}
	if report.NovelSentences > 0 {
		tbl.Row(
			"synthesizer (novel)", "-",
			fmt.Sprintf("%.1f%% (%d/%d)", report.NovelShare*100, report.NovelSentences, report.FinalSentences),
			"-", "-",
		)
	}
	fmt.Fprintln(r.out, tbl.String())
}

// ShowRoundDiffs draws the round-over-round change table.
func (r *Renderer) ShowRoundDiffs(diffs []analysis.RoundDiff) {
	if len(diffs) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, roundStyle.Render("── Round Changes ──"))

	tbl := newTable().Headers("Provider", "Rounds", "Similarity", "Added", "Removed", "Unchanged")
	for _, d := range diffs {
		tbl.Row(
			d.Provider,
			fmt.Sprintf("%d→%d", d.FromRound, d.ToRound),
			fmt.Sprintf("%.1f%%", d.Similarity*100),
			fmt.Sprintf("+%d", d.SentencesAdded),
			fmt.Sprintf("-%d", d.SentencesRemoved),
			fmt.Sprintf("%d", d.SentencesUnchanged),
		)
	}
	fmt.Fprintln(r.out, tbl.String())
}

// ShowCosts draws the token and cost table.
func (r *Renderer) ShowCosts(report *analysis.CostReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, roundStyle.Render("── Costs ──"))

	tbl := newTable().Headers("Provider", "Model", "Input", "Output", "Cost", "Share")
	for _, pc := range report.Providers {
		tbl.Row(
			pc.Provider,
			pc.Model,
			fmt.Sprintf("%d", pc.InputTokens),
			fmt.Sprintf("%d", pc.OutputTokens),
			fmt.Sprintf("$%.4f", pc.TotalCost),
			fmt.Sprintf("%.1f%%", pc.ShareOfTotal*100),
		)
	}
	fmt.Fprintln(r.out, tbl.String())
	fmt.Fprintf(r.out, "Total: %d tokens | $%.4f\n",
		report.TotalInputTokens+report.TotalOutputTokens, report.TotalCost)
	for _, warning := range report.Warnings {
		fmt.Fprintln(r.out, warnStyle.Render("! "+warning))
	}
}

// ShowFinalAnswer draws the synthesised reply.
func (r *Renderer) ShowFinalAnswer(result *debate.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopProgressLocked()

	fmt.Fprintln(r.out, roundStyle.Render("── Final Answer ──"))
	fmt.Fprintln(r.out, panelStyle.Render(result.FinalAnswer))
	if result.Synthesis != nil {
		fmt.Fprintln(r.out, dimStyle.Render("synthesized by "+result.Synthesis.Provider))
	}
}

// ShowOutputPath reports where the audit trail was written.
func (r *Renderer) ShowOutputPath(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, dimStyle.Render("audit: "+path))
}

// Verbose reports whether the renderer is in streaming mode.
func (r *Renderer) Verbose() bool { return r.verbose }

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
}
