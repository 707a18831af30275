package analysis

import (
	"fmt"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
)

// ProviderCost summarises one provider's token consumption and cost.
type ProviderCost struct {
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	InputCost    float64
	OutputCost   float64
	TotalCost    float64
	// ShareOfTotal is this provider's fraction of the debate's total
	// cost, in [0, 1]; zero when the total is zero.
	ShareOfTotal float64
}

// CostReport aggregates token usage and cost across the whole debate.
type CostReport struct {
	Providers         []ProviderCost
	TotalInputTokens  int
	TotalOutputTokens int
	TotalCost         float64
	// Warnings records models with no pricing entry; their calls
	// contribute zero cost.
	Warnings []string
}

// ComputeCosts sums token usage per provider across all responses,
// including the synthesis or judge response, and prices it by
// longest-prefix model lookup.
func ComputeCosts(result *debate.Result, order []string) *CostReport {
	type totals struct {
		model  string
		input  int
		output int
	}
	perProvider := make(map[string]*totals)

	accumulate := func(provider, model string, input, output int) {
		t, ok := perProvider[provider]
		if !ok {
			t = &totals{model: model}
			perProvider[provider] = t
		}
		t.input += input
		t.output += output
	}

	for _, round := range result.Rounds {
		for _, resp := range round.Responses {
			accumulate(resp.Provider, resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
	}
	if resp := result.Synthesis; resp != nil {
		accumulate(resp.Provider, resp.Model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}

	report := &CostReport{}
	warned := make(map[string]bool)

	appendProvider := func(name string) {
		t, ok := perProvider[name]
		if !ok {
			return
		}
		price, found := lookupPrice(t.model)
		if !found && !warned[t.model] {
			warned[t.model] = true
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("no pricing for model %q; cost recorded as zero", t.model))
		}
		pc := ProviderCost{
			Provider:     name,
			Model:        t.model,
			InputTokens:  t.input,
			OutputTokens: t.output,
			InputCost:    float64(t.input) / 1e6 * price.input,
			OutputCost:   float64(t.output) / 1e6 * price.output,
		}
		pc.TotalCost = pc.InputCost + pc.OutputCost

		report.Providers = append(report.Providers, pc)
		report.TotalInputTokens += t.input
		report.TotalOutputTokens += t.output
		report.TotalCost += pc.TotalCost
	}

	seen := make(map[string]bool, len(order))
	for _, name := range order {
		seen[name] = true
		appendProvider(name)
	}
	// A synthesis response can come from a participant not listed in
	// order; keep it rather than dropping its cost.
	for name := range perProvider {
		if !seen[name] {
			appendProvider(name)
		}
	}

	if report.TotalCost > 0 {
		for i := range report.Providers {
			report.Providers[i].ShareOfTotal = report.Providers[i].TotalCost / report.TotalCost
		}
	}
	return report
}
