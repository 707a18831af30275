package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/jpollock/multi-agent-resolution-synthesis/internal/debate"
	"github.com/jpollock/multi-agent-resolution-synthesis/internal/llm"
)

func TestLookupPriceLongestPrefix(t *testing.T) {
	tests := []struct {
		model     string
		wantInput float64
		found     bool
	}{
		{"gpt-4o", 2.50, true},
		{"gpt-4o-mini", 0.15, true},                 // exact beats the gpt-4o prefix
		{"gpt-4o-mini-2024-07-18", 0.15, true},      // longest prefix wins
		{"claude-sonnet-4-20250514", 3.00, true},    // dated variant matches base
		{"gemini-2.5-flash-preview", 0.15, true},
		{"llama3.2", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			price, found := lookupPrice(tt.model)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if found && price.input != tt.wantInput {
				t.Errorf("input rate = %v, want %v", price.input, tt.wantInput)
			}
		})
	}
}

func TestComputeCosts(t *testing.T) {
	result := &debate.Result{
		Rounds: []debate.Round{
			{Number: 1, Responses: []llm.Response{
				{Provider: "openai", Model: "gpt-4o", Usage: llm.TokenUsage{InputTokens: 600_000, OutputTokens: 0}},
				{Provider: "anthropic", Model: "claude-sonnet-4-20250514", Usage: llm.TokenUsage{InputTokens: 0, OutputTokens: 500_000}},
			}},
			{Number: 2, Responses: []llm.Response{
				{Provider: "openai", Model: "gpt-4o", Usage: llm.TokenUsage{InputTokens: 400_000, OutputTokens: 0}},
			}},
		},
		Synthesis: &llm.Response{
			Provider: "anthropic", Model: "claude-sonnet-4-20250514",
			Usage: llm.TokenUsage{InputTokens: 0, OutputTokens: 500_000},
		},
	}

	report := ComputeCosts(result, []string{"openai", "anthropic"})

	if len(report.Providers) != 2 {
		t.Fatalf("Providers length = %d, want 2", len(report.Providers))
	}

	openai := report.Providers[0]
	if openai.Provider != "openai" {
		t.Fatalf("first provider = %q, want registration order", openai.Provider)
	}
	// 1M input tokens at $2.50/M.
	if math.Abs(openai.TotalCost-2.50) > 1e-9 {
		t.Errorf("openai cost = %v, want 2.50", openai.TotalCost)
	}
	if openai.InputTokens != 1_000_000 {
		t.Errorf("openai input tokens = %d, want 1000000", openai.InputTokens)
	}

	anthropic := report.Providers[1]
	// 1M output tokens (round + synthesis) at $15/M.
	if math.Abs(anthropic.TotalCost-15.00) > 1e-9 {
		t.Errorf("anthropic cost = %v, want 15.00", anthropic.TotalCost)
	}

	if math.Abs(report.TotalCost-17.50) > 1e-9 {
		t.Errorf("TotalCost = %v, want 17.50", report.TotalCost)
	}

	shareSum := 0.0
	for _, pc := range report.Providers {
		shareSum += pc.ShareOfTotal
	}
	if math.Abs(shareSum-1.0) > 1e-6 {
		t.Errorf("shares sum = %v, want 1.0", shareSum)
	}
}

func TestComputeCostsUnknownModelWarns(t *testing.T) {
	result := &debate.Result{
		Rounds: []debate.Round{
			{Number: 1, Responses: []llm.Response{
				{Provider: "ollama", Model: "llama3.2", Usage: llm.TokenUsage{InputTokens: 1000, OutputTokens: 1000}},
			}},
		},
	}

	report := ComputeCosts(result, []string{"ollama"})

	if report.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0 for unpriced model", report.TotalCost)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "llama3.2") {
		t.Errorf("Warnings = %v, want one naming the model", report.Warnings)
	}
	if report.Providers[0].ShareOfTotal != 0 {
		t.Errorf("ShareOfTotal = %v, want 0 when total is zero", report.Providers[0].ShareOfTotal)
	}
}

func TestComputeCostsEmptyResult(t *testing.T) {
	report := ComputeCosts(&debate.Result{}, []string{"openai"})
	if len(report.Providers) != 0 {
		t.Errorf("Providers = %v, want empty for a result with no responses", report.Providers)
	}
	if report.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0", report.TotalCost)
	}
}
