package analysis

import "strings"

// modelPrice holds USD rates per million tokens.
type modelPrice struct {
	input  float64
	output float64
}

// modelPricing lists approximate public per-model rates. Ollama models
// run locally and are free, so they are absent and price at zero.
var modelPricing = map[string]modelPrice{
	// OpenAI
	"gpt-4o":       {2.50, 10.00},
	"gpt-4o-mini":  {0.15, 0.60},
	"gpt-4.1":      {2.00, 8.00},
	"gpt-4.1-mini": {0.40, 1.60},
	"gpt-4.1-nano": {0.10, 0.40},
	"o3":           {2.00, 8.00},
	"o3-mini":      {1.10, 4.40},
	"o4-mini":      {1.10, 4.40},
	// Anthropic
	"claude-opus-4":   {15.00, 75.00},
	"claude-sonnet-4": {3.00, 15.00},
	"claude-haiku-3":  {0.25, 1.25},
	// Google
	"gemini-2.0-flash": {0.10, 0.40},
	"gemini-2.5-pro":   {1.25, 10.00},
	"gemini-2.5-flash": {0.15, 0.60},
}

// lookupPrice finds the pricing entry whose key is the longest prefix
// of model. Returns false when no entry matches.
func lookupPrice(model string) (modelPrice, bool) {
	if price, ok := modelPricing[model]; ok {
		return price, true
	}
	var best string
	var bestPrice modelPrice
	found := false
	for key, price := range modelPricing {
		if strings.HasPrefix(model, key) && len(key) > len(best) {
			best = key
			bestPrice = price
			found = true
		}
	}
	return bestPrice, found
}
