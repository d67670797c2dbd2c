package provider

// modelPricing holds per-million-token pricing for known models.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// pricing maps catalog model identifiers to their token costs in USD.
var pricing = map[string]modelPricing{
	// Gemini
	"gemini-2.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 10.0},
	"gemini-2.5-flash": {InputPerMillion: 0.30, OutputPerMillion: 2.50},

	// ChatGPT
	"gpt-5":   {InputPerMillion: 1.25, OutputPerMillion: 10.0},
	"gpt-4.1": {InputPerMillion: 2.0, OutputPerMillion: 8.0},

	// Claude
	"claude-sonnet-4-5":        {InputPerMillion: 3.0, OutputPerMillion: 15.0},
	"claude-3-7-sonnet-latest": {InputPerMillion: 3.0, OutputPerMillion: 15.0},

	// Grok
	"grok-4": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
	"grok-3": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
}

// EstimateCost returns the estimated USD cost for the given model and usage.
// Returns 0 if the model is not in the pricing table.
func EstimateCost(model string, usage Usage) float64 {
	p, ok := pricing[model]
	if !ok {
		return 0
	}
	inputCost := float64(usage.InputTokens) / 1_000_000 * p.InputPerMillion
	outputCost := float64(usage.OutputTokens) / 1_000_000 * p.OutputPerMillion
	return inputCost + outputCost
}
