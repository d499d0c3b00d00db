package llm

import "strings"

// Friendly model names accepted in configuration, per provider. Anything
// else is passed to the provider verbatim.
var (
	anthropicModels = map[string]string{
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	}
	openaiModels = map[string]string{
		"gpt-4o":      "gpt-4o",
		"gpt-4o-mini": "gpt-4o-mini",
	}
	geminiModels = map[string]string{
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.5-pro",
	}
)

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}

// ModelCost holds pricing for a model in USD per 1 million tokens.
type ModelCost struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Cost calculates the total USD cost for the given token counts.
func (c ModelCost) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*c.InputPerMTok/1_000_000 +
		float64(outputTokens)*c.OutputPerMTok/1_000_000
}

// modelCosts prices every model the friendly names resolve to, plus the
// OpenRouter default. Source: models.dev, 2026-02-15.
var modelCosts = map[string]ModelCost{
	"claude-sonnet-4-20250514":  {3, 15},
	"claude-haiku-4-5-20251001": {1, 5},
	"gpt-4o":                    {2.5, 10},
	"gpt-4o-mini":               {0.15, 0.6},
	"gemini-2.0-flash":          {0.1, 0.4},
	"gemini-2.5-pro":            {1.25, 10},

	"google/gemini-2.0-flash-exp": {0, 0},
}

// LookupCost returns the pricing for a model ID reported by a provider, or
// nil if unknown. Dated or versioned variants ("gpt-4o-mini-2024-07-18",
// "gemini-2.0-flash-001") match the longest known prefix, and OpenRouter
// ":free" variants cost nothing.
func LookupCost(modelID string) *ModelCost {
	if strings.HasSuffix(modelID, ":free") {
		return &ModelCost{}
	}
	if c, ok := modelCosts[modelID]; ok {
		return &c
	}

	best := ""
	for id := range modelCosts {
		if len(id) > len(best) && strings.HasPrefix(modelID, id+"-") {
			best = id
		}
	}
	if best == "" {
		return nil
	}
	c := modelCosts[best]
	return &c
}
