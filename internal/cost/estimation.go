// Package cost projects what a digest run would spend on generation before
// any model call is made.
package cost

import (
	"fmt"
	"strings"

	"newsbrief/internal/chunker"
	"newsbrief/internal/core"
	"newsbrief/internal/summarize"
	"newsbrief/internal/tokens"
)

// GeminiPricing holds the per-model rates used for estimation.
type GeminiPricing struct {
	Model                 string
	InputCostPer1MTokens  float64 // USD per 1M input tokens
	OutputCostPer1MTokens float64 // USD per 1M output tokens
	EstimatedOutputTokens int     // Typical digest length per generation call
}

// FallbackModel supplies pricing when the configured model has no table entry.
const FallbackModel = "gemini-2.0-flash"

// PricingTable contains Gemini pricing as of mid 2025.
var PricingTable = map[string]GeminiPricing{
	"gemini-2.0-flash": {
		Model:                 "gemini-2.0-flash",
		InputCostPer1MTokens:  0.10,
		OutputCostPer1MTokens: 0.40,
		EstimatedOutputTokens: 600,
	},
	"gemini-2.0-flash-lite": {
		Model:                 "gemini-2.0-flash-lite",
		InputCostPer1MTokens:  0.075,
		OutputCostPer1MTokens: 0.30,
		EstimatedOutputTokens: 600,
	},
	"gemini-1.5-flash": {
		Model:                 "gemini-1.5-flash",
		InputCostPer1MTokens:  0.075,
		OutputCostPer1MTokens: 0.30,
		EstimatedOutputTokens: 600,
	},
	"gemini-1.5-pro": {
		Model:                 "gemini-1.5-pro",
		InputCostPer1MTokens:  1.25,
		OutputCostPer1MTokens: 5.00,
		EstimatedOutputTokens: 700,
	},
}

// RunEstimate is the projected generation cost for one topic's collected
// articles.
type RunEstimate struct {
	Model        string
	Articles     int
	Chunks       int
	CombinePass  bool
	InputTokens  int
	OutputTokens int
	InputCost    float64
	OutputCost   float64
	TotalCost    float64
}

// EstimateRun projects the token and dollar cost of summarizing articles
// under the given chunk budget. The projection mirrors the real generation
// flow: the articles are partitioned exactly as the summarizer would, one
// call per chunk, plus a combine call when more than one chunk is needed.
func EstimateRun(articles []core.EnrichedArticle, maxTokens int, modelName string) RunEstimate {
	pricing, ok := PricingTable[modelName]
	if !ok {
		pricing = PricingTable[FallbackModel]
	}

	estimate := RunEstimate{Model: modelName, Articles: len(articles)}

	chunks := chunker.New(maxTokens).Split(articles)
	estimate.Chunks = len(chunks)

	promptOverhead := tokens.Estimate(summarize.BuildDigestPrompt(""))

	for _, chunk := range chunks {
		estimate.InputTokens += chunk.TokenCount + promptOverhead
		estimate.OutputTokens += pricing.EstimatedOutputTokens
	}

	if len(chunks) > 1 {
		estimate.CombinePass = true
		// The combine call resubmits every chunk summary inside the prompt.
		estimate.InputTokens += promptOverhead + len(chunks)*pricing.EstimatedOutputTokens
		estimate.OutputTokens += pricing.EstimatedOutputTokens
	}

	estimate.InputCost = float64(estimate.InputTokens) * pricing.InputCostPer1MTokens / 1000000
	estimate.OutputCost = float64(estimate.OutputTokens) * pricing.OutputCostPer1MTokens / 1000000
	estimate.TotalCost = estimate.InputCost + estimate.OutputCost

	return estimate
}

// FormatEstimate formats the cost estimate for display
func (e RunEstimate) FormatEstimate() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Cost Estimation for %s\n", e.Model))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("📊 Summary:\n")
	sb.WriteString(fmt.Sprintf("   Articles to summarize: %d\n", e.Articles))
	if e.CombinePass {
		sb.WriteString(fmt.Sprintf("   Generation calls: %d chunks + 1 combine\n", e.Chunks))
	} else {
		sb.WriteString(fmt.Sprintf("   Generation calls: %d\n", e.Chunks))
	}
	sb.WriteString(fmt.Sprintf("   Total estimated cost: $%.6f\n", e.TotalCost))
	sb.WriteString("\n")

	sb.WriteString("💰 Cost Breakdown:\n")
	sb.WriteString(fmt.Sprintf("   Input tokens: %d (~$%.6f)\n", e.InputTokens, e.InputCost))
	sb.WriteString(fmt.Sprintf("   Output tokens: %d (~$%.6f)\n", e.OutputTokens, e.OutputCost))

	return sb.String()
}
