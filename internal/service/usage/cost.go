// Package usage meters inference cost.
package usage

import (
	"github.com/sterling9879/Sage-IA/internal/capabilities"

	"github.com/shopspring/decimal"
)

// DefaultPricing applies to models missing from the rate table, in cents
// per million tokens.
var DefaultPricing = capabilities.Pricing{Input: 100, Output: 300}

var perMillion = decimal.NewFromInt(1_000_000)

// RateTable looks up a model's rate pair.
type RateTable interface {
	Pricing(modelID string) (capabilities.Pricing, bool)
}

// CostEstimator converts token counts into cents. It never fails: unknown
// models are priced at DefaultPricing.
type CostEstimator struct {
	rates    RateTable
	fallback capabilities.Pricing
}

// NewCostEstimator creates an estimator over the given rate table. A nil
// table prices everything at DefaultPricing.
func NewCostEstimator(rates RateTable) *CostEstimator {
	return &CostEstimator{rates: rates, fallback: DefaultPricing}
}

// Rates returns the rate pair used for model.
func (e *CostEstimator) Rates(model string) capabilities.Pricing {
	if e.rates != nil {
		if p, ok := e.rates.Pricing(model); ok {
			return p
		}
	}
	return e.fallback
}

// Estimate returns the cost in cents, rounded up to two decimal places so
// usage is never undercharged. Negative token counts count as zero.
func (e *CostEstimator) Estimate(model string, promptTokens, completionTokens int) decimal.Decimal {
	rates := e.Rates(model)

	input := decimal.NewFromFloat(rates.Input).Mul(decimal.NewFromInt(int64(max(promptTokens, 0))))
	output := decimal.NewFromFloat(rates.Output).Mul(decimal.NewFromInt(int64(max(completionTokens, 0))))

	cost := input.Add(output).Div(perMillion).RoundCeil(2)
	if cost.IsNegative() {
		return decimal.Zero
	}
	return cost
}
