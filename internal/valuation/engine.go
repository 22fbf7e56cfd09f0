// Package valuation implements scenario-weighted discounted cash flow and
// dividend discount valuation.
package valuation

import (
	"fmt"
	"math"

	"github.com/seenimoa/fairvalue/pkg/models"
	"github.com/seenimoa/fairvalue/pkg/utils"
)

// Warning thresholds.
const (
	maxConservativeGrowth = 0.15
	steepDeclineGrowth    = -0.10
	aggressiveMultiple    = 20.0
	lowMultiple           = 5.0
	maxMarginOfSafety     = 0.99
)

// Engine discounts scenario cash flows at a fixed rate and applies a
// margin of safety. DCF and DDM share the algorithm; DDM takes a base that
// is already per share.
type Engine struct {
	discountRate   float64
	marginOfSafety float64
	perShareInput  bool
}

// NewDCF returns an engine that divides the base cash flow by the share
// count. The rate is clamped to >= 0 and the margin to [0, 0.99].
func NewDCF(discountRate, marginOfSafety float64) *Engine {
	return newEngine(discountRate, marginOfSafety, false)
}

// NewDDM returns an engine whose base value (dividends per share) is used
// as-is.
func NewDDM(discountRate, marginOfSafety float64) *Engine {
	return newEngine(discountRate, marginOfSafety, true)
}

func newEngine(rate, margin float64, perShare bool) *Engine {
	return &Engine{
		discountRate:   math.Max(rate, 0),
		marginOfSafety: math.Max(math.Min(margin, maxMarginOfSafety), 0),
		perShareInput:  perShare,
	}
}

// DiscountRate returns the effective (clamped) discount rate.
func (e *Engine) DiscountRate() float64 { return e.discountRate }

// MarginOfSafety returns the effective (clamped) margin of safety.
func (e *Engine) MarginOfSafety() float64 { return e.marginOfSafety }

// Evaluate values every scenario and combines them by normalized
// probability. The base is divided by shares when shares > 0; a DDM engine
// always treats shares as 1.
func (e *Engine) Evaluate(base, price, shares float64, scenarios []models.ScenarioProfile) (*models.AggregateValuation, error) {
	if len(scenarios) == 0 {
		return nil, models.InvalidInput("At least one scenario is required.")
	}
	if e.perShareInput {
		shares = 1
	}
	perShare := base
	if shares > 0 {
		perShare = base / shares
	}

	results := make([]models.ScenarioValuation, 0, len(scenarios))
	var warnings []string
	for _, s := range scenarios {
		sv, err := e.EvaluateScenario(perShare, price, s)
		if err != nil {
			return nil, err
		}
		results = append(results, *sv)
		warnings = append(warnings, sv.Warnings...)
	}

	var weighted float64
	for i, p := range NormalizeProbabilities(scenarios) {
		weighted += results[i].IntrinsicValue * p
	}
	if !finite(weighted) {
		return nil, models.InvalidInput("Weighted intrinsic value overflows.")
	}

	return &models.AggregateValuation{
		ScenarioResults:        results,
		WeightedIntrinsicValue: weighted,
		MarginOfSafetyBuyPrice: weighted * (1 - e.marginOfSafety),
		CurrentPrice:           price,
		Metadata: models.ModelParameters{
			DiscountRate:   e.discountRate,
			MarginOfSafety: e.marginOfSafety,
		},
		Warnings: utils.UniqueStrings(warnings),
	}, nil
}

// EvaluateScenario compounds the per-share base through each year's growth
// rate, discounts every year and a terminal value, and derives the buy
// price and upside against price.
func (e *Engine) EvaluateScenario(perShare, price float64, s models.ScenarioProfile) (*models.ScenarioValuation, error) {
	years := len(s.GrowthRates)
	if years == 0 {
		return nil, models.InvalidInput("Growth rates are required for at least one forecast year.")
	}

	cashflows := make([]float64, years)
	discounted := make([]float64, years)
	var warnings []string
	value := perShare
	for i, rate := range s.GrowthRates {
		value *= 1 + rate
		cashflows[i] = value
		discounted[i] = value / math.Pow(1+e.discountRate, float64(i+1))
		if rate > maxConservativeGrowth {
			warnings = append(warnings, fmt.Sprintf("%s: Growth rate %s exceeds conservative range.", s.Name, percent(rate)))
		}
		if rate < steepDeclineGrowth {
			warnings = append(warnings, fmt.Sprintf("%s: Growth rate %s implies steep decline.", s.Name, percent(rate)))
		}
	}

	terminal := cashflows[years-1] * s.TerminalMultiple
	discountedTerminal := terminal / math.Pow(1+e.discountRate, float64(years))

	intrinsic := discountedTerminal
	for _, d := range discounted {
		intrinsic += d
	}
	buy := intrinsic * (1 - e.marginOfSafety)

	var upside, downside float64
	if price > 0 {
		upside = intrinsic/price - 1
		downside = buy/price - 1
	}
	if !finite(intrinsic, buy, upside, downside) {
		return nil, models.InvalidInput(fmt.Sprintf("%s: Projected values overflow; reduce growth rates or terminal multiple.", s.Name))
	}

	if s.TerminalMultiple > aggressiveMultiple {
		warnings = append(warnings, fmt.Sprintf("%s: Terminal multiple %.1f is aggressive.", s.Name, s.TerminalMultiple))
	}
	if s.TerminalMultiple < lowMultiple {
		warnings = append(warnings, fmt.Sprintf("%s: Terminal multiple %.1f is unusually low.", s.Name, s.TerminalMultiple))
	}

	rates := make([]float64, years)
	copy(rates, s.GrowthRates)
	return &models.ScenarioValuation{
		Name:                    s.Name,
		IntrinsicValue:          intrinsic,
		BuyPrice:                buy,
		Upside:                  upside,
		Downside:                downside,
		MarginOfSafety:          e.marginOfSafety,
		GrowthRates:             rates,
		TerminalMultiple:        s.TerminalMultiple,
		CashFlows:               cashflows,
		DiscountedCashFlows:     discounted,
		TerminalValue:           terminal,
		DiscountedTerminalValue: discountedTerminal,
		Warnings:                utils.UniqueStrings(warnings),
	}, nil
}

// NormalizeProbabilities scales scenario probabilities to sum to 1. When
// the supplied total is not positive every scenario gets equal weight.
func NormalizeProbabilities(scenarios []models.ScenarioProfile) []float64 {
	out := make([]float64, len(scenarios))
	if len(scenarios) == 0 {
		return out
	}
	var total float64
	for _, s := range scenarios {
		total += s.Probability
	}
	for i, s := range scenarios {
		if total <= 0 {
			out[i] = 1 / float64(len(scenarios))
		} else {
			out[i] = s.Probability / total
		}
	}
	return out
}

// finite reports whether every value is neither NaN nor infinite.
func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// percent formats a ratio as a whole-number percentage: 0.2 -> "20%".
func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
