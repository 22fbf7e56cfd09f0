package service

import (
	"fmt"
	"strings"

	"github.com/seenimoa/fairvalue/internal/config"
	"github.com/seenimoa/fairvalue/pkg/models"
	"github.com/seenimoa/fairvalue/pkg/utils"
)

// Built-in scenario parameters used when a request supplies none.
var defaultScenarios = []map[string]any{
	{"name": "Bear", "growth_rate": 0.02, "terminal_multiple": 10.0, "probability": 0.25},
	{"name": "Base", "growth_rate": 0.05, "terminal_multiple": 12.0, "probability": 0.5},
	{"name": "Bull", "growth_rate": 0.08, "terminal_multiple": 15.0, "probability": 0.25},
}

const (
	defaultTerminalMultiple = 12.0
	defaultProbability      = 1.0

	// MaxForecastYears bounds the projection horizon a request may ask for.
	MaxForecastYears = 100
)

// ParseRequest converts a decoded JSON object into a ValuationRequest.
// Every field is optional; values that cannot be converted fall back to
// defaults. The ticker is not validated here; a horizon above
// MaxForecastYears is rejected.
func ParseRequest(raw map[string]any, defaults config.ValuationConfig) (*models.ValuationRequest, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	mode := defaults.Mode
	if s, ok := raw["mode"].(string); ok {
		mode = s
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = models.ModeDCF
	}

	ticker, _ := raw["ticker"].(string)
	if utils.ToFloat(raw["forecast_years"], 0) > MaxForecastYears {
		return nil, models.InvalidInput(fmt.Sprintf("Forecast years cannot exceed %d.", MaxForecastYears))
	}
	years := utils.ToInt(raw["forecast_years"], defaults.ForecastYears)

	return &models.ValuationRequest{
		Ticker:           utils.NormalizeTicker(ticker),
		Mode:             mode,
		ForecastYears:    years,
		DiscountRate:     utils.ToFloat(raw["discount_rate"], defaults.DiscountRate),
		MarginOfSafety:   utils.ToFloat(raw["margin_of_safety"], defaults.MarginOfSafety),
		UseOwnerEarnings: utils.ToBool(raw["use_owner_earnings"], false),
		Scenarios:        parseScenarios(raw["scenarios"], years),
		Raw:              raw,
	}, nil
}

func parseScenarios(v any, years int) []models.ScenarioProfile {
	items := scenarioItems(v)
	if len(items) == 0 {
		items = defaultScenarios
	}

	profiles := make([]models.ScenarioProfile, 0, len(items))
	for i, item := range items {
		name, ok := item["name"].(string)
		if !ok {
			name = fmt.Sprintf("Scenario %d", i+1)
		}
		growth, ok := item["growth_rates"]
		if !ok || growth == nil {
			growth = item["growth_rate"]
			if growth == nil {
				growth = 0.0
			}
		}
		profiles = append(profiles, models.ScenarioProfile{
			Name:             name,
			GrowthRates:      normalizeGrowth(growth, years),
			TerminalMultiple: utils.ToFloat(item["terminal_multiple"], defaultTerminalMultiple),
			Probability:      utils.ToFloat(item["probability"], defaultProbability),
		})
	}
	return profiles
}

// scenarioItems accepts a JSON list of objects. Entries that are not
// objects are treated as empty objects.
func scenarioItems(v any) []map[string]any {
	switch x := v.(type) {
	case []map[string]any:
		return x
	case []any:
		out := make([]map[string]any, len(x))
		for i, e := range x {
			m, ok := e.(map[string]any)
			if !ok {
				m = map[string]any{}
			}
			out[i] = m
		}
		return out
	}
	return nil
}

// normalizeGrowth expands raw into exactly years growth rates. A scalar is
// repeated; a list is coerced element-wise, padded with its last value and
// truncated. Anything else yields zeros.
func normalizeGrowth(raw any, years int) []float64 {
	n := max(years, 1)

	var list []float64
	switch x := raw.(type) {
	case []float64:
		list = append([]float64(nil), x...)
	case []any:
		list = make([]float64, len(x))
		for i, v := range x {
			list[i] = utils.ToFloat(v, 0)
		}
	default:
		if utils.IsNumber(raw) {
			rate := utils.ToFloat(raw, 0)
			out := make([]float64, n)
			for i := range out {
				out[i] = rate
			}
			return out
		}
		return make([]float64, n)
	}

	if len(list) == 0 {
		return make([]float64, n)
	}
	if years <= 0 {
		return []float64{}
	}
	for len(list) < years {
		list = append(list, list[len(list)-1])
	}
	return list[:years]
}

// ParseBatch splits a batch payload into per-ticker requests. Every key
// other than "tickers" is shared across tickers.
func ParseBatch(raw map[string]any) ([]map[string]any, error) {
	tickers := utils.ParseTickers(raw["tickers"])
	if len(tickers) == 0 {
		return nil, models.InvalidInput("Provide a list of tickers to evaluate.")
	}

	requests := make([]map[string]any, len(tickers))
	for i, ticker := range tickers {
		req := make(map[string]any, len(raw))
		for k, v := range raw {
			if k != "tickers" {
				req[k] = v
			}
		}
		req["ticker"] = ticker
		requests[i] = req
	}
	return requests, nil
}
