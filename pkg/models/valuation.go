package models

import "time"

// ScenarioProfile is one set of valuation assumptions.
type ScenarioProfile struct {
	Name             string    `json:"name"`
	GrowthRates      []float64 `json:"growth_rates"` // one entry per forecast year
	TerminalMultiple float64   `json:"terminal_multiple"`
	Probability      float64   `json:"probability"` // relative weight
}

// ScenarioValuation is the discounted result of a single profile.
type ScenarioValuation struct {
	Name                    string    `json:"name"`
	IntrinsicValue          float64   `json:"intrinsic_value"`
	BuyPrice                float64   `json:"buy_price"`
	Upside                  float64   `json:"upside_pct"`
	Downside                float64   `json:"downside_pct"`
	MarginOfSafety          float64   `json:"margin_of_safety_pct"`
	GrowthRates             []float64 `json:"growth_rates"`
	TerminalMultiple        float64   `json:"terminal_multiple"`
	CashFlows               []float64 `json:"cashflows"`
	DiscountedCashFlows     []float64 `json:"discounted_cashflows"`
	TerminalValue           float64   `json:"terminal_value"`
	DiscountedTerminalValue float64   `json:"discounted_terminal_value"`
	Warnings                []string  `json:"warnings"`
}

// ModelParameters echoes the effective (clamped) engine settings.
type ModelParameters struct {
	DiscountRate   float64 `json:"discount_rate"`
	MarginOfSafety float64 `json:"margin_of_safety"`
}

// AggregateValuation is the probability-weighted combination of scenarios.
type AggregateValuation struct {
	ScenarioResults        []ScenarioValuation `json:"scenario_results"`
	WeightedIntrinsicValue float64             `json:"weighted_intrinsic_value"`
	MarginOfSafetyBuyPrice float64             `json:"margin_of_safety_buy_price"`
	CurrentPrice           float64             `json:"current_price"`
	Metadata               ModelParameters     `json:"metadata"`
	Warnings               []string            `json:"warnings"`
}

// Valuation modes.
const (
	ModeDCF = "dcf"
	ModeDDM = "ddm"
)

// ValuationRequest is a fully resolved request. Raw inputs are kept so the
// response can echo them back unchanged.
type ValuationRequest struct {
	Ticker           string
	Mode             string
	ForecastYears    int
	DiscountRate     float64
	MarginOfSafety   float64
	UseOwnerEarnings bool
	Scenarios        []ScenarioProfile
	Raw              map[string]any
}

// SnapshotSummary is the part of the snapshot returned for charting.
type SnapshotSummary struct {
	FCFHistory           []float64        `json:"fcf_history"`
	OwnerEarningsHistory []float64        `json:"owner_earnings_history"`
	DividendsPerShareTTM float64          `json:"dividends_per_share_ttm"`
	Metadata             SnapshotMetadata `json:"metadata"`
}

// ValuationResponse is the payload returned for one ticker.
type ValuationResponse struct {
	RunID                  string              `json:"run_id,omitempty"`
	Ticker                 string              `json:"ticker"`
	Mode                   string              `json:"mode"`
	Currency               string              `json:"currency"`
	CurrentPrice           float64             `json:"current_price"`
	UseOwnerEarnings       bool                `json:"use_owner_earnings"`
	SharesOutstanding      float64             `json:"shares_outstanding"`
	WeightedIntrinsicValue float64             `json:"weighted_intrinsic_value"`
	MarginOfSafetyBuyPrice float64             `json:"margin_of_safety_buy_price"`
	Scenarios              []ScenarioValuation `json:"scenarios"`
	GlobalWarnings         []string            `json:"global_warnings"`
	Inputs                 map[string]any      `json:"inputs"`
	Snapshot               SnapshotSummary     `json:"snapshot"`
}

// BatchItem pairs a ticker with its valuation.
type BatchItem struct {
	Ticker string             `json:"ticker"`
	Result *ValuationResponse `json:"result"`
}

// BatchResult is the payload of a batch valuation.
type BatchResult struct {
	Results []BatchItem `json:"results"`
}

// ValuationRun is the persisted summary of one valuation.
type ValuationRun struct {
	ID                     string             `json:"id"`
	Ticker                 string             `json:"ticker"`
	Mode                   string             `json:"mode"`
	Currency               string             `json:"currency"`
	CurrentPrice           float64            `json:"current_price"`
	WeightedIntrinsicValue float64            `json:"weighted_intrinsic_value"`
	MarginOfSafetyBuyPrice float64            `json:"margin_of_safety_buy_price"`
	CreatedAt              time.Time          `json:"created_at"`
	Response               *ValuationResponse `json:"response,omitempty"`
}
