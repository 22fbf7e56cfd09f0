package models

import "time"

// SnapshotMetadata holds derived scalars from the most recent period.
// Monetary values are converted into the market currency.
type SnapshotMetadata struct {
	LatestRevenue           float64 `json:"latest_revenue"`
	LatestNetIncome         float64 `json:"latest_net_income"`
	LatestOperatingCashFlow float64 `json:"latest_operating_cash_flow"`
	LatestCapex             float64 `json:"latest_capex"`
	FXRate                  float64 `json:"fx_rate"`
	FinancialCurrency       string  `json:"financial_currency"`
}

// FinancialSnapshot is the normalized view of one ticker at one point in
// time. Histories are most-recent-first and already FX-adjusted into
// Currency. A snapshot is never modified once built.
type FinancialSnapshot struct {
	Ticker               string           `json:"ticker"`
	Currency             string           `json:"currency"`
	FinancialCurrency    string           `json:"financial_currency"`
	SharesOutstanding    float64          `json:"shares_outstanding"`
	CurrentPrice         float64          `json:"current_price"`
	FCFHistory           []float64        `json:"fcf_history"`
	OwnerEarningsHistory []float64        `json:"owner_earnings_history"`
	DividendsPerShareTTM float64          `json:"dividends_per_share_ttm"`
	Metadata             SnapshotMetadata `json:"metadata"`
	Warnings             []string         `json:"warnings"`
	FetchedAt            time.Time        `json:"fetched_at"`
}
