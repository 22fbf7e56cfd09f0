package yfinance

import "encoding/json"

// --- Yahoo Finance API response types ---

// yfQuoteResponse wraps the v7 quote API response.
type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	FinancialCurrency  string  `json:"financialCurrency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	SharesOutstanding  float64 `json:"sharesOutstanding"`
}

// yfChartResponse wraps the v8 chart API response, with or without events.
type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta    `json:"meta"`
	Timestamp  []int64        `json:"timestamp"`
	Events     *yfChartEvents `json:"events"`
	Indicators yfIndicators   `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Close []*float64 `json:"close"`
}

type yfChartEvents struct {
	Dividends map[string]yfDividendEvent `json:"dividends"`
}

type yfDividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// yfQuoteSummaryResponse wraps the v10 quoteSummary API response.
type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	Price                *yfPrice                `json:"price"`
	SummaryDetail        *yfSummaryDetail        `json:"summaryDetail"`
	DefaultKeyStatistics *yfDefaultKeyStatistics `json:"defaultKeyStatistics"`
	FinancialData        *yfFinancialData        `json:"financialData"`
}

type yfFinVal struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

type yfPrice struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	RegularMarketPrice yfFinVal `json:"regularMarketPrice"`
}

type yfSummaryDetail struct {
	Currency      string   `json:"currency"`
	PreviousClose yfFinVal `json:"previousClose"`
	DividendRate  yfFinVal `json:"dividendRate"`
}

type yfDefaultKeyStatistics struct {
	SharesOutstanding        yfFinVal `json:"sharesOutstanding"`
	ImpliedSharesOutstanding yfFinVal `json:"impliedSharesOutstanding"`
}

type yfFinancialData struct {
	CurrentPrice      yfFinVal `json:"currentPrice"`
	FinancialCurrency string   `json:"financialCurrency"`
}

// yfTimeseriesResponse wraps the fundamentals-timeseries API response. Each
// result carries one series under a key named by meta.type[0], so results
// are decoded as raw maps.
type yfTimeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yfError                     `json:"error"`
	} `json:"timeseries"`
}

type yfTimeseriesMeta struct {
	Symbol []string `json:"symbol"`
	Type   []string `json:"type"`
}

type yfTimeseriesPoint struct {
	AsOfDate      string   `json:"asOfDate"`
	PeriodType    string   `json:"periodType"`
	CurrencyCode  string   `json:"currencyCode"`
	ReportedValue yfFinVal `json:"reportedValue"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
