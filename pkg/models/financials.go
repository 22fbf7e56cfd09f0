package models

import (
	"math"
	"time"
)

// Statement is one financial statement table as reported by a data source:
// rows indexed by line-item label, columns by period, most recent first.
// Every row has exactly one value per period; missing cells are zero.
type Statement struct {
	Periods []time.Time          `json:"periods"`
	Rows    map[string][]float64 `json:"rows"`
}

// NewStatement builds a Statement from sparse rows. Rows shorter than the
// period list are zero-filled; NaN and Inf cells become zero.
func NewStatement(periods []time.Time, rows map[string][]float64) *Statement {
	st := &Statement{
		Periods: periods,
		Rows:    make(map[string][]float64, len(rows)),
	}
	for label, values := range rows {
		filled := make([]float64, len(periods))
		for i := range filled {
			if i < len(values) && !math.IsNaN(values[i]) && !math.IsInf(values[i], 0) {
				filled[i] = values[i]
			}
		}
		st.Rows[label] = filled
	}
	return st
}

// Empty reports whether the statement has no periods or no rows.
func (s *Statement) Empty() bool {
	return s == nil || len(s.Periods) == 0 || len(s.Rows) == 0
}

// Columns returns the number of periods.
func (s *Statement) Columns() int {
	if s == nil {
		return 0
	}
	return len(s.Periods)
}

// Statements groups the three annual tables the normalizer consumes.
// A nil table is treated as empty.
type Statements struct {
	CashFlow     *Statement `json:"cash_flow"`
	Income       *Statement `json:"income"`
	BalanceSheet *Statement `json:"balance_sheet"`
}

// Quote is the fast quote summary for a symbol.
type Quote struct {
	Symbol            string  `json:"symbol"`
	LastPrice         float64 `json:"last_price"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Currency          string  `json:"currency"`
}

// CompanyInfo is the slower, more complete profile lookup.
type CompanyInfo struct {
	Symbol            string  `json:"symbol"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Currency          string  `json:"currency"`
	FinancialCurrency string  `json:"financial_currency"`
}

// PriceBar is a single daily close.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// DividendEvent is one cash dividend, already expressed per share.
type DividendEvent struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"`
}
