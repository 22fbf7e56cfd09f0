// Package provider defines the financial data source abstraction consumed by
// the snapshot normalizer, plus a small registry for selecting one by name.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/seenimoa/fairvalue/pkg/models"
)

// ErrNoData reports that the upstream has nothing for the requested symbol
// or table. Callers treat it as absence, not failure.
var ErrNoData = errors.New("no data available")

// DataSource supplies raw per-ticker financial data.
type DataSource interface {
	// Name returns the provider identifier, e.g. "yfinance".
	Name() string

	// Statements returns annual cash-flow, income and balance-sheet tables.
	// A table the upstream does not have is returned empty.
	Statements(ctx context.Context, symbol string) (*models.Statements, error)

	// Quote returns fast quote info. FX pairs are looked up through Quote
	// using the FXPair symbol convention.
	Quote(ctx context.Context, symbol string) (*models.Quote, error)

	// Info returns general company info.
	Info(ctx context.Context, symbol string) (*models.CompanyInfo, error)

	// History returns daily bars for a range such as "1d" or "1mo", oldest first.
	History(ctx context.Context, symbol, period string) ([]models.PriceBar, error)

	// Dividends returns every known dividend event, oldest first.
	Dividends(ctx context.Context, symbol string) ([]models.DividendEvent, error)
}

// FXPair returns the currency-pair symbol for converting from into to,
// e.g. FXPair("eur", "usd") == "EURUSD=X".
func FXPair(from, to string) string {
	return strings.ToUpper(from) + strings.ToUpper(to) + "=X"
}

// IsNoData reports whether err signals absence of upstream data.
func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}
