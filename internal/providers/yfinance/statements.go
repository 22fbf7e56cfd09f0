package yfinance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/seenimoa/fairvalue/internal/provider"
	"github.com/seenimoa/fairvalue/pkg/models"
)

// Annual fundamentals-timeseries series, grouped by the statement they belong to.
var (
	cashFlowSeries = []string{
		"FreeCashFlow",
		"OperatingCashFlow",
		"CashFlowFromContinuingOperatingActivities",
		"CapitalExpenditure",
		"NetPPEPurchaseAndSale",
		"DepreciationAndAmortization",
		"DepreciationAmortizationDepletion",
		"NetIncomeFromContinuingOperations",
	}
	incomeSeries = []string{
		"TotalRevenue",
		"OperatingRevenue",
		"NetIncome",
		"NetIncomeCommonStockholders",
		"NetIncomeIncludingNoncontrollingInterests",
		"ReconciledDepreciation",
	}
	balanceSheetSeries = []string{
		"OrdinarySharesNumber",
		"PreferredSharesNumber",
		"CommonStock",
	}
)

// earliestPeriod is the period1 Yahoo's own clients send (2015-08-21).
const earliestPeriod = 493590046

// Statements fetches annual cash-flow, income and balance-sheet tables in a
// single fundamentals-timeseries call. Tables with no data come back empty.
func (c *Client) Statements(ctx context.Context, symbol string) (*models.Statements, error) {
	types := make([]string, 0, len(cashFlowSeries)+len(incomeSeries)+len(balanceSheetSeries))
	for _, group := range [][]string{cashFlowSeries, incomeSeries, balanceSheetSeries} {
		for _, s := range group {
			types = append(types, "annual"+s)
		}
	}

	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?symbol=%s&type=%s&period1=%d&period2=%d",
		c.timeseriesURL, url.PathEscape(symbol), url.QueryEscape(symbol),
		url.QueryEscape(strings.Join(types, ",")), earliestPeriod, c.now().Unix())

	var resp yfTimeseriesResponse
	err := c.fetchJSON(ctx, u, &resp)
	if err == nil {
		err = apiError(resp.Timeseries.Error)
	}
	if errors.Is(err, provider.ErrNoData) {
		return &models.Statements{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("yfinance statements %s: %w", symbol, err)
	}

	series, err := parseTimeseries(resp.Timeseries.Result)
	if err != nil {
		return nil, fmt.Errorf("yfinance statements %s: %w", symbol, err)
	}
	return &models.Statements{
		CashFlow:     buildStatement(series, cashFlowSeries),
		Income:       buildStatement(series, incomeSeries),
		BalanceSheet: buildStatement(series, balanceSheetSeries),
	}, nil
}

// parseTimeseries maps series name (without the "annual" prefix) to its
// values keyed by period end date.
func parseTimeseries(results []map[string]json.RawMessage) (map[string]map[time.Time]float64, error) {
	out := make(map[string]map[time.Time]float64)
	for _, res := range results {
		var meta yfTimeseriesMeta
		if raw, ok := res["meta"]; !ok || json.Unmarshal(raw, &meta) != nil || len(meta.Type) == 0 {
			continue
		}
		key := meta.Type[0]
		raw, ok := res[key]
		if !ok {
			continue
		}
		var points []*yfTimeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fmt.Errorf("parse series %s: %w", key, err)
		}
		values := make(map[time.Time]float64, len(points))
		for _, p := range points {
			if p == nil {
				continue
			}
			date, err := time.Parse("2006-01-02", p.AsOfDate)
			if err != nil {
				continue
			}
			values[date] = p.ReportedValue.Raw
		}
		if len(values) > 0 {
			out[strings.TrimPrefix(key, "annual")] = values
		}
	}
	return out, nil
}

// buildStatement assembles the named series into a table whose columns are
// the union of their period dates, most recent first.
func buildStatement(series map[string]map[time.Time]float64, names []string) *models.Statement {
	seen := make(map[time.Time]struct{})
	for _, name := range names {
		for d := range series[name] {
			seen[d] = struct{}{}
		}
	}
	periods := make([]time.Time, 0, len(seen))
	for d := range seen {
		periods = append(periods, d)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].After(periods[j]) })

	rows := make(map[string][]float64)
	for _, name := range names {
		values, ok := series[name]
		if !ok {
			continue
		}
		row := make([]float64, len(periods))
		for i, d := range periods {
			row[i] = values[d]
		}
		rows[rowLabel(name)] = row
	}
	return models.NewStatement(periods, rows)
}

// rowLabel splits a camel-case series name into words, keeping runs of
// capitals together: "NetPPEPurchaseAndSale" -> "Net PPE Purchase And Sale".
func rowLabel(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := !unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
