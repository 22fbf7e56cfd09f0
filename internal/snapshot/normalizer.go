// Package snapshot turns raw provider statements into a canonical,
// currency-adjusted FinancialSnapshot and caches the result per ticker.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/fairvalue/internal/metrics"
	"github.com/seenimoa/fairvalue/internal/provider"
	"github.com/seenimoa/fairvalue/pkg/models"
	"github.com/seenimoa/fairvalue/pkg/utils"
)

// Data-quality warnings attached to a snapshot.
const (
	WarnNoShares    = "Unable to determine shares outstanding. Intrinsic value per share may be inaccurate."
	WarnNoCashFlow  = "Missing cash flow data. DCF mode will rely on user assumptions only."
	WarnNoDividends = "No trailing dividends detected. DDM valuations may not be meaningful."
)

const defaultCurrency = "USD"

// Normalizer builds snapshots from a DataSource.
type Normalizer struct {
	source provider.DataSource
	cache  SnapshotCache
	group  singleflight.Group
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCache replaces the default in-memory cache.
func WithCache(c SnapshotCache) Option {
	return func(n *Normalizer) { n.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.log = l }
}

// WithClock sets the clock used to stamp FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// New creates a Normalizer. Without WithCache it uses a MemoryCache with
// DefaultTTL.
func New(source provider.DataSource, opts ...Option) *Normalizer {
	n := &Normalizer{source: source, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	if n.cache == nil {
		n.cache = NewMemoryCache(DefaultTTL, nil)
	}
	if n.log == nil {
		n.log = slog.Default()
	}
	return n
}

// GetSnapshot returns the cached snapshot for ticker if it is still fresh,
// otherwise builds, caches and returns a new one. Concurrent misses for the
// same ticker share a single build, which is detached from the first
// caller's cancellation.
func (n *Normalizer) GetSnapshot(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, models.InvalidInput("Ticker cannot be empty.")
	}

	if snap, ok := n.cache.Get(ctx, symbol); ok {
		metrics.SnapshotCacheTotal.WithLabelValues("hit").Inc()
		return snap, nil
	}
	metrics.SnapshotCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := n.group.Do(symbol, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if snap, ok := n.cache.Get(fctx, symbol); ok {
			return snap, nil
		}
		start := time.Now()
		snap, err := n.build(fctx, symbol)
		if err != nil {
			return nil, err
		}
		metrics.SnapshotBuildDuration.Observe(time.Since(start).Seconds())
		n.cache.Put(fctx, symbol, snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FinancialSnapshot), nil
}

func (n *Normalizer) build(ctx context.Context, symbol string) (*models.FinancialSnapshot, error) {
	stmts, err := n.source.Statements(ctx, symbol)
	if err != nil {
		if !provider.IsNoData(err) {
			return nil, n.upstream("statements", err)
		}
		stmts = &models.Statements{}
	}
	cashFlow, income, balance := stmts.CashFlow, stmts.Income, stmts.BalanceSheet

	quote, err := n.source.Quote(ctx, symbol)
	if err != nil && !provider.IsNoData(err) {
		return nil, n.upstream("quote", err)
	}
	if quote == nil {
		quote = &models.Quote{}
	}
	info, err := n.source.Info(ctx, symbol)
	if err != nil && !provider.IsNoData(err) {
		return nil, n.upstream("info", err)
	}
	if info == nil {
		info = &models.CompanyInfo{}
	}

	price, err := n.resolvePrice(ctx, symbol, quote)
	if err != nil {
		return nil, err
	}
	shares := resolveShares(quote, info, balance)
	currency := utils.FirstNonEmpty(quote.Currency, info.Currency, defaultCurrency)
	financialCurrency := utils.FirstNonEmpty(info.FinancialCurrency, info.Currency, currency)
	fx := n.fxRate(ctx, financialCurrency, currency)

	dividends, err := n.source.Dividends(ctx, symbol)
	if err != nil && !provider.IsNoData(err) {
		return nil, n.upstream("dividends", err)
	}

	fcf := scaleSeries(freeCashFlow(cashFlow), fx)
	owner := scaleSeries(ownerEarnings(income, cashFlow), fx)
	divTTM := trailingDividends(dividends) * fx

	latest := func(st *models.Statement, labels []string) float64 {
		v, _ := LatestValue(st, labels)
		return v * fx
	}
	meta := models.SnapshotMetadata{
		LatestRevenue:           latest(income, revenueLabels),
		LatestNetIncome:         latest(income, netIncomeLabels),
		LatestOperatingCashFlow: latest(cashFlow, latestOperatingCashFlowLabels),
		LatestCapex:             latest(cashFlow, capexLabels),
		FXRate:                  fx,
		FinancialCurrency:       financialCurrency,
	}

	warnings := make([]string, 0, 3)
	if shares <= 0 {
		warnings = append(warnings, WarnNoShares)
	}
	if len(fcf) == 0 {
		warnings = append(warnings, WarnNoCashFlow)
	}
	if divTTM <= 0 {
		warnings = append(warnings, WarnNoDividends)
	}

	return &models.FinancialSnapshot{
		Ticker:               symbol,
		Currency:             currency,
		FinancialCurrency:    financialCurrency,
		SharesOutstanding:    shares,
		CurrentPrice:         price,
		FCFHistory:           fcf,
		OwnerEarningsHistory: owner,
		DividendsPerShareTTM: divTTM,
		Metadata:             meta,
		Warnings:             warnings,
		FetchedAt:            n.now(),
	}, nil
}

// resolvePrice prefers the quote price, then the last close of a one-day
// history window.
func (n *Normalizer) resolvePrice(ctx context.Context, symbol string, quote *models.Quote) (float64, error) {
	if quote.LastPrice > 0 {
		return quote.LastPrice, nil
	}
	bars, err := n.source.History(ctx, symbol, "1d")
	if err != nil {
		if provider.IsNoData(err) {
			return 0, nil
		}
		return 0, n.upstream("history", err)
	}
	if len(bars) == 0 {
		return 0, nil
	}
	return bars[len(bars)-1].Close, nil
}

func (n *Normalizer) upstream(call string, err error) error {
	metrics.UpstreamErrorsTotal.WithLabelValues(call).Inc()
	return fmt.Errorf("fetch %s: %w", call, err)
}

// resolveShares tries the quote, then company info, then the most recent
// balance-sheet share count.
func resolveShares(quote *models.Quote, info *models.CompanyInfo, balance *models.Statement) float64 {
	if quote.SharesOutstanding > 0 {
		return quote.SharesOutstanding
	}
	if info.SharesOutstanding > 0 {
		return info.SharesOutstanding
	}
	if v, ok := LatestValue(balance, sharesLabels); ok && v > 0 {
		return v
	}
	return 0
}

// trailingDividends sums events dated within one calendar year of the
// latest event. Amounts are already per share.
func trailingDividends(events []models.DividendEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	latest := events[0].ExDate
	for _, e := range events[1:] {
		if e.ExDate.After(latest) {
			latest = e.ExDate
		}
	}
	cutoff := latest.AddDate(-1, 0, 0)
	var total float64
	for _, e := range events {
		if !e.ExDate.Before(cutoff) {
			total += e.Amount
		}
	}
	return total
}

// scaleSeries multiplies every value by factor. A factor of exactly 1
// returns the input untouched.
func scaleSeries(series []float64, factor float64) []float64 {
	if factor == 1 || len(series) == 0 {
		return series
	}
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v * factor
	}
	return out
}
