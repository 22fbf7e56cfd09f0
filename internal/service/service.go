// Package service orchestrates a valuation: it resolves request defaults,
// fetches the snapshot, runs the engine and assembles the response.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fairvalue/internal/config"
	"github.com/seenimoa/fairvalue/internal/metrics"
	"github.com/seenimoa/fairvalue/internal/store"
	"github.com/seenimoa/fairvalue/internal/valuation"
	"github.com/seenimoa/fairvalue/pkg/models"
	"github.com/seenimoa/fairvalue/pkg/utils"
)

// SnapshotSource supplies normalized snapshots. *snapshot.Normalizer
// implements it.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, ticker string) (*models.FinancialSnapshot, error)
}

// Service values tickers.
type Service struct {
	snapshots   SnapshotSource
	runs        store.RunStore
	defaults    config.ValuationConfig
	concurrency int
	log         *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRunStore records every successful valuation in rs.
func WithRunStore(rs store.RunStore) Option {
	return func(s *Service) { s.runs = rs }
}

// WithDefaults overrides the request defaults.
func WithDefaults(d config.ValuationConfig) Option {
	return func(s *Service) { s.defaults = d }
}

// WithConcurrency bounds how many tickers a batch values at once.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a Service backed by snapshots.
func New(snapshots SnapshotSource, opts ...Option) *Service {
	s := &Service{
		snapshots:   snapshots,
		defaults:    config.Default().Valuation,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Snapshot returns the normalized snapshot for ticker.
func (s *Service) Snapshot(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	return s.snapshots.GetSnapshot(ctx, ticker)
}

// Valuate parses raw and values the requested ticker.
func (s *Service) Valuate(ctx context.Context, raw map[string]any) (*models.ValuationResponse, error) {
	req, err := ParseRequest(raw, s.defaults)
	if err != nil {
		mode, _ := raw["mode"].(string)
		metrics.ValuationsTotal.WithLabelValues(modeLabel(mode), outcome(err)).Inc()
		return nil, err
	}
	return s.ValuateRequest(ctx, req)
}

// ValuateRequest values a resolved request.
func (s *Service) ValuateRequest(ctx context.Context, req *models.ValuationRequest) (*models.ValuationResponse, error) {
	resp, err := s.valuate(ctx, req)
	metrics.ValuationsTotal.WithLabelValues(modeLabel(req.Mode), outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.record(ctx, resp)
	return resp, nil
}

func (s *Service) valuate(ctx context.Context, req *models.ValuationRequest) (*models.ValuationResponse, error) {
	ticker := utils.NormalizeTicker(req.Ticker)
	if ticker == "" {
		return nil, models.InvalidInput("Ticker is required.")
	}

	snap, err := s.snapshots.GetSnapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}

	var (
		engine *valuation.Engine
		base   float64
		shares float64
	)
	if req.Mode == models.ModeDDM {
		engine = valuation.NewDDM(req.DiscountRate, req.MarginOfSafety)
		base = snap.DividendsPerShareTTM
		shares = 1
	} else {
		engine = valuation.NewDCF(req.DiscountRate, req.MarginOfSafety)
		base = baseCashFlow(snap, req.UseOwnerEarnings)
		shares = snap.SharesOutstanding
	}

	agg, err := engine.Evaluate(base, snap.CurrentPrice, shares, req.Scenarios)
	if err != nil {
		return nil, err
	}
	return assemble(req, snap, agg), nil
}

// baseCashFlow picks the most recent owner-earnings or FCF figure, falling
// back to operating cash flow minus capex when the history is empty.
func baseCashFlow(snap *models.FinancialSnapshot, ownerEarnings bool) float64 {
	history := snap.FCFHistory
	if ownerEarnings {
		history = snap.OwnerEarningsHistory
	}
	if len(history) > 0 {
		return history[0]
	}
	return snap.Metadata.LatestOperatingCashFlow - snap.Metadata.LatestCapex
}

func assemble(req *models.ValuationRequest, snap *models.FinancialSnapshot, agg *models.AggregateValuation) *models.ValuationResponse {
	inputs := req.Raw
	if inputs == nil {
		inputs = map[string]any{}
	}
	return &models.ValuationResponse{
		Ticker:                 snap.Ticker,
		Mode:                   req.Mode,
		Currency:               snap.Currency,
		CurrentPrice:           snap.CurrentPrice,
		UseOwnerEarnings:       req.UseOwnerEarnings,
		SharesOutstanding:      snap.SharesOutstanding,
		WeightedIntrinsicValue: agg.WeightedIntrinsicValue,
		MarginOfSafetyBuyPrice: agg.MarginOfSafetyBuyPrice,
		Scenarios:              agg.ScenarioResults,
		GlobalWarnings:         utils.UniqueStrings(snap.Warnings, agg.Warnings),
		Inputs:                 inputs,
		Snapshot: models.SnapshotSummary{
			FCFHistory:           nonNil(snap.FCFHistory),
			OwnerEarningsHistory: nonNil(snap.OwnerEarningsHistory),
			DividendsPerShareTTM: snap.DividendsPerShareTTM,
			Metadata:             snap.Metadata,
		},
	}
}

func (s *Service) record(ctx context.Context, resp *models.ValuationResponse) {
	if s.runs == nil {
		return
	}
	run := store.NewRun(resp)
	if err := s.runs.Save(ctx, run); err != nil {
		metrics.RunStoreErrorsTotal.Inc()
		s.log.Warn("record valuation run", "ticker", resp.Ticker, "error", err)
		return
	}
	resp.RunID = run.ID
}

// Batch values every ticker in raw["tickers"] with the remaining keys as
// shared parameters. Results keep input order; the first failure fails the
// whole batch.
func (s *Service) Batch(ctx context.Context, raw map[string]any) (*models.BatchResult, error) {
	requests, err := ParseBatch(raw)
	if err != nil {
		return nil, err
	}

	items := make([]models.BatchItem, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, req := range requests {
		ticker := req["ticker"].(string)
		g.Go(func() error {
			resp, err := s.Valuate(gctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}
			items[i] = models.BatchItem{Ticker: ticker, Result: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &models.BatchResult{Results: items}, nil
}

// History lists recorded runs for ticker, newest first. Without a run
// store it returns an empty list.
func (s *Service) History(ctx context.Context, ticker string, limit int) ([]models.ValuationRun, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return nil, models.InvalidInput("Ticker is required.")
	}
	if s.runs == nil {
		return []models.ValuationRun{}, nil
	}
	return s.runs.ListByTicker(ctx, symbol, limit)
}

// modeLabel maps a requested mode onto the model that actually ran. Any
// mode other than ddm is valued with DCF.
func modeLabel(mode string) string {
	if strings.EqualFold(strings.TrimSpace(mode), models.ModeDDM) {
		return models.ModeDDM
	}
	return models.ModeDCF
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
