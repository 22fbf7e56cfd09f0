// Package store persists valuation runs. PostgreSQL is the durable
// backend; the in-memory store serves tests and single-process use.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/fairvalue/pkg/models"
)

// DefaultListLimit caps ListByTicker when the caller passes limit <= 0.
const DefaultListLimit = 20

// RunStore records valuation runs and lists them per ticker.
type RunStore interface {
	// Save persists run, assigning ID and CreatedAt when they are empty.
	Save(ctx context.Context, run *models.ValuationRun) error

	// ListByTicker returns the most recent runs for ticker, newest first.
	ListByTicker(ctx context.Context, ticker string, limit int) ([]models.ValuationRun, error)
}

// NewRun builds the persisted summary of a valuation response.
func NewRun(resp *models.ValuationResponse) *models.ValuationRun {
	return &models.ValuationRun{
		Ticker:                 resp.Ticker,
		Mode:                   resp.Mode,
		Currency:               resp.Currency,
		CurrentPrice:           resp.CurrentPrice,
		WeightedIntrinsicValue: resp.WeightedIntrinsicValue,
		MarginOfSafetyBuyPrice: resp.MarginOfSafetyBuyPrice,
		Response:               resp,
	}
}

func prepare(run *models.ValuationRun, now time.Time) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now.UTC()
	}
	run.Ticker = strings.ToUpper(strings.TrimSpace(run.Ticker))
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
