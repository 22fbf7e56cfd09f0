package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/fairvalue/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS valuation_runs (
	id                         UUID PRIMARY KEY,
	ticker                     TEXT NOT NULL,
	mode                       TEXT NOT NULL,
	currency                   TEXT NOT NULL,
	current_price              NUMERIC NOT NULL,
	weighted_intrinsic_value   NUMERIC NOT NULL,
	margin_of_safety_buy_price NUMERIC NOT NULL,
	response                   JSONB,
	created_at                 TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS valuation_runs_ticker_created_idx
	ON valuation_runs (ticker, created_at DESC);`

// PostgresStore implements RunStore on PostgreSQL. Monetary values are
// stored as NUMERIC; the full response is kept as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the valuation_runs table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, run *models.ValuationRun) error {
	prepare(run, time.Now())

	var body []byte
	if run.Response != nil {
		var err error
		if body, err = json.Marshal(run.Response); err != nil {
			return fmt.Errorf("encode run %s: %w", run.ID, err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO valuation_runs (id, ticker, mode, currency, current_price,
		        weighted_intrinsic_value, margin_of_safety_buy_price, response, created_at)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7::NUMERIC, $8, $9)`,
		run.ID, run.Ticker, run.Mode, run.Currency,
		numeric(run.CurrentPrice),
		numeric(run.WeightedIntrinsicValue),
		numeric(run.MarginOfSafetyBuyPrice),
		body, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) ListByTicker(ctx context.Context, ticker string, limit int) ([]models.ValuationRun, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::TEXT, ticker, mode, currency,
		        current_price::TEXT, weighted_intrinsic_value::TEXT, margin_of_safety_buy_price::TEXT,
		        response, created_at
		 FROM valuation_runs WHERE ticker = $1
		 ORDER BY created_at DESC LIMIT $2`,
		strings.ToUpper(strings.TrimSpace(ticker)), effectiveLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", ticker, err)
	}
	defer rows.Close()

	runs := []models.ValuationRun{}
	for rows.Next() {
		var r models.ValuationRun
		var price, intrinsic, buy string
		var body []byte
		if err := rows.Scan(&r.ID, &r.Ticker, &r.Mode, &r.Currency,
			&price, &intrinsic, &buy, &body, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.CurrentPrice = fromNumeric(price)
		r.WeightedIntrinsicValue = fromNumeric(intrinsic)
		r.MarginOfSafetyBuyPrice = fromNumeric(buy)
		if len(body) > 0 {
			var resp models.ValuationResponse
			if err := json.Unmarshal(body, &resp); err == nil {
				r.Response = &resp
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// numeric renders f for a NUMERIC column. Postgres stores NaN, which
// decimal cannot represent, so non-finite values map to it.
func numeric(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NaN"
	}
	return decimal.NewFromFloat(f).String()
}

func fromNumeric(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
