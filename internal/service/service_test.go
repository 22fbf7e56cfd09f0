package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seenimoa/fairvalue/internal/config"
	"github.com/seenimoa/fairvalue/internal/store"
	"github.com/seenimoa/fairvalue/pkg/models"
)

type fakeSnapshots struct {
	mu     sync.Mutex
	snaps  map[string]*models.FinancialSnapshot
	errs   map[string]error
	calls  map[string]int
	active atomic.Int32
	peak   atomic.Int32
	delay  time.Duration
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{
		snaps: map[string]*models.FinancialSnapshot{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeSnapshots) GetSnapshot(_ context.Context, ticker string) (*models.FinancialSnapshot, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	if s, ok := f.snaps[ticker]; ok {
		return s, nil
	}
	return &models.FinancialSnapshot{Ticker: ticker, Currency: "USD", CurrentPrice: 50, SharesOutstanding: 1, FCFHistory: []float64{5}}, nil
}

func acme() *models.FinancialSnapshot {
	return &models.FinancialSnapshot{
		Ticker:               "ACME",
		Currency:             "USD",
		FinancialCurrency:    "USD",
		CurrentPrice:         100,
		SharesOutstanding:    1e9,
		FCFHistory:           []float64{10e9, 9e9},
		OwnerEarningsHistory: []float64{8e9},
		DividendsPerShareTTM: 2,
		Metadata: models.SnapshotMetadata{
			LatestOperatingCashFlow: 12e9,
			LatestCapex:             -3e9,
			FXRate:                  1,
			FinancialCurrency:       "USD",
		},
		Warnings: []string{"Base: Growth rate 30% exceeds conservative range."},
	}
}

func acmeRequest() map[string]any {
	return map[string]any{
		"ticker":           " acme ",
		"forecast_years":   3,
		"discount_rate":    0.10,
		"margin_of_safety": 0.30,
		"scenarios": []any{
			map[string]any{"name": "Base", "growth_rate": 0.05, "terminal_multiple": 12},
		},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestParseRequestDefaults(t *testing.T) {
	req, err := ParseRequest(map[string]any{"ticker": "msft"}, config.Default().Valuation)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}

	if req.Ticker != "MSFT" || req.Mode != models.ModeDCF || req.ForecastYears != 10 ||
		req.DiscountRate != 0.10 || req.MarginOfSafety != 0.30 || req.UseOwnerEarnings {
		t.Errorf("unexpected defaults: %+v", req)
	}
	if len(req.Scenarios) != 3 {
		t.Fatalf("got %d scenarios, want 3 defaults", len(req.Scenarios))
	}
	want := []struct {
		name     string
		growth   float64
		multiple float64
		prob     float64
	}{
		{"Bear", 0.02, 10, 0.25},
		{"Base", 0.05, 12, 0.5},
		{"Bull", 0.08, 15, 0.25},
	}
	for i, w := range want {
		s := req.Scenarios[i]
		if s.Name != w.name || s.TerminalMultiple != w.multiple || s.Probability != w.prob {
			t.Errorf("scenario %d = %+v, want %+v", i, s, w)
		}
		if len(s.GrowthRates) != 10 || s.GrowthRates[0] != w.growth || s.GrowthRates[9] != w.growth {
			t.Errorf("scenario %d growth = %v", i, s.GrowthRates)
		}
	}
}

func TestParseRequestCoercion(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		check func(*models.ValuationRequest) bool
	}{
		{"numeric strings", map[string]any{"forecast_years": "5", "discount_rate": "0.08", "margin_of_safety": "0.2"},
			func(r *models.ValuationRequest) bool {
				return r.ForecastYears == 5 && r.DiscountRate == 0.08 && r.MarginOfSafety == 0.2
			}},
		{"fractional years truncated", map[string]any{"forecast_years": 7.9},
			func(r *models.ValuationRequest) bool { return r.ForecastYears == 7 }},
		{"garbage falls back", map[string]any{"forecast_years": "ten", "discount_rate": []any{}},
			func(r *models.ValuationRequest) bool { return r.ForecastYears == 10 && r.DiscountRate == 0.10 }},
		{"mode lowercased", map[string]any{"mode": "DDM"},
			func(r *models.ValuationRequest) bool { return r.Mode == models.ModeDDM }},
		{"non-string mode", map[string]any{"mode": 3},
			func(r *models.ValuationRequest) bool { return r.Mode == models.ModeDCF }},
		{"non-string ticker", map[string]any{"ticker": 42},
			func(r *models.ValuationRequest) bool { return r.Ticker == "" }},
		{"owner earnings string", map[string]any{"use_owner_earnings": "true"},
			func(r *models.ValuationRequest) bool { return r.UseOwnerEarnings }},
		{"owner earnings bad string", map[string]any{"use_owner_earnings": "yes please"},
			func(r *models.ValuationRequest) bool { return !r.UseOwnerEarnings }},
		{"owner earnings number", map[string]any{"use_owner_earnings": 1.0},
			func(r *models.ValuationRequest) bool { return r.UseOwnerEarnings }},
		{"empty scenarios use defaults", map[string]any{"scenarios": []any{}},
			func(r *models.ValuationRequest) bool { return len(r.Scenarios) == 3 }},
		{"non-list scenarios use defaults", map[string]any{"scenarios": "bull"},
			func(r *models.ValuationRequest) bool { return len(r.Scenarios) == 3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest(tt.raw, config.Default().Valuation)
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if !tt.check(req) {
				t.Errorf("unexpected request %+v", req)
			}
		})
	}
}

func TestParseRequestForecastYearsCap(t *testing.T) {
	tests := []struct {
		name    string
		years   any
		wantErr bool
	}{
		{"at cap", 100, false},
		{"above cap", 101, true},
		{"huge", 1e15, true},
		{"beyond int range", 1e300, true},
		{"huge string", "1e15", true},
		{"negative", -5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest(map[string]any{"forecast_years": tt.years}, config.Default().Valuation)
			if tt.wantErr {
				if !errors.Is(err, models.ErrInvalidInput) {
					t.Fatalf("err = %v, want invalid input", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if len(req.Scenarios[0].GrowthRates) > MaxForecastYears {
				t.Errorf("growth path has %d entries", len(req.Scenarios[0].GrowthRates))
			}
		})
	}
}

func TestValuateRejectsLongHorizon(t *testing.T) {
	snaps := newFakeSnapshots()
	snaps.snaps["ACME"] = acme()
	svc := New(snaps)

	_, err := svc.Valuate(context.Background(), map[string]any{"ticker": "ACME", "forecast_years": 1e15})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
	if n := snaps.calls["ACME"]; n != 0 {
		t.Errorf("snapshot fetched %d times for a rejected request", n)
	}
}

func TestParseScenarioItems(t *testing.T) {
	raw := map[string]any{
		"forecast_years": 3,
		"scenarios": []any{
			map[string]any{"name": "Custom", "growth_rates": []any{0.1, 0.05}, "terminal_multiple": "9", "probability": 2},
			map[string]any{"growth_rates": nil, "growth_rate": 0.03},
			"not an object",
		},
	}
	req, err := ParseRequest(raw, config.Default().Valuation)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	got := req.Scenarios
	want := []models.ScenarioProfile{
		{Name: "Custom", GrowthRates: []float64{0.1, 0.05, 0.05}, TerminalMultiple: 9, Probability: 2},
		{Name: "Scenario 2", GrowthRates: []float64{0.03, 0.03, 0.03}, TerminalMultiple: 12, Probability: 1},
		{Name: "Scenario 3", GrowthRates: []float64{0, 0, 0}, TerminalMultiple: 12, Probability: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("scenarios =\n%+v\nwant\n%+v", got, want)
	}
}

func TestNormalizeGrowth(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		years int
		want  []float64
	}{
		{"scalar", 0.05, 4, []float64{0.05, 0.05, 0.05, 0.05}},
		{"scalar one year", 0.05, 1, []float64{0.05}},
		{"scalar zero years", 0.05, 0, []float64{0.05}},
		{"pad with last", []any{0.1, 0.08}, 4, []float64{0.1, 0.08, 0.08, 0.08}},
		{"truncate", []any{0.1, 0.08, 0.06, 0.04}, 2, []float64{0.1, 0.08}},
		{"coerce elements", []any{"0.1", nil, "x", true}, 4, []float64{0.1, 0, 0, 1}},
		{"typed slice", []float64{0.2}, 2, []float64{0.2, 0.2}},
		{"empty list", []any{}, 3, []float64{0, 0, 0}},
		{"unsupported type", "fast", 2, []float64{0, 0}},
		{"list with zero years", []any{0.1}, 0, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeGrowth(tt.raw, tt.years); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeGrowth(%v, %d) = %v, want %v", tt.raw, tt.years, got, tt.want)
			}
		})
	}
}

func TestParseBatch(t *testing.T) {
	_, err := ParseBatch(map[string]any{"tickers": []any{" ", nil}})
	if err == nil {
		t.Fatal("expected error for blank ticker list")
	}
	if !errors.Is(err, models.ErrInvalidInput) || err.Error() != "Provide a list of tickers to evaluate." {
		t.Errorf("err = %v", err)
	}

	reqs, err := ParseBatch(map[string]any{"tickers": []any{"aapl", "", " msft"}, "mode": "ddm"})
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{
		{"ticker": "AAPL", "mode": "ddm"},
		{"ticker": "MSFT", "mode": "ddm"},
	}
	if !reflect.DeepEqual(reqs, want) {
		t.Errorf("requests = %v, want %v", reqs, want)
	}
}

func TestValuateDCF(t *testing.T) {
	src := newFakeSnapshots()
	src.snaps["ACME"] = acme()
	svc := New(src)

	raw := acmeRequest()
	resp, err := svc.Valuate(context.Background(), raw)
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if resp.Ticker != "ACME" || resp.Mode != "dcf" || resp.Currency != "USD" || resp.CurrentPrice != 100 || resp.SharesOutstanding != 1e9 {
		t.Errorf("identity fields: %+v", resp)
	}
	if !near(resp.WeightedIntrinsicValue, 131.723) || !near(resp.MarginOfSafetyBuyPrice, 92.206) {
		t.Errorf("intrinsic %v buy %v", resp.WeightedIntrinsicValue, resp.MarginOfSafetyBuyPrice)
	}
	if len(resp.Scenarios) != 1 || resp.Scenarios[0].Name != "Base" {
		t.Errorf("scenarios = %+v", resp.Scenarios)
	}
	if !reflect.DeepEqual(resp.Inputs, raw) {
		t.Errorf("inputs not echoed: %v", resp.Inputs)
	}
	if !reflect.DeepEqual(resp.Snapshot.FCFHistory, []float64{10e9, 9e9}) || resp.Snapshot.DividendsPerShareTTM != 2 {
		t.Errorf("snapshot summary = %+v", resp.Snapshot)
	}
	if resp.RunID != "" {
		t.Errorf("RunID = %q without a store", resp.RunID)
	}
}

func TestValuateBaseCashFlowSelection(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.FinancialSnapshot)
		owner  bool
		want   float64 // per-share base
	}{
		{"latest fcf", nil, false, 10},
		{"owner earnings", nil, true, 8},
		{"fallback ocf minus capex", func(s *models.FinancialSnapshot) { s.FCFHistory = nil }, false, 15},
		{"owner earnings fallback", func(s *models.FinancialSnapshot) { s.OwnerEarningsHistory = []float64{} }, true, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := acme()
			if tt.mutate != nil {
				tt.mutate(snap)
			}
			src := newFakeSnapshots()
			src.snaps["ACME"] = snap
			raw := map[string]any{
				"ticker":             "ACME",
				"forecast_years":     1,
				"discount_rate":      0,
				"margin_of_safety":   0,
				"use_owner_earnings": tt.owner,
				"scenarios":          []any{map[string]any{"growth_rate": 0, "terminal_multiple": 0}},
			}
			resp, err := New(src).Valuate(context.Background(), raw)
			if err != nil {
				t.Fatal(err)
			}
			if !near(resp.WeightedIntrinsicValue, tt.want) {
				t.Errorf("intrinsic = %v, want %v", resp.WeightedIntrinsicValue, tt.want)
			}
			if resp.UseOwnerEarnings != tt.owner {
				t.Errorf("UseOwnerEarnings = %v", resp.UseOwnerEarnings)
			}
		})
	}
}

func TestValuateDDM(t *testing.T) {
	src := newFakeSnapshots()
	src.snaps["ACME"] = acme()
	raw := map[string]any{
		"ticker": "ACME", "mode": "ddm", "forecast_years": 1, "discount_rate": 0, "margin_of_safety": 0,
		"scenarios": []any{map[string]any{"growth_rate": 0, "terminal_multiple": 0}},
	}
	resp, err := New(src).Valuate(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Mode != models.ModeDDM || !near(resp.WeightedIntrinsicValue, 2) {
		t.Errorf("ddm intrinsic = %v (mode %s), want dividend per share 2", resp.WeightedIntrinsicValue, resp.Mode)
	}
	if resp.SharesOutstanding != 1e9 {
		t.Errorf("response should report the snapshot share count, got %v", resp.SharesOutstanding)
	}
}

func TestValuateWarningsUnion(t *testing.T) {
	src := newFakeSnapshots()
	src.snaps["ACME"] = acme()
	raw := acmeRequest()
	raw["scenarios"] = []any{map[string]any{"name": "Base", "growth_rate": 0.3, "terminal_multiple": 25}}

	resp, err := New(src).Valuate(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Base: Growth rate 30% exceeds conservative range.",
		"Base: Terminal multiple 25.0 is aggressive.",
	}
	if !reflect.DeepEqual(resp.GlobalWarnings, want) {
		t.Errorf("GlobalWarnings = %q, want %q", resp.GlobalWarnings, want)
	}
}

func TestValuateErrors(t *testing.T) {
	src := newFakeSnapshots()
	src.errs["DOWN"] = errors.New("fetch quote: connection refused")
	svc := New(src)

	_, err := svc.Valuate(context.Background(), map[string]any{"ticker": "   "})
	if !errors.Is(err, models.ErrInvalidInput) || err.Error() != "Ticker is required." {
		t.Errorf("blank ticker: err = %v", err)
	}
	if len(src.calls) != 0 {
		t.Error("blank ticker should not reach the snapshot source")
	}

	_, err = svc.Valuate(context.Background(), map[string]any{"ticker": "DOWN"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("upstream failure: err = %v", err)
	}

	_, err = svc.Valuate(context.Background(), map[string]any{"ticker": "ACME", "forecast_years": 0,
		"scenarios": []any{map[string]any{"growth_rates": []any{0.1}}}})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("zero years: err = %v", err)
	}
}

type failingStore struct{}

func (failingStore) Save(context.Context, *models.ValuationRun) error { return errors.New("disk full") }
func (failingStore) ListByTicker(context.Context, string, int) ([]models.ValuationRun, error) {
	return nil, errors.New("disk full")
}

func TestValuateRecordsRuns(t *testing.T) {
	src := newFakeSnapshots()
	src.snaps["ACME"] = acme()
	runs := store.NewMemoryStore()
	svc := New(src, WithRunStore(runs))

	resp, err := svc.Valuate(context.Background(), acmeRequest())
	if err != nil {
		t.Fatal(err)
	}
	if resp.RunID == "" {
		t.Fatal("RunID not set")
	}
	history, err := svc.History(context.Background(), "acme", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].ID != resp.RunID || history[0].Response != resp {
		t.Errorf("history = %+v", history)
	}

	resp, err = New(src, WithRunStore(failingStore{})).Valuate(context.Background(), acmeRequest())
	if err != nil {
		t.Fatalf("store failure must not fail the valuation: %v", err)
	}
	if resp.RunID != "" {
		t.Errorf("RunID = %q after failed save", resp.RunID)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	svc := New(newFakeSnapshots())
	runs, err := svc.History(context.Background(), "ACME", 5)
	if err != nil || runs == nil || len(runs) != 0 {
		t.Errorf("History = %v, %v", runs, err)
	}
	if _, err := svc.History(context.Background(), "", 5); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("blank ticker: err = %v", err)
	}
}

func TestBatch(t *testing.T) {
	src := newFakeSnapshots()
	src.delay = 10 * time.Millisecond
	src.snaps["ACME"] = acme()
	svc := New(src, WithConcurrency(2))

	tickers := []any{"msft", "acme", "aapl", "goog", "nvda"}
	res, err := svc.Batch(context.Background(), map[string]any{"tickers": tickers, "forecast_years": 3})
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	want := []string{"MSFT", "ACME", "AAPL", "GOOG", "NVDA"}
	if len(res.Results) != len(want) {
		t.Fatalf("got %d results, want %d", len(res.Results), len(want))
	}
	for i, item := range res.Results {
		if item.Ticker != want[i] || item.Result.Ticker != want[i] {
			t.Errorf("results[%d] = %s/%s, want %s", i, item.Ticker, item.Result.Ticker, want[i])
		}
		if item.Result.Inputs["forecast_years"] != 3 {
			t.Errorf("shared inputs not merged for %s: %v", item.Ticker, item.Result.Inputs)
		}
	}
	if p := src.peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestBatchFailsOnFirstError(t *testing.T) {
	src := newFakeSnapshots()
	src.errs["BAD"] = errors.New("fetch info: HTTP 500")

	_, err := New(src).Batch(context.Background(), map[string]any{"tickers": []any{"AAPL", "BAD"}})
	if err == nil || !strings.HasPrefix(err.Error(), "BAD: ") {
		t.Errorf("err = %v, want failure naming BAD", err)
	}

	_, err = New(src).Batch(context.Background(), map[string]any{"tickers": []any{}})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("empty batch: err = %v", err)
	}
}

func TestModeLabel(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"ddm", "ddm"},
		{" DDM ", "ddm"},
		{"dcf", "dcf"},
		{"", "dcf"},
		{"x-7f3a9c", "dcf"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := modeLabel(tt.mode); got != tt.want {
				t.Errorf("modeLabel(%q) = %q, want %q", tt.mode, got, tt.want)
			}
		})
	}
}

func TestValuationMetricModesBounded(t *testing.T) {
	svc := New(newFakeSnapshots())
	for _, mode := range []string{"random-a1", "random-b2", "ddm"} {
		raw := acmeRequest()
		raw["mode"] = mode
		if _, err := svc.Valuate(context.Background(), raw); err != nil {
			t.Fatalf("Valuate(%s): %v", mode, err)
		}
	}

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "fairvalue_valuations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "mode" && l.GetValue() != models.ModeDCF && l.GetValue() != models.ModeDDM {
					t.Errorf("unexpected mode label %q", l.GetValue())
				}
			}
		}
	}
}
