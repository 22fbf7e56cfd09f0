// Package yfinance implements provider.DataSource over Yahoo Finance's
// public APIs: v7 quote, v8 chart, v10 quoteSummary and the
// fundamentals-timeseries endpoint. No API key is required.
package yfinance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/seenimoa/fairvalue/internal/infra"
	"github.com/seenimoa/fairvalue/internal/provider"
	"github.com/seenimoa/fairvalue/pkg/models"
)

const providerName = "yfinance"

// Default Yahoo hosts.
const (
	DefaultBaseURL       = "https://query1.finance.yahoo.com"
	DefaultTimeseriesURL = "https://query2.finance.yahoo.com"
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL       string
	TimeseriesURL string
	HTTPClient    *http.Client
	Limiter       *infra.RateLimiter
	Now           func() time.Time
}

// Client is a Yahoo Finance data source.
type Client struct {
	baseURL       string
	timeseriesURL string
	http          *http.Client
	limiter       *infra.RateLimiter
	now           func() time.Time
}

var _ provider.DataSource = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		timeseriesURL: strings.TrimRight(opts.TimeseriesURL, "/"),
		http:          opts.HTTPClient,
		limiter:       opts.Limiter,
		now:           opts.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeseriesURL == "" {
		c.timeseriesURL = DefaultTimeseriesURL
	}
	if c.http == nil {
		c.http = infra.HTTPClient
	}
	if c.limiter == nil {
		c.limiter = infra.PerSecond(5)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Name implements provider.DataSource.
func (c *Client) Name() string { return providerName }

// Ping checks connectivity to Yahoo Finance.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Quote(ctx, "AAPL"); err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	return nil
}

// Quote returns fast quote info from the v7 quote endpoint.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", c.baseURL, url.QueryEscape(symbol))

	var resp yfQuoteResponse
	if err := c.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yfinance quote %s: %w", symbol, err)
	}
	if err := apiError(resp.QuoteResponse.Error); err != nil {
		return nil, fmt.Errorf("yfinance quote %s: %w", symbol, err)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("yfinance quote %s: %w", symbol, provider.ErrNoData)
	}
	q := resp.QuoteResponse.Result[0]
	return &models.Quote{
		Symbol:            coalesce(q.Symbol, symbol),
		LastPrice:         q.RegularMarketPrice,
		SharesOutstanding: q.SharesOutstanding,
		Currency:          q.Currency,
	}, nil
}

// Info returns company info from the v10 quoteSummary endpoint.
func (c *Client) Info(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryDetail,defaultKeyStatistics,financialData",
		c.baseURL, url.PathEscape(symbol))

	var resp yfQuoteSummaryResponse
	if err := c.fetchJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yfinance info %s: %w", symbol, err)
	}
	if err := apiError(resp.QuoteSummary.Error); err != nil {
		return nil, fmt.Errorf("yfinance info %s: %w", symbol, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yfinance info %s: %w", symbol, provider.ErrNoData)
	}

	r := resp.QuoteSummary.Result[0]
	info := &models.CompanyInfo{Symbol: symbol}
	if ks := r.DefaultKeyStatistics; ks != nil {
		info.SharesOutstanding = ks.SharesOutstanding.Raw
		if info.SharesOutstanding == 0 {
			info.SharesOutstanding = ks.ImpliedSharesOutstanding.Raw
		}
	}
	var priceCur, detailCur string
	if r.Price != nil {
		priceCur = r.Price.Currency
	}
	if r.SummaryDetail != nil {
		detailCur = r.SummaryDetail.Currency
	}
	info.Currency = coalesce(priceCur, detailCur)
	if r.FinancialData != nil {
		info.FinancialCurrency = r.FinancialData.FinancialCurrency
	}
	return info, nil
}

// History returns daily closes for a chart range such as "1d" or "1mo".
func (c *Client) History(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	if period == "" {
		period = "1mo"
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(period))

	result, err := c.chart(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yfinance history %s: %w", symbol, err)
	}

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	if len(result.Indicators.Quote) == 0 {
		return bars, nil
	}
	closes := result.Indicators.Quote[0].Close
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		bars = append(bars, models.PriceBar{Date: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	return bars, nil
}

// Dividends returns the full dividend history, oldest first.
func (c *Client) Dividends(ctx context.Context, symbol string) ([]models.DividendEvent, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=0&period2=%d&interval=1d&events=div",
		c.baseURL, url.PathEscape(symbol), c.now().Unix())

	result, err := c.chart(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yfinance dividends %s: %w", symbol, err)
	}

	divs := make([]models.DividendEvent, 0)
	if result.Events != nil {
		for _, d := range result.Events.Dividends {
			divs = append(divs, models.DividendEvent{
				ExDate: time.Unix(d.Date, 0).UTC(),
				Amount: d.Amount,
			})
		}
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i].ExDate.Before(divs[j].ExDate) })
	return divs, nil
}

func (c *Client) chart(ctx context.Context, u string) (*yfChartResult, error) {
	var resp yfChartResponse
	if err := c.fetchJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if err := apiError(resp.Chart.Error); err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, provider.ErrNoData
	}
	return &resp.Chart.Result[0], nil
}

// --- Shared helpers ---

// fetchJSON rate-limits, performs a GET and decodes the body into dest.
// A 404 is reported as provider.ErrNoData.
func (c *Client) fetchJSON(ctx context.Context, u string, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, _, err := infra.DoGet(ctx, c.http, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return provider.ErrNoData
		}
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

// apiError converts an embedded Yahoo error object. "Not Found" codes are
// absence, everything else is a failure.
func apiError(e *yfError) error {
	if e == nil {
		return nil
	}
	if strings.EqualFold(e.Code, "Not Found") {
		return provider.ErrNoData
	}
	return fmt.Errorf("yfinance error %s: %s", e.Code, e.Description)
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
