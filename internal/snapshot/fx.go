package snapshot

import (
	"context"
	"strings"

	"github.com/seenimoa/fairvalue/internal/metrics"
	"github.com/seenimoa/fairvalue/internal/provider"
)

const fxFallback = 1.0

// fxRate converts from the reporting currency into the market currency.
// It tries the direct pair, then the inverse pair, and falls back to 1.0.
// Lookup errors never propagate.
func (n *Normalizer) fxRate(ctx context.Context, from, to string) float64 {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" || from == to {
		return 1.0
	}

	pairs := []struct {
		symbol string
		invert bool
	}{
		{provider.FXPair(from, to), false},
		{provider.FXPair(to, from), true},
	}
	for _, p := range pairs {
		q, err := n.source.Quote(ctx, p.symbol)
		if err != nil {
			n.log.Debug("fx lookup failed", "pair", p.symbol, "err", err)
			continue
		}
		if q == nil || q.LastPrice <= 0 {
			continue
		}
		if p.invert {
			return 1 / q.LastPrice
		}
		return q.LastPrice
	}

	metrics.FXFallbackTotal.Inc()
	n.log.Debug("fx rate unavailable, using fallback", "from", from, "to", to)
	return fxFallback
}
