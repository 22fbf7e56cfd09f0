package snapshot

import (
	"context"
	"time"

	"github.com/seenimoa/fairvalue/internal/infra"
	"github.com/seenimoa/fairvalue/pkg/models"
)

// DefaultTTL is how long a snapshot is reused before it is rebuilt.
const DefaultTTL = 1800 * time.Second

// SnapshotCache stores whole snapshots keyed by normalized ticker.
// Implementations must treat any read failure as a miss.
type SnapshotCache interface {
	Get(ctx context.Context, ticker string) (*models.FinancialSnapshot, bool)
	Put(ctx context.Context, ticker string, snap *models.FinancialSnapshot)
}

// MemoryCache is a process-local SnapshotCache. A hit returns the same
// pointer that was stored.
type MemoryCache struct {
	entries *infra.Cache[*models.FinancialSnapshot]
}

// NewMemoryCache creates an in-memory cache. A nil clock uses time.Now.
func NewMemoryCache(ttl time.Duration, clock infra.Clock) *MemoryCache {
	return &MemoryCache{entries: infra.NewCache[*models.FinancialSnapshot](ttl, clock)}
}

// Get implements SnapshotCache.
func (c *MemoryCache) Get(_ context.Context, ticker string) (*models.FinancialSnapshot, bool) {
	return c.entries.Get(ticker)
}

// Put implements SnapshotCache.
func (c *MemoryCache) Put(_ context.Context, ticker string, snap *models.FinancialSnapshot) {
	c.entries.Set(ticker, snap)
}
