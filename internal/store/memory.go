package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/seenimoa/fairvalue/pkg/models"
)

// MemoryStore implements RunStore with an append-only slice.
// Not suitable for production (no persistence).
type MemoryStore struct {
	mu   sync.RWMutex
	runs []models.ValuationRun
	now  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, run *models.ValuationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepare(run, s.now())
	s.runs = append(s.runs, *run)
	return nil
}

func (s *MemoryStore) ListByTicker(_ context.Context, ticker string, limit int) ([]models.ValuationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	limit = effectiveLimit(limit)
	result := []models.ValuationRun{}
	for i := len(s.runs) - 1; i >= 0 && len(result) < limit; i-- {
		if s.runs[i].Ticker == ticker {
			result = append(result, s.runs[i])
		}
	}
	return result, nil
}
