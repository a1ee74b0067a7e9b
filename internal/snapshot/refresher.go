package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/b3monitor/internal/contracts"
	"github.com/wonny/b3monitor/internal/selection"
	"github.com/wonny/b3monitor/internal/telemetry"
	"github.com/wonny/b3monitor/pkg/logger"
)

// Source yields a stock snapshot. *brapi.Client implements it.
type Source interface {
	Snapshot(ctx context.Context, symbols []string) ([]contracts.Stock, error)
}

// Refresher pulls quotes, screens them and publishes the result
// ⭐ SSOT: the store is written here only
type Refresher struct {
	source   Source
	screener *selection.Screener
	store    *Store
	logger   *logger.Logger
	metrics  *telemetry.Metrics
	symbols  []string
	now      func() time.Time

	mu sync.Mutex // one refresh at a time
}

// NewRefresher creates a refresher. An empty symbols list means the
// source picks the universe.
func NewRefresher(source Source, screener *selection.Screener, store *Store, symbols []string, log *logger.Logger) *Refresher {
	return &Refresher{
		source:   source,
		screener: screener,
		store:    store,
		logger:   log,
		symbols:  symbols,
		now:      time.Now,
	}
}

// WithMetrics records refresh outcomes into m
func (r *Refresher) WithMetrics(m *telemetry.Metrics) *Refresher {
	r.metrics = m
	return r
}

// Store returns the store the refresher writes to
func (r *Refresher) Store() *Store {
	return r.store
}

// Refresh fetches, screens and stores a new snapshot. On fetch failure
// the previous snapshot stays in place and the error is returned.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.now()

	stocks, err := r.source.Snapshot(ctx, r.symbols)
	if err == nil && len(stocks) == 0 {
		err = fmt.Errorf("quote source returned no stocks")
	}
	if err != nil {
		r.metrics.ObserveRefresh(err, 0, 0, start)
		r.logger.WithError(err).Warn("Refresh failed, keeping previous snapshot")
		return nil, fmt.Errorf("refresh: %w", err)
	}

	result := r.screener.Screen(ctx, stocks)
	snap := &Snapshot{
		ID:      uuid.NewString(),
		TakenAt: start,
		Result:  result,
	}
	r.store.Set(snap)
	r.metrics.ObserveRefresh(nil, len(result.Admitted), len(result.Rejected), start)

	r.logger.WithFields(map[string]interface{}{
		"snapshot_id": snap.ID,
		"admitted":    len(result.Admitted),
		"rejected":    len(result.Rejected),
		"duration_ms": r.now().Sub(start).Milliseconds(),
	}).Info("Snapshot refreshed")

	return snap, nil
}
