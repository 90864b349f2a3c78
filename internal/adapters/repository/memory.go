package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/candle/internal/domain/dedupe"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

type userLedger struct {
	stats   stats.PlayerStats
	records []model.GameRecord
}

// MemoryStore is an in-process multi-user StatsStore. The (user, puzzle)
// index is checked and written under the same lock as the aggregate.
type MemoryStore struct {
	mu    sync.Mutex
	users map[string]*userLedger
	seen  dedupe.Deduper
	o     options
}

var _ StatsStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*userLedger),
		seen:  dedupe.NewInMemoryDeduper(),
		o:     buildOptions("memory_store", opts),
	}
}

func (m *MemoryStore) RecordCompletion(ctx context.Context, rec model.GameRecord) (st stats.PlayerStats, duplicate bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendMemory, "record_completion", start, err) }()

	if err := rec.Validate(); err != nil {
		return stats.PlayerStats{}, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.users[rec.UserID]
	if u == nil {
		u = &userLedger{}
		m.users[rec.UserID] = u
	}
	if m.seen.SeenAndRecord(ctx, dedupe.CompletionKey(rec.UserID, rec.PuzzleID)) {
		return u.stats, true, nil
	}

	next, recomputed := stats.Advance(u.stats, u.records, rec)
	if recomputed {
		metrics.RecordStatsRecompute()
		m.o.log.Debug(ctx, "stats rebuilt for out-of-order completion",
			logger.String("user", rec.UserID), logger.String("puzzle", rec.PuzzleID))
	}
	u.records = append(u.records, rec)
	u.stats = next
	metrics.UpdateCompletionIndexSize(m.seen.Size())
	return next, false, nil
}

func (m *MemoryStore) GetStats(_ context.Context, userID string) (st stats.PlayerStats, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendMemory, "get_stats", start, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.users[userID]; u != nil {
		return u.stats, nil
	}
	return stats.PlayerStats{}, nil
}

func (m *MemoryStore) GetHistory(_ context.Context, userID string, limit int) (out []model.GameRecord, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendMemory, "get_history", start, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()
	var records []model.GameRecord
	if u := m.users[userID]; u != nil {
		records = u.records
	}
	return newestFirst(records, limit)
}
