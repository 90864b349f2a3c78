package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/session"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

// Fixed keys of the local store. Sessions live under model.DayKey(date).
const (
	StatsKey   = "candle-stats"
	HistoryKey = "candle-history"
)

// LocalStore is the single-device backend over a KV. Besides the aggregate
// it keeps a ledger of completions keyed by puzzle id, so replaying a reset
// puzzle never counts twice and the aggregate can be rebuilt if its own
// entry is lost or corrupt.
type LocalStore struct {
	kv KV
	mu sync.Mutex
	o  options
}

var (
	_ SessionStore = (*LocalStore)(nil)
	_ StatsStore   = (*LocalStore)(nil)
)

// NewLocalStore wraps kv.
func NewLocalStore(kv KV, opts ...Option) *LocalStore {
	return &LocalStore{kv: kv, o: buildOptions("local_store", opts)}
}

func (l *LocalStore) LoadSession(ctx context.Context, date string) (s session.Session, found bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendLocal, "load_session", start, err) }()

	found, err = l.readJSON(ctx, model.DayKey(date), &s)
	if err != nil || !found {
		return session.Session{}, false, err
	}
	return s, true, nil
}

func (l *LocalStore) SaveSession(ctx context.Context, date string, s session.Session) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendLocal, "save_session", start, err) }()
	return l.writeJSON(ctx, model.DayKey(date), s)
}

func (l *LocalStore) DeleteSession(ctx context.Context, date string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendLocal, "delete_session", start, err) }()
	return l.kv.Delete(ctx, model.DayKey(date))
}

func (l *LocalStore) RecordCompletion(ctx context.Context, rec model.GameRecord) (st stats.PlayerStats, duplicate bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendLocal, "record_completion", start, err) }()

	if err := rec.Validate(); err != nil {
		return stats.PlayerStats{}, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.loadHistory(ctx)
	if err != nil {
		return stats.PlayerStats{}, false, err
	}
	prev, rebuilt, err := l.loadStats(ctx, history)
	if err != nil {
		return stats.PlayerStats{}, false, err
	}
	if _, dup := hasPuzzle(history, rec.PuzzleID); dup {
		if rebuilt {
			l.repairStats(ctx, prev)
		}
		return prev, true, nil
	}

	next, recomputed := stats.Advance(prev, history, rec)
	if recomputed {
		metrics.RecordStatsRecompute()
		l.o.log.Info(ctx, "completion arrived out of order, stats rebuilt",
			logger.String("puzzle", rec.PuzzleID), logger.String("date", rec.Date))
	}

	if err := l.writeJSON(ctx, HistoryKey, append(history, rec)); err != nil {
		return stats.PlayerStats{}, false, err
	}
	if err := l.writeJSON(ctx, StatsKey, next); err != nil {
		return stats.PlayerStats{}, false, err
	}
	return next, false, nil
}

func (l *LocalStore) GetStats(ctx context.Context, _ string) (st stats.PlayerStats, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendLocal, "get_stats", start, err) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	history, err := l.loadHistory(ctx)
	if err != nil {
		return stats.PlayerStats{}, err
	}
	st, rebuilt, err := l.loadStats(ctx, history)
	if err != nil {
		return stats.PlayerStats{}, err
	}
	if rebuilt {
		l.repairStats(ctx, st)
	}
	return st, nil
}

func (l *LocalStore) GetHistory(ctx context.Context, _ string, limit int) (out []model.GameRecord, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendLocal, "get_history", start, err) }()

	l.mu.Lock()
	history, err := l.loadHistory(ctx)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return newestFirst(history, limit)
}

func (l *LocalStore) loadHistory(ctx context.Context) ([]model.GameRecord, error) {
	var history []model.GameRecord
	found, err := l.readJSON(ctx, HistoryKey, &history)
	if err != nil || !found {
		return nil, err
	}
	return history, nil
}

// loadStats reads the stored aggregate, rebuilding it from history when it
// is missing, fails validation, or lags the ledger. The ledger is written
// first, so a failed stats write leaves the aggregate behind, never ahead.
func (l *LocalStore) loadStats(ctx context.Context, history []model.GameRecord) (st stats.PlayerStats, rebuilt bool, err error) {
	found, err := l.readJSON(ctx, StatsKey, &st)
	if err != nil {
		return stats.PlayerStats{}, false, err
	}
	if found {
		verr := st.Validate()
		switch {
		case verr != nil:
			l.o.log.Warn(ctx, "discarding invalid stats", logger.Error(verr))
		case st.GamesPlayed < len(history):
			l.o.log.Warn(ctx, "stats lag the ledger, rebuilding",
				logger.Int("counted", st.GamesPlayed), logger.Int("recorded", len(history)))
		default:
			return st, false, nil
		}
	}
	if len(history) == 0 {
		return stats.PlayerStats{}, false, nil
	}
	metrics.RecordStatsRecompute()
	return stats.Recompute(history), true, nil
}

// repairStats stores a rebuilt aggregate. A failure only costs another
// rebuild on the next read.
func (l *LocalStore) repairStats(ctx context.Context, st stats.PlayerStats) {
	if err := l.writeJSON(ctx, StatsKey, st); err != nil {
		l.o.log.Warn(ctx, "rebuilt stats not saved", logger.Error(err))
	}
}

// readJSON decodes key into v. Missing and corrupt values both report
// found == false; corruption is logged, not returned.
func (l *LocalStore) readJSON(ctx context.Context, key string, v any) (found bool, err error) {
	raw, err := l.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		l.o.log.Warn(ctx, "ignoring corrupt entry",
			logger.String("key", key), logger.Error(fmt.Errorf("%w: %w", ErrCorrupt, err)))
		return false, nil
	}
	return true, nil
}

func (l *LocalStore) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return l.kv.Put(ctx, key, raw)
}
