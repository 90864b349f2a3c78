// Package outbox queues completions that could not reach the remote store
// and delivers them later.
//
// The queue lives in the local KV so it survives restarts. It holds at most
// one record per puzzle, and delivery is idempotent on the remote side, so
// re-sending after a crash mid-flush is harmless.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

// Key is the KV entry holding pending records.
const Key = "candle-outbox"

const defaultCapacity = 366

// Submitter delivers one completion.
type Submitter interface {
	RecordCompletion(ctx context.Context, rec model.GameRecord) (stats.PlayerStats, bool, error)
}

// Result summarizes a Flush.
type Result struct {
	Sent       int
	Duplicates int
	Dropped    int
	Remaining  int
	// Stats is the aggregate returned by the last accepted delivery.
	Stats stats.PlayerStats
}

// Outbox is a persistent FIFO of undelivered completions.
type Outbox struct {
	kv       repository.KV
	capacity int
	log      logger.Logger
	mu       sync.Mutex
}

// New creates an outbox stored in kv.
func New(kv repository.KV, opts ...Option) *Outbox {
	o := &Outbox{
		kv:       kv,
		capacity: defaultCapacity,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Named("outbox")
	return o
}

// Enqueue stores rec for later delivery. It returns false when a record for
// the same puzzle is already pending.
func (o *Outbox) Enqueue(ctx context.Context, rec model.GameRecord) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	pending, err := o.load(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range pending {
		if p.PuzzleID == rec.PuzzleID {
			return false, nil
		}
	}
	if len(pending) >= o.capacity {
		return false, ErrFull
	}
	return true, o.save(ctx, append(pending, rec))
}

// Pending returns queued records, oldest first.
func (o *Outbox) Pending(ctx context.Context) ([]model.GameRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.load(ctx)
}

// Len returns the number of pending records, or 0 if they cannot be read.
func (o *Outbox) Len(ctx context.Context) int {
	pending, err := o.Pending(ctx)
	if err != nil {
		return 0
	}
	return len(pending)
}

// Flush delivers pending records oldest first. Delivery stops at the first
// transient failure; that record and everything after it stay queued.
// Records the remote rejects as invalid are dropped.
func (o *Outbox) Flush(ctx context.Context, dst Submitter) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	pending, err := o.load(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	var sendErr error
	i := 0
	for ; i < len(pending); i++ {
		st, dup, err := dst.RecordCompletion(ctx, pending[i])
		if errors.Is(err, model.ErrInvalidRecord) {
			o.log.Warn(ctx, "dropping record rejected by remote",
				logger.String("puzzle", pending[i].PuzzleID), logger.Error(err))
			res.Dropped++
			continue
		}
		if err != nil {
			sendErr = fmt.Errorf("deliver %s: %w", pending[i].PuzzleID, err)
			metrics.RecordSyncFailure()
			break
		}
		res.Stats = st
		if dup {
			res.Duplicates++
		} else {
			res.Sent++
		}
	}

	rest := slices.Clone(pending[i:])
	res.Remaining = len(rest)
	if err := o.save(ctx, rest); err != nil {
		return res, errors.Join(sendErr, err)
	}
	return res, sendErr
}

func (o *Outbox) load(ctx context.Context) ([]model.GameRecord, error) {
	raw, err := o.kv.Get(ctx, Key)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.UpdateOutboxDepth(0)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var pending []model.GameRecord
	if err := json.Unmarshal(raw, &pending); err != nil {
		o.log.Warn(ctx, "discarding corrupt outbox", logger.Error(err))
		metrics.UpdateOutboxDepth(0)
		return nil, nil
	}
	slices.SortStableFunc(pending, func(a, b model.GameRecord) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	metrics.UpdateOutboxDepth(len(pending))
	return pending, nil
}

func (o *Outbox) save(ctx context.Context, pending []model.GameRecord) error {
	metrics.UpdateOutboxDepth(len(pending))
	if len(pending) == 0 {
		return o.kv.Delete(ctx, Key)
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("encode outbox: %w", err)
	}
	return o.kv.Put(ctx, Key, raw)
}
