package simulate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/candle/internal/adapters/remote"
	"github.com/okian/candle/pkg/logger"
)

const retryBackoff = 50 * time.Millisecond

type counters struct {
	submitted  atomic.Int64
	accepted   atomic.Int64
	duplicates atomic.Int64
	retries    atomic.Int64
	failed     atomic.Int64
}

// submit delivers the stream with a worker pool. Transient failures are
// retried with linear backoff; anything else counts as failed.
func submit(ctx context.Context, cfg Config, clients []*remote.Client, stream []delivery, log logger.Logger) *counters {
	c := &counters{}
	work := make(chan delivery, cfg.Workers*2)
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range work {
				deliver(ctx, cfg, clients[d.player], d, c, log)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, d := range stream {
			select {
			case <-ctx.Done():
				return
			case work <- d:
			}
		}
	}()

	wg.Wait()
	return c
}

func deliver(ctx context.Context, cfg Config, client *remote.Client, d delivery, c *counters, log logger.Logger) {
	c.submitted.Add(1)
	for attempt := 0; ; attempt++ {
		_, dup, err := client.RecordCompletion(ctx, d.record)
		switch {
		case err == nil && dup:
			c.duplicates.Add(1)
			return
		case err == nil:
			c.accepted.Add(1)
			return
		case errors.Is(err, remote.ErrUnavailable) && attempt < cfg.Retries:
			c.retries.Add(1)
			select {
			case <-ctx.Done():
				c.failed.Add(1)
				return
			case <-time.After(time.Duration(attempt+1) * retryBackoff):
			}
		default:
			c.failed.Add(1)
			log.Warn(ctx, "delivery failed",
				logger.String("user", d.record.UserID),
				logger.String("puzzle", d.record.PuzzleID),
				logger.Error(err))
			return
		}
	}
}
