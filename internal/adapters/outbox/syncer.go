package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/candle/pkg/logger"
)

const defaultSyncInterval = 30 * time.Second

// Syncer flushes an outbox on a timer until stopped.
type Syncer struct {
	box      *Outbox
	dst      Submitter
	interval time.Duration
	onFlush  func(Result)
	log      logger.Logger

	kick     chan struct{}
	shutdown chan struct{}
	done     chan struct{}
}

// NewSyncer creates a syncer delivering box into dst.
func NewSyncer(box *Outbox, dst Submitter, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		box:      box,
		dst:      dst,
		interval: defaultSyncInterval,
		log:      logger.Nop(),
		kick:     make(chan struct{}, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("syncer")
	return s
}

// Kick requests a flush without waiting for the next tick.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run flushes immediately, then on every tick or kick, until ctx is
// canceled or Shutdown is called.
func (s *Syncer) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.flush(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.flush(ctx)
		case <-s.kick:
			s.flush(ctx)
		}
	}
}

func (s *Syncer) flush(ctx context.Context) {
	res, err := s.box.Flush(ctx, s.dst)
	if err != nil {
		s.log.Warn(ctx, "flush incomplete", logger.Int("remaining", res.Remaining), logger.Error(err))
	}
	if res.Sent+res.Duplicates > 0 {
		s.log.Info(ctx, "outbox delivered",
			logger.Int("sent", res.Sent), logger.Int("duplicates", res.Duplicates), logger.Int("remaining", res.Remaining))
		if s.onFlush != nil {
			s.onFlush(res)
		}
	}
}

// Shutdown stops the loop and waits for it to exit.
func (s *Syncer) Shutdown(ctx context.Context) error {
	close(s.shutdown)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		s.log.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
