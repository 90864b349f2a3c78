package outbox

import (
	"time"

	"github.com/okian/candle/pkg/logger"
)

// Option applies a configuration option to the Outbox.
type Option func(*Outbox)

// WithCapacity sets the maximum number of pending records.
func WithCapacity(capacity int) Option {
	return func(o *Outbox) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Outbox) {
		if l != nil {
			o.log = l
		}
	}
}

// SyncerOption applies a configuration option to the Syncer.
type SyncerOption func(*Syncer)

// WithInterval sets how often the syncer flushes.
func WithInterval(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSyncerLogger sets a custom logger for the syncer.
func WithSyncerLogger(l logger.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithOnFlush registers a callback invoked after each flush that delivered
// something.
func WithOnFlush(fn func(Result)) SyncerOption {
	return func(s *Syncer) {
		s.onFlush = fn
	}
}
