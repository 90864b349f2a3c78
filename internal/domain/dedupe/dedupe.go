// Package dedupe tracks completion keys so each (user, puzzle) pair is
// counted at most once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const keySeparator = "\x1f"

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	Size() int64
}

// CompletionKey is the durable uniqueness key of a completed game. Ids are
// used as given; model.GameRecord.Validate rejects padded ones.
func CompletionKey(userID, puzzleID string) string {
	return userID + keySeparator + puzzleID
}

// inMemoryDeduper never evicts: forgetting a key would let a completion
// count twice.
type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
	size atomic.Int64
}

// NewInMemoryDeduper creates an empty in-memory deduper.
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{seen: make(map[string]struct{})}
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
