// Package repository persists game sessions, completion records and player
// stats. One contract, several backends: a day-keyed local store for a
// single device and (user, puzzle)-keyed remote stores.
package repository

import (
	"context"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/session"
	"github.com/okian/candle/internal/domain/stats"
)

// Backend labels used in metrics.
const (
	backendLocal    = "local"
	backendMemory   = "memory"
	backendPostgres = "postgres"
)

// SessionStore keeps the in-progress session for a calendar day.
type SessionStore interface {
	// LoadSession returns the session stored for date. found is false when
	// nothing usable is stored; corrupt entries count as nothing stored.
	LoadSession(ctx context.Context, date string) (s session.Session, found bool, err error)
	SaveSession(ctx context.Context, date string, s session.Session) error
	DeleteSession(ctx context.Context, date string) error
}

// StatsStore records completions and serves the aggregate built from them.
type StatsStore interface {
	// RecordCompletion stores rec unless its (user, puzzle) pair is already
	// on record. duplicate reports the latter; stats is the aggregate after
	// the call either way.
	RecordCompletion(ctx context.Context, rec model.GameRecord) (st stats.PlayerStats, duplicate bool, err error)

	// GetStats returns the user's aggregate, zeroed for unknown users.
	GetStats(ctx context.Context, userID string) (stats.PlayerStats, error)

	// GetHistory returns up to limit records, newest first.
	GetHistory(ctx context.Context, userID string, limit int) ([]model.GameRecord, error)
}
