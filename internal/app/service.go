// Package app wires the domain into the two runtimes: Service backs the HTTP
// API on the server, Player drives one device's game.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/session"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

// Default service configuration constants.
const (
	DefaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Completion is a finished game as reported by a client.
type Completion struct {
	PuzzleID   string
	Date       string
	Won        bool
	Score      int
	GuessCount int
	HintsUsed  int
	Difficulty *int
}

// Service implements the API dependencies for the stats server.
type Service struct {
	mu sync.RWMutex

	store    repository.StatsStore
	identity identity.Provider

	historyLimit     int
	startingBankroll int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing stats store. Defaults to an in-memory store.
func WithStore(store repository.StatsStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithIdentity sets the credential verifier.
func WithIdentity(p identity.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.identity = p
		}
	}
}

// WithHistoryLimit sets the default page size of history queries.
func WithHistoryLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyLimit = min(n, maxHistoryLimit)
		}
	}
}

// WithStartingBankroll caps the score a client may report.
func WithStartingBankroll(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.startingBankroll = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		historyLimit:     DefaultHistoryLimit,
		startingBankroll: session.StartingBankroll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start fills in defaults for anything not configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithLogger(s.logger))
		s.logger.Warn(ctx, "no database configured, stats are kept in memory")
	}
	if s.identity == nil {
		s.identity = identity.Chain{}
		s.logger.Warn(ctx, "no identity provider configured, every request will be rejected")
	}

	s.started = true
	s.logger.Info(ctx, "stats service started",
		logger.Int("historyLimit", s.historyLimit),
		logger.Int("startingBankroll", s.startingBankroll),
	)
	return nil
}

// Stop marks the service stopped. The store's lifetime belongs to the caller.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(ctx, "stats service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// HistoryLimit is the default history page size.
func (s *Service) HistoryLimit() int { return s.historyLimit }

// Authenticate verifies a bearer credential.
func (s *Service) Authenticate(ctx context.Context, credential string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}
	u, err := s.identity.Verify(ctx, credential)
	if err != nil {
		metrics.RecordAuthFailure()
		if !errors.Is(err, identity.ErrInvalidCredential) {
			s.logger.Warn(ctx, "identity provider failed", logger.Error(err))
		}
		return model.User{}, err
	}
	return u, nil
}

// Complete records a finished game for user. Resubmissions of the same
// puzzle return the stored aggregate with duplicate set.
func (s *Service) Complete(ctx context.Context, user model.User, c Completion) (stats.PlayerStats, bool, error) {
	if err := s.ready(); err != nil {
		return stats.PlayerStats{}, false, err
	}
	if c.Score > s.startingBankroll {
		return stats.PlayerStats{}, false, fmt.Errorf("%w: %d > %d", ErrScoreOutOfRange, c.Score, s.startingBankroll)
	}

	rec := model.NewRecord(user.ID, c.PuzzleID, c.Date, c.Won, c.Score, c.GuessCount, c.HintsUsed, c.Difficulty)
	st, dup, err := s.store.RecordCompletion(ctx, rec)
	if err != nil {
		return stats.PlayerStats{}, false, err
	}

	if dup {
		metrics.RecordCompletionDuplicate()
		s.logger.Debug(ctx, "duplicate completion",
			logger.String("user", user.ID), logger.String("puzzle", c.PuzzleID))
		return st, true, nil
	}
	metrics.RecordGameCompleted(c.Won, c.Score)
	s.logger.Info(ctx, "completion recorded",
		logger.String("user", user.ID),
		logger.String("puzzle", c.PuzzleID),
		logger.Bool("won", c.Won),
		logger.Int("score", c.Score),
		logger.Int("gamesPlayed", st.GamesPlayed),
	)
	return st, false, nil
}

// Stats returns user's aggregate.
func (s *Service) Stats(ctx context.Context, user model.User) (stats.PlayerStats, error) {
	if err := s.ready(); err != nil {
		return stats.PlayerStats{}, err
	}
	return s.store.GetStats(ctx, user.ID)
}

// History returns user's records newest first. limit <= 0 uses the default.
func (s *Service) History(ctx context.Context, user model.User, limit int) ([]model.GameRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.store.GetHistory(ctx, user.ID, min(limit, maxHistoryLimit))
}
