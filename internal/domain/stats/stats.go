// Package stats aggregates lifetime player statistics. The same totals are
// reachable two ways: Apply folds one outcome into the stored aggregate, and
// Recompute replays a full history in calendar order. Both must agree.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/scoring"
)

// ErrInvalidStats is returned by Validate.
var ErrInvalidStats = errors.New("invalid player stats")

// PlayerStats is one player's cross-puzzle aggregate.
type PlayerStats struct {
	GamesPlayed       int                      `json:"gamesPlayed"`
	GamesWon          int                      `json:"gamesWon"`
	CurrentStreak     int                      `json:"currentStreak"`
	MaxStreak         int                      `json:"maxStreak"`
	TotalScore        int                      `json:"totalScore"`
	ScoreDistribution [scoring.BucketCount]int `json:"scoreDistribution"`
}

// Outcome is the part of a completed game the aggregate depends on.
type Outcome struct {
	Won   bool
	Score int
}

// OutcomeOf extracts the outcome of a record.
func OutcomeOf(r model.GameRecord) Outcome {
	return Outcome{Won: r.Won, Score: r.Score}
}

// Apply folds one completed game into s. Losses land in bucket 0 and add
// nothing to the total.
func (s PlayerStats) Apply(o Outcome) PlayerStats {
	s.GamesPlayed++
	if !o.Won {
		s.CurrentStreak = 0
		s.ScoreDistribution[0]++
		return s
	}
	score := scoring.ScoreFromBankroll(o.Score)
	s.GamesWon++
	s.CurrentStreak++
	s.MaxStreak = max(s.MaxStreak, s.CurrentStreak)
	s.TotalScore += score
	s.ScoreDistribution[scoring.BucketForScore(score)]++
	return s
}

// Recompute replays records oldest first from zeroed stats. The input is
// not reordered in place.
func Recompute(records []model.GameRecord) PlayerStats {
	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, compareRecords)

	var s PlayerStats
	for _, r := range ordered {
		s = s.Apply(OutcomeOf(r))
	}
	return s
}

// Advance folds rec into prev. history holds the records prev was built
// from. When rec is not chronologically last the aggregate is rebuilt from
// history plus rec instead, and recomputed reports true.
func Advance(prev PlayerStats, history []model.GameRecord, rec model.GameRecord) (next PlayerStats, recomputed bool) {
	for _, h := range history {
		if rec.Before(h) {
			all := append(slices.Clone(history), rec)
			return Recompute(all), true
		}
	}
	return prev.Apply(OutcomeOf(rec)), false
}

func compareRecords(a, b model.GameRecord) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	}
	return 0
}

// WinRate is the rounded percentage of games won.
func (s PlayerStats) WinRate() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return int(math.Round(float64(s.GamesWon) / float64(s.GamesPlayed) * 100))
}

// AverageScore is the mean score over won games.
func (s PlayerStats) AverageScore() int {
	if s.GamesWon == 0 {
		return 0
	}
	return int(math.Round(float64(s.TotalScore) / float64(s.GamesWon)))
}

// Validate checks the aggregate invariants. Loaded stats that fail are
// discarded as corrupt.
func (s PlayerStats) Validate() error {
	sum := 0
	for i, n := range s.ScoreDistribution {
		if n < 0 {
			return fmt.Errorf("%w: bucket %d is negative", ErrInvalidStats, i)
		}
		sum += n
	}
	switch {
	case s.GamesPlayed < 0, s.GamesWon < 0, s.CurrentStreak < 0, s.TotalScore < 0:
		return fmt.Errorf("%w: negative counter", ErrInvalidStats)
	case s.GamesWon > s.GamesPlayed:
		return fmt.Errorf("%w: %d wins over %d games", ErrInvalidStats, s.GamesWon, s.GamesPlayed)
	case s.CurrentStreak > s.MaxStreak:
		return fmt.Errorf("%w: current streak above max", ErrInvalidStats)
	case s.MaxStreak > s.GamesWon:
		return fmt.Errorf("%w: max streak above wins", ErrInvalidStats)
	case sum != s.GamesPlayed:
		return fmt.Errorf("%w: histogram holds %d of %d games", ErrInvalidStats, sum, s.GamesPlayed)
	}
	return nil
}
