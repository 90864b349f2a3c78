// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day format used in records and storage keys.
const DateLayout = "2006-01-02"

// LocalUserID owns the records of a player who is not signed in.
const LocalUserID = "local"

// ErrInvalidRecord is returned when a GameRecord breaks an invariant.
var ErrInvalidRecord = errors.New("invalid game record")

// GameRecord is one completed game. At most one exists per (UserID, PuzzleID).
type GameRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	PuzzleID    string    `json:"puzzleId"`
	Date        string    `json:"date"` // calendar day, YYYY-MM-DD
	Won         bool      `json:"won"`
	Score       int       `json:"score"`
	GuessCount  int       `json:"guessCount"`
	HintsUsed   int       `json:"hintsUsed"`
	Difficulty  *int      `json:"difficulty,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// NewRecord stamps a record with a fresh id and completion time.
func NewRecord(userID, puzzleID, date string, won bool, score, guesses, hintsUsed int, difficulty *int) GameRecord {
	return GameRecord{
		ID:          uuid.New(),
		UserID:      userID,
		PuzzleID:    puzzleID,
		Date:        date,
		Won:         won,
		Score:       score,
		GuessCount:  guesses,
		HintsUsed:   hintsUsed,
		Difficulty:  difficulty,
		CompletedAt: time.Now().UTC(),
	}
}

// Validate checks the record before it is stored.
func (r GameRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.UserID) == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	case strings.TrimSpace(r.PuzzleID) == "":
		return fmt.Errorf("%w: missing puzzle id", ErrInvalidRecord)
	case r.UserID != strings.TrimSpace(r.UserID), r.PuzzleID != strings.TrimSpace(r.PuzzleID):
		return fmt.Errorf("%w: ids must not carry surrounding whitespace", ErrInvalidRecord)
	case r.Score < 0:
		return fmt.Errorf("%w: negative score %d", ErrInvalidRecord, r.Score)
	case !r.Won && r.Score != 0:
		return fmt.Errorf("%w: loss with score %d", ErrInvalidRecord, r.Score)
	case r.GuessCount < 0 || r.HintsUsed < 0:
		return fmt.Errorf("%w: negative counters", ErrInvalidRecord)
	case r.Difficulty != nil && (*r.Difficulty < 1 || *r.Difficulty > 5):
		return fmt.Errorf("%w: difficulty %d out of range", ErrInvalidRecord, *r.Difficulty)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidRecord, r.Date)
	}
	return nil
}

// Before orders records chronologically: by calendar date, then completion time.
func (r GameRecord) Before(o GameRecord) bool {
	if r.Date != o.Date {
		return r.Date < o.Date
	}
	return r.CompletedAt.Before(o.CompletedAt)
}

// User is a verified identity.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// DayKey is the local storage key of the session played on date.
func DayKey(date string) string {
	return "candle-" + date
}
