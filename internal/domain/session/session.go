// Package session implements the per-puzzle game economy as pure transitions
// over a value-typed Session. Callers own the single mutable instance and
// persist whatever a transition returns.
package session

import (
	"errors"
	"fmt"

	"github.com/okian/candle/internal/domain/puzzle"
)

// Default economy constants.
const (
	StartingBankroll  = 1000
	WrongGuessPenalty = 150
)

// ErrInvalidSession marks persisted state that breaks a session invariant.
var ErrInvalidSession = errors.New("invalid session")

// State is the lifecycle position of a session.
type State int

// Session states. Won and Lost are terminal.
const (
	Fresh State = iota
	InProgress
	Won
	Lost
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case InProgress:
		return "in_progress"
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is one player's attempt at one puzzle.
type Session struct {
	PuzzleID      string           `json:"puzzleId"`
	Bankroll      int              `json:"bankroll"`
	RevealedHints []string         `json:"revealedHints"`
	Guesses       []string         `json:"guesses"`
	Won           bool             `json:"won"`
	Lost          bool             `json:"lost"`
	ActiveChart   puzzle.Timeframe `json:"activeChart"`
}

// IsTerminal reports whether the session is won or lost.
func (s Session) IsTerminal() bool {
	return s.Won || s.Lost
}

// State derives the lifecycle state.
func (s Session) State() State {
	switch {
	case s.Won:
		return Won
	case s.Lost:
		return Lost
	case len(s.RevealedHints) == 0 && len(s.Guesses) == 0 && s.ActiveChart == puzzle.DefaultTF:
		return Fresh
	}
	return InProgress
}

// HasHint reports whether id was already purchased.
func (s Session) HasHint(id string) bool {
	for _, h := range s.RevealedHints {
		if h == id {
			return true
		}
	}
	return false
}

// clone copies the slices so transitions never alias their input.
func (s Session) clone() Session {
	out := s
	out.RevealedHints = append(make([]string, 0, len(s.RevealedHints)+1), s.RevealedHints...)
	out.Guesses = append(make([]string, 0, len(s.Guesses)+1), s.Guesses...)
	return out
}

// Completed reports the single non-terminal → terminal edge between two
// successive values of the same session. Stats are recorded on this edge only.
func Completed(before, after Session) bool {
	return !before.IsTerminal() && after.IsTerminal()
}
