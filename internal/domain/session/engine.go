package session

import (
	"fmt"

	"github.com/okian/candle/internal/domain/hints"
	"github.com/okian/candle/internal/domain/puzzle"
)

// Rules are the economy constants of a game.
type Rules struct {
	StartingBankroll  int
	WrongGuessPenalty int
}

// DefaultRules returns the published economy.
func DefaultRules() Rules {
	return Rules{StartingBankroll: StartingBankroll, WrongGuessPenalty: WrongGuessPenalty}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules overrides the economy. Non-positive values are ignored.
func WithRules(r Rules) Option {
	return func(e *Engine) {
		if r.StartingBankroll > 0 {
			e.rules.StartingBankroll = r.StartingBankroll
		}
		if r.WrongGuessPenalty > 0 {
			e.rules.WrongGuessPenalty = r.WrongGuessPenalty
		}
	}
}

// WithCatalog sets the hint catalog used for cost lookups.
func WithCatalog(c *hints.Catalog) Option {
	return func(e *Engine) {
		if c != nil {
			e.catalog = c
		}
	}
}

// Engine applies game transitions. It holds no session state and is safe
// for concurrent use.
type Engine struct {
	rules   Rules
	catalog *hints.Catalog
}

// NewEngine creates an engine with the default rules and catalog.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules:   DefaultRules(),
		catalog: hints.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's economy.
func (e *Engine) Rules() Rules { return e.rules }

// Catalog returns the engine's hint catalog.
func (e *Engine) Catalog() *hints.Catalog { return e.catalog }

// New returns a fresh session for puzzleID.
func (e *Engine) New(puzzleID string) Session {
	return Session{
		PuzzleID:      puzzleID,
		Bankroll:      e.rules.StartingBankroll,
		RevealedHints: []string{},
		Guesses:       []string{},
		ActiveChart:   puzzle.DefaultTF,
	}
}

// BuyHint deducts the cost of hintID and reveals it. Purchases that leave
// the bankroll at zero lose the game.
func (e *Engine) BuyHint(s Session, hintID string) (Session, HintResult) {
	if s.IsTerminal() {
		return s, HintRejectedTerminal
	}
	if s.HasHint(hintID) {
		return s, HintRejectedDuplicate
	}
	def, ok := e.catalog.Lookup(hintID)
	if !ok {
		return s, HintRejectedUnknown
	}
	if s.Bankroll < def.Cost {
		return s, HintRejectedInsufficient
	}

	next := s.clone()
	next.Bankroll -= def.Cost
	next.RevealedHints = append(next.RevealedHints, hintID)
	if next.Bankroll <= 0 {
		next.Bankroll = 0
		next.Lost = true
	}
	return next, HintPurchased
}

// SubmitGuess records candidate and settles it against answer. A correct
// guess wins with the bankroll untouched; a wrong one costs the penalty and
// loses the game once the unclamped bankroll reaches zero.
func (e *Engine) SubmitGuess(s Session, candidate, answer string) (Session, GuessOutcome) {
	if s.IsTerminal() {
		return s, GuessAlreadyTerminal
	}

	guess := puzzle.NormalizeTicker(candidate)
	next := s.clone()
	next.Guesses = append(next.Guesses, guess)

	if guess == puzzle.NormalizeTicker(answer) {
		next.Won = true
		return next, GuessCorrect
	}

	remaining := next.Bankroll - e.rules.WrongGuessPenalty
	if remaining <= 0 {
		next.Lost = true
		remaining = 0
	}
	next.Bankroll = remaining
	return next, GuessWrong
}

// CanView reports whether tf may be shown for s.
func (e *Engine) CanView(s Session, tf puzzle.Timeframe) bool {
	if !tf.Valid() {
		return false
	}
	if s.IsTerminal() || tf == puzzle.DefaultTF {
		return true
	}
	id, ok := e.catalog.UnlockFor(tf)
	return ok && s.HasHint(id)
}

// SetActiveTimeframe switches the visible chart. Locked timeframes are
// refused silently: the session comes back unchanged with ok == false.
func (e *Engine) SetActiveTimeframe(s Session, tf puzzle.Timeframe) (Session, bool) {
	if !e.CanView(s, tf) {
		return s, false
	}
	next := s.clone()
	next.ActiveChart = tf
	return next, true
}

// Validate checks a persisted session against the invariants. Callers treat
// a failure as "no prior state".
func (e *Engine) Validate(s Session) error {
	switch {
	case s.PuzzleID == "":
		return fmt.Errorf("%w: missing puzzle id", ErrInvalidSession)
	case s.Won && s.Lost:
		return fmt.Errorf("%w: both won and lost", ErrInvalidSession)
	case s.Bankroll < 0:
		return fmt.Errorf("%w: negative bankroll %d", ErrInvalidSession, s.Bankroll)
	case s.Bankroll > e.rules.StartingBankroll:
		return fmt.Errorf("%w: bankroll %d above start", ErrInvalidSession, s.Bankroll)
	case s.Lost && s.Bankroll != 0:
		return fmt.Errorf("%w: lost with bankroll %d", ErrInvalidSession, s.Bankroll)
	}
	seen := make(map[string]struct{}, len(s.RevealedHints))
	for _, id := range s.RevealedHints {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: hint %s revealed twice", ErrInvalidSession, id)
		}
		seen[id] = struct{}{}
	}
	if !e.CanView(s, s.ActiveChart) {
		return fmt.Errorf("%w: timeframe %q is locked", ErrInvalidSession, s.ActiveChart)
	}
	return nil
}
