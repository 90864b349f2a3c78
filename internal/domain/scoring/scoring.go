// Package scoring converts terminal bankrolls into scores and histogram buckets.
package scoring

import (
	"github.com/okian/candle/internal/domain/session"
)

// Histogram shape.
const (
	BucketCount = 10
	BucketWidth = 100
)

// ScoreFromBankroll is the bankroll clamped at zero.
func ScoreFromBankroll(bankroll int) int {
	if bankroll < 0 {
		return 0
	}
	return bankroll
}

// BucketForScore maps a score to its histogram slot: floor(score/100)
// clamped to [0, 9].
func BucketForScore(score int) int {
	if score <= 0 {
		return 0
	}
	b := score / BucketWidth
	if b > BucketCount-1 {
		return BucketCount - 1
	}
	return b
}

// FinalScore returns the score of a terminal session: the bankroll at the
// winning guess, or 0 for a loss. ok is false while the session is open.
func FinalScore(s session.Session) (score int, ok bool) {
	switch {
	case s.Won:
		return ScoreFromBankroll(s.Bankroll), true
	case s.Lost:
		return 0, true
	}
	return 0, false
}
