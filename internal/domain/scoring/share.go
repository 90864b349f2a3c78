package scoring

import (
	"fmt"
	"math"
	"strings"
)

const (
	shareCells  = 10
	shareFilled = "▓"
	shareEmpty  = "░"
	shareSite   = "candle.game"
)

// ShareText renders the spoiler-free result card players paste elsewhere.
func ShareText(puzzleNumber, score, hintsUsed, guessCount int, won bool, startingBankroll int) string {
	filled := 0
	result := "X"
	if won {
		result = fmt.Sprint(score)
		if startingBankroll > 0 {
			filled = int(math.Round(float64(score) / float64(startingBankroll) * shareCells))
		}
	}
	filled = max(0, min(shareCells, filled))

	lines := []string{
		fmt.Sprintf("canDLE #%d — %s/%d", puzzleNumber, result, startingBankroll),
		strings.Repeat(shareFilled, filled) + strings.Repeat(shareEmpty, shareCells-filled),
		fmt.Sprintf("Hints: %d | Guesses: %d", hintsUsed, guessCount),
		shareSite,
	}
	return strings.Join(lines, "\n")
}
