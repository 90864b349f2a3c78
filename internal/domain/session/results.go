package session

// HintResult reports what BuyHint did.
type HintResult int

// Hint purchase results. Anything but HintPurchased left the session untouched.
const (
	HintPurchased HintResult = iota
	HintRejectedTerminal
	HintRejectedDuplicate
	HintRejectedUnknown
	HintRejectedInsufficient
)

// Accepted reports whether the purchase went through.
func (r HintResult) Accepted() bool {
	return r == HintPurchased
}

func (r HintResult) String() string {
	switch r {
	case HintPurchased:
		return "purchased"
	case HintRejectedTerminal:
		return "terminal"
	case HintRejectedDuplicate:
		return "duplicate"
	case HintRejectedUnknown:
		return "unknown"
	case HintRejectedInsufficient:
		return "insufficient"
	}
	return "invalid"
}

// GuessOutcome reports what SubmitGuess did.
type GuessOutcome int

// Guess outcomes. A wrong guess may still end the game; check Lost.
const (
	GuessCorrect GuessOutcome = iota
	GuessWrong
	GuessAlreadyTerminal
)

func (o GuessOutcome) String() string {
	switch o {
	case GuessCorrect:
		return "correct"
	case GuessWrong:
		return "wrong"
	case GuessAlreadyTerminal:
		return "already_terminal"
	}
	return "invalid"
}
