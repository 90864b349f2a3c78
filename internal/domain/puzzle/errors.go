package puzzle

import "errors"

// Sentinel kinds for puzzle errors.
var (
	ErrUnknownTimeframe = errors.New("unknown timeframe")
	ErrInvalidPuzzle    = errors.New("invalid puzzle")
	ErrNoPuzzle         = errors.New("no puzzle available")
	ErrNotFound         = errors.New("puzzle not found")
)
