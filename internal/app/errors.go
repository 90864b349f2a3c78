package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrScoreOutOfRange = errors.New("score above starting bankroll")
	ErrNotTerminal     = errors.New("game still in progress")
	ErrNotInitialized  = errors.New("player not initialized")
)
