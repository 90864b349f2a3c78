// Package simulate drives a stats server with many players at once and
// checks that what the server aggregated matches what each player would
// have computed locally.
package simulate

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default configuration constants.
const (
	DefaultUsers         = 50
	DefaultDays          = 60
	DefaultWorkers       = 8
	DefaultTimeout       = 10 * time.Second
	DefaultRetries       = 5
	DefaultDuplicateRate = 0.2
	DefaultPlayRate      = 0.85
	DefaultWinRate       = 0.7
	TokenPrefix          = "sim-token-"
	UserPrefix           = "sim-user-"
)

// Errors returned by Run.
var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrMismatch      = errors.New("server stats differ from local aggregate")
)

// Config holds the simulation parameters.
type Config struct {
	BaseURL string
	Users   int
	Days    int
	Workers int
	Timeout time.Duration
	Retries int
	Seed    int64
	// Start is the first calendar day of every generated history.
	Start time.Time
	// DuplicateRate is the share of records delivered a second time.
	DuplicateRate float64
	// PlayRate is the chance a user plays on a given day.
	PlayRate float64
	// WinRate is the chance a played game is won.
	WinRate float64
}

// DefaultConfig returns a Config for baseURL with the defaults applied.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Users:         DefaultUsers,
		Days:          DefaultDays,
		Workers:       DefaultWorkers,
		Timeout:       DefaultTimeout,
		Retries:       DefaultRetries,
		Seed:          time.Now().UnixNano(),
		Start:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DuplicateRate: DefaultDuplicateRate,
		PlayRate:      DefaultPlayRate,
		WinRate:       DefaultWinRate,
	}
}

func (c Config) validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: missing base url", ErrInvalidConfig)
	case c.Users <= 0 || c.Days <= 0 || c.Workers <= 0:
		return fmt.Errorf("%w: users, days and workers must be positive", ErrInvalidConfig)
	case c.DuplicateRate < 0 || c.DuplicateRate > 1, c.PlayRate < 0 || c.PlayRate > 1, c.WinRate < 0 || c.WinRate > 1:
		return fmt.Errorf("%w: rates must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// Credentials maps each simulated user's static token to its user id. The
// server must accept them, e.g. through CANDLE_STATIC_TOKENS.
func Credentials(users int) map[string]string {
	out := make(map[string]string, users)
	for i := range users {
		out[fmt.Sprintf("%s%d", TokenPrefix, i)] = fmt.Sprintf("%s%d", UserPrefix, i)
	}
	return out
}

// StaticTokens renders Credentials in the static_tokens config format.
func StaticTokens(users int) string {
	pairs := make([]string, 0, users)
	for i := range users {
		pairs = append(pairs, fmt.Sprintf("%s%d:%s%d", TokenPrefix, i, UserPrefix, i))
	}
	return strings.Join(pairs, ",")
}

// Report summarizes a run.
type Report struct {
	Users      int
	Records    int
	Submitted  int
	Accepted   int
	Duplicates int
	Retries    int
	Failed     int
	Mismatches []string
	Duration   time.Duration
}
