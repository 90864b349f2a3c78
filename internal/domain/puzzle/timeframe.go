// Package puzzle holds the read-only puzzle record, chart timeframes and the
// date → puzzle selection rule.
package puzzle

import (
	"fmt"
	"strings"
)

// Timeframe identifies one of the fixed chart windows a puzzle ships with.
type Timeframe string

// The closed set of timeframes. OneYear is always visible.
const (
	OneMonth  Timeframe = "1m"
	OneYear   Timeframe = "1y"
	FiveYear  Timeframe = "5y"
	TenYear   Timeframe = "10y"
	DefaultTF           = OneYear
)

// Timeframes lists every timeframe from shortest to longest.
func Timeframes() []Timeframe {
	return []Timeframe{OneMonth, OneYear, FiveYear, TenYear}
}

// Valid reports whether tf belongs to the closed set.
func (tf Timeframe) Valid() bool {
	switch tf {
	case OneMonth, OneYear, FiveYear, TenYear:
		return true
	}
	return false
}

// ParseTimeframe accepts "1m", "1Y", " 5y " and friends.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if !tf.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
	}
	return tf, nil
}
