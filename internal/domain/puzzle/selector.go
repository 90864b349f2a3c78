package puzzle

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used by schedules and records.
const DateLayout = "2006-01-02"

// epoch is puzzle #0. Numbers count calendar days from here.
var epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Selector maps a calendar day to the puzzle served that day.
type Selector struct {
	schedule map[string]string
	fallback []string
}

// NewSelector copies schedule (date → puzzle id) and the ordered fallback ids.
func NewSelector(schedule map[string]string, fallback []string) *Selector {
	s := &Selector{
		schedule: make(map[string]string, len(schedule)),
		fallback: make([]string, 0, len(fallback)),
	}
	for day, id := range schedule {
		if id = strings.TrimSpace(id); id != "" {
			s.schedule[strings.TrimSpace(day)] = id
		}
	}
	for _, id := range fallback {
		if id = strings.TrimSpace(id); id != "" {
			s.fallback = append(s.fallback, id)
		}
	}
	return s
}

// DateKey formats the calendar day of t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Resolve returns the puzzle id for the calendar day of date (in date's
// location). Scheduled days win; otherwise the day seed picks a fallback.
func (s *Selector) Resolve(date time.Time) (string, error) {
	if id, ok := s.schedule[DateKey(date)]; ok {
		return id, nil
	}
	if len(s.fallback) == 0 {
		return "", fmt.Errorf("%w: %s is unscheduled and there are no fallbacks", ErrNoPuzzle, DateKey(date))
	}
	return s.fallback[daySeed(date)%len(s.fallback)], nil
}

// Scheduled reports whether date has an explicit schedule entry.
func (s *Selector) Scheduled(date time.Time) bool {
	_, ok := s.schedule[DateKey(date)]
	return ok
}

func daySeed(date time.Time) int {
	y, m, d := date.Date()
	return y*10000 + int(m)*100 + d
}

// Number is the display number of the puzzle for date: calendar days since
// 2025-01-01 in the player's calendar.
func Number(date time.Time) int {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(epoch).Hours() / 24)
}
