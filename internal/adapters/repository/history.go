package repository

import (
	"slices"

	"github.com/okian/candle/internal/domain/model"
)

// newestFirst returns at most limit records ordered newest first.
func newestFirst(records []model.GameRecord, limit int) ([]model.GameRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.GameRecord) int {
		switch {
		case b.Before(a):
			return -1
		case a.Before(b):
			return 1
		}
		return 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hasPuzzle(records []model.GameRecord, puzzleID string) (model.GameRecord, bool) {
	for _, r := range records {
		if r.PuzzleID == puzzleID {
			return r, true
		}
	}
	return model.GameRecord{}, false
}
