package puzzle

import "context"

// ContentStore serves published puzzles and the day schedule.
type ContentStore interface {
	// Puzzle returns the record for id, or ErrNotFound.
	Puzzle(ctx context.Context, id string) (*Puzzle, error)
	// Schedule returns the date (YYYY-MM-DD) → puzzle id map.
	Schedule(ctx context.Context) (map[string]string, error)
	// Fallback returns the ordered ids used for unscheduled days.
	Fallback(ctx context.Context) ([]string, error)
}

// ClueRequest identifies the company a prose clue is written for.
type ClueRequest struct {
	Ticker   string
	Name     string
	Sector   string
	Industry string
}

// GeneratedClues is the redacted prose returned by a clue generator. It is
// stored and displayed as-is.
type GeneratedClues struct {
	Description string
	Facts       []string
}

// ClueGenerator produces prose clues for the publishing pipeline.
type ClueGenerator interface {
	Generate(ctx context.Context, req ClueRequest) (GeneratedClues, error)
}
