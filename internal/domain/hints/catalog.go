// Package hints defines the static catalog of purchasable clues.
package hints

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/candle/internal/domain/puzzle"
)

// Category tells the UI what a purchase unlocks.
type Category string

// Hint categories.
const (
	CategoryText  Category = "text"
	CategoryChart Category = "chart"
	CategoryPrice Category = "price"
)

// Sentinel kinds for catalog construction.
var (
	ErrDuplicateID = errors.New("duplicate hint id")
	ErrInvalidHint = errors.New("invalid hint definition")
)

// Definition is one catalog entry. IDs are referenced by persisted sessions,
// so a published id keeps its meaning forever.
type Definition struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Cost      int              `json:"cost"`
	Category  Category         `json:"category"`
	Timeframe puzzle.Timeframe `json:"timeframe,omitempty"` // set for chart unlocks only
}

// Catalog is an immutable, ordered set of definitions.
type Catalog struct {
	defs    []Definition
	byID    map[string]Definition
	unlocks map[puzzle.Timeframe]string
}

// NewCatalog validates defs and builds a catalog preserving their order.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:    make([]Definition, 0, len(defs)),
		byID:    make(map[string]Definition, len(defs)),
		unlocks: make(map[puzzle.Timeframe]string),
	}
	for _, d := range defs {
		if strings.TrimSpace(d.ID) == "" {
			return nil, fmt.Errorf("%w: empty id", ErrInvalidHint)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		if d.Cost <= 0 {
			return nil, fmt.Errorf("%w: %s cost %d", ErrInvalidHint, d.ID, d.Cost)
		}
		switch d.Category {
		case CategoryChart:
			if !d.Timeframe.Valid() || d.Timeframe == puzzle.DefaultTF {
				return nil, fmt.Errorf("%w: %s unlocks %q", ErrInvalidHint, d.ID, d.Timeframe)
			}
			if prev, taken := c.unlocks[d.Timeframe]; taken {
				return nil, fmt.Errorf("%w: %s and %s both unlock %s", ErrInvalidHint, prev, d.ID, d.Timeframe)
			}
			c.unlocks[d.Timeframe] = d.ID
		case CategoryText, CategoryPrice:
			if d.Timeframe != "" {
				return nil, fmt.Errorf("%w: %s is not a chart hint", ErrInvalidHint, d.ID)
			}
		default:
			return nil, fmt.Errorf("%w: %s category %q", ErrInvalidHint, d.ID, d.Category)
		}
		c.defs = append(c.defs, d)
		c.byID[d.ID] = d
	}
	return c, nil
}

// Lookup returns the definition for id.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns the definitions in catalog order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// UnlockFor returns the hint id that unlocks tf. The default timeframe has
// no unlock hint.
func (c *Catalog) UnlockFor(tf puzzle.Timeframe) (string, bool) {
	id, ok := c.unlocks[tf]
	return id, ok
}

// Cost sums the cost of ids known to the catalog.
func (c *Catalog) Cost(ids []string) int {
	total := 0
	for _, id := range ids {
		total += c.byID[id].Cost
	}
	return total
}
