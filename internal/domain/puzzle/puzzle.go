package puzzle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Clue keys. Hint ids in the catalog reuse these strings, so they are part of
// the persisted format and must never change meaning.
const (
	ClueSector      = "sector"
	ClueIndustry    = "industry"
	ClueMarketCap   = "marketCapRange"
	ClueHQCountry   = "hqCountry"
	ClueDescription = "description"
	ClueHighLow     = "high52w"
	ClueIPOYear     = "ipoYear"
	CluePriceAxis   = "priceAxis"
)

const (
	minDifficulty = 1
	maxDifficulty = 5
	xyRowLen      = 2 // [x, y]
	ohlcRowLen    = 5 // [t, o, h, l, c]
)

// Answer is the security a puzzle hides.
type Answer struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Clues holds the named facts a player can buy.
type Clues struct {
	Sector         string          `json:"sector"`
	Industry       string          `json:"industry"`
	MarketCapRange string          `json:"marketCapRange"`
	HQCountry      string          `json:"hqCountry"`
	Description    string          `json:"description"`
	Facts          []string        `json:"facts,omitempty"`
	High52w        decimal.Decimal `json:"high52w"`
	Low52w         decimal.Decimal `json:"low52w"`
	IPOYear        int             `json:"ipoYear"`
}

// Row is one chart sample: [x, y] or [t, open, high, low, close].
type Row []decimal.Decimal

// Series is an ordered chart for one timeframe.
type Series []Row

// Puzzle is supplied by the publishing pipeline and never mutated here.
type Puzzle struct {
	ID         string               `json:"id"`
	Answer     Answer               `json:"answer"`
	BasePrice  decimal.Decimal      `json:"basePrice"`
	Charts     map[Timeframe]Series `json:"charts"`
	Clues      Clues                `json:"hints"`
	Difficulty *int                 `json:"difficulty,omitempty"`
}

// NormalizeTicker upper-cases and trims a ticker for comparison and storage.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Validate checks the structural invariants of a puzzle record.
func (p *Puzzle) Validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil", ErrInvalidPuzzle)
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidPuzzle)
	case NormalizeTicker(p.Answer.Ticker) == "":
		return fmt.Errorf("%w: %s has no answer ticker", ErrInvalidPuzzle, p.ID)
	}
	if p.Difficulty != nil && (*p.Difficulty < minDifficulty || *p.Difficulty > maxDifficulty) {
		return fmt.Errorf("%w: %s difficulty %d out of range", ErrInvalidPuzzle, p.ID, *p.Difficulty)
	}
	for tf, series := range p.Charts {
		if !tf.Valid() {
			return fmt.Errorf("%w: %s has chart %q", ErrInvalidPuzzle, p.ID, tf)
		}
		for i, row := range series {
			if len(row) != xyRowLen && len(row) != ohlcRowLen {
				return fmt.Errorf("%w: %s chart %s row %d has %d columns", ErrInvalidPuzzle, p.ID, tf, i, len(row))
			}
		}
	}
	if len(p.Charts[DefaultTF]) == 0 {
		return fmt.Errorf("%w: %s is missing the %s chart", ErrInvalidPuzzle, p.ID, DefaultTF)
	}
	return nil
}

// ClueText renders the fact revealed by a text or price clue. The second
// result is false for keys that carry no text (chart unlocks, unknown keys).
func (p *Puzzle) ClueText(key string) (string, bool) {
	c := p.Clues
	switch key {
	case ClueSector:
		return c.Sector, true
	case ClueIndustry:
		return c.Industry, true
	case ClueMarketCap:
		return c.MarketCapRange, true
	case ClueHQCountry:
		return c.HQCountry, true
	case ClueDescription:
		if len(c.Facts) == 0 {
			return c.Description, true
		}
		return c.Description + "\n- " + strings.Join(c.Facts, "\n- "), true
	case ClueHighLow:
		return fmt.Sprintf("52W high $%s / low $%s", c.High52w.StringFixed(2), c.Low52w.StringFixed(2)), true
	case ClueIPOYear:
		if c.IPOYear == 0 {
			return "unknown", true
		}
		return strconv.Itoa(c.IPOYear), true
	case CluePriceAxis:
		return "base price $" + p.BasePrice.StringFixed(2), true
	}
	return "", false
}

// Summary describes a series without drawing it.
type Summary struct {
	First     decimal.Decimal
	Last      decimal.Decimal
	Low       decimal.Decimal
	High      decimal.Decimal
	ChangePct decimal.Decimal
	Points    int
}

// value is the plotted y: the second column of [x, y] or the close of OHLC.
func (r Row) value() decimal.Decimal {
	return r[len(r)-1]
}

// Summary returns first/last/low/high and the percent change of the series.
// An empty series yields a zero Summary.
func (s Series) Summary() Summary {
	if len(s) == 0 {
		return Summary{}
	}
	out := Summary{
		First:  s[0].value(),
		Last:   s[len(s)-1].value(),
		Low:    s[0].value(),
		High:   s[0].value(),
		Points: len(s),
	}
	for _, row := range s[1:] {
		v := row.value()
		if v.LessThan(out.Low) {
			out.Low = v
		}
		if v.GreaterThan(out.High) {
			out.High = v
		}
	}
	if !out.First.IsZero() {
		out.ChangePct = out.Last.Sub(out.First).Div(out.First).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return out
}
