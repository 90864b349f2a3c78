package content_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/candle/internal/adapters/content"
	"github.com/okian/candle/internal/domain/puzzle"
	. "github.com/smartystreets/goconvey/convey"
)

const msft = `{
  "answer": {"ticker": "MSFT", "name": "Microsoft"},
  "basePrice": 410.2,
  "charts": {"1y": [[0, 1], [1, 2]]},
  "hints": {"sector": "Technology", "industry": "Software"}
}`

type stubGenerator struct {
	calls int
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, req puzzle.ClueRequest) (puzzle.GeneratedClues, error) {
	g.calls++
	if g.err != nil {
		return puzzle.GeneratedClues{}, g.err
	}
	return puzzle.GeneratedClues{Description: "Sells ***** licences.", Facts: []string{"Based near a lake."}}, nil
}

func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"schedule.json":          `{"2026-10-19": "msft-1"}`,
		"puzzles/msft-1.json":    msft,
		"puzzles/aapl-2.json":    `{"answer": {"ticker": "AAPL"}, "charts": {"1y": [[0, 1]]}}`,
		"puzzles/broken-3.json":  `{"answer": {"ticker": ""}, "charts": {"1y": [[0, 1]]}}`,
		"puzzles/garbled-4.json": `{"answer":`,
		"puzzles/README.txt":     "not a puzzle",
	}
	for name, body := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a dataset on disk", t, func() {
		gen := &stubGenerator{}
		store := content.NewDirStore(writeDataset(t), content.WithClueGenerator(gen))

		Convey("When loading a published puzzle", func() {
			p, err := store.Puzzle(ctx, "msft-1")

			Convey("Then it should be decoded, named and have its prose filled in", func() {
				So(err, ShouldBeNil)
				So(p.ID, ShouldEqual, "msft-1")
				So(p.Answer.Ticker, ShouldEqual, "MSFT")
				So(p.Clues.Description, ShouldEqual, "Sells ***** licences.")
				So(p.Clues.Facts, ShouldResemble, []string{"Based near a lake."})
			})

			Convey("Then a second load should come from the cache", func() {
				again, err := store.Puzzle(ctx, "msft-1")
				So(err, ShouldBeNil)
				So(again, ShouldEqual, p)
				So(gen.calls, ShouldEqual, 1)
			})
		})

		Convey("When the generator fails", func() {
			gen.err = errors.New("quota")
			p, err := store.Puzzle(ctx, "msft-1")

			Convey("Then the puzzle should still load without a description", func() {
				So(err, ShouldBeNil)
				So(p.Clues.Description, ShouldEqual, "")
			})
		})

		Convey("When a puzzle is missing, invalid or has an unsafe id", func() {
			_, errMissing := store.Puzzle(ctx, "zzz-9")
			_, errInvalid := store.Puzzle(ctx, "broken-3")
			_, errGarbled := store.Puzzle(ctx, "garbled-4")
			_, errPath := store.Puzzle(ctx, "../schedule")

			Convey("Then each should map to its sentinel", func() {
				So(errors.Is(errMissing, puzzle.ErrNotFound), ShouldBeTrue)
				So(errors.Is(errInvalid, puzzle.ErrInvalidPuzzle), ShouldBeTrue)
				So(errors.Is(errGarbled, puzzle.ErrInvalidPuzzle), ShouldBeTrue)
				So(errors.Is(errPath, puzzle.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When building the selector", func() {
			sel, err := store.Selector(ctx)
			So(err, ShouldBeNil)

			Convey("Then scheduled days should use the schedule", func() {
				id, err := sel.Resolve(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))
				So(err, ShouldBeNil)
				So(id, ShouldEqual, "msft-1")
			})

			Convey("Then fallback ids should be sorted puzzle files only", func() {
				ids, err := store.Fallback(ctx)
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{"aapl-2", "broken-3", "garbled-4", "msft-1"})
			})
		})
	})

	Convey("Given an empty directory", t, func() {
		store := content.NewDirStore(t.TempDir())

		Convey("Then schedule and fallback should be empty rather than failing", func() {
			s, err := store.Schedule(ctx)
			So(err, ShouldBeNil)
			So(s, ShouldBeEmpty)
			ids, err := store.Fallback(ctx)
			So(err, ShouldBeNil)
			So(ids, ShouldBeEmpty)
		})
	})
}
