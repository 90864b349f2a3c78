package hints_test

import (
	"errors"
	"testing"

	"github.com/okian/candle/internal/domain/hints"
	"github.com/okian/candle/internal/domain/puzzle"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultCatalog(t *testing.T) {
	Convey("Given the published catalog", t, func() {
		c := hints.Default()

		Convey("Then it should list eleven hints in order", func() {
			all := c.All()
			So(all, ShouldHaveLength, 11)
			So(all[0].ID, ShouldEqual, "sector")
			So(all[10].ID, ShouldEqual, "priceAxis")
		})

		Convey("Then every cost should be positive and ids unique", func() {
			seen := map[string]bool{}
			for _, d := range c.All() {
				So(d.Cost, ShouldBeGreaterThan, 0)
				So(seen[d.ID], ShouldBeFalse)
				seen[d.ID] = true
			}
		})

		Convey("Then lookups should return costs", func() {
			d, ok := c.Lookup("ipoYear")
			So(ok, ShouldBeTrue)
			So(d.Cost, ShouldEqual, 150)
			So(d.Category, ShouldEqual, hints.CategoryText)

			_, ok = c.Lookup("ceoName")
			So(ok, ShouldBeFalse)
		})

		Convey("Then chart hints should unlock their timeframe", func() {
			id, ok := c.UnlockFor(puzzle.FiveYear)
			So(ok, ShouldBeTrue)
			So(id, ShouldEqual, "5y")

			_, ok = c.UnlockFor(puzzle.OneYear)
			So(ok, ShouldBeFalse)
		})

		Convey("Then Cost should sum known ids", func() {
			So(c.Cost([]string{"sector", "1m", "nope"}), ShouldEqual, 125)
		})

		Convey("And All should return a copy", func() {
			all := c.All()
			all[0].Cost = 1
			d, _ := c.Lookup("sector")
			So(d.Cost, ShouldEqual, 50)
		})
	})
}

func TestNewCatalogValidation(t *testing.T) {
	Convey("Given hand-built definitions", t, func() {
		Convey("When ids repeat", func() {
			_, err := hints.NewCatalog([]hints.Definition{
				{ID: "a", Cost: 1, Category: hints.CategoryText},
				{ID: "a", Cost: 2, Category: hints.CategoryText},
			})
			So(errors.Is(err, hints.ErrDuplicateID), ShouldBeTrue)
		})

		Convey("When a cost is not positive", func() {
			_, err := hints.NewCatalog([]hints.Definition{{ID: "a", Cost: 0, Category: hints.CategoryText}})
			So(errors.Is(err, hints.ErrInvalidHint), ShouldBeTrue)
		})

		Convey("When a chart hint targets the default timeframe", func() {
			_, err := hints.NewCatalog([]hints.Definition{{ID: "a", Cost: 5, Category: hints.CategoryChart, Timeframe: puzzle.OneYear}})
			So(errors.Is(err, hints.ErrInvalidHint), ShouldBeTrue)
		})

		Convey("When two chart hints unlock the same timeframe", func() {
			_, err := hints.NewCatalog([]hints.Definition{
				{ID: "a", Cost: 5, Category: hints.CategoryChart, Timeframe: puzzle.TenYear},
				{ID: "b", Cost: 5, Category: hints.CategoryChart, Timeframe: puzzle.TenYear},
			})
			So(errors.Is(err, hints.ErrInvalidHint), ShouldBeTrue)
		})

		Convey("When the category is unknown", func() {
			_, err := hints.NewCatalog([]hints.Definition{{ID: "a", Cost: 5, Category: "audio"}})
			So(errors.Is(err, hints.ErrInvalidHint), ShouldBeTrue)
		})
	})
}
