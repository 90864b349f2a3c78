package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/candle/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func validRecord() model.GameRecord {
	return model.NewRecord("user-1", "aapl-2026", "2026-10-19", true, 750, 3, 2, nil)
}

func TestGameRecord(t *testing.T) {
	convey.Convey("Given a GameRecord", t, func() {
		convey.Convey("When it is built with NewRecord", func() {
			r := validRecord()

			convey.Convey("Then it should carry an id and a UTC completion time", func() {
				convey.So(r.ID.String(), convey.ShouldNotBeEmpty)
				convey.So(r.CompletedAt.Location(), convey.ShouldEqual, time.UTC)
				convey.So(r.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When fields break the invariants", func() {
			five, zero := 5, 0
			cases := []struct {
				name   string
				mutate func(*model.GameRecord)
			}{
				{"missing user", func(r *model.GameRecord) { r.UserID = " " }},
				{"missing puzzle", func(r *model.GameRecord) { r.PuzzleID = "" }},
				{"padded user", func(r *model.GameRecord) { r.UserID = " user-1" }},
				{"padded puzzle", func(r *model.GameRecord) { r.PuzzleID = "aapl-2026\n" }},
				{"negative score", func(r *model.GameRecord) { r.Score = -1 }},
				{"scored loss", func(r *model.GameRecord) { r.Won = false }},
				{"bad date", func(r *model.GameRecord) { r.Date = "19/10/2026" }},
				{"zero difficulty", func(r *model.GameRecord) { r.Difficulty = &zero }},
				{"negative guesses", func(r *model.GameRecord) { r.GuessCount = -2 }},
			}
			for _, tc := range cases {
				convey.Convey("Then "+tc.name+" should be rejected", func() {
					r := validRecord()
					tc.mutate(&r)
					convey.So(errors.Is(r.Validate(), model.ErrInvalidRecord), convey.ShouldBeTrue)
				})
			}

			convey.Convey("Then a difficulty within range should be accepted", func() {
				r := validRecord()
				r.Difficulty = &five
				convey.So(r.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When ordering records", func() {
			a := validRecord()
			b := validRecord()
			b.Date = "2026-10-20"
			c := validRecord()
			c.CompletedAt = a.CompletedAt.Add(time.Second)

			convey.Convey("Then date should win over completion time", func() {
				convey.So(a.Before(b), convey.ShouldBeTrue)
				convey.So(b.Before(a), convey.ShouldBeFalse)
				convey.So(a.Before(c), convey.ShouldBeTrue)
			})
		})
	})
}

func TestDayKey(t *testing.T) {
	convey.Convey("Given a calendar date", t, func() {
		convey.So(model.DayKey("2026-10-19"), convey.ShouldEqual, "candle-2026-10-19")
	})
}
