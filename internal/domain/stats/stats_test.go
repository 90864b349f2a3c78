package stats_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func record(day int, won bool, score int) model.GameRecord {
	if !won {
		score = 0
	}
	r := model.NewRecord("u", fmt.Sprintf("p-%d", day), epoch.AddDate(0, 0, day).Format(model.DateLayout), won, score, 1, 0, nil)
	r.CompletedAt = epoch.AddDate(0, 0, day)
	return r
}

func randomHistory(rng *rand.Rand, n int) []model.GameRecord {
	out := make([]model.GameRecord, n)
	for i := range out {
		out[i] = record(i, rng.Intn(3) > 0, rng.Intn(1001))
	}
	return out
}

func TestApply(t *testing.T) {
	Convey("Given empty stats", t, func() {
		var s stats.PlayerStats

		Convey("When a win, a win, a loss and a win are applied", func() {
			s = s.Apply(stats.Outcome{Won: true, Score: 850})
			s = s.Apply(stats.Outcome{Won: true, Score: 1000})
			s = s.Apply(stats.Outcome{Won: false})
			s = s.Apply(stats.Outcome{Won: true, Score: 40})

			Convey("Then counters, streaks and histogram should follow", func() {
				So(s.GamesPlayed, ShouldEqual, 4)
				So(s.GamesWon, ShouldEqual, 3)
				So(s.CurrentStreak, ShouldEqual, 1)
				So(s.MaxStreak, ShouldEqual, 2)
				So(s.TotalScore, ShouldEqual, 1890)
				So(s.ScoreDistribution[8], ShouldEqual, 1)
				So(s.ScoreDistribution[9], ShouldEqual, 1)
				So(s.ScoreDistribution[0], ShouldEqual, 2)
				So(s.WinRate(), ShouldEqual, 75)
				So(s.AverageScore(), ShouldEqual, 630)
				So(s.Validate(), ShouldBeNil)
			})
		})

		Convey("Then the zero value should be valid with no win rate", func() {
			So(s.Validate(), ShouldBeNil)
			So(s.WinRate(), ShouldEqual, 0)
			So(s.AverageScore(), ShouldEqual, 0)
		})
	})
}

func TestPathEquivalence(t *testing.T) {
	Convey("Given random win/loss histories", t, func() {
		rng := rand.New(rand.NewSource(42))

		for trial := 0; trial < 200; trial++ {
			history := randomHistory(rng, rng.Intn(40))

			var incremental stats.PlayerStats
			for _, r := range history {
				incremental = incremental.Apply(stats.OutcomeOf(r))
			}

			shuffled := append([]model.GameRecord(nil), history...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

			So(stats.Recompute(history), ShouldResemble, incremental)
			So(stats.Recompute(shuffled), ShouldResemble, incremental)
			So(incremental.Validate(), ShouldBeNil)

			sum := 0
			for _, n := range incremental.ScoreDistribution {
				sum += n
			}
			So(sum, ShouldEqual, incremental.GamesPlayed)
			So(incremental.GamesWon, ShouldBeLessThanOrEqualTo, incremental.GamesPlayed)
		}
	})
}

func TestAdvance(t *testing.T) {
	Convey("Given stats built from two days", t, func() {
		history := []model.GameRecord{record(1, true, 500), record(3, true, 600)}
		prev := stats.Recompute(history)

		Convey("When the next record is the latest", func() {
			next, recomputed := stats.Advance(prev, history, record(4, false, 0))

			Convey("Then it should be applied incrementally", func() {
				So(recomputed, ShouldBeFalse)
				So(next.CurrentStreak, ShouldEqual, 0)
				So(next.MaxStreak, ShouldEqual, 2)
			})
		})

		Convey("When a loss arrives for an earlier day", func() {
			late := record(2, false, 0)
			next, recomputed := stats.Advance(prev, history, late)

			Convey("Then the streak should be rebuilt in calendar order", func() {
				So(recomputed, ShouldBeTrue)
				So(next.GamesPlayed, ShouldEqual, 3)
				So(next.CurrentStreak, ShouldEqual, 1)
				So(next.MaxStreak, ShouldEqual, 1)
				So(next, ShouldResemble, stats.Recompute(append(history, late)))
			})

			Convey("Then the caller's history should be untouched", func() {
				So(history, ShouldHaveLength, 2)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given corrupted aggregates", t, func() {
		base := stats.PlayerStats{}.Apply(stats.Outcome{Won: true, Score: 300})
		cases := []struct {
			name   string
			mutate func(*stats.PlayerStats)
		}{
			{"wins above games", func(s *stats.PlayerStats) { s.GamesWon = 5 }},
			{"streak above max", func(s *stats.PlayerStats) { s.CurrentStreak = 3 }},
			{"histogram mismatch", func(s *stats.PlayerStats) { s.ScoreDistribution[4] = 2 }},
			{"negative bucket", func(s *stats.PlayerStats) { s.ScoreDistribution[0] = -1 }},
			{"negative total", func(s *stats.PlayerStats) { s.TotalScore = -10 }},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" should be rejected", func() {
				s := base
				tc.mutate(&s)
				So(errors.Is(s.Validate(), stats.ErrInvalidStats), ShouldBeTrue)
			})
		}
	})
}
