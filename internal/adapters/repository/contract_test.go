package repository_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

var day0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func completion(user string, day int, won bool, score int) model.GameRecord {
	if !won {
		score = 0
	}
	r := model.NewRecord(user, fmt.Sprintf("puzzle-%03d", day), day0.AddDate(0, 0, day).Format(model.DateLayout), won, score, 2, 1, nil)
	r.CompletedAt = day0.AddDate(0, 0, day)
	return r
}

// statsStoreContract runs the behaviour every StatsStore backend shares.
func statsStoreContract(t *testing.T, name string, newStore func() repository.StatsStore) {
	ctx := context.Background()

	Convey("Given a "+name+" stats store", t, func() {
		store := newStore()
		user := "user-" + uuid.NewString()

		Convey("When a user has never played", func() {
			st, err := store.GetStats(ctx, user)

			Convey("Then stats should be zero and history empty", func() {
				So(err, ShouldBeNil)
				So(st, ShouldResemble, stats.PlayerStats{})
				h, err := store.GetHistory(ctx, user, 10)
				So(err, ShouldBeNil)
				So(h, ShouldBeEmpty)
			})
		})

		Convey("When a completion is recorded", func() {
			st, dup, err := store.RecordCompletion(ctx, completion(user, 1, true, 700))

			Convey("Then stats should count it once", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(st.GamesPlayed, ShouldEqual, 1)
				So(st.ScoreDistribution[7], ShouldEqual, 1)
			})

			Convey("And the same puzzle is submitted again", func() {
				retry := completion(user, 1, false, 0)
				again, dup, err := store.RecordCompletion(ctx, retry)

				Convey("Then it should be reported as a duplicate with stats unchanged", func() {
					So(err, ShouldBeNil)
					So(dup, ShouldBeTrue)
					So(again, ShouldResemble, st)
					stored, err := store.GetStats(ctx, user)
					So(err, ShouldBeNil)
					So(stored, ShouldResemble, st)
					h, err := store.GetHistory(ctx, user, 10)
					So(err, ShouldBeNil)
					So(h, ShouldHaveLength, 1)
					So(h[0].Won, ShouldBeTrue)
				})
			})
		})

		Convey("When completions arrive out of calendar order", func() {
			records := []model.GameRecord{
				completion(user, 1, true, 500),
				completion(user, 3, true, 900),
				completion(user, 4, true, 300),
				completion(user, 2, false, 0),
			}
			var last stats.PlayerStats
			for _, r := range records {
				st, dup, err := store.RecordCompletion(ctx, r)
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				last = st
			}

			Convey("Then stats should equal a replay in date order", func() {
				So(last, ShouldResemble, stats.Recompute(records))
				So(last.CurrentStreak, ShouldEqual, 2)
				So(last.MaxStreak, ShouldEqual, 2)
				stored, err := store.GetStats(ctx, user)
				So(err, ShouldBeNil)
				So(stored, ShouldResemble, last)
			})

			Convey("Then history should come back newest first and honour the limit", func() {
				h, err := store.GetHistory(ctx, user, 3)
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 3)
				So(h[0].PuzzleID, ShouldEqual, "puzzle-004")
				So(h[1].PuzzleID, ShouldEqual, "puzzle-003")
				So(h[2].PuzzleID, ShouldEqual, "puzzle-002")
			})
		})

		Convey("When a random history is recorded in order", func() {
			rng := rand.New(rand.NewSource(11))
			var want stats.PlayerStats
			var got stats.PlayerStats
			for d := 0; d < 25; d++ {
				r := completion(user, d, rng.Intn(4) > 0, rng.Intn(1001))
				want = want.Apply(stats.OutcomeOf(r))
				st, _, err := store.RecordCompletion(ctx, r)
				So(err, ShouldBeNil)
				got = st
			}

			Convey("Then the stored aggregate should match incremental application", func() {
				So(got, ShouldResemble, want)
				So(got.Validate(), ShouldBeNil)
			})
		})

		Convey("When the input is invalid", func() {
			bad := completion(user, 1, true, 100)
			bad.PuzzleID = ""
			_, _, err := store.RecordCompletion(ctx, bad)
			_, herr := store.GetHistory(ctx, user, 0)

			Convey("Then the store should reject it", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
				So(errors.Is(herr, repository.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When a recorded puzzle comes back with padded ids", func() {
			_, _, err := store.RecordCompletion(ctx, completion(user, 1, true, 700))
			So(err, ShouldBeNil)
			padded := completion(user, 1, true, 700)
			padded.PuzzleID += " "
			_, _, perr := store.RecordCompletion(ctx, padded)
			padded = completion(" "+user, 1, true, 700)
			_, _, uerr := store.RecordCompletion(ctx, padded)

			Convey("Then it should be rejected rather than counted again", func() {
				So(errors.Is(perr, model.ErrInvalidRecord), ShouldBeTrue)
				So(errors.Is(uerr, model.ErrInvalidRecord), ShouldBeTrue)
				st, err := store.GetStats(ctx, user)
				So(err, ShouldBeNil)
				So(st.GamesPlayed, ShouldEqual, 1)
			})
		})
	})
}

func TestMemoryStoreContract(t *testing.T) {
	statsStoreContract(t, "memory", func() repository.StatsStore {
		return repository.NewMemoryStore()
	})
}

func TestLocalStoreContract(t *testing.T) {
	statsStoreContract(t, "local", func() repository.StatsStore {
		return repository.NewLocalStore(repository.NewMemoryKV())
	})
}

func TestLocalFileStoreContract(t *testing.T) {
	statsStoreContract(t, "file-backed local", func() repository.StatsStore {
		kv, err := repository.NewFileKV(t.TempDir())
		if err != nil {
			t.Fatalf("file kv: %v", err)
		}
		return repository.NewLocalStore(kv)
	})
}
