package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStoreConcurrentDevices(t *testing.T) {
	ctx := context.Background()

	Convey("Given many devices racing to record the same puzzle", t, func() {
		store := repository.NewMemoryStore()
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, dup, err := store.RecordCompletion(ctx, completion("u1", 1, true, 400))
				if err == nil && !dup {
					mu.Lock()
					fresh++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Convey("Then only one should be recorded", func() {
			So(fresh, ShouldEqual, 1)
			st, err := store.GetStats(ctx, "u1")
			So(err, ShouldBeNil)
			So(st.GamesPlayed, ShouldEqual, 1)
		})

		Convey("Then other users should be unaffected", func() {
			st, dup, err := store.RecordCompletion(ctx, completion("u2", 1, false, 0))
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)
			So(st.GamesPlayed, ShouldEqual, 1)
			So(st.ScoreDistribution[0], ShouldEqual, 1)
		})
	})
}

// gaugeValue reads a gauge from the metrics registry, or -1 when absent.
func gaugeValue(name string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() == name && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return -1
}

func TestMemoryStoreIndexGauge(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store receiving completions and a redelivery", t, func() {
		store := repository.NewMemoryStore()
		for _, rec := range []model.GameRecord{
			completion("u1", 1, true, 600),
			completion("u1", 2, false, 0),
			completion("u1", 1, true, 600),
			completion("u2", 1, true, 300),
		} {
			_, _, err := store.RecordCompletion(ctx, rec)
			So(err, ShouldBeNil)
		}

		Convey("Then the index gauge should count distinct completions", func() {
			So(gaugeValue("candle_game_completion_index_size"), ShouldEqual, 3)
		})
	})
}
