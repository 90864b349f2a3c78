package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/candle/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should be empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording completions", func() {
			d := dedupe.NewInMemoryDeduper()
			key := dedupe.CompletionKey("u1", "p1")

			Convey("And the completion is new", func() {
				seen := d.SeenAndRecord(ctx, key)

				Convey("Then it should return false and record it", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the completion was already recorded", func() {
				d.SeenAndRecord(ctx, key)
				seen := d.SeenAndRecord(ctx, key)

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When two devices race on the same completion", func() {
			d := dedupe.NewInMemoryDeduper()
			var fresh atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 64; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, dedupe.CompletionKey("u1", "p1")) {
						fresh.Add(1)
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one should win", func() {
				So(fresh.Load(), ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestCompletionKey(t *testing.T) {
	Convey("Given user and puzzle ids", t, func() {
		Convey("Then keys should differ per pair and use ids verbatim", func() {
			So(dedupe.CompletionKey("u1", "p1"), ShouldEqual, "u1\x1fp1")
			So(dedupe.CompletionKey("u1", "p1"), ShouldNotEqual, dedupe.CompletionKey(" u1", "p1 "))
			So(dedupe.CompletionKey("u1", "p1"), ShouldNotEqual, dedupe.CompletionKey("u1", "p2"))
			So(dedupe.CompletionKey("ab", "c"), ShouldNotEqual, dedupe.CompletionKey("a", "bc"))
		})

		Convey("Then many users should produce distinct keys", func() {
			seen := map[string]bool{}
			for i := 0; i < 100; i++ {
				seen[dedupe.CompletionKey(fmt.Sprintf("u%d", i), "p")] = true
			}
			So(len(seen), ShouldEqual, 100)
		})
	})
}
