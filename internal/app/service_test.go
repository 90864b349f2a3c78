package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newService() *app.Service {
	return app.New(
		app.WithStore(repository.NewMemoryStore()),
		app.WithIdentity(identity.NewStaticProvider(map[string]string{"tok-ann": "ann", "tok-bob": "bob"})),
		app.WithLogger(logger.Nop()),
	)
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service that was never started", t, func() {
		svc := newService()

		Convey("Then every call should fail with ErrNotStarted", func() {
			_, err := svc.Authenticate(ctx, "tok-ann")
			So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When it is started twice and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop(ctx)

			Convey("Then it should refuse work again", func() {
				_, err := svc.Stats(ctx, identityUser("ann"))
				So(errors.Is(err, app.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestServiceCompletions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := newService()
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { svc.Stop(ctx) })

		Convey("When a known credential authenticates", func() {
			u, err := svc.Authenticate(ctx, "tok-ann")

			Convey("Then the mapped user should come back", func() {
				So(err, ShouldBeNil)
				So(u.ID, ShouldEqual, "ann")
			})
		})

		Convey("When an unknown credential authenticates", func() {
			_, err := svc.Authenticate(ctx, "nope")

			Convey("Then it should be rejected as invalid", func() {
				So(errors.Is(err, identity.ErrInvalidCredential), ShouldBeTrue)
			})
		})

		Convey("When a score above the starting bankroll is reported", func() {
			_, _, err := svc.Complete(ctx, identityUser("ann"), app.Completion{
				PuzzleID: "p1", Date: "2026-05-10", Won: true, Score: 1001,
			})

			Convey("Then it should be refused", func() {
				So(errors.Is(err, app.ErrScoreOutOfRange), ShouldBeTrue)
			})
		})

		Convey("When the same puzzle is completed twice", func() {
			c := app.Completion{PuzzleID: "p1", Date: "2026-05-10", Won: true, Score: 850, GuessCount: 2, HintsUsed: 1}
			first, dup1, err1 := svc.Complete(ctx, identityUser("ann"), c)
			second, dup2, err2 := svc.Complete(ctx, identityUser("ann"), c)

			Convey("Then only the first should count", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(dup2, ShouldBeTrue)
				So(second, ShouldResemble, first)
				So(first.GamesPlayed, ShouldEqual, 1)
				So(first.ScoreDistribution[8], ShouldEqual, 1)
			})

			Convey("And another user should be unaffected", func() {
				st, err := svc.Stats(ctx, identityUser("bob"))
				So(err, ShouldBeNil)
				So(st.GamesPlayed, ShouldEqual, 0)
			})

			Convey("And history should list it once", func() {
				h, err := svc.History(ctx, identityUser("ann"), 0)
				So(err, ShouldBeNil)
				So(h, ShouldHaveLength, 1)
				So(h[0].PuzzleID, ShouldEqual, "p1")
			})
		})

		Convey("When a malformed completion is reported", func() {
			_, _, err := svc.Complete(ctx, identityUser("ann"), app.Completion{PuzzleID: "p1", Date: "yesterday"})

			Convey("Then the store should reject it", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
