package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/internal/config"
	"github.com/okian/candle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestBuildIdentity(t *testing.T) {
	convey.Convey("Given a config with static credentials", t, func() {
		cfg := config.New(context.Background())
		cfg.StaticTokens = "tok-ann:ann"

		convey.Convey("Then the chain should accept them and nothing else", func() {
			p, err := buildIdentity(cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			u, err := p.Verify(context.Background(), "tok-ann")
			convey.So(err, convey.ShouldBeNil)
			convey.So(u.ID, convey.ShouldEqual, "ann")
			_, err = p.Verify(context.Background(), "tok-bob")
			convey.So(errors.Is(err, identity.ErrInvalidCredential), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a config with a Google client id", t, func() {
		tokeninfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"aud":"client-1","sub":"g-42","email":"ann@example.com"}`))
		}))
		defer tokeninfo.Close()

		cfg := config.New(context.Background())
		cfg.GoogleClientID = "client-1"
		cfg.TokenInfoURL = tokeninfo.URL

		convey.Convey("Then ID tokens should be verified against the configured endpoint", func() {
			p, err := buildIdentity(cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			u, err := p.Verify(context.Background(), "id-token")
			convey.So(err, convey.ShouldBeNil)
			convey.So(u.ID, convey.ShouldEqual, "g-42")
		})
	})
}

func TestBuildStore(t *testing.T) {
	convey.Convey("Given no database url", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then the in-memory store should be selected", func() {
			store, closeFn, err := buildStore(context.Background(), cfg, logger.Nop())
			convey.So(err, convey.ShouldBeNil)
			_, ok := store.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
			closeFn()
		})
	})

	convey.Convey("Given a malformed database url", t, func() {
		cfg := config.New(context.Background())
		cfg.DatabaseURL = "::not a url::"

		convey.Convey("Then startup should fail", func() {
			_, _, err := buildStore(context.Background(), cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given the assembled HTTP server", t, func() {
		svc := app.New(app.WithLogger(logger.Nop()), app.WithStore(repository.NewMemoryStore()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		srv := newHTTPServer(":0", svc, logger.Nop())

		convey.Convey("Then it should carry the configured timeouts and serve health", func() {
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestRunShutsDown(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := l.Addr().String()
		_ = l.Close()

		cfg := config.New(context.Background())
		cfg.Addr = addr
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Nop()) }()

		convey.Convey("When the context is cancelled", func() {
			var resp *http.Response
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + addr + "/healthz")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			cancel()

			convey.Convey("Then run should return cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("server did not stop")
				}
			})
		})
	})
}
