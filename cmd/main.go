// Command main runs the candle stats API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/candle/internal/adapters/http/api"
	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/internal/config"
	"github.com/okian/candle/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	requestTimeout    = 20 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal(ctx, "server failed", logger.Error(err))
	}
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, closeStore, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := buildIdentity(cfg, log)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithStore(store),
		app.WithIdentity(provider),
		app.WithHistoryLimit(cfg.HistoryLimit),
		app.WithStartingBankroll(cfg.StartingBankroll),
		app.WithLogger(log.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(context.Background())

	srv := newHTTPServer(cfg.Addr, svc, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

func newHTTPServer(addr string, svc api.Dependencies, log logger.Logger) *http.Server {
	handler := api.NewServer(svc, api.WithLogger(log), api.WithTimeout(requestTimeout)).Handler()
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// buildStore picks Postgres when a database URL is configured and the
// in-memory store otherwise.
func buildStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.StatsStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn(ctx, "database_url not set, stats are kept in memory")
		return repository.NewMemoryStore(repository.WithLogger(log)), func() {}, nil
	}
	pool, err := repository.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	store := repository.NewPostgresStore(pool, repository.WithLogger(log))
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	log.Info(ctx, "using postgres stats store")
	return store, pool.Close, nil
}

// buildIdentity chains the configured verifiers: static development
// credentials first, then Google ID tokens.
func buildIdentity(cfg *config.Config, log logger.Logger) (identity.Provider, error) {
	tokens, err := cfg.Tokens()
	if err != nil {
		return nil, err
	}
	var chain identity.Chain
	if len(tokens) > 0 {
		log.Warn(context.Background(), "static credentials enabled", logger.Int("count", len(tokens)))
		chain = append(chain, identity.NewStaticProvider(tokens))
	}
	if cfg.GoogleClientID != "" {
		var opts []identity.GoogleOption
		if cfg.TokenInfoURL != "" {
			opts = append(opts, identity.WithEndpoint(cfg.TokenInfoURL))
		}
		chain = append(chain, identity.NewGoogleProvider(cfg.GoogleClientID, opts...))
	}
	return chain, nil
}
