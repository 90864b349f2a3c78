package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/okian/candle/internal/adapters/remote"
	"github.com/okian/candle/pkg/logger"
)

// Run generates histories, delivers them concurrently in shuffled order with
// duplicates, then checks the server's aggregates. It returns ErrMismatch
// when any user's stats differ from the local fold.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	if log == nil {
		log = logger.Nop()
	}
	started := time.Now()
	rng := rand.New(rand.NewSource(cfg.Seed))

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
		logger.Int64("seed", cfg.Seed))

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if err := checkHealth(ctx, httpClient, cfg.BaseURL); err != nil {
		return Report{}, err
	}

	players := generate(cfg, rng)
	clients := make([]*remote.Client, len(players))
	for i, p := range players {
		c, err := remote.New(cfg.BaseURL, p.token, remote.WithHTTPClient(httpClient), remote.WithLogger(log))
		if err != nil {
			return Report{}, err
		}
		clients[i] = c
	}

	stream := schedule(players, cfg.DuplicateRate, rng)
	records := 0
	for _, p := range players {
		records += len(p.history)
	}
	log.Info(ctx, "generated histories", logger.Int("records", records), logger.Int("deliveries", len(stream)))

	c := submit(ctx, cfg, clients, stream, log)
	report := Report{
		Users:      len(players),
		Records:    records,
		Submitted:  int(c.submitted.Load()),
		Accepted:   int(c.accepted.Load()),
		Duplicates: int(c.duplicates.Load()),
		Retries:    int(c.retries.Load()),
		Failed:     int(c.failed.Load()),
	}

	mismatches, err := verify(ctx, players, clients)
	report.Mismatches = mismatches
	report.Duration = time.Since(started)
	if err != nil {
		return report, err
	}

	log.Info(ctx, "simulation finished",
		logger.Int("accepted", report.Accepted),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("retries", report.Retries),
		logger.Int("failed", report.Failed),
		logger.Int("mismatches", len(report.Mismatches)),
		logger.Duration("duration", report.Duration))

	if len(report.Mismatches) > 0 {
		return report, fmt.Errorf("%w: %d users", ErrMismatch, len(report.Mismatches))
	}
	return report, nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
