// Package remote talks to the stats API on behalf of a signed-in player.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/candle/internal/adapters/http/api"
	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

const (
	backendRemote  = "remote"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4096
)

// ErrUnavailable marks failures worth retrying: transport errors, 5xx
// responses and undecodable bodies.
var ErrUnavailable = errors.New("stats API unavailable")

// Client implements repository.StatsStore against the HTTP API. The user is
// whoever the credential belongs to; userID arguments are ignored.
type Client struct {
	base       *url.URL
	credential string
	httpClient *http.Client
	log        logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// New creates a client for the API at baseURL.
func New(baseURL, credential string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", baseURL)
	}
	c := &Client{
		base:       u,
		credential: credential,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("remote")
	return c, nil
}

// Me returns the user the credential belongs to.
func (c *Client) Me(ctx context.Context) (u model.User, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendRemote, "me", start, err) }()

	var resp api.MeResponse
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, nil, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

func (c *Client) RecordCompletion(ctx context.Context, rec model.GameRecord) (st stats.PlayerStats, duplicate bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendRemote, "record_completion", start, err) }()

	body := api.CompleteRequest{
		PuzzleID:   rec.PuzzleID,
		Date:       rec.Date,
		Won:        rec.Won,
		Score:      rec.Score,
		GuessCount: rec.GuessCount,
		HintsUsed:  rec.HintsUsed,
		Difficulty: rec.Difficulty,
	}
	var resp api.CompleteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/games/complete", nil, body, &resp); err != nil {
		return stats.PlayerStats{}, false, err
	}
	if resp.Duplicate {
		c.log.Debug(ctx, "completion already on record", logger.String("puzzle", rec.PuzzleID))
	}
	return resp.Stats, resp.Duplicate, nil
}

func (c *Client) GetStats(ctx context.Context, _ string) (st stats.PlayerStats, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendRemote, "get_stats", start, err) }()

	var resp api.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, nil, &resp); err != nil {
		return stats.PlayerStats{}, err
	}
	return resp.Stats, nil
}

func (c *Client) GetHistory(ctx context.Context, _ string, limit int) (out []model.GameRecord, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendRemote, "get_history", start, err) }()

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/v1/games/history", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(ctx, resp, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, path, err)
	}
	return nil
}

// statusError maps an API error onto the sentinels callers branch on.
func (c *Client) statusError(ctx context.Context, resp *http.Response, path string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e api.ErrorResponse
	if json.Unmarshal(raw, &e) != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", identity.ErrInvalidCredential, e.Message)
	case resp.StatusCode == http.StatusUnprocessableEntity || e.Code == api.CodeInvalidRecord:
		return fmt.Errorf("%w: %s", model.ErrInvalidRecord, e.Message)
	case resp.StatusCode >= http.StatusInternalServerError:
		c.log.Warn(ctx, "stats API failed", logger.String("path", path), logger.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s: status %d: %s", ErrUnavailable, path, resp.StatusCode, e.Message)
	}
	return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, e.Message)
}
