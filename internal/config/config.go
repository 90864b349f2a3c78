// Package config defines process configuration for the candle binaries.
//
// Values layer defaults, an optional YAML file and CANDLE_* environment
// variables; see Load.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/candle/internal/domain/session"
)

// Config contains process configuration shared by the server and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the Postgres stats store. Empty keeps stats in memory.
	DatabaseURL string `koanf:"database_url"`

	// GoogleClientID enables Google ID token verification for this audience.
	GoogleClientID string `koanf:"google_client_id"`

	// TokenInfoURL overrides Google's tokeninfo endpoint.
	TokenInfoURL string `koanf:"tokeninfo_url"`

	// StaticTokens lists development credentials as "token:user,token:user".
	StaticTokens string `koanf:"static_tokens"`

	StartingBankroll  int `koanf:"starting_bankroll"`
	WrongGuessPenalty int `koanf:"wrong_guess_penalty"`

	// HistoryLimit is the default page size of history queries.
	HistoryLimit int `koanf:"history_limit"`

	// DataDir holds the player's local state (sessions, stats, outbox).
	DataDir string `koanf:"data_dir"`

	// ContentDir holds schedule.json and puzzles/<id>.json.
	ContentDir string `koanf:"content_dir"`

	// APIBaseURL and APIToken sign the CLI in against a stats server.
	APIBaseURL string `koanf:"api_base_url"`
	APIToken   string `koanf:"api_token"`

	// Timezone is the IANA zone the player's calendar day is counted in.
	// Empty uses the host's local zone.
	Timezone string `koanf:"timezone"`

	// SyncInterval paces background outbox delivery in `candle sync --watch`.
	SyncInterval time.Duration `koanf:"sync_interval"`

	// ShutdownTimeout bounds graceful server shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8080",
		StartingBankroll:  session.StartingBankroll,
		WrongGuessPenalty: session.WrongGuessPenalty,
		HistoryLimit:      50,
		DataDir:           defaultDataDir(),
		ContentDir:        "content",
		SyncInterval:      30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".candle"
	}
	return filepath.Join(dir, "candle")
}

// Validate rejects configurations no binary can run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StartingBankroll <= 0:
		return fmt.Errorf("%w: starting_bankroll must be positive", ErrInvalidConfig)
	case c.WrongGuessPenalty <= 0:
		return fmt.Errorf("%w: wrong_guess_penalty must be positive", ErrInvalidConfig)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%w: history_limit must be positive", ErrInvalidConfig)
	case c.SyncInterval <= 0:
		return fmt.Errorf("%w: sync_interval must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Tokens(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Rules returns the game economy.
func (c *Config) Rules() session.Rules {
	return session.Rules{StartingBankroll: c.StartingBankroll, WrongGuessPenalty: c.WrongGuessPenalty}
}

// Tokens parses StaticTokens into a credential → user id map.
func (c *Config) Tokens() (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range strings.Split(c.StaticTokens, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, user, ok := strings.Cut(pair, ":")
		token, user = strings.TrimSpace(token), strings.TrimSpace(user)
		if !ok || token == "" || user == "" {
			return nil, fmt.Errorf("%w: static_tokens entry %q is not token:user", ErrInvalidConfig, pair)
		}
		out[token] = user
	}
	return out, nil
}

// SignedIn reports whether the CLI should use the remote stats API.
func (c *Config) SignedIn() bool {
	return strings.TrimSpace(c.APIBaseURL) != "" && strings.TrimSpace(c.APIToken) != ""
}
