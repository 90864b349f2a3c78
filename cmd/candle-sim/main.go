// Command candle-sim loads a stats server with simulated players and checks
// the aggregates it ends up with.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/okian/candle/internal/simulate"
	"github.com/okian/candle/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultRunTimeout = 10 * time.Minute

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newRootCmd() *cobra.Command {
	cfg := simulate.DefaultConfig("http://localhost:8080")
	var (
		printTokens bool
		verbose     bool
		deadline    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "candle-sim",
		Short:        "Replay random player histories against a candle server and verify its stats",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printTokens {
				fmt.Fprintln(cmd.OutOrStdout(), simulate.StaticTokens(cfg.Users))
				return nil
			}

			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithSource(false)); err != nil {
				return err
			}
			if verbose {
				_ = logger.SetLevelString("debug")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), deadline)
			defer cancel()

			report, err := simulate.Run(ctx, cfg, logger.Named("sim"))
			renderReport(cmd.OutOrStdout(), report, cfg.Seed)
			if errors.Is(err, simulate.ErrMismatch) {
				for _, m := range report.Mismatches {
					danger.Fprintln(cmd.OutOrStdout(), m)
				}
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the candle server")
	f.IntVar(&cfg.Users, "users", cfg.Users, "number of simulated players")
	f.IntVar(&cfg.Days, "days", cfg.Days, "days of history per player")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent submitters")
	f.IntVar(&cfg.Retries, "retries", cfg.Retries, "retries per delivery on transient failure")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed; reuse it to replay a run")
	f.Float64Var(&cfg.DuplicateRate, "dup-rate", cfg.DuplicateRate, "share of records delivered twice")
	f.Float64Var(&cfg.PlayRate, "play-rate", cfg.PlayRate, "chance a player plays on a given day")
	f.Float64Var(&cfg.WinRate, "win-rate", cfg.WinRate, "chance a played game is won")
	f.DurationVar(&deadline, "deadline", defaultRunTimeout, "overall time limit")
	f.BoolVar(&printTokens, "print-tokens", false, "print the static_tokens value the server needs and exit")
	f.BoolVarP(&verbose, "verbose", "v", false, "log every delivery")
	return cmd
}

func renderReport(w io.Writer, r simulate.Report, seed int64) {
	accent.Fprintln(w, "\n== SIMULATION ==")
	fmt.Fprintf(w, "Seed:        %d\n", seed)
	fmt.Fprintf(w, "Users:       %d\n", r.Users)
	fmt.Fprintf(w, "Records:     %d\n", r.Records)
	fmt.Fprintf(w, "Submitted:   %d\n", r.Submitted)
	fmt.Fprintf(w, "Accepted:    %d\n", r.Accepted)
	fmt.Fprintf(w, "Duplicates:  %d\n", r.Duplicates)
	fmt.Fprintf(w, "Retries:     %d\n", r.Retries)
	fmt.Fprintf(w, "Failed:      %d\n", r.Failed)
	fmt.Fprintf(w, "Duration:    %s\n", r.Duration.Round(time.Millisecond))
	if len(r.Mismatches) == 0 && r.Failed == 0 && r.Users > 0 {
		success.Fprintln(w, "Server stats match every local aggregate.")
	} else if len(r.Mismatches) > 0 {
		danger.Fprintf(w, "%d user(s) disagree with the server.\n", len(r.Mismatches))
	}
}
