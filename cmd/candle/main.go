// Command candle plays the daily stock puzzle from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/candle/internal/adapters/content"
	"github.com/okian/candle/internal/adapters/identity"
	"github.com/okian/candle/internal/adapters/outbox"
	"github.com/okian/candle/internal/adapters/remote"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/internal/config"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/puzzle"
	"github.com/okian/candle/internal/domain/session"
	"github.com/okian/candle/pkg/logger"
	"github.com/spf13/cobra"
)

const meTimeout = 10 * time.Second

// game is everything one command invocation needs.
type game struct {
	player   *app.Player
	box      *outbox.Outbox
	sink     outbox.Submitter
	interval time.Duration
	log      logger.Logger
}

type opener func(ctx context.Context) (*game, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openGame).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "candle",
		Short:        "Guess the stock behind today's chart",
		SilenceUsage: true,
	}

	root.AddCommand(
		newTodayCmd(open),
		newHintsCmd(open),
		newHintCmd(open),
		newGuessCmd(open),
		newChartCmd(open),
		newResetCmd(open),
		newStatsCmd(open),
		newHistoryCmd(open),
		newShareCmd(open),
		newSyncCmd(open),
	)
	return root
}

// openGame loads configuration and resumes today's session.
func openGame(ctx context.Context) (*game, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr), logger.WithSource(false)); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	log := logger.Named("candle")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	kv, err := repository.NewFileKV(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	local := repository.NewLocalStore(kv, repository.WithLogger(log))
	store := content.NewDirStore(cfg.ContentDir, content.WithLogger(log))

	opts := []app.PlayerOption{
		app.WithEngine(session.NewEngine(session.WithRules(cfg.Rules()))),
		app.WithLocation(loc),
		app.WithPlayerLogger(log),
	}

	g := &game{interval: cfg.SyncInterval, log: log}
	if cfg.SignedIn() {
		client, err := remote.New(cfg.APIBaseURL, cfg.APIToken, remote.WithLogger(log))
		if err != nil {
			return nil, err
		}
		user, err := whoAmI(ctx, client, log)
		if err != nil {
			return nil, err
		}
		g.box = outbox.New(kv, outbox.WithLogger(log))
		g.sink = client
		opts = append(opts, app.WithRemote(user, client, g.box))
	}

	g.player = app.NewPlayer(store, local, opts...)
	if err := g.player.Init(ctx); err != nil {
		return nil, fmt.Errorf("load today's puzzle: %w", err)
	}
	return g, nil
}

// whoAmI resolves the signed-in user. An unreachable API still lets the
// player play; completions queue in the outbox.
func whoAmI(ctx context.Context, client *remote.Client, log logger.Logger) (model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, meTimeout)
	defer cancel()

	user, err := client.Me(ctx)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, identity.ErrInvalidCredential):
		return model.User{}, fmt.Errorf("api_token was rejected, sign in again: %w", err)
	default:
		log.Warn(ctx, "stats API unreachable, playing offline", logger.Error(err))
		return model.User{ID: model.LocalUserID}, nil
	}
}

func newTodayCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's puzzle and your progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			renderToday(cmd.OutOrStdout(), g.player)
			return nil
		},
	}
}

func newHintsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "hints",
		Short: "List the hint catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			renderHints(cmd.OutOrStdout(), g.player)
			return nil
		},
	}
}

func newHintCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "hint <id>",
		Short: "Buy a hint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			id := strings.TrimSpace(args[0])
			switch res := g.player.BuyHint(cmd.Context(), id); res {
			case session.HintPurchased:
				renderPurchase(w, g.player, id)
			case session.HintRejectedUnknown:
				return fmt.Errorf("unknown hint %q, see `candle hints`", id)
			case session.HintRejectedDuplicate:
				printWarn(w, "You already own that hint.")
			case session.HintRejectedInsufficient:
				printWarn(w, fmt.Sprintf("Not enough bankroll (%d left).", g.player.Session().Bankroll))
			default:
				printWarn(w, "Today's game is over.")
			}
			return nil
		},
	}
}

func newGuessCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "guess <ticker>",
		Short: "Guess the ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if strings.TrimSpace(args[0]) == "" {
				return errors.New("ticker is required")
			}
			renderGuess(cmd.OutOrStdout(), g.player, g.player.SubmitGuess(cmd.Context(), args[0]))
			return nil
		},
	}
}

func newChartCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "chart <timeframe>",
		Short: "Switch the visible chart (1m, 1y, 5y, 10y)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := puzzle.ParseTimeframe(args[0])
			if err != nil {
				return err
			}
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if !g.player.SetActiveTimeframe(cmd.Context(), tf) {
				if id, ok := g.player.Engine().Catalog().UnlockFor(tf); ok {
					return fmt.Errorf("the %s chart is locked, buy hint %q", tf, id)
				}
				return fmt.Errorf("the %s chart is locked", tf)
			}
			renderChart(cmd.OutOrStdout(), g.player)
			return nil
		},
	}
}

func newResetCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start today's puzzle over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if err := g.player.Reset(cmd.Context()); err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), fmt.Sprintf("Puzzle #%d reset. Bankroll %d.", g.player.Number(), g.player.Session().Bankroll))
			return nil
		},
	}
}

func newStatsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			st, err := g.player.Stats(cmd.Context())
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), st, g.player.Unsynced())
			return nil
		},
	}
}

func newHistoryCmd(open opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed games, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			games, err := g.player.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), games)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", app.DefaultHistoryLimit, "maximum number of games to list")
	return cmd
}

func newShareCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Print today's result card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			text, err := g.player.Share()
			if errors.Is(err, app.ErrNotTerminal) {
				return errors.New("finish today's puzzle first")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newSyncCmd(open opener) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Deliver completions recorded while offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := open(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !g.player.SignedIn() {
				printInfo(w, "Not signed in; stats are kept on this device only.")
				return nil
			}
			if !watch {
				renderSync(w, g.player.Sync(cmd.Context()), g.player.Unsynced())
				return nil
			}

			printInfo(w, fmt.Sprintf("Syncing every %s, Ctrl-C to stop.", g.interval))
			syncer := outbox.NewSyncer(g.box, g.sink,
				outbox.WithInterval(g.interval),
				outbox.WithSyncerLogger(g.log),
				outbox.WithOnFlush(func(res outbox.Result) { renderSync(w, res, res.Remaining > 0) }),
			)
			syncer.Run(cmd.Context())
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and retry on an interval")
	return cmd
}
