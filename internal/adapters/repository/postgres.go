package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/scoring"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS candle_games (
	id           uuid PRIMARY KEY,
	user_id      text NOT NULL,
	puzzle_id    text NOT NULL,
	date         date NOT NULL,
	won          boolean NOT NULL,
	score        integer NOT NULL CHECK (score >= 0),
	guess_count  integer NOT NULL DEFAULT 0,
	hints_used   integer NOT NULL DEFAULT 0,
	difficulty   smallint CHECK (difficulty BETWEEN 1 AND 5),
	completed_at timestamptz NOT NULL DEFAULT now(),
	UNIQUE (user_id, puzzle_id)
);
CREATE INDEX IF NOT EXISTS candle_games_user_date ON candle_games (user_id, date, completed_at);

CREATE TABLE IF NOT EXISTS candle_player_stats (
	user_id            text PRIMARY KEY,
	games_played       integer NOT NULL DEFAULT 0,
	games_won          integer NOT NULL DEFAULT 0,
	current_streak     integer NOT NULL DEFAULT 0,
	max_streak         integer NOT NULL DEFAULT 0,
	total_score        integer NOT NULL DEFAULT 0,
	score_distribution integer[] NOT NULL DEFAULT '{0,0,0,0,0,0,0,0,0,0}',
	updated_at         timestamptz NOT NULL DEFAULT now()
);
`

const uniqueViolation = "23505"

// PostgresStore is the server-authoritative StatsStore. Each completion runs
// in one transaction that locks the user's stats row before checking the
// (user, puzzle) key, so two devices racing on the same puzzle serialize and
// the loser sees a duplicate.
type PostgresStore struct {
	db *pgxpool.Pool
	o  options
}

var _ StatsStore = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *pgxpool.Pool, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, o: buildOptions("postgres_store", opts)}
}

// EnsureSchema creates the tables if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *PostgresStore) RecordCompletion(ctx context.Context, rec model.GameRecord) (st stats.PlayerStats, duplicate bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendPostgres, "record_completion", start, err) }()

	if err := rec.Validate(); err != nil {
		return stats.PlayerStats{}, false, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	day, err := time.Parse(model.DateLayout, rec.Date)
	if err != nil {
		return stats.PlayerStats{}, false, err
	}

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return stats.PlayerStats{}, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `
		INSERT INTO candle_player_stats (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, rec.UserID); err != nil {
		return stats.PlayerStats{}, false, err
	}
	prev, err := scanStats(tx.QueryRow(ctx, `
		SELECT games_played, games_won, current_streak, max_streak, total_score, score_distribution
		FROM candle_player_stats
		WHERE user_id = $1
		FOR UPDATE
	`, rec.UserID))
	if err != nil {
		return stats.PlayerStats{}, false, err
	}

	var exists, later bool
	if err := tx.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM candle_games WHERE user_id = $1 AND puzzle_id = $2),
			EXISTS (SELECT 1 FROM candle_games WHERE user_id = $1
				AND (date > $3::date OR (date = $3::date AND completed_at > $4)))
	`, rec.UserID, rec.PuzzleID, day, rec.CompletedAt).Scan(&exists, &later); err != nil {
		return stats.PlayerStats{}, false, err
	}
	if exists {
		return prev, true, tx.Commit(ctx)
	}

	next := prev.Apply(stats.OutcomeOf(rec))
	if later {
		history, err := queryHistory(ctx, tx, rec.UserID, 0)
		if err != nil {
			return stats.PlayerStats{}, false, err
		}
		next = stats.Recompute(append(history, rec))
		metrics.RecordStatsRecompute()
		p.o.log.Info(ctx, "completion arrived out of order, stats rebuilt",
			logger.String("user", rec.UserID), logger.String("puzzle", rec.PuzzleID))
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO candle_games (id, user_id, puzzle_id, date, won, score, guess_count, hints_used, difficulty, completed_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.UserID, rec.PuzzleID, day, rec.Won, rec.Score, rec.GuessCount, rec.HintsUsed, rec.Difficulty, rec.CompletedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return prev, true, nil
		}
		return stats.PlayerStats{}, false, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE candle_player_stats
		SET games_played = $2, games_won = $3, current_streak = $4, max_streak = $5,
			total_score = $6, score_distribution = $7, updated_at = now()
		WHERE user_id = $1
	`, rec.UserID, next.GamesPlayed, next.GamesWon, next.CurrentStreak, next.MaxStreak,
		next.TotalScore, distribution(next)); err != nil {
		return stats.PlayerStats{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return stats.PlayerStats{}, false, err
	}
	return next, false, nil
}

func (p *PostgresStore) GetStats(ctx context.Context, userID string) (st stats.PlayerStats, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendPostgres, "get_stats", start, err) }()

	st, err = scanStats(p.db.QueryRow(ctx, `
		SELECT games_played, games_won, current_streak, max_streak, total_score, score_distribution
		FROM candle_player_stats
		WHERE user_id = $1
	`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return stats.PlayerStats{}, nil
	}
	return st, err
}

func (p *PostgresStore) GetHistory(ctx context.Context, userID string, limit int) (out []model.GameRecord, err error) {
	start := time.Now()
	defer func() { metrics.ObserveStore(backendPostgres, "get_history", start, err) }()

	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	records, err := queryHistory(ctx, p.db, userID, limit)
	if err != nil {
		return nil, err
	}
	return newestFirst(records, limit)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryHistory loads records newest first. limit <= 0 loads everything.
func queryHistory(ctx context.Context, q querier, userID string, limit int) ([]model.GameRecord, error) {
	sql := `
		SELECT id::text, user_id, puzzle_id, date, won, score, guess_count, hints_used, difficulty, completed_at
		FROM candle_games
		WHERE user_id = $1
		ORDER BY date DESC, completed_at DESC`
	args := []any{userID}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GameRecord
	for rows.Next() {
		var (
			r          model.GameRecord
			id         string
			date       time.Time
			difficulty *int16
		)
		if err := rows.Scan(&id, &r.UserID, &r.PuzzleID, &date, &r.Won, &r.Score, &r.GuessCount, &r.HintsUsed, &difficulty, &r.CompletedAt); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: record id %q", ErrCorrupt, id)
		}
		r.Date = date.Format(model.DateLayout)
		if difficulty != nil {
			d := int(*difficulty)
			r.Difficulty = &d
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanStats(row pgx.Row) (stats.PlayerStats, error) {
	var (
		st   stats.PlayerStats
		dist []int32
	)
	if err := row.Scan(&st.GamesPlayed, &st.GamesWon, &st.CurrentStreak, &st.MaxStreak, &st.TotalScore, &dist); err != nil {
		return stats.PlayerStats{}, err
	}
	if len(dist) != scoring.BucketCount {
		return stats.PlayerStats{}, fmt.Errorf("%w: %d histogram buckets", ErrCorrupt, len(dist))
	}
	for i, n := range dist {
		st.ScoreDistribution[i] = int(n)
	}
	return st, nil
}

func distribution(st stats.PlayerStats) []int32 {
	out := make([]int32, len(st.ScoreDistribution))
	for i, n := range st.ScoreDistribution {
		out[i] = int32(n)
	}
	return out
}
