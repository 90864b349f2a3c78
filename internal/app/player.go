package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/candle/internal/adapters/outbox"
	"github.com/okian/candle/internal/adapters/repository"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/puzzle"
	"github.com/okian/candle/internal/domain/scoring"
	"github.com/okian/candle/internal/domain/session"
	"github.com/okian/candle/internal/domain/stats"
	"github.com/okian/candle/pkg/logger"
	"github.com/okian/candle/pkg/metrics"
)

// Player owns the one mutable session of a device. Every accepted action is
// persisted; a failed write leaves the in-memory state authoritative and
// marks the player unsynced until the next successful write.
type Player struct {
	engine   *session.Engine
	content  puzzle.ContentStore
	sessions repository.SessionStore
	stats    repository.StatsStore
	outbox   *outbox.Outbox
	user     model.User
	remote   bool

	loc *time.Location
	now func() time.Time
	log logger.Logger

	date      string
	number    int
	puzzle    *puzzle.Puzzle
	current   session.Session
	lastStats stats.PlayerStats
	unsynced  bool
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithEngine sets the game engine.
func WithEngine(e *session.Engine) PlayerOption {
	return func(p *Player) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithRemote signs the player in: stats go to remote as user, and
// completions that cannot be delivered wait in box.
func WithRemote(user model.User, remote repository.StatsStore, box *outbox.Outbox) PlayerOption {
	return func(p *Player) {
		if remote == nil || user.ID == "" {
			return
		}
		p.user = user
		p.stats = remote
		p.outbox = box
		p.remote = true
	}
}

// WithLocation sets the calendar the player's days are counted in.
func WithLocation(loc *time.Location) PlayerOption {
	return func(p *Player) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PlayerOption {
	return func(p *Player) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPlayerLogger sets the logger.
func WithPlayerLogger(l logger.Logger) PlayerOption {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPlayer builds a player over content and the device-local store. Without
// WithRemote the local store also keeps the stats.
func NewPlayer(content puzzle.ContentStore, local *repository.LocalStore, opts ...PlayerOption) *Player {
	p := &Player{
		engine:   session.NewEngine(),
		content:  content,
		sessions: local,
		stats:    local,
		user:     model.User{ID: model.LocalUserID},
		loc:      time.Local,
		now:      time.Now,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Named("player")
	return p
}

// Init resolves today's puzzle and resumes or creates its session. When
// signed in it also drains the outbox and adopts a completion already on
// record for today from another device.
func (p *Player) Init(ctx context.Context) error {
	today := p.now().In(p.loc)
	p.date = puzzle.DateKey(today)
	p.number = puzzle.Number(today)
	p.unsynced = false

	pz, err := p.resolve(ctx, today)
	if err != nil {
		return err
	}
	p.puzzle = pz

	if p.remote {
		p.Sync(ctx)
	}

	s, found, err := p.sessions.LoadSession(ctx, p.date)
	if err != nil {
		p.log.Warn(ctx, "session read failed, starting fresh", logger.Error(err))
		p.unsynced = true
	}
	switch {
	case !found:
		p.current = p.engine.New(pz.ID)
		p.persist(ctx)
	case s.PuzzleID != pz.ID:
		p.log.Info(ctx, "stored session is for another puzzle", logger.String("stored", s.PuzzleID))
		p.current = p.engine.New(pz.ID)
		p.persist(ctx)
	default:
		if verr := p.engine.Validate(s); verr != nil {
			p.log.Warn(ctx, "stored session is invalid, starting fresh", logger.Error(verr))
			p.current = p.engine.New(pz.ID)
			p.persist(ctx)
		} else {
			p.current = s
		}
	}

	if p.remote {
		p.adoptRemote(ctx)
	}
	if p.current.IsTerminal() {
		// idempotent; covers a crash between the terminal write and the record
		p.record(ctx)
	}
	return nil
}

func (p *Player) resolve(ctx context.Context, today time.Time) (*puzzle.Puzzle, error) {
	schedule, err := p.content.Schedule(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	fallback, err := p.content.Fallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fallback: %w", err)
	}
	sel := puzzle.NewSelector(schedule, fallback)
	id, err := sel.Resolve(today)
	if err != nil {
		return nil, err
	}
	if !sel.Scheduled(today) {
		p.log.Info(ctx, "no puzzle scheduled, using fallback rotation",
			logger.String("date", puzzle.DateKey(today)), logger.String("puzzle", id))
	}
	pz, err := p.content.Puzzle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", puzzle.ErrNoPuzzle, err)
	}
	return pz, nil
}

// adoptRemote makes a non-terminal local session take the outcome already
// recorded remotely for this puzzle.
func (p *Player) adoptRemote(ctx context.Context) {
	if p.current.IsTerminal() {
		return
	}
	history, err := p.stats.GetHistory(ctx, p.user.ID, DefaultHistoryLimit)
	if err != nil {
		p.log.Warn(ctx, "remote history unavailable", logger.Error(err))
		p.unsynced = true
		return
	}
	for _, r := range history {
		if r.PuzzleID != p.current.PuzzleID {
			continue
		}
		next := p.current
		if r.Won {
			next.Won = true
			next.Bankroll = r.Score
		} else {
			next.Lost = true
			next.Bankroll = 0
		}
		p.log.Info(ctx, "adopted outcome recorded on another device",
			logger.String("puzzle", r.PuzzleID), logger.Bool("won", r.Won))
		p.current = next
		p.persist(ctx)
		return
	}
}

// Date is the calendar day being played.
func (p *Player) Date() string { return p.date }

// Number is the display number of today's puzzle.
func (p *Player) Number() int { return p.number }

// Puzzle is today's puzzle. Nil before Init.
func (p *Player) Puzzle() *puzzle.Puzzle { return p.puzzle }

// Session returns the current session value.
func (p *Player) Session() session.Session { return p.current }

// Engine returns the rules in force.
func (p *Player) Engine() *session.Engine { return p.engine }

// User is the signed-in user, or the local placeholder.
func (p *Player) User() model.User { return p.user }

// SignedIn reports whether stats go to a remote store.
func (p *Player) SignedIn() bool { return p.remote }

// Unsynced reports whether the last write or sync failed.
func (p *Player) Unsynced() bool { return p.unsynced }

// BuyHint purchases a hint for the current session.
func (p *Player) BuyHint(ctx context.Context, hintID string) session.HintResult {
	if p.puzzle == nil {
		return session.HintRejectedTerminal
	}
	next, res := p.engine.BuyHint(p.current, hintID)
	if !res.Accepted() {
		metrics.RecordHintRejected(res.String())
		return res
	}
	metrics.RecordHintPurchased(hintID)
	p.apply(ctx, next)
	return res
}

// SubmitGuess settles a guess against today's answer.
func (p *Player) SubmitGuess(ctx context.Context, ticker string) session.GuessOutcome {
	if p.puzzle == nil {
		return session.GuessAlreadyTerminal
	}
	next, out := p.engine.SubmitGuess(p.current, ticker, p.puzzle.Answer.Ticker)
	metrics.RecordGuess(out.String())
	if out != session.GuessAlreadyTerminal {
		p.apply(ctx, next)
	}
	return out
}

// SetActiveTimeframe switches the visible chart; locked timeframes are
// refused without error.
func (p *Player) SetActiveTimeframe(ctx context.Context, tf puzzle.Timeframe) bool {
	next, ok := p.engine.SetActiveTimeframe(p.current, tf)
	if ok && next.ActiveChart != p.current.ActiveChart {
		p.apply(ctx, next)
	}
	return ok
}

// Reset discards today's session and starts the same puzzle over. Stats and
// completion records are not touched.
func (p *Player) Reset(ctx context.Context) error {
	if p.puzzle == nil {
		return ErrNotInitialized
	}
	if err := p.sessions.DeleteSession(ctx, p.date); err != nil {
		p.log.Warn(ctx, "session delete failed", logger.Error(err))
		p.unsynced = true
	}
	p.current = p.engine.New(p.puzzle.ID)
	p.persist(ctx)
	return nil
}

func (p *Player) apply(ctx context.Context, next session.Session) {
	before := p.current
	p.current = next
	p.persist(ctx)
	if session.Completed(before, next) {
		p.record(ctx)
	}
}

func (p *Player) persist(ctx context.Context) {
	if err := p.sessions.SaveSession(ctx, p.date, p.current); err != nil {
		p.log.Warn(ctx, "session write failed", logger.Error(err))
		p.unsynced = true
	}
}

// record stores the completion of the current terminal session. Remote
// failures queue the record in the outbox.
func (p *Player) record(ctx context.Context) {
	rec, ok := p.completionRecord()
	if !ok {
		return
	}
	st, dup, err := p.stats.RecordCompletion(ctx, rec)
	if err == nil {
		p.lastStats = st
		if !dup {
			metrics.RecordGameCompleted(rec.Won, rec.Score)
		}
		return
	}

	p.unsynced = true
	metrics.RecordSyncFailure()
	p.log.Warn(ctx, "completion not recorded", logger.String("puzzle", rec.PuzzleID), logger.Error(err))
	if p.outbox == nil || errors.Is(err, model.ErrInvalidRecord) {
		return
	}
	if _, qerr := p.outbox.Enqueue(ctx, rec); qerr != nil {
		p.log.Error(ctx, "completion could not be queued", logger.Error(qerr))
	}
}

func (p *Player) completionRecord() (model.GameRecord, bool) {
	score, ok := scoring.FinalScore(p.current)
	if !ok {
		return model.GameRecord{}, false
	}
	return model.NewRecord(p.user.ID, p.current.PuzzleID, p.date, p.current.Won, score,
		len(p.current.Guesses), len(p.current.RevealedHints), p.puzzle.Difficulty), true
}

// Stats returns the aggregate from the selected store, falling back to the
// last known value when the store is unreachable.
func (p *Player) Stats(ctx context.Context) (stats.PlayerStats, error) {
	st, err := p.stats.GetStats(ctx, p.user.ID)
	if err != nil {
		p.unsynced = true
		return p.lastStats, err
	}
	p.lastStats = st
	return st, nil
}

// History returns completed games newest first.
func (p *Player) History(ctx context.Context, limit int) ([]model.GameRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return p.stats.GetHistory(ctx, p.user.ID, limit)
}

// Share renders today's result card. It fails until the game is over.
func (p *Player) Share() (string, error) {
	score, ok := scoring.FinalScore(p.current)
	if !ok || p.puzzle == nil {
		return "", ErrNotTerminal
	}
	return scoring.ShareText(p.number, score, len(p.current.RevealedHints), len(p.current.Guesses),
		p.current.Won, p.engine.Rules().StartingBankroll), nil
}

// Sync delivers queued completions. It is a no-op when not signed in.
func (p *Player) Sync(ctx context.Context) outbox.Result {
	if p.outbox == nil {
		return outbox.Result{}
	}
	res, err := p.outbox.Flush(ctx, p.stats)
	if err != nil {
		p.unsynced = true
		p.log.Warn(ctx, "outbox flush incomplete", logger.Int("remaining", res.Remaining), logger.Error(err))
		return res
	}
	if res.Sent+res.Duplicates > 0 {
		p.lastStats = res.Stats
	}
	return res
}
