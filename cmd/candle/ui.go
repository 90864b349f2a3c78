package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/candle/internal/adapters/outbox"
	"github.com/okian/candle/internal/app"
	"github.com/okian/candle/internal/domain/hints"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/puzzle"
	"github.com/okian/candle/internal/domain/scoring"
	"github.com/okian/candle/internal/domain/session"
	"github.com/okian/candle/internal/domain/stats"

	"github.com/fatih/color"
)

const (
	sparkWidth = 48
	barWidth   = 30
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
	muted   = color.New(color.FgHiBlack)
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

func printSuccess(w io.Writer, msg string) {
	success.Fprintln(w, msg)
}

func printWarn(w io.Writer, msg string) {
	warn.Fprintln(w, msg)
}

func printError(w io.Writer, msg string) {
	danger.Fprintln(w, msg)
}

func printInfo(w io.Writer, msg string) {
	neutral.Fprintln(w, msg)
}

func renderToday(w io.Writer, p *app.Player) {
	s := p.Session()
	accent.Fprintf(w, "\n== canDLE #%d (%s) ==\n", p.Number(), p.Date())
	fmt.Fprintf(w, "Bankroll:  %s / %d\n", colorizeBankroll(s.Bankroll, p.Engine().Rules()), p.Engine().Rules().StartingBankroll)
	fmt.Fprintf(w, "State:     %s\n", s.State())
	if len(s.Guesses) == 0 {
		fmt.Fprintln(w, "Guesses:   none")
	} else {
		fmt.Fprintf(w, "Guesses:   %s\n", strings.Join(s.Guesses, ", "))
	}
	if p.Unsynced() {
		printWarn(w, "Some progress is only on this device; run `candle sync`.")
	}

	fmt.Fprintln(w)
	renderChart(w, p)

	if len(s.RevealedHints) > 0 {
		fmt.Fprintln(w)
		accent.Fprintln(w, "Clues")
		for _, id := range s.RevealedHints {
			renderClue(w, p, id)
		}
	}
	if s.IsTerminal() {
		fmt.Fprintln(w)
		renderEnding(w, p)
	}
	fmt.Fprintln(w)
}

func renderChart(w io.Writer, p *app.Player) {
	s := p.Session()
	tabs := make([]string, 0, len(puzzle.Timeframes()))
	for _, tf := range puzzle.Timeframes() {
		switch {
		case tf == s.ActiveChart:
			tabs = append(tabs, accent.Sprintf("[%s]", tf))
		case p.Engine().CanView(s, tf):
			tabs = append(tabs, string(tf))
		default:
			tabs = append(tabs, muted.Sprintf("%s (locked)", tf))
		}
	}
	fmt.Fprintf(w, "Charts:    %s\n", strings.Join(tabs, "  "))

	series := p.Puzzle().Charts[s.ActiveChart]
	if len(series) == 0 {
		printWarn(w, fmt.Sprintf("No %s chart for this puzzle.", s.ActiveChart))
		return
	}
	sum := series.Summary()
	fmt.Fprintf(w, "           %s\n", sparkline(series, sparkWidth))
	fmt.Fprintf(w, "Change:    %s over %d points\n", colorizePct(sum.ChangePct.StringFixed(2), sum.ChangePct.IsNegative()), sum.Points)
	if s.IsTerminal() || s.HasHint(puzzle.CluePriceAxis) {
		fmt.Fprintf(w, "Prices:    first $%s  last $%s  low $%s  high $%s\n",
			sum.First.StringFixed(2), sum.Last.StringFixed(2), sum.Low.StringFixed(2), sum.High.StringFixed(2))
	}
}

// sparkline scales the series into width cells, sampling evenly when it has
// more points than cells.
func sparkline(series puzzle.Series, width int) string {
	sum := series.Summary()
	spread := sum.High.Sub(sum.Low)
	n := min(width, len(series))

	var b strings.Builder
	for i := range n {
		row := series[i*len(series)/n]
		v := row[len(row)-1]
		idx := 0
		if !spread.IsZero() {
			idx = int(v.Sub(sum.Low).Div(spread).InexactFloat64() * float64(len(sparkTicks)-1))
		}
		b.WriteRune(sparkTicks[max(0, min(len(sparkTicks)-1, idx))])
	}
	return b.String()
}

func renderClue(w io.Writer, p *app.Player, id string) {
	def, ok := p.Engine().Catalog().Lookup(id)
	if !ok {
		return
	}
	if def.Category == hints.CategoryChart {
		fmt.Fprintf(w, "%-20s %s chart unlocked\n", def.Label, def.Timeframe)
		return
	}
	text, ok := p.Puzzle().ClueText(id)
	if !ok {
		return
	}
	if strings.TrimSpace(text) == "" {
		text = muted.Sprint("(not available)")
	}
	fmt.Fprintf(w, "%-20s %s\n", def.Label, text)
}

func renderHints(w io.Writer, p *app.Player) {
	s := p.Session()
	accent.Fprintf(w, "\n== HINTS (bankroll %d) ==\n", s.Bankroll)
	fmt.Fprintf(w, "%-16s %-24s %6s  %s\n", "ID", "LABEL", "COST", "STATUS")
	for _, def := range p.Engine().Catalog().All() {
		var status string
		switch {
		case s.HasHint(def.ID):
			status = success.Sprint("owned")
		case s.IsTerminal():
			status = muted.Sprint("-")
		case def.Cost > s.Bankroll:
			status = danger.Sprint("too expensive")
		default:
			status = neutral.Sprint("available")
		}
		fmt.Fprintf(w, "%-16s %-24s %6d  %s\n", def.ID, def.Label, def.Cost, status)
	}
	fmt.Fprintln(w)
}

func renderPurchase(w io.Writer, p *app.Player, id string) {
	def, _ := p.Engine().Catalog().Lookup(id)
	s := p.Session()
	printSuccess(w, fmt.Sprintf("Bought %s for %d. Bankroll %d.", def.Label, def.Cost, s.Bankroll))
	renderClue(w, p, id)
	if s.Lost {
		fmt.Fprintln(w)
		renderEnding(w, p)
	}
}

func renderGuess(w io.Writer, p *app.Player, outcome session.GuessOutcome) {
	s := p.Session()
	switch {
	case outcome == session.GuessAlreadyTerminal:
		printWarn(w, "Today's game is over.")
		return
	case outcome == session.GuessCorrect:
		renderEnding(w, p)
	case s.Lost:
		printError(w, "Wrong, and that was the last of your bankroll.")
		renderEnding(w, p)
	default:
		printWarn(w, fmt.Sprintf("Wrong. Bankroll %d.", s.Bankroll))
	}
}

// renderEnding reveals the answer and prints the share card.
func renderEnding(w io.Writer, p *app.Player) {
	s := p.Session()
	a := p.Puzzle().Answer
	name := a.Ticker
	if a.Name != "" {
		name = fmt.Sprintf("%s (%s)", a.Ticker, a.Name)
	}
	if s.Won {
		score, _ := scoring.FinalScore(s)
		printSuccess(w, fmt.Sprintf("Correct! It was %s. Score %d.", name, score))
	} else {
		printError(w, fmt.Sprintf("Out of bankroll. It was %s.", name))
	}
	if text, err := p.Share(); err == nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, text)
	}
}

func renderStats(w io.Writer, st stats.PlayerStats, unsynced bool) {
	accent.Fprintln(w, "\n== STATS ==")
	fmt.Fprintf(w, "Played:          %d\n", st.GamesPlayed)
	fmt.Fprintf(w, "Win rate:        %d%%\n", st.WinRate())
	fmt.Fprintf(w, "Current streak:  %d\n", st.CurrentStreak)
	fmt.Fprintf(w, "Max streak:      %d\n", st.MaxStreak)
	fmt.Fprintf(w, "Average score:   %d\n", st.AverageScore())

	fmt.Fprintln(w)
	accent.Fprintln(w, "Score distribution")
	peak := 0
	for _, n := range st.ScoreDistribution {
		peak = max(peak, n)
	}
	for i, n := range st.ScoreDistribution {
		lo := i * scoring.BucketWidth
		hi := lo + scoring.BucketWidth - 1
		if i == scoring.BucketCount-1 {
			hi = 1000
		}
		bar := 0
		if peak > 0 {
			bar = n * barWidth / peak
		}
		if n > 0 {
			bar = max(bar, 1)
		}
		fmt.Fprintf(w, "%4d-%-4d %s %d\n", lo, hi, success.Sprint(strings.Repeat("█", bar)), n)
	}
	if unsynced {
		fmt.Fprintln(w)
		printWarn(w, "Showing the last known stats; the server could not be reached.")
	}
	fmt.Fprintln(w)
}

func renderHistory(w io.Writer, games []model.GameRecord) {
	if len(games) == 0 {
		printInfo(w, "No completed games yet.")
		return
	}
	accent.Fprintln(w, "\n== HISTORY ==")
	fmt.Fprintf(w, "%-10s  %-20s %-6s %6s %8s %6s\n", "DATE", "PUZZLE", "RESULT", "SCORE", "GUESSES", "HINTS")
	for _, g := range games {
		result := danger.Sprintf("%-6s", "lost")
		if g.Won {
			result = success.Sprintf("%-6s", "won")
		}
		fmt.Fprintf(w, "%-10s  %-20s %s %6d %8d %6d\n", g.Date, g.PuzzleID, result, g.Score, g.GuessCount, g.HintsUsed)
	}
	fmt.Fprintln(w)
}

func renderSync(w io.Writer, res outbox.Result, pending bool) {
	delivered := res.Sent + res.Duplicates
	switch {
	case delivered == 0 && res.Remaining == 0:
		printInfo(w, "Nothing to sync.")
	case pending || res.Remaining > 0:
		printWarn(w, fmt.Sprintf("Delivered %d, %d still pending; the server is unreachable.", delivered, res.Remaining))
	default:
		printSuccess(w, fmt.Sprintf("Delivered %d completed game(s).", delivered))
	}
	if res.Dropped > 0 {
		printError(w, fmt.Sprintf("Dropped %d record(s) the server refused.", res.Dropped))
	}
}

func colorizeBankroll(bankroll int, rules session.Rules) string {
	switch {
	case bankroll <= 0:
		return danger.Sprint(bankroll)
	case bankroll*2 < rules.StartingBankroll:
		return warn.Sprint(bankroll)
	default:
		return success.Sprint(bankroll)
	}
}

func colorizePct(pct string, negative bool) string {
	if negative {
		return danger.Sprintf("%s%%", pct)
	}
	return success.Sprintf("+%s%%", pct)
}
