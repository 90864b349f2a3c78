package simulate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/session"
)

const scoreStep = 25

// player is one simulated user and the games they finished.
type player struct {
	token   string
	userID  string
	history []model.GameRecord
}

// generate builds a history per user. Days are skipped at random so streaks
// break, and scores are multiples of scoreStep within the bankroll.
func generate(cfg Config, rng *rand.Rand) []player {
	players := make([]player, cfg.Users)
	for i := range players {
		p := player{
			token:  fmt.Sprintf("%s%d", TokenPrefix, i),
			userID: fmt.Sprintf("%s%d", UserPrefix, i),
		}
		for d := range cfg.Days {
			if rng.Float64() >= cfg.PlayRate {
				continue
			}
			day := cfg.Start.AddDate(0, 0, d)
			won := rng.Float64() < cfg.WinRate
			score := 0
			if won {
				score = scoreStep * (1 + rng.Intn(session.StartingBankroll/scoreStep))
			}
			rec := model.NewRecord(p.userID, fmt.Sprintf("sim-%04d", d), day.Format(model.DateLayout),
				won, score, 1+rng.Intn(6), rng.Intn(5), nil)
			rec.CompletedAt = day.Add(18 * time.Hour)
			p.history = append(p.history, rec)
		}
		players[i] = p
	}
	return players
}

// delivery is one POST the simulator will make.
type delivery struct {
	player int
	record model.GameRecord
}

// schedule flattens every player's records into one shuffled stream, with
// a share of them repeated to exercise idempotency.
func schedule(players []player, dupRate float64, rng *rand.Rand) []delivery {
	var out []delivery
	for i, p := range players {
		for _, r := range p.history {
			out = append(out, delivery{player: i, record: r})
			if rng.Float64() < dupRate {
				out = append(out, delivery{player: i, record: r})
			}
		}
	}
	rng.Shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })
	return out
}
