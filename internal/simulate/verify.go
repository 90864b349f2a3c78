package simulate

import (
	"context"
	"fmt"
	"slices"

	"github.com/okian/candle/internal/adapters/remote"
	"github.com/okian/candle/internal/domain/model"
	"github.com/okian/candle/internal/domain/stats"
)

// expected folds a player's records in date order, the way one device would
// have seen them arrive.
func expected(history []model.GameRecord) stats.PlayerStats {
	ordered := slices.Clone(history)
	slices.SortStableFunc(ordered, func(a, b model.GameRecord) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	var st stats.PlayerStats
	for _, r := range ordered {
		st = st.Apply(stats.OutcomeOf(r))
	}
	return st
}

// verify compares every player's server aggregate and history length with
// the local fold and returns one line per difference.
func verify(ctx context.Context, players []player, clients []*remote.Client) ([]string, error) {
	var mismatches []string
	for i, p := range players {
		got, err := clients[i].GetStats(ctx, p.userID)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", p.userID, err)
		}
		if want := expected(p.history); got != want {
			mismatches = append(mismatches, fmt.Sprintf("%s: stats %+v, want %+v", p.userID, got, want))
		}

		if len(p.history) == 0 {
			continue
		}
		h, err := clients[i].GetHistory(ctx, p.userID, len(p.history)+1)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", p.userID, err)
		}
		if len(h) != len(p.history) {
			mismatches = append(mismatches, fmt.Sprintf("%s: %d records on server, want %d", p.userID, len(h), len(p.history)))
		}
	}
	return mismatches, nil
}
