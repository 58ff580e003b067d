package giveaway

import (
	"context"
	"slices"

	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	"github.com/open-builders/giveaway-discord-bot/internal/utils/random"
)

// Selector draws winners from a giveaway's entrants.
type Selector struct {
	eligibility Eligibility
	picker      random.Picker
}

func NewSelector(eligibility Eligibility, picker random.Picker) *Selector {
	if picker == nil {
		picker = random.CryptoPicker{}
	}
	return &Selector{eligibility: eligibility, picker: picker}
}

// Select returns up to g.WinnerCount distinct valid entrants. Entrants listed
// in keep that are still valid come first, in keep order; the rest are drawn
// uniformly from the remaining pool. Every drawn candidate leaves the pool
// whether or not it validates, so the loop ends even when nobody is eligible.
func (s *Selector) Select(ctx context.Context, g *dg.Giveaway, keep []snowflake.ID) []snowflake.ID {
	pool := make([]snowflake.ID, 0, len(g.Entrants))
	seen := make(map[snowflake.ID]struct{}, len(g.Entrants))
	for _, id := range g.Entrants {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		pool = append(pool, id)
	}

	winners := make([]snowflake.ID, 0, min(g.WinnerCount, len(pool)))
	for _, id := range keep {
		if len(winners) >= g.WinnerCount {
			break
		}
		i := slices.Index(pool, id)
		if i < 0 {
			continue
		}
		if !s.eligibility.Valid(ctx, g.GuildID, id) {
			continue
		}
		winners = append(winners, id)
		pool = slices.Delete(pool, i, i+1)
	}

	for len(pool) > 0 && len(winners) < g.WinnerCount {
		i := s.picker.Intn(len(pool))
		candidate := pool[i]
		last := len(pool) - 1
		pool[i] = pool[last]
		pool = pool[:last]

		if s.eligibility.Valid(ctx, g.GuildID, candidate) {
			winners = append(winners, candidate)
		}
	}
	return winners
}
