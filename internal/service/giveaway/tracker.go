package giveaway

import (
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// Tracker is the in-memory working set of giveaways that have not ended,
// grouped by guild.
//
// EndHandled and EndTime of tracked records are only written through Claim
// and ClaimAt, under the tracker lock, so IsActive and Due never observe a
// half-finished transition.
type Tracker struct {
	mu      sync.RWMutex
	byGuild map[snowflake.ID][]*dg.Giveaway
}

func NewTracker() *Tracker {
	return &Tracker{byGuild: make(map[snowflake.ID][]*dg.Giveaway)}
}

// Load replaces the working set with every record not yet handled,
// including ones whose end time already passed.
func (t *Tracker) Load(gs []*dg.Giveaway) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byGuild = make(map[snowflake.ID][]*dg.Giveaway)
	n := 0
	for _, g := range gs {
		if g.EndHandled {
			continue
		}
		t.byGuild[g.GuildID] = append(t.byGuild[g.GuildID], g)
		n++
	}
	return n
}

func indexOf(list []*dg.Giveaway, id dg.ID) int {
	return slices.IndexFunc(list, func(g *dg.Giveaway) bool { return g.ID == id })
}

// Add registers the giveaway; adding twice is a no-op.
func (t *Tracker) Add(g *dg.Giveaway) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if indexOf(t.byGuild[g.GuildID], g.ID) >= 0 {
		return
	}
	t.byGuild[g.GuildID] = append(t.byGuild[g.GuildID], g)
}

// Remove drops the giveaway from its guild list.
func (t *Tracker) Remove(g *dg.Giveaway) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(g)
}

func (t *Tracker) removeLocked(g *dg.Giveaway) bool {
	list := t.byGuild[g.GuildID]
	i := indexOf(list, g.ID)
	if i < 0 {
		return false
	}
	// Copy so slices handed out earlier stay intact.
	next := make([]*dg.Giveaway, 0, len(list)-1)
	next = append(next, list[:i]...)
	next = append(next, list[i+1:]...)
	if len(next) == 0 {
		delete(t.byGuild, g.GuildID)
	} else {
		t.byGuild[g.GuildID] = next
	}
	return true
}

// IsActive is true iff the giveaway is tracked and not yet handled.
func (t *Tracker) IsActive(g *dg.Giveaway) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !g.EndHandled && indexOf(t.byGuild[g.GuildID], g.ID) >= 0
}

// ListActive returns a copy of the guild's active giveaways.
func (t *Tracker) ListActive(guildID snowflake.ID) []*dg.Giveaway {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.byGuild[guildID])
}

// Counts returns the number of active giveaways per guild.
func (t *Tracker) Counts() map[snowflake.ID]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[snowflake.ID]int, len(t.byGuild))
	for guildID, list := range t.byGuild {
		out[guildID] = len(list)
	}
	return out
}

// Due returns the active giveaways whose end time is at or before now.
func (t *Tracker) Due(now time.Time) []*dg.Giveaway {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var due []*dg.Giveaway
	for _, list := range t.byGuild {
		for _, g := range list {
			if !g.EndHandled && g.IsExpired(now) {
				due = append(due, g)
			}
		}
	}
	return due
}

// Claim atomically marks the giveaway handled and untracks it. Only the
// first caller gets true. Callers hold the record lock.
func (t *Tracker) Claim(g *dg.Giveaway) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claimLocked(g)
}

// ClaimAt is Claim for a manual end: the end time is moved to now as part
// of the same transition.
func (t *Tracker) ClaimAt(g *dg.Giveaway, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.claimLocked(g) {
		return false
	}
	g.EndTime = now
	return true
}

func (t *Tracker) claimLocked(g *dg.Giveaway) bool {
	if g.EndHandled {
		return false
	}
	if !t.removeLocked(g) {
		return false
	}
	g.EndHandled = true
	return true
}
