package giveaway

import (
	"slices"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Giveaway is the aggregate representing a timed giveaway in a guild.
type Giveaway struct {
	ID          ID           `json:"id"`
	GuildID     snowflake.ID `json:"guild_id"`
	ChannelID   snowflake.ID `json:"channel_id"`
	CreatorID   snowflake.ID `json:"creator_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ImageURI    string       `json:"image_uri,omitempty"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	WinnerCount int          `json:"winner_count"`
	// Entrants keeps join order for display; duplicates are rejected on join.
	Entrants     []snowflake.ID `json:"entrants"`
	WinnerIDs    []snowflake.ID `json:"winner_ids"`
	EndHandled   bool           `json:"end_handled"`
	MessageID    snowflake.ID   `json:"message_id,omitempty"`
	LogMessageID snowflake.ID   `json:"log_message_id,omitempty"`
}

// IsExpired reports whether the end time has passed. It says nothing about
// whether expiry processing already ran; see EndHandled.
func (g *Giveaway) IsExpired(now time.Time) bool {
	return !g.EndTime.After(now)
}

// HasEntrant reports whether the user joined.
func (g *Giveaway) HasEntrant(userID snowflake.ID) bool {
	return slices.Contains(g.Entrants, userID)
}

// RemoveEntrant drops the user from the entrant list and reports whether it was present.
func (g *Giveaway) RemoveEntrant(userID snowflake.ID) bool {
	i := slices.Index(g.Entrants, userID)
	if i < 0 {
		return false
	}
	g.Entrants = slices.Delete(g.Entrants, i, i+1)
	return true
}

// Duration is the planned (or, after a manual end, actual) running time.
func (g *Giveaway) Duration() time.Duration {
	return g.EndTime.Sub(g.StartTime)
}

// Clone returns a deep copy that is safe to read without holding the record lock.
func (g *Giveaway) Clone() *Giveaway {
	c := *g
	c.Entrants = slices.Clone(g.Entrants)
	c.WinnerIDs = slices.Clone(g.WinnerIDs)
	return &c
}

// JoinResult is the outcome of a successful join call.
type JoinResult int

const (
	JoinResultJoined JoinResult = iota
	JoinResultAlreadyJoined
)

func (r JoinResult) String() string {
	switch r {
	case JoinResultJoined:
		return "joined"
	case JoinResultAlreadyJoined:
		return "already_joined"
	}
	return "unknown"
}
