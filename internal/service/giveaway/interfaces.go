package giveaway

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// MemberDirectory resolves live guild membership. ok is false when the user
// is not a member of the guild.
type MemberDirectory interface {
	Member(ctx context.Context, guildID, userID snowflake.ID) (member dg.Member, ok bool, err error)
	// CachedMember answers from local state only and never blocks on the network.
	CachedMember(guildID, userID snowflake.ID) (member dg.Member, ok bool)
}

// ExclusionChecker answers exclusion lookups for a guild.
type ExclusionChecker interface {
	IsUserExcluded(guildID, userID snowflake.ID) bool
	AnyRoleExcluded(guildID snowflake.ID, roleIDs []snowflake.ID) bool
}

// ExclusionLoader fills the exclusion lists of a guild from storage.
type ExclusionLoader interface {
	Reload(ctx context.Context, guildID snowflake.ID) error
}

// Eligibility decides whether a user may win in a guild.
type Eligibility interface {
	Valid(ctx context.Context, guildID, userID snowflake.ID) bool
}

// View is a detached snapshot handed to presentation.
type View struct {
	Giveaway         *dg.Giveaway
	ExcludedEntrants int
	Active           bool
}

// Notifier renders giveaways to the chat platform. Every call is
// best-effort from the lifecycle's point of view: errors are logged by the
// caller and never roll back state.
type Notifier interface {
	// Announce posts the public message with the join control and returns its id.
	Announce(ctx context.Context, v View) (snowflake.ID, error)
	// RefreshAnnouncement re-renders the public message.
	RefreshAnnouncement(ctx context.Context, v View) error
	// PostLog posts the information view to the guild's log channel.
	PostLog(ctx context.Context, v View) (snowflake.ID, error)
	// RefreshLog re-renders the log channel message.
	RefreshLog(ctx context.Context, v View) error
	// LogEnded posts the expiry outcome to the log channel.
	LogEnded(ctx context.Context, v View) error
}

// Cache mirrors saved giveaways. Get returns nil when nothing is cached.
type Cache interface {
	Get(ctx context.Context, id dg.ID) (*dg.Giveaway, error)
	Set(ctx context.Context, g *dg.Giveaway) error
}
