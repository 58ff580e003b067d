package giveaway

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Repository defines persistence operations for the Giveaway aggregate.
// Giveaways are never deleted.
type Repository interface {
	// CreateOrUpdate upserts the record together with its entrants and winners.
	CreateOrUpdate(ctx context.Context, g *Giveaway) error
	// CreateOrUpdateAll upserts a batch in one transaction.
	CreateOrUpdateAll(ctx context.Context, gs []*Giveaway) error
	GetByID(ctx context.Context, id ID) (*Giveaway, error)
	LoadAll(ctx context.Context) ([]*Giveaway, error)
}

// ExclusionRepository persists exclusion records.
type ExclusionRepository interface {
	AddUser(ctx context.Context, u ExcludedUser) error
	RemoveUser(ctx context.Context, guildID, userID snowflake.ID) error
	UsersByGuild(ctx context.Context, guildID snowflake.ID) ([]ExcludedUser, error)
	AddRole(ctx context.Context, r ExcludedRole) error
	RemoveRole(ctx context.Context, guildID, roleID snowflake.ID) error
	RolesByGuild(ctx context.Context, guildID snowflake.ID) ([]ExcludedRole, error)
}
