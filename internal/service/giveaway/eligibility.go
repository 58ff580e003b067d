package giveaway

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// Validator checks whether a user may win: a current guild member, not
// excluded, holding no excluded role. It is evaluated at draw time, never at
// join time.
type Validator struct {
	members    MemberDirectory
	exclusions ExclusionChecker
	log        zerolog.Logger
}

func NewValidator(members MemberDirectory, exclusions ExclusionChecker, log zerolog.Logger) *Validator {
	return &Validator{members: members, exclusions: exclusions, log: log}
}

// Valid reports whether the user is eligible in the guild. Lookup failures
// count as ineligible.
func (v *Validator) Valid(ctx context.Context, guildID, userID snowflake.ID) bool {
	if userID == 0 {
		return false
	}
	if v.exclusions.IsUserExcluded(guildID, userID) {
		return false
	}
	member, ok, err := v.members.Member(ctx, guildID, userID)
	if err != nil {
		v.log.Warn().Err(err).
			Str("guild_id", guildID.String()).
			Str("user_id", userID.String()).
			Msg("Member lookup failed, treating user as ineligible")
		return false
	}
	if !ok {
		return false
	}
	return !v.exclusions.AnyRoleExcluded(guildID, member.RoleIDs)
}

// CountExcluded returns how many entrants are known to be ineligible:
// excluded users and cached members holding an excluded role. It reads
// local state only, so entrants missing from the member cache are not
// counted. Departed members are already removed from the entrants.
func (v *Validator) CountExcluded(g *dg.Giveaway) int {
	n := 0
	for _, userID := range g.Entrants {
		if v.exclusions.IsUserExcluded(g.GuildID, userID) {
			n++
			continue
		}
		if member, ok := v.members.CachedMember(g.GuildID, userID); ok &&
			v.exclusions.AnyRoleExcluded(g.GuildID, member.RoleIDs) {
			n++
		}
	}
	return n
}
