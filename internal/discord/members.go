package discord

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// Member resolves guild membership from the gateway cache, falling back to
// REST. Unknown members are reported as absent rather than as errors.
func (b *Bot) Member(ctx context.Context, guildID, userID snowflake.ID) (dg.Member, bool, error) {
	if m, ok := b.client.Caches.Member(guildID, userID); ok {
		return toMember(m), true, nil
	}

	var member *discord.Member
	err := b.call(ctx, "get member", func(opts ...rest.RequestOpt) error {
		var err error
		member, err = b.client.Rest.GetMember(guildID, userID, opts...)
		return err
	})
	if err != nil {
		if rest.IsJSONErrorCode(err, rest.JSONErrorCodeUnknownMember, rest.JSONErrorCodeUnknownUser) {
			return dg.Member{}, false, nil
		}
		return dg.Member{}, false, err
	}
	return toMember(*member), true, nil
}

// CachedMember answers from the gateway cache only.
func (b *Bot) CachedMember(guildID, userID snowflake.ID) (dg.Member, bool) {
	m, ok := b.client.Caches.Member(guildID, userID)
	if !ok {
		return dg.Member{}, false
	}
	return toMember(m), true
}

func toMember(m discord.Member) dg.Member {
	return dg.Member{UserID: m.User.ID, RoleIDs: m.RoleIDs}
}
