package discord

import (
	"context"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
)

// gone reports whether a REST error means the target no longer exists.
func gone(err error) bool {
	return rest.IsJSONErrorCode(err,
		rest.JSONErrorCodeUnknownMessage,
		rest.JSONErrorCodeUnknownChannel,
	)
}

func (b *Bot) publicComponents(v gs.View) []discord.LayoutComponent {
	if !v.Active {
		return nil
	}
	return []discord.LayoutComponent{discord.NewActionRow(joinButton(v.Giveaway.ID))}
}

// Announce posts the public giveaway message with its join button.
func (b *Bot) Announce(ctx context.Context, v gs.View) (snowflake.ID, error) {
	msg := discord.NewMessageCreateBuilder().
		SetEmbeds(PublicEmbed(v, b.opts.Color)).
		AddComponents(b.publicComponents(v)...).
		Build()

	var id snowflake.ID
	err := b.call(ctx, "announce giveaway", func(opts ...rest.RequestOpt) error {
		m, err := b.client.Rest.CreateMessage(v.Giveaway.ChannelID, msg, opts...)
		if err != nil {
			return err
		}
		id = m.ID
		return nil
	})
	return id, err
}

// RefreshAnnouncement re-renders the public message. Ended giveaways lose
// their join button. A deleted message is logged and skipped.
func (b *Bot) RefreshAnnouncement(ctx context.Context, v gs.View) error {
	g := v.Giveaway
	if g.MessageID == 0 {
		b.log.Warn().Str("giveaway_id", g.ID.String()).Msg("Giveaway has no public message")
		return nil
	}

	update := discord.NewMessageUpdateBuilder().SetEmbeds(PublicEmbed(v, b.opts.Color))
	if v.Active {
		update.SetComponents(b.publicComponents(v)...)
	} else {
		update.ClearComponents()
	}
	return b.update(ctx, "update giveaway message", g, g.ChannelID, g.MessageID, update.Build())
}

func (b *Bot) logChannel(guildID snowflake.ID) (snowflake.ID, bool) {
	id, ok := b.opts.LogChannels[guildID]
	return id, ok && id != 0
}

// PostLog mirrors a new giveaway to the guild's log channel. Guilds
// without a log channel are skipped.
func (b *Bot) PostLog(ctx context.Context, v gs.View) (snowflake.ID, error) {
	return b.postLog(ctx, v.Giveaway.GuildID, "post giveaway log", LogEmbed(v))
}

// RefreshLog re-renders the log channel copy of the giveaway.
func (b *Bot) RefreshLog(ctx context.Context, v gs.View) error {
	g := v.Giveaway
	channelID, ok := b.logChannel(g.GuildID)
	if !ok || g.LogMessageID == 0 {
		return nil
	}
	update := discord.NewMessageUpdateBuilder().SetEmbeds(LogEmbed(v)).Build()
	return b.update(ctx, "update giveaway log", g, channelID, g.LogMessageID, update)
}

// LogEnded posts the outcome of an ended giveaway.
func (b *Bot) LogEnded(ctx context.Context, v gs.View) error {
	_, err := b.postLog(ctx, v.Giveaway.GuildID, "log giveaway result", EndedEmbed(v))
	return err
}

func (b *Bot) UserExcluded(ctx context.Context, u dg.ExcludedUser) error {
	_, err := b.postLog(ctx, u.GuildID, "log user exclusion", UserExclusionEmbed(u, u.StaffMemberID, true))
	return err
}

func (b *Bot) UserIncluded(ctx context.Context, u dg.ExcludedUser, staffMemberID snowflake.ID) error {
	_, err := b.postLog(ctx, u.GuildID, "log user inclusion", UserExclusionEmbed(u, staffMemberID, false))
	return err
}

func (b *Bot) RoleExcluded(ctx context.Context, r dg.ExcludedRole) error {
	_, err := b.postLog(ctx, r.GuildID, "log role exclusion", RoleExclusionEmbed(r, r.StaffMemberID, true))
	return err
}

func (b *Bot) RoleIncluded(ctx context.Context, r dg.ExcludedRole, staffMemberID snowflake.ID) error {
	_, err := b.postLog(ctx, r.GuildID, "log role inclusion", RoleExclusionEmbed(r, staffMemberID, false))
	return err
}

func (b *Bot) postLog(ctx context.Context, guildID snowflake.ID, what string, embed discord.Embed) (snowflake.ID, error) {
	channelID, ok := b.logChannel(guildID)
	if !ok {
		b.log.Debug().Str("guild_id", guildID.String()).Msg("No log channel configured")
		return 0, nil
	}

	msg := discord.NewMessageCreateBuilder().SetEmbeds(embed).Build()
	var id snowflake.ID
	err := b.call(ctx, what, func(opts ...rest.RequestOpt) error {
		m, err := b.client.Rest.CreateMessage(channelID, msg, opts...)
		if err != nil {
			return err
		}
		id = m.ID
		return nil
	})
	return id, err
}

func (b *Bot) update(ctx context.Context, what string, g *dg.Giveaway, channelID, messageID snowflake.ID, update discord.MessageUpdate) error {
	err := b.call(ctx, what, func(opts ...rest.RequestOpt) error {
		_, err := b.client.Rest.UpdateMessage(channelID, messageID, update, opts...)
		return err
	})
	if err != nil && gone(err) {
		b.log.Warn().
			Str("giveaway_id", g.ID.String()).
			Str("channel_id", channelID.String()).
			Str("message_id", messageID.String()).
			Msg("Giveaway message no longer exists")
		return nil
	}
	return err
}
