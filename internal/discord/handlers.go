package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
)

// reply is the ephemeral answer to an interaction.
type reply struct {
	content string
	embeds  []discord.Embed
}

func (r reply) update() discord.MessageUpdate {
	return discord.NewMessageUpdateBuilder().
		SetContent(r.content).
		SetEmbeds(r.embeds...).
		Build()
}

type command struct {
	e       *events.ApplicationCommandInteractionCreate
	data    discord.SlashCommandInteractionData
	guildID snowflake.ID
	userID  snowflake.ID
}

func (b *Bot) onCommand(e *events.ApplicationCommandInteractionCreate) {
	data := e.SlashCommandInteractionData()
	if data.CommandName() != commandName || data.SubCommandName == nil {
		return
	}
	guildID := e.GuildID()
	if guildID == nil {
		_ = e.CreateMessage(discord.NewMessageCreateBuilder().
			SetContent("This command can only be used in a server.").
			SetEphemeral(true).
			Build())
		return
	}
	if err := e.DeferCreateMessage(true); err != nil {
		b.log.Warn().Err(err).Msg("Failed to defer interaction")
		return
	}

	ctx, cancel := b.eventContext()
	defer cancel()

	cmd := command{e: e, data: data, guildID: *guildID, userID: e.User().ID}
	sub := *data.SubCommandName
	log := b.log.With().
		Str("subcommand", sub).
		Str("guild_id", cmd.guildID.String()).
		Str("user_id", cmd.userID.String()).
		Logger()
	log.Debug().Msg("Command received")

	var r reply
	var err error
	switch sub {
	case "create":
		r, err = b.cmdCreate(ctx, cmd)
	case "end":
		r, err = b.cmdEnd(ctx, cmd)
	case "redraw":
		r, err = b.cmdRedraw(ctx, cmd)
	case "setwinners":
		r, err = b.cmdSetWinners(ctx, cmd)
	case "view":
		r, err = b.cmdView(ctx, cmd)
	case "viewentrants":
		r, err = b.cmdViewEntrants(ctx, cmd)
	case "blockuser":
		r, err = b.cmdBlockUser(ctx, cmd)
	case "blockrole":
		r, err = b.cmdBlockRole(ctx, cmd)
	case "unblockuser":
		r, err = b.cmdUnblockUser(ctx, cmd)
	case "unblockrole":
		r, err = b.cmdUnblockRole(ctx, cmd)
	case "info":
		r = b.cmdInfo(cmd)
	default:
		r = reply{content: "Unknown subcommand."}
	}
	if err != nil {
		r = b.errorReply(err)
		log.Debug().Err(err).Msg("Command rejected")
	}

	if _, err := b.client.Rest.UpdateInteractionResponse(e.ApplicationID(), e.Token(), r.update()); err != nil {
		log.Warn().Err(err).Msg("Failed to respond to command")
	}
}

// errorReply turns a rejection into a user-facing message.
func (b *Bot) errorReply(err error) reply {
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.IsInternal() {
		b.log.Error().Err(err).Msg("Command failed")
		return reply{content: "Something went wrong. Please try again later."}
	}
	switch {
	case appErr.Code == apperrors.ErrCodeInvalidID:
		return reply{content: fmt.Sprintf("`%v` is not a valid giveaway ID.", appErr.Details["id"])}
	case appErr.IsNotFound():
		return reply{content: fmt.Sprintf("No giveaway with the ID `%v` was found.", appErr.Details["giveaway_id"])}
	case appErr.IsValidation():
		return reply{content: fmt.Sprintf("Invalid %v: %v.", appErr.Details["field"], appErr.Details["reason"])}
	}
	return reply{content: appErr.Message + "."}
}

func (c command) giveawayID() (dg.ID, error) {
	raw := c.data.String(optID)
	id, err := dg.ParseID(raw)
	if err != nil {
		return dg.NilID, apperrors.NewInvalidIDError(raw)
	}
	return id, nil
}

func (b *Bot) cmdCreate(ctx context.Context, c command) (reply, error) {
	giveaways, _, times := b.services()

	end, err := times.Parse(c.data.String(optEnd), time.Now())
	if err != nil {
		return reply{}, err
	}
	channel, _ := c.data.OptChannel(optChannel)
	image, _ := c.data.OptString(optImage)

	g, err := giveaways.Create(ctx, gs.CreateOptions{
		GuildID:     c.guildID,
		ChannelID:   channel.ID,
		CreatorID:   c.userID,
		Title:       c.data.String(optTitle),
		Description: c.data.String(optDescription),
		ImageURI:    image,
		WinnerCount: c.data.Int(optWinners),
		EndTime:     end,
	})
	if err != nil {
		return reply{}, err
	}
	if err := giveaways.Register(ctx, g.ID); err != nil {
		return reply{}, err
	}
	if _, err := giveaways.Announce(ctx, g.ID); err != nil {
		b.log.Error().Err(err).Str("giveaway_id", g.ID.String()).Msg("Failed to announce giveaway")
		return reply{content: fmt.Sprintf(
			"Giveaway `%s` was created but could not be posted in %s. Check the bot's permissions there.",
			g.ID, mentionChannel(g.ChannelID))}, nil
	}
	return reply{content: fmt.Sprintf("Giveaway `%s` created in %s. It ends %s.",
		g.ID, mentionChannel(g.ChannelID), timestamp(g.EndTime))}, nil
}

func (b *Bot) cmdEnd(ctx context.Context, c command) (reply, error) {
	giveaways, _, _ := b.services()
	id, err := c.giveawayID()
	if err != nil {
		return reply{}, err
	}
	g, err := giveaways.End(ctx, c.guildID, id)
	if g == nil {
		return reply{}, err
	}
	if err != nil {
		b.log.Error().Err(err).Str("giveaway_id", id.String()).Msg("Ended giveaway was not saved")
	}
	return reply{embeds: []discord.Embed{{
		Title:       "Giveaway Ended",
		Description: fmt.Sprintf("The giveaway **%s** ended with 0 winners.", g.Title),
		Color:       colorGreen,
	}}}, nil
}

func (b *Bot) cmdRedraw(ctx context.Context, c command) (reply, error) {
	giveaways, _, _ := b.services()
	id, err := c.giveawayID()
	if err != nil {
		return reply{}, err
	}
	keep, _ := c.data.OptString(optKeepIDs)
	g, invalid, err := giveaways.Redraw(ctx, c.guildID, id, keep)
	if err != nil {
		return reply{}, err
	}

	var r reply
	if len(invalid) > 0 {
		quoted := make([]string, len(invalid))
		for i, token := range invalid {
			quoted[i] = "`" + token + "`"
		}
		r.content = "The following IDs are invalid and were not kept: " + strings.Join(quoted, ", ")
	}
	e := discord.Embed{
		Title: "Giveaway Redrawn",
		Color: colorGreen,
	}
	if len(g.WinnerIDs) == 0 {
		e.Description = fmt.Sprintf("No eligible winners could be drawn for **%s**.", g.Title)
		e.Color = colorOrange
	} else {
		e.Description = fmt.Sprintf("**%s** now has %s.", g.Title, quantity(len(g.WinnerIDs), "winner"))
		e.Fields = []discord.EmbedField{field(pluralTitle(len(g.WinnerIDs), "Winner"), userList(g.WinnerIDs))}
	}
	r.embeds = []discord.Embed{e}
	return r, nil
}

func (b *Bot) cmdSetWinners(ctx context.Context, c command) (reply, error) {
	giveaways, _, _ := b.services()
	id, err := c.giveawayID()
	if err != nil {
		return reply{}, err
	}
	g, err := giveaways.SetWinnerCount(ctx, c.guildID, id, c.data.Int(optWinners))
	if err != nil {
		return reply{}, err
	}
	return reply{content: fmt.Sprintf("Giveaway `%s` now has %s.", g.ID, quantity(g.WinnerCount, "winner"))}, nil
}

func (b *Bot) cmdView(ctx context.Context, c command) (reply, error) {
	giveaways, _, _ := b.services()
	id, err := c.giveawayID()
	if err != nil {
		return reply{}, err
	}
	v, err := giveaways.Information(ctx, c.guildID, id)
	if err != nil {
		return reply{}, err
	}
	return reply{embeds: []discord.Embed{InformationEmbed(v, b.opts.Color)}}, nil
}

func (b *Bot) cmdViewEntrants(ctx context.Context, c command) (reply, error) {
	giveaways, _, _ := b.services()
	id, err := c.giveawayID()
	if err != nil {
		return reply{}, err
	}
	v, err := giveaways.Information(ctx, c.guildID, id)
	if err != nil {
		return reply{}, err
	}
	return reply{embeds: []discord.Embed{EntrantsEmbed(v, b.opts.Color)}}, nil
}

func (b *Bot) cmdBlockUser(ctx context.Context, c command) (reply, error) {
	_, exclusions, _ := b.services()
	user := c.data.User(optUser)
	reason, _ := c.data.OptString(optReason)
	if _, err := exclusions.ExcludeUser(ctx, c.guildID, c.userID, user.ID, reason); err != nil {
		return reply{}, err
	}
	return reply{content: fmt.Sprintf("%s can no longer win giveaways.", mentionUser(user.ID))}, nil
}

func (b *Bot) cmdBlockRole(ctx context.Context, c command) (reply, error) {
	_, exclusions, _ := b.services()
	role := c.data.Role(optRole)
	reason, _ := c.data.OptString(optReason)
	if _, err := exclusions.ExcludeRole(ctx, c.guildID, c.userID, role.ID, reason); err != nil {
		return reply{}, err
	}
	return reply{content: fmt.Sprintf("Members with %s can no longer win giveaways.", mentionRole(role.ID))}, nil
}

func (b *Bot) cmdUnblockUser(ctx context.Context, c command) (reply, error) {
	_, exclusions, _ := b.services()
	user := c.data.User(optUser)
	removed, err := exclusions.IncludeUser(ctx, c.guildID, c.userID, user.ID)
	if err != nil {
		return reply{}, err
	}
	if !removed {
		return reply{content: fmt.Sprintf("%s is not blocked.", mentionUser(user.ID))}, nil
	}
	return reply{content: fmt.Sprintf("%s can win giveaways again.", mentionUser(user.ID))}, nil
}

func (b *Bot) cmdUnblockRole(ctx context.Context, c command) (reply, error) {
	_, exclusions, _ := b.services()
	role := c.data.Role(optRole)
	removed, err := exclusions.IncludeRole(ctx, c.guildID, c.userID, role.ID)
	if err != nil {
		return reply{}, err
	}
	if !removed {
		return reply{content: fmt.Sprintf("%s is not blocked.", mentionRole(role.ID))}, nil
	}
	return reply{content: fmt.Sprintf("Members with %s can win giveaways again.", mentionRole(role.ID))}, nil
}

func (b *Bot) cmdInfo(c command) reply {
	giveaways, _, _ := b.services()
	counts := giveaways.ActiveCounts()
	total := 0
	for _, n := range counts {
		total += n
	}
	return reply{embeds: []discord.Embed{InfoEmbed(b.Uptime(), counts[c.guildID], total, b.opts.Color)}}
}

// InfoEmbed summarizes the bot state.
func InfoEmbed(uptime time.Duration, guildActive, totalActive, color int) discord.Embed {
	return discord.Embed{
		Title: "Bot Information",
		Color: color,
		Fields: []discord.EmbedField{
			inlineField("Uptime", uptime.Truncate(time.Second).String()),
			inlineField("Active Giveaways (this server)", count(guildActive)),
			inlineField("Active Giveaways (total)", count(totalActive)),
		},
	}
}

func (b *Bot) onComponent(e *events.ComponentInteractionCreate) {
	id, ok := ParseJoinCustomID(e.Data.CustomID())
	if !ok {
		return
	}
	guildID := e.GuildID()
	if guildID == nil {
		return
	}
	if err := e.DeferCreateMessage(true); err != nil {
		b.log.Warn().Err(err).Msg("Failed to defer join interaction")
		return
	}

	ctx, cancel := b.eventContext()
	defer cancel()
	giveaways, _, _ := b.services()

	userID := e.User().ID
	var r reply
	res, err := giveaways.Join(ctx, *guildID, id, userID)
	switch {
	case err != nil:
		r = b.errorReply(err)
	case res == dg.JoinResultAlreadyJoined:
		r = reply{content: "You have already entered this giveaway."}
	default:
		r = reply{content: "You have entered the giveaway! 🎉"}
	}

	if _, err := b.client.Rest.UpdateInteractionResponse(e.ApplicationID(), e.Token(), r.update()); err != nil {
		b.log.Warn().Err(err).Str("giveaway_id", id.String()).Msg("Failed to respond to join")
	}
}

func (b *Bot) onMemberLeave(e *events.GuildMemberLeave) {
	ctx, cancel := b.eventContext()
	defer cancel()
	giveaways, _, _ := b.services()

	if _, err := giveaways.RemoveDeparted(ctx, e.GuildID, e.User.ID); err != nil {
		b.log.Error().Err(err).
			Str("guild_id", e.GuildID.String()).
			Str("user_id", e.User.ID.String()).
			Msg("Failed to remove departed member from giveaways")
	}
}

func (b *Bot) onGuildReady(e *events.GuildReady) { b.reloadExclusions(e.GuildID) }

func (b *Bot) onGuildAvailable(e *events.GuildAvailable) { b.reloadExclusions(e.GuildID) }

func (b *Bot) reloadExclusions(guildID snowflake.ID) {
	ctx, cancel := b.eventContext()
	defer cancel()
	_, exclusions, _ := b.services()

	if err := exclusions.Reload(ctx, guildID); err != nil {
		b.log.Error().Err(err).Str("guild_id", guildID.String()).Msg("Failed to load exclusions")
	}
}
