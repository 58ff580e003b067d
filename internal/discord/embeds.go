package discord

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/dustin/go-humanize"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
)

const (
	colorGreen  = 0x2ECC71
	colorOrange = 0xE67E22

	maxTitleLength      = 255
	maxFieldValueLength = 1024

	joinPrefix = "join-ga-"
)

// JoinCustomID is the custom id of the join button of a giveaway.
func JoinCustomID(id dg.ID) string { return joinPrefix + id.String() }

// ParseJoinCustomID extracts the giveaway id from a join button custom id.
func ParseJoinCustomID(customID string) (dg.ID, bool) {
	raw, ok := strings.CutPrefix(customID, joinPrefix)
	if !ok {
		return dg.NilID, false
	}
	id, err := dg.ParseID(raw)
	if err != nil {
		return dg.NilID, false
	}
	return id, true
}

func joinButton(id dg.ID) discord.ButtonComponent {
	return discord.NewButton(discord.ButtonStylePrimary, "Enter Giveaway", JoinCustomID(id), "", 0).
		WithEmoji(discord.ComponentEmoji{Name: "🎉"})
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func mentionUser(id snowflake.ID) string    { return fmt.Sprintf("<@%d>", id) }
func mentionChannel(id snowflake.ID) string { return fmt.Sprintf("<#%d>", id) }
func mentionRole(id snowflake.ID) string    { return fmt.Sprintf("<@&%d>", id) }

func timestamp(t time.Time) string { return fmt.Sprintf("<t:%d:f>", t.Unix()) }

func messageLink(guildID, channelID, messageID snowflake.ID) string {
	return fmt.Sprintf("https://discord.com/channels/%d/%d/%d", guildID, channelID, messageID)
}

func inline() *bool {
	b := true
	return &b
}

func field(name, value string) discord.EmbedField {
	return discord.EmbedField{Name: name, Value: truncate(value, maxFieldValueLength)}
}

func inlineField(name, value string) discord.EmbedField {
	f := field(name, value)
	f.Inline = inline()
	return f
}

func count(n int) string { return humanize.Comma(int64(n)) }

func quantity(n int, singular string) string {
	if n == 1 {
		return "1 " + singular
	}
	return count(n) + " " + singular + "s"
}

// userList renders "• <@id> (id)" lines.
func userList(ids []snowflake.ID) string {
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("• %s (%d)", mentionUser(id), id)
	}
	return strings.Join(lines, "\n")
}

func endLabel(v gs.View) string {
	if v.Active {
		return "Ends"
	}
	return "Ended"
}

func now() *time.Time {
	t := time.Now()
	return &t
}

// PublicEmbed is the announcement shown in the giveaway channel.
func PublicEmbed(v gs.View, color int) discord.Embed {
	g := v.Giveaway
	marker := "🎉 "
	if !v.Active {
		marker = "🏁 [Ended] "
	}

	fields := make([]discord.EmbedField, 0, 4)
	if v.Active {
		fields = append(fields, field("\u200b", "Click **Enter Giveaway** below to join!"))
	}
	fields = append(fields,
		inlineField("Number of Winners", count(g.WinnerCount)),
		inlineField(endLabel(v), timestamp(g.EndTime)),
	)
	if !v.Active && len(g.WinnerIDs) > 0 {
		fields = append(fields, field(pluralTitle(len(g.WinnerIDs), "Winner"), userList(g.WinnerIDs)))
	}

	e := discord.Embed{
		Title:       truncate(marker+g.Title, maxTitleLength),
		Description: g.Description,
		Color:       color,
		Fields:      fields,
	}
	if g.ImageURI != "" {
		e.Image = &discord.EmbedResource{URL: g.ImageURI}
	}
	return e
}

func pluralTitle(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}

// InformationEmbed describes a giveaway in full, for staff.
func InformationEmbed(v gs.View, color int) discord.Embed {
	g := v.Giveaway
	message := "Not posted"
	if g.MessageID != 0 {
		message = fmt.Sprintf("[%d](%s)", g.MessageID, messageLink(g.GuildID, g.ChannelID, g.MessageID))
	}

	fields := []discord.EmbedField{
		field("Title", g.Title),
		field("Description", g.Description),
		inlineField("ID", g.ID.String()),
		inlineField("Channel", mentionChannel(g.ChannelID)),
		inlineField("Message", message),
		inlineField("Number of Winners", count(g.WinnerCount)),
		inlineField(endLabel(v), timestamp(g.EndTime)),
		inlineField("Creator", mentionUser(g.CreatorID)),
		inlineField("Entrants", count(len(g.Entrants))),
		inlineField("Excluded Entrants", count(v.ExcludedEntrants)),
	}
	if g.ImageURI != "" {
		fields = append(fields, inlineField("Image", fmt.Sprintf("[View](%s)", g.ImageURI)))
	}
	if len(g.WinnerIDs) > 0 {
		fields = append(fields, field(pluralTitle(len(g.WinnerIDs), "Winner"), userList(g.WinnerIDs)))
	}

	return discord.Embed{
		Title:  "Giveaway Information",
		Color:  color,
		Fields: fields,
	}
}

// LogEmbed is the information view kept up to date in the log channel.
func LogEmbed(v gs.View) discord.Embed {
	e := InformationEmbed(v, colorGreen)
	e.Title = "Giveaway Created"
	e.Timestamp = &v.Giveaway.StartTime
	return e
}

// EndedEmbed is the expiry outcome posted to the log channel.
func EndedEmbed(v gs.View) discord.Embed {
	g := v.Giveaway
	fields := []discord.EmbedField{
		field("Title", g.Title),
		field("Description", g.Description),
		inlineField("ID", g.ID.String()),
		inlineField("Number of Winners", count(g.WinnerCount)),
		inlineField("Duration", humanDuration(g.StartTime, g.EndTime)),
		inlineField("Entrants", count(len(g.Entrants))),
		inlineField("Excluded Entrants", count(v.ExcludedEntrants)),
	}

	e := discord.Embed{Timestamp: now()}
	winners := len(g.WinnerIDs)
	switch {
	case winners == 0:
		e.Title = "Giveaway Ended (No Winners)"
		e.Color = colorOrange
		e.Description = fmt.Sprintf("The giveaway **%s** ended without any eligible winners.", g.Title)
	case winners < g.WinnerCount:
		e.Title = "Giveaway Ended (Not Enough Winners)"
		e.Color = colorOrange
		e.Description = fmt.Sprintf("The giveaway **%s** ended with %s out of %d.",
			g.Title, quantity(winners, "winner"), g.WinnerCount)
	default:
		e.Title = "Giveaway Ended"
		e.Color = colorGreen
		e.Description = fmt.Sprintf("The giveaway **%s** ended with %s.", g.Title, quantity(winners, "winner"))
	}
	if winners > 0 {
		fields = append(fields, field(pluralTitle(winners, "Winner"), userList(g.WinnerIDs)))
	}
	e.Fields = fields
	return e
}

func humanDuration(start, end time.Time) string {
	return strings.TrimSpace(humanize.RelTime(start, end, "", ""))
}

// EntrantsEmbed lists everyone who joined.
func EntrantsEmbed(v gs.View, color int) discord.Embed {
	g := v.Giveaway
	list := userList(g.Entrants)
	if list == "" {
		list = "Nobody has entered yet."
	}
	return discord.Embed{
		Title:       truncate("Entrants of "+g.Title, maxTitleLength),
		Description: truncate(list, 4096),
		Color:       color,
		Fields:      []discord.EmbedField{inlineField("Entrants", count(len(g.Entrants)))},
	}
}

func exclusionEmbed(title string, color int, label, target string, staffMemberID snowflake.ID, reason string) discord.Embed {
	fields := []discord.EmbedField{
		inlineField(label, target),
		inlineField("Staff Member", mentionUser(staffMemberID)),
	}
	if strings.TrimSpace(reason) != "" {
		fields = append(fields, field("Reason", reason))
	}
	return discord.Embed{Title: title, Color: color, Fields: fields, Timestamp: now()}
}

// UserExclusionEmbed records a user exclusion change.
func UserExclusionEmbed(u dg.ExcludedUser, staffMemberID snowflake.ID, added bool) discord.Embed {
	target := fmt.Sprintf("%s (%d)", mentionUser(u.UserID), u.UserID)
	if added {
		return exclusionEmbed("User exclusion added", colorOrange, "User", target, staffMemberID, u.Reason)
	}
	return exclusionEmbed("User exclusion removed", colorGreen, "User", target, staffMemberID, "")
}

// RoleExclusionEmbed records a role exclusion change.
func RoleExclusionEmbed(r dg.ExcludedRole, staffMemberID snowflake.ID, added bool) discord.Embed {
	target := fmt.Sprintf("%s (%d)", mentionRole(r.RoleID), r.RoleID)
	if added {
		return exclusionEmbed("Role exclusion added", colorOrange, "Role", target, staffMemberID, r.Reason)
	}
	return exclusionEmbed("Role exclusion removed", colorGreen, "Role", target, staffMemberID, "")
}
