package discord

import (
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
)

func sampleView(active bool) gs.View {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return gs.View{
		Giveaway: &dg.Giveaway{
			ID:          dg.NewID(),
			GuildID:     1,
			ChannelID:   2,
			MessageID:   3,
			CreatorID:   4,
			Title:       "Steam Key",
			Description: "One key for a lucky member",
			WinnerCount: 2,
			StartTime:   start,
			EndTime:     start.Add(2 * time.Hour),
			Entrants:    []snowflake.ID{10, 11, 12},
		},
		ExcludedEntrants: 1,
		Active:           active,
	}
}

func TestJoinCustomIDRoundTrip(t *testing.T) {
	id := dg.NewID()
	parsed, ok := ParseJoinCustomID(JoinCustomID(id))
	require.True(t, ok)
	assert.Equal(t, id, parsed)

	_, ok = ParseJoinCustomID("other-" + id.String())
	assert.False(t, ok)
	_, ok = ParseJoinCustomID(joinPrefix + "garbage")
	assert.False(t, ok)
}

func TestPublicEmbed(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		v := sampleView(true)
		e := PublicEmbed(v, 0x123456)

		assert.Equal(t, "🎉 Steam Key", e.Title)
		assert.Equal(t, 0x123456, e.Color)
		require.NotEmpty(t, e.Fields)
		assert.Equal(t, "\u200b", e.Fields[0].Name)
		assert.Nil(t, e.Image)
		for _, f := range e.Fields {
			assert.NotEqual(t, "Winners", f.Name)
		}
	})

	t.Run("ended with winners", func(t *testing.T) {
		v := sampleView(false)
		v.Giveaway.WinnerIDs = []snowflake.ID{10, 12}
		v.Giveaway.ImageURI = "https://example.com/key.png"
		e := PublicEmbed(v, 0)

		assert.True(t, strings.HasPrefix(e.Title, "🏁 [Ended] "))
		require.NotNil(t, e.Image)
		assert.Equal(t, "https://example.com/key.png", e.Image.URL)

		last := e.Fields[len(e.Fields)-1]
		assert.Equal(t, "Winners", last.Name)
		assert.Contains(t, last.Value, "<@10> (10)")
		assert.Contains(t, last.Value, "<@12> (12)")
	})
}

func TestEndedEmbed(t *testing.T) {
	tests := []struct {
		name    string
		winners []snowflake.ID
		title   string
		color   int
	}{
		{"no winners", nil, "Giveaway Ended (No Winners)", colorOrange},
		{"not enough", []snowflake.ID{10}, "Giveaway Ended (Not Enough Winners)", colorOrange},
		{"full", []snowflake.ID{10, 11}, "Giveaway Ended", colorGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := sampleView(false)
			v.Giveaway.WinnerIDs = tt.winners
			e := EndedEmbed(v)

			assert.Equal(t, tt.title, e.Title)
			assert.Equal(t, tt.color, e.Color)
			assert.NotNil(t, e.Timestamp)

			var duration string
			for _, f := range e.Fields {
				if f.Name == "Duration" {
					duration = f.Value
				}
			}
			assert.Equal(t, "2 hours", duration)
		})
	}
}

func TestLogEmbedUsesStartTime(t *testing.T) {
	v := sampleView(true)
	e := LogEmbed(v)

	assert.Equal(t, "Giveaway Created", e.Title)
	require.NotNil(t, e.Timestamp)
	assert.True(t, e.Timestamp.Equal(v.Giveaway.StartTime))
	assert.Equal(t, colorGreen, e.Color)
}

func TestInformationEmbedMessageLink(t *testing.T) {
	v := sampleView(true)
	e := InformationEmbed(v, 0)

	values := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "[3](https://discord.com/channels/1/2/3)", values["Message"])
	assert.Equal(t, "3", values["Entrants"])
	assert.Equal(t, "1", values["Excluded Entrants"])
	assert.Equal(t, "Ends", e.Fields[6].Name)

	v.Giveaway.MessageID = 0
	e = InformationEmbed(v, 0)
	assert.Equal(t, "Not posted", e.Fields[4].Value)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))

	long := strings.Repeat("ü", 300)
	got := truncate(long, maxTitleLength)
	assert.Equal(t, maxTitleLength, len([]rune(got)))
}

func TestCountFormatting(t *testing.T) {
	assert.Equal(t, "1,234", count(1234))
	assert.Equal(t, "1 winner", quantity(1, "winner"))
	assert.Equal(t, "0 winners", quantity(0, "winner"))
	assert.Equal(t, "2,000 entrants", quantity(2000, "entrant"))
}

func TestExclusionEmbeds(t *testing.T) {
	added := UserExclusionEmbed(dg.ExcludedUser{GuildID: 1, UserID: 10, Reason: "alt"}, 4, true)
	assert.Equal(t, "User exclusion added", added.Title)
	assert.Equal(t, colorOrange, added.Color)
	require.Len(t, added.Fields, 3)
	assert.Equal(t, "<@10> (10)", added.Fields[0].Value)
	assert.Equal(t, "alt", added.Fields[2].Value)

	removed := RoleExclusionEmbed(dg.ExcludedRole{GuildID: 1, RoleID: 50, Reason: "alt"}, 4, false)
	assert.Equal(t, "Role exclusion removed", removed.Title)
	assert.Equal(t, "Role", removed.Fields[0].Name)
	assert.Len(t, removed.Fields, 2)
}

func TestEntrantsEmbedEmpty(t *testing.T) {
	v := sampleView(true)
	v.Giveaway.Entrants = nil
	e := EntrantsEmbed(v, 0)
	assert.Equal(t, "Nobody has entered yet.", e.Description)
}
