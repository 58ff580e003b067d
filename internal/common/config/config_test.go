package config

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Color(0x7837FF), cfg.Giveaway.Color)
	assert.Equal(t, time.Second, cfg.Giveaway.ExpiryTick)
	assert.Equal(t, 10*time.Second, cfg.Discord.RequestTimeout)
	assert.Equal(t, "data/giveaways.db", cfg.Database.Path)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLogChannels(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LOG_CHANNELS", "100:200,300:400")
	t.Setenv("GIVEAWAY_COLOR", "16711680")

	cfg, err := Load()
	require.NoError(t, err)

	channels, err := cfg.LogChannels()
	require.NoError(t, err)
	assert.Equal(t, map[snowflake.ID]snowflake.ID{100: 200, 300: 400}, channels)
	assert.Equal(t, Color(0xFF0000), cfg.Giveaway.Color)
}

func TestLogChannelsRejectsGarbage(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LOG_CHANNELS", "guild:channel")

	cfg, err := Load()
	require.NoError(t, err)

	_, err = cfg.LogChannels()
	assert.Error(t, err)
}
