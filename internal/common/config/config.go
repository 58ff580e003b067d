package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/disgoorg/snowflake/v2"
	"github.com/joho/godotenv"
)

// Color is an embed color, accepted as decimal or 0x-prefixed hex.
type Color int

func (c *Color) UnmarshalText(text []byte) error {
	v, err := strconv.ParseInt(string(text), 0, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	*c = Color(v)
	return nil
}

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Discord struct {
		Token          string        `env:"DISCORD_TOKEN,required,notEmpty"`
		GuildID        string        `env:"DISCORD_GUILD_ID"`
		RequestTimeout time.Duration `env:"DISCORD_REQUEST_TIMEOUT" envDefault:"10s"`
		RateLimit      float64       `env:"DISCORD_RATE_LIMIT" envDefault:"4"`
		RateBurst      int           `env:"DISCORD_RATE_BURST" envDefault:"10"`
	}

	Giveaway struct {
		// guildID:channelID pairs
		LogChannels map[string]string `env:"LOG_CHANNELS" envSeparator:"," envKeyValSeparator:":"`
		Color       Color             `env:"GIVEAWAY_COLOR" envDefault:"0x7837FF"`
		ExpiryTick  time.Duration     `env:"EXPIRY_TICK" envDefault:"1s"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"data/giveaways.db"`
	}

	Redis struct {
		// Пустой адрес отключает Redis
		Addr     string        `env:"REDIS_ADDR"`
		Password string        `env:"REDIS_PASSWORD" envDefault:""`
		DB       int           `env:"REDIS_DB" envDefault:"0"`
		CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"30s"`
	}

	Server struct {
		// Empty disables the admin API.
		Addr           string   `env:"HTTP_ADDR" envDefault:":8080"`
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// Игнорируем ошибку, если .env файл не найден
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Giveaway.ExpiryTick <= 0 {
		return nil, fmt.Errorf("EXPIRY_TICK must be positive")
	}
	return cfg, nil
}

// LogChannels returns the configured audit channel per guild.
func (c *Config) LogChannels() (map[snowflake.ID]snowflake.ID, error) {
	out := make(map[snowflake.ID]snowflake.ID, len(c.Giveaway.LogChannels))
	for guild, channel := range c.Giveaway.LogChannels {
		guildID, err := snowflake.Parse(guild)
		if err != nil {
			return nil, fmt.Errorf("LOG_CHANNELS: invalid guild id %q: %w", guild, err)
		}
		channelID, err := snowflake.Parse(channel)
		if err != nil {
			return nil, fmt.Errorf("LOG_CHANNELS: invalid channel id %q: %w", channel, err)
		}
		out[guildID] = channelID
	}
	return out, nil
}
