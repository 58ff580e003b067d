package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/snowflake/v2"

	rcache "github.com/open-builders/giveaway-discord-bot/internal/cache/redis"
	"github.com/open-builders/giveaway-discord-bot/internal/common/config"
	"github.com/open-builders/giveaway-discord-bot/internal/common/logger"
	"github.com/open-builders/giveaway-discord-bot/internal/discord"
	apihttp "github.com/open-builders/giveaway-discord-bot/internal/http"
	"github.com/open-builders/giveaway-discord-bot/internal/platform/db"
	redisp "github.com/open-builders/giveaway-discord-bot/internal/platform/redis"
	"github.com/open-builders/giveaway-discord-bot/internal/repository/sqlite"
	"github.com/open-builders/giveaway-discord-bot/internal/service/exclusion"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
	"github.com/open-builders/giveaway-discord-bot/internal/utils/timeparse"
	"github.com/open-builders/giveaway-discord-bot/internal/workers"
)

// @title           Giveaway Bot Admin API
// @version         1.0
// @description     Read-only view of the giveaways tracked by the Discord bot.

// @BasePath  /api/v1

// @tag.name giveaways
// @tag.description Active giveaways, their information view and entrants

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("giveaway-bot", false)
		logger.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init("giveaway-bot", cfg.Debug)

	logChannels, err := cfg.LogChannels()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid log channel configuration")
	}
	var commandGuild snowflake.ID
	if cfg.Discord.GuildID != "" {
		if commandGuild, err = snowflake.Parse(cfg.Discord.GuildID); err != nil {
			logger.Fatal().Err(err).Msg("Invalid DISCORD_GUILD_ID")
		}
	}

	// SQLite
	database, err := db.Open(ctx, logger.Component("sqlite"), cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()
	logger.Info().Str("path", cfg.Database.Path).Msg("Database connection established")

	// Redis (optional)
	var rdb *redisp.Client
	var giveawayCache gs.Cache
	if cfg.Redis.Addr != "" {
		rdb, err = redisp.Open(ctx, logger.Component("redis"), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		giveawayCache = rcache.NewGiveawayCache(rdb, cfg.Redis.CacheTTL)
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	}

	giveawayRepo := sqlite.NewGiveawayRepository(database)
	exclusionRepo := sqlite.NewExclusionRepository(database)

	bot, err := discord.New(discord.Options{
		Token:          cfg.Discord.Token,
		CommandGuildID: commandGuild,
		LogChannels:    logChannels,
		Color:          int(cfg.Giveaway.Color),
		RequestTimeout: cfg.Discord.RequestTimeout,
		RateLimit:      cfg.Discord.RateLimit,
		RateBurst:      cfg.Discord.RateBurst,
	}, logger.Component("discord"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Discord client")
	}

	registry := exclusion.NewRegistry(exclusionRepo, bot, logger.Component("exclusions"))

	store := gs.NewStore(giveawayRepo, giveawayCache, logger.Component("store"))
	tracker := gs.NewTracker()
	validator := gs.NewValidator(bot, registry, logger.Component("eligibility"))
	giveaways := gs.NewService(store, tracker, validator, bot, logger.Component("giveaways"),
		gs.WithExclusionLoader(registry),
	)
	if err := giveaways.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load giveaways")
	}

	times, err := timeparse.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create time parser")
	}

	bot.Attach(giveaways, registry, times)
	if err := bot.Open(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Discord")
	}

	expiry := workers.NewExpiryWorker(giveaways, cfg.Giveaway.ExpiryTick, logger.Component("expiry"))
	if err := expiry.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start expiry worker")
	}

	var server *http.Server
	if cfg.Server.Addr != "" {
		router := apihttp.NewRouter(apihttp.Deps{
			Giveaways:      giveaways,
			DB:             database,
			Redis:          rdb,
			CacheTTL:       cfg.Redis.CacheTTL,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Debug:          cfg.Debug,
			Log:            logger.Component("http"),
		})
		server = &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("HTTP server failed")
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server forced to shutdown")
		}
	}
	expiry.Stop()
	bot.Close(shutdownCtx)

	logger.Info().Msg("Bot exited")
}
