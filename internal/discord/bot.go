// Package discord connects the giveaway lifecycle to Discord: slash
// commands, the join button, member departures and message rendering.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
	"github.com/open-builders/giveaway-discord-bot/internal/utils/timeparse"
)

// Options configures the bot.
type Options struct {
	Token string
	// CommandGuildID registers commands in one guild instead of globally.
	CommandGuildID snowflake.ID
	LogChannels    map[snowflake.ID]snowflake.ID
	Color          int
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int
}

// Giveaways is the lifecycle surface the commands drive.
type Giveaways interface {
	Create(ctx context.Context, opts gs.CreateOptions) (*dg.Giveaway, error)
	Register(ctx context.Context, id dg.ID) error
	Announce(ctx context.Context, id dg.ID) (*dg.Giveaway, error)
	Join(ctx context.Context, guildID snowflake.ID, id dg.ID, userID snowflake.ID) (dg.JoinResult, error)
	RemoveDeparted(ctx context.Context, guildID, userID snowflake.ID) (int, error)
	End(ctx context.Context, guildID snowflake.ID, id dg.ID) (*dg.Giveaway, error)
	Redraw(ctx context.Context, guildID snowflake.ID, id dg.ID, keepRaw string) (*dg.Giveaway, []string, error)
	SetWinnerCount(ctx context.Context, guildID snowflake.ID, id dg.ID, count int) (*dg.Giveaway, error)
	Information(ctx context.Context, guildID snowflake.ID, id dg.ID) (gs.View, error)
	ActiveCounts() map[snowflake.ID]int
}

// Exclusions is the exclusion registry surface the commands drive.
type Exclusions interface {
	Reload(ctx context.Context, guildID snowflake.ID) error
	ExcludeUser(ctx context.Context, guildID, staffMemberID, userID snowflake.ID, reason string) (dg.ExcludedUser, error)
	IncludeUser(ctx context.Context, guildID, staffMemberID, userID snowflake.ID) (bool, error)
	ExcludeRole(ctx context.Context, guildID, staffMemberID, roleID snowflake.ID, reason string) (dg.ExcludedRole, error)
	IncludeRole(ctx context.Context, guildID, staffMemberID, roleID snowflake.ID) (bool, error)
}

// Bot owns the Discord client.
type Bot struct {
	client  *bot.Client
	opts    Options
	limiter *rate.Limiter
	log     zerolog.Logger
	started time.Time

	mu         sync.RWMutex
	ctx        context.Context
	giveaways  Giveaways
	exclusions Exclusions
	times      *timeparse.Parser
}

// New creates the client. Nothing is sent to Discord until Open.
func New(opts Options, log zerolog.Logger) (*Bot, error) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	b := &Bot{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		log:     log,
		started: time.Now(),
		ctx:     context.Background(),
	}

	client, err := disgo.New(opts.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagMembers, cache.FlagRoles, cache.FlagChannels),
		),
		bot.WithEventListenerFunc(b.onCommand),
		bot.WithEventListenerFunc(b.onComponent),
		bot.WithEventListenerFunc(b.onMemberLeave),
		bot.WithEventListenerFunc(b.onGuildReady),
		bot.WithEventListenerFunc(b.onGuildAvailable),
		bot.WithLogger(slog.Default()),
		bot.WithRestClientConfigOpts(
			rest.WithHTTPClient(&http.Client{
				Timeout: 60 * time.Second,
				Transport: &http.Transport{
					MaxIdleConns:        100,
					MaxIdleConnsPerHost: 50,
					IdleConnTimeout:     90 * time.Second,
				},
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create discord client: %w", err)
	}
	b.client = client
	return b, nil
}

// Attach wires the services the handlers call. Call before Open.
func (b *Bot) Attach(giveaways Giveaways, exclusions Exclusions, times *timeparse.Parser) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.giveaways = giveaways
	b.exclusions = exclusions
	b.times = times
}

// Open registers the slash commands and connects to the gateway. ctx is
// used as the parent context of event handling until Close.
func (b *Bot) Open(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	cmds := Commands()
	if b.opts.CommandGuildID != 0 {
		if _, err := b.client.Rest.SetGuildCommands(b.client.ApplicationID, b.opts.CommandGuildID, cmds); err != nil {
			return apperrors.NewDiscordAPIError("register guild commands", err)
		}
	} else if _, err := b.client.Rest.SetGlobalCommands(b.client.ApplicationID, cmds); err != nil {
		return apperrors.NewDiscordAPIError("register global commands", err)
	}
	b.log.Info().Int("commands", len(cmds)).Str("guild_id", b.opts.CommandGuildID.String()).Msg("Slash commands registered")

	if err := b.client.OpenGateway(ctx); err != nil {
		return apperrors.NewDiscordAPIError("open gateway", err)
	}
	b.log.Info().Msg("Connected to Discord gateway")
	return nil
}

// Close disconnects from Discord.
func (b *Bot) Close(ctx context.Context) {
	b.client.Close(ctx)
	b.log.Info().Msg("Disconnected from Discord")
}

// Uptime is the time since the bot was created.
func (b *Bot) Uptime() time.Duration { return time.Since(b.started) }

func (b *Bot) services() (Giveaways, Exclusions, *timeparse.Parser) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.giveaways, b.exclusions, b.times
}

// eventContext bounds the work done for one inbound event.
func (b *Bot) eventContext() (context.Context, context.CancelFunc) {
	b.mu.RLock()
	parent := b.ctx
	b.mu.RUnlock()
	return context.WithTimeout(parent, 2*time.Minute)
}

// call rate limits and bounds a single REST request.
func (b *Bot) call(ctx context.Context, what string, fn func(opts ...rest.RequestOpt) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.RequestTimeout)
	defer cancel()
	if err := b.limiter.Wait(ctx); err != nil {
		return apperrors.NewDiscordAPIError(what, err)
	}
	if err := fn(rest.WithCtx(ctx)); err != nil {
		return apperrors.NewDiscordAPIError(what, err)
	}
	return nil
}
