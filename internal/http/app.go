package http

import (
	"context"
	"database/sql"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/open-builders/giveaway-discord-bot/docs"
	common "github.com/open-builders/giveaway-discord-bot/internal/common/middleware"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	mw "github.com/open-builders/giveaway-discord-bot/internal/http/middleware"
	redisp "github.com/open-builders/giveaway-discord-bot/internal/platform/redis"
	gs "github.com/open-builders/giveaway-discord-bot/internal/service/giveaway"
)

// Giveaways is the read side of the giveaway service.
type Giveaways interface {
	ListActive(guildID snowflake.ID) []*dg.Giveaway
	Information(ctx context.Context, guildID snowflake.ID, id dg.ID) (gs.View, error)
}

// Deps are the collaborators of the admin API. Redis is optional.
type Deps struct {
	Giveaways      Giveaways
	DB             *sql.DB
	Redis          *redisp.Client
	CacheTTL       time.Duration
	AllowedOrigins []string
	Debug          bool
	Log            zerolog.Logger
}

// NewRouter builds the gin engine with routes and middlewares wired.
func NewRouter(d Deps) *gin.Engine {
	if !d.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(common.RequestID())
	router.Use(common.Logger(d.Log))
	router.Use(common.Recovery(d.Log))
	router.Use(common.ErrorHandler(d.Log))

	corsConfig := cors.DefaultConfig()
	if len(d.AllowedOrigins) == 0 || (len(d.AllowedOrigins) == 1 && d.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	health := NewHealthHandlers(d.DB, d.Redis)
	health.Register(router)

	v1 := router.Group("/api/v1")
	if d.Redis != nil && d.CacheTTL > 0 {
		v1.Use(mw.RedisCache(d.Redis, d.CacheTTL, d.Log))
	}
	NewGiveawayHandlers(d.Giveaways).Register(v1)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}
