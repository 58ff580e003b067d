package http

import (
	"net/http"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gin-gonic/gin"

	apperrors "github.com/open-builders/giveaway-discord-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
)

// GiveawayHandlers exposes read-only giveaway endpoints per guild.
type GiveawayHandlers struct {
	service Giveaways
}

func NewGiveawayHandlers(svc Giveaways) *GiveawayHandlers {
	return &GiveawayHandlers{service: svc}
}

func (h *GiveawayHandlers) Register(r gin.IRouter) {
	guild := r.Group("/guilds/:guild")
	guild.GET("/giveaways", h.listActive)
	guild.GET("/giveaways/:id", h.getByID)
	guild.GET("/giveaways/:id/entrants", h.entrants)
}

// GiveawayResponse is a giveaway with its derived state.
type GiveawayResponse struct {
	*dg.Giveaway
	Active           bool `json:"active"`
	ExcludedEntrants int  `json:"excluded_entrants"`
}

// ListResponse wraps the active giveaways of a guild.
type ListResponse struct {
	Giveaways []*dg.Giveaway `json:"giveaways"`
	Total     int            `json:"total"`
}

// EntrantsResponse lists the entrants of a giveaway.
type EntrantsResponse struct {
	ID       dg.ID          `json:"id"`
	Entrants []snowflake.ID `json:"entrants"`
	Total    int            `json:"total"`
}

// @Summary List active giveaways
// @Tags giveaways
// @Produce json
// @Param guild path string true "Guild ID"
// @Success 200 {object} ListResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /guilds/{guild}/giveaways [get]
func (h *GiveawayHandlers) listActive(c *gin.Context) {
	guildID, ok := guildParam(c)
	if !ok {
		return
	}
	list := h.service.ListActive(guildID)
	if list == nil {
		list = []*dg.Giveaway{}
	}
	c.JSON(http.StatusOK, ListResponse{Giveaways: list, Total: len(list)})
}

// @Summary Get giveaway by ID
// @Tags giveaways
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Giveaway ID"
// @Success 200 {object} GiveawayResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /guilds/{guild}/giveaways/{id} [get]
func (h *GiveawayHandlers) getByID(c *gin.Context) {
	guildID, id, ok := giveawayParams(c)
	if !ok {
		return
	}
	v, err := h.service.Information(c.Request.Context(), guildID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, GiveawayResponse{
		Giveaway:         v.Giveaway,
		Active:           v.Active,
		ExcludedEntrants: v.ExcludedEntrants,
	})
}

// @Summary Get giveaway entrants
// @Tags giveaways
// @Produce json
// @Param guild path string true "Guild ID"
// @Param id path string true "Giveaway ID"
// @Success 200 {object} EntrantsResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /guilds/{guild}/giveaways/{id}/entrants [get]
func (h *GiveawayHandlers) entrants(c *gin.Context) {
	guildID, id, ok := giveawayParams(c)
	if !ok {
		return
	}
	v, err := h.service.Information(c.Request.Context(), guildID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	entrants := v.Giveaway.Entrants
	if entrants == nil {
		entrants = []snowflake.ID{}
	}
	c.JSON(http.StatusOK, EntrantsResponse{ID: v.Giveaway.ID, Entrants: entrants, Total: len(entrants)})
}

func guildParam(c *gin.Context) (snowflake.ID, bool) {
	raw := c.Param("guild")
	guildID, err := snowflake.Parse(raw)
	if err != nil || guildID == 0 {
		_ = c.Error(apperrors.NewInvalidIDError(raw))
		return 0, false
	}
	return guildID, true
}

func giveawayParams(c *gin.Context) (snowflake.ID, dg.ID, bool) {
	guildID, ok := guildParam(c)
	if !ok {
		return 0, dg.NilID, false
	}
	raw := c.Param("id")
	id, err := dg.ParseID(raw)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidIDError(raw))
		return 0, dg.NilID, false
	}
	return guildID, id, true
}
