package http

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-builders/giveaway-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
	svc "github.com/open-builders/giveaway-bot/internal/service/giveaway"
)

// GiveawayService is the part of the giveaway service exposed over HTTP.
type GiveawayService interface {
	StartGiveaway(ctx context.Context, n dg.NewGiveaway) (*dg.Giveaway, error)
	List(ctx context.Context) ([]*dg.Giveaway, error)
	Get(ctx context.Context, id string) (*dg.Giveaway, error)
	Join(ctx context.Context, messageID, userID string) (bool, error)
	Leave(ctx context.Context, messageID, userID string) (bool, error)
	Reroll(ctx context.Context, guildID string) (*svc.RerollResult, error)
}

// StartGiveawayRequest creates a giveaway in a guild channel.
type StartGiveawayRequest struct {
	GuildID         string `json:"guild_id" binding:"required"`
	ChannelID       string `json:"channel_id" binding:"required"`
	Prize           string `json:"prize" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,gt=0,lte=525600"`
	Winners         int    `json:"winners" binding:"required,gt=0"`
	Conditions      string `json:"conditions"`
}

type ParticipantRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// ParticipantResponse reports whether a join or leave changed the set.
type ParticipantResponse struct {
	Changed bool `json:"changed"`
}

type GiveawayHandlers struct {
	service GiveawayService
}

func NewGiveawayHandlers(service GiveawayService) *GiveawayHandlers {
	return &GiveawayHandlers{service: service}
}

func (h *GiveawayHandlers) Register(r *gin.RouterGroup) {
	g := r.Group("/giveaways")
	g.POST("", h.start)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/message/:message_id/participants", h.join)
	g.DELETE("/message/:message_id/participants/:user_id", h.leave)

	r.POST("/guilds/:guild_id/reroll", h.reroll)
}

// start godoc
// @Summary      Start a giveaway
// @Description  Posts the announcement in the channel, stores the giveaway and schedules its resolution
// @Tags         giveaways
// @Accept       json
// @Produce      json
// @Param        request  body      StartGiveawayRequest  true  "Giveaway"
// @Success      201      {object}  giveaway.Giveaway
// @Failure      400      {object}  middleware.ErrorResponse
// @Failure      404      {object}  middleware.ErrorResponse
// @Security     AdminToken
// @Router       /giveaways [post]
func (h *GiveawayHandlers) start(c *gin.Context) {
	var req StartGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.Wrap(err, errors.ErrCodeValidation, "Invalid request body"))
		return
	}

	g, err := h.service.StartGiveaway(c.Request.Context(), dg.NewGiveaway{
		Scope:           dg.Scope{GuildID: req.GuildID, ChannelID: req.ChannelID},
		Prize:           req.Prize,
		DurationMinutes: req.DurationMinutes,
		WinnerCount:     req.Winners,
		Conditions:      req.Conditions,
	})
	if err != nil {
		_ = c.Error(toAppError(err, req.ChannelID))
		return
	}
	c.JSON(http.StatusCreated, g)
}

// list godoc
// @Summary  List open giveaways
// @Tags     giveaways
// @Produce  json
// @Success  200  {array}  giveaway.Giveaway
// @Security AdminToken
// @Router   /giveaways [get]
func (h *GiveawayHandlers) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.NewDatabaseError("list giveaways", err))
		return
	}
	if list == nil {
		list = []*dg.Giveaway{}
	}
	c.JSON(http.StatusOK, list)
}

// get godoc
// @Summary  Get an open giveaway
// @Tags     giveaways
// @Produce  json
// @Param    id   path      string  true  "Giveaway ID"
// @Success  200  {object}  giveaway.Giveaway
// @Failure  404  {object}  middleware.ErrorResponse
// @Security AdminToken
// @Router   /giveaways/{id} [get]
func (h *GiveawayHandlers) get(c *gin.Context) {
	id := c.Param("id")
	g, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(toAppError(err, id))
		return
	}
	c.JSON(http.StatusOK, g)
}

// join godoc
// @Summary  Add a participant
// @Tags     participants
// @Accept   json
// @Produce  json
// @Param    message_id  path      string              true  "Announcement message ID"
// @Param    request     body      ParticipantRequest  true  "Participant"
// @Success  200         {object}  ParticipantResponse
// @Security AdminToken
// @Router   /giveaways/message/{message_id}/participants [post]
func (h *GiveawayHandlers) join(c *gin.Context) {
	var req ParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.Wrap(err, errors.ErrCodeValidation, "Invalid request body"))
		return
	}
	changed, err := h.service.Join(c.Request.Context(), c.Param("message_id"), req.UserID)
	if err != nil {
		_ = c.Error(errors.NewDatabaseError("join giveaway", err))
		return
	}
	c.JSON(http.StatusOK, ParticipantResponse{Changed: changed})
}

// leave godoc
// @Summary  Remove a participant
// @Tags     participants
// @Produce  json
// @Param    message_id  path      string  true  "Announcement message ID"
// @Param    user_id     path      string  true  "User ID"
// @Success  200         {object}  ParticipantResponse
// @Security AdminToken
// @Router   /giveaways/message/{message_id}/participants/{user_id} [delete]
func (h *GiveawayHandlers) leave(c *gin.Context) {
	changed, err := h.service.Leave(c.Request.Context(), c.Param("message_id"), c.Param("user_id"))
	if err != nil {
		_ = c.Error(errors.NewDatabaseError("leave giveaway", err))
		return
	}
	c.JSON(http.StatusOK, ParticipantResponse{Changed: changed})
}

// reroll godoc
// @Summary      Reroll winners
// @Description  Redraws the winners of the guild's most recently ended giveaway
// @Tags         giveaways
// @Produce      json
// @Param        guild_id  path      string  true  "Guild ID"
// @Success      200       {object}  giveaway.RerollResult
// @Failure      404       {object}  middleware.ErrorResponse
// @Security     AdminToken
// @Router       /guilds/{guild_id}/reroll [post]
func (h *GiveawayHandlers) reroll(c *gin.Context) {
	guildID := c.Param("guild_id")
	res, err := h.service.Reroll(c.Request.Context(), guildID)
	if err != nil {
		_ = c.Error(toAppError(err, guildID))
		return
	}
	c.JSON(http.StatusOK, res)
}

func toAppError(err error, ref string) *errors.AppError {
	switch {
	case stderrors.Is(err, dg.ErrMissingScope):
		return errors.NewValidationError("guild_id", err.Error())
	case stderrors.Is(err, dg.ErrMissingPrize):
		return errors.NewValidationError("prize", err.Error())
	case stderrors.Is(err, dg.ErrInvalidDuration):
		return errors.NewValidationError("duration_minutes", err.Error())
	case stderrors.Is(err, dg.ErrInvalidWinners):
		return errors.NewValidationError("winners", err.Error())
	case stderrors.Is(err, dg.ErrNotFound):
		return errors.NewGiveawayNotFoundError(ref)
	case stderrors.Is(err, svc.ErrChannelNotFound):
		return errors.NewChannelNotFoundError(ref)
	case stderrors.Is(err, svc.ErrNoHistory):
		return errors.New(errors.ErrCodeNoHistory, "No resolved giveaway in this guild").WithDetail("guild_id", ref)
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	return errors.Wrap(err, errors.ErrCodeInternal, "Giveaway operation failed")
}
