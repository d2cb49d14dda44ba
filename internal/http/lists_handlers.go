package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/open-builders/giveaway-bot/internal/common/errors"
	dg "github.com/open-builders/giveaway-bot/internal/domain/giveaway"
)

type AllowRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type BlockedWordRequest struct {
	Word string `json:"word" binding:"required"`
}

type ListResponse struct {
	Items []string `json:"items"`
}

// ListsHandlers exposes the allowlist and the blocked-word list.
type ListsHandlers struct {
	lists dg.Lists
}

func NewListsHandlers(lists dg.Lists) *ListsHandlers {
	return &ListsHandlers{lists: lists}
}

func (h *ListsHandlers) Register(r *gin.RouterGroup) {
	allow := r.Group("/allowlist")
	allow.GET("", h.listAllowed)
	allow.GET("/:user_id", h.isAllowed)
	allow.POST("", h.addAllowed)
	allow.DELETE("/:user_id", h.removeAllowed)

	words := r.Group("/blocked-words")
	words.GET("", h.listBlockedWords)
	words.POST("", h.addBlockedWord)
	words.DELETE("/:word", h.removeBlockedWord)
}

// listAllowed godoc
// @Summary  List allowed users
// @Tags     lists
// @Produce  json
// @Success  200  {object}  ListResponse
// @Security AdminToken
// @Router   /allowlist [get]
func (h *ListsHandlers) listAllowed(c *gin.Context) {
	items, err := h.lists.ListAllowed(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.NewDatabaseError("list allowlist", err))
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: nonNil(items)})
}

// isAllowed godoc
// @Summary  Check a user against the allowlist
// @Tags     lists
// @Produce  json
// @Param    user_id  path  string  true  "User ID"
// @Success  200
// @Security AdminToken
// @Router   /allowlist/{user_id} [get]
func (h *ListsHandlers) isAllowed(c *gin.Context) {
	userID := c.Param("user_id")
	ok, err := h.lists.IsAllowed(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(errors.NewDatabaseError("check allowlist", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "allowed": ok})
}

// addAllowed godoc
// @Summary  Allow a user
// @Tags     lists
// @Accept   json
// @Param    request  body  AllowRequest  true  "User"
// @Success  204
// @Security AdminToken
// @Router   /allowlist [post]
func (h *ListsHandlers) addAllowed(c *gin.Context) {
	var req AllowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.Wrap(err, errors.ErrCodeValidation, "Invalid request body"))
		return
	}
	if err := h.lists.AddAllowed(c.Request.Context(), req.UserID); err != nil {
		_ = c.Error(errors.NewDatabaseError("add to allowlist", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// removeAllowed godoc
// @Summary  Remove a user from the allowlist
// @Tags     lists
// @Param    user_id  path  string  true  "User ID"
// @Success  204
// @Security AdminToken
// @Router   /allowlist/{user_id} [delete]
func (h *ListsHandlers) removeAllowed(c *gin.Context) {
	if err := h.lists.RemoveAllowed(c.Request.Context(), c.Param("user_id")); err != nil {
		_ = c.Error(errors.NewDatabaseError("remove from allowlist", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// listBlockedWords godoc
// @Summary  List blocked words
// @Tags     lists
// @Produce  json
// @Success  200  {object}  ListResponse
// @Security AdminToken
// @Router   /blocked-words [get]
func (h *ListsHandlers) listBlockedWords(c *gin.Context) {
	items, err := h.lists.ListBlockedWords(c.Request.Context())
	if err != nil {
		_ = c.Error(errors.NewDatabaseError("list blocked words", err))
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: nonNil(items)})
}

// addBlockedWord godoc
// @Summary  Block a word
// @Tags     lists
// @Accept   json
// @Param    request  body  BlockedWordRequest  true  "Word"
// @Success  204
// @Security AdminToken
// @Router   /blocked-words [post]
func (h *ListsHandlers) addBlockedWord(c *gin.Context) {
	var req BlockedWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.Wrap(err, errors.ErrCodeValidation, "Invalid request body"))
		return
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		_ = c.Error(errors.NewValidationError("word", "must not be blank"))
		return
	}
	if err := h.lists.AddBlockedWord(c.Request.Context(), word); err != nil {
		_ = c.Error(errors.NewDatabaseError("add blocked word", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// removeBlockedWord godoc
// @Summary  Unblock a word
// @Tags     lists
// @Param    word  path  string  true  "Word"
// @Success  204
// @Security AdminToken
// @Router   /blocked-words/{word} [delete]
func (h *ListsHandlers) removeBlockedWord(c *gin.Context) {
	if err := h.lists.RemoveBlockedWord(c.Request.Context(), c.Param("word")); err != nil {
		_ = c.Error(errors.NewDatabaseError("remove blocked word", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
