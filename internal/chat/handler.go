package chat

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/pkg/response"
)

// Handler serves persisted chat history over HTTP.
type Handler struct {
	repo   *Repository
	svc    *missions.Service
	logger *zap.Logger
}

// NewHandler creates a chat handler.
func NewHandler(repo *Repository, svc *missions.Service, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, svc: svc, logger: logger}
}

// History handles GET /missions/:id/chat. Mission parties only.
func (h *Handler) History(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	ctx := c.Request.Context()

	m, err := h.svc.Mission(ctx, missionID)
	if err != nil {
		missions.RespondError(c, err)
		return
	}
	if _, err := h.svc.PartyOf(ctx, m, userID); err != nil {
		missions.RespondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.repo.ListByMission(ctx, missionID, limit)
	if err != nil {
		response.Internal(c, "failed to load chat history")
		return
	}
	if list == nil {
		list = []models.ChatMessage{}
	}
	response.OK(c, list)
}
