package templates

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/pkg/response"
)

// Handler handles mission template HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a templates handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the payload for creating a mission template.
type CreateRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=200"`
	Description     string `json:"description" binding:"required,max=5000"`
	EstimatedHours  int    `json:"estimated_hours" binding:"required,min=1,max=2000"`
	DifficultyLevel string `json:"difficulty_level" binding:"required,oneof=beginner intermediate advanced"`
}

// Create handles POST /templates. Admin only (enforced by route middleware).
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t := &models.MissionTemplate{
		Title:           req.Title,
		Description:     req.Description,
		EstimatedHours:  req.EstimatedHours,
		DifficultyLevel: req.DifficultyLevel,
		CreatedBy:       userID,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		h.logger.Error("failed to create template", zap.Error(err))
		response.Internal(c, "failed to create template")
		return
	}
	response.Created(c, t)
}

// List handles GET /templates.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load templates")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /templates/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "template not found")
			return
		}
		response.Internal(c, "failed to load template")
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /templates/:id. Admin only.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete template")
		return
	}
	response.NoContent(c)
}
