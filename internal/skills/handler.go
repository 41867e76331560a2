package skills

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/pkg/response"
)

// Handler handles skill taxonomy HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a skills handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the payload for adding a skill to the taxonomy.
type CreateRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=80"`
	Category string `json:"category" binding:"max=80"`
}

// Create handles POST /skills. Admin only (enforced by route middleware).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	skill, err := h.repo.Create(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		h.logger.Error("failed to create skill", zap.Error(err))
		response.Internal(c, "failed to create skill")
		return
	}
	response.Created(c, skill)
}

// List handles GET /skills.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load skills")
		return
	}
	response.OK(c, list)
}
