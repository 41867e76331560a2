package missions

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/pkg/response"
)

// Handler handles mission HTTP endpoints.
type Handler struct {
	svc    *Service
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a missions handler.
func NewHandler(svc *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, repo: repo, logger: logger}
}

// RespondError maps lifecycle errors to API responses. Race losses are
// presented as a refresh prompt, not a generic failure.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "not found")
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(c, "you are not a party to this mission")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, "this mission's status just changed, please refresh")
	case errors.Is(err, ErrDuplicateApplication):
		response.Conflict(c, "you already applied to this mission")
	case errors.Is(err, ErrNoAcceptedVolunteer):
		response.Conflict(c, "this mission has no accepted volunteer")
	default:
		response.Internal(c, "something went wrong")
	}
}

// CreateRequest is the body for POST /missions.
type CreateRequest struct {
	OrganizationID  uuid.UUID   `json:"organization_id" binding:"required"`
	TemplateID      *uuid.UUID  `json:"template_id"`
	Title           string      `json:"title" binding:"required"`
	Description     string      `json:"description" binding:"required"`
	EstimatedHours  int         `json:"estimated_hours" binding:"required,min=1"`
	DifficultyLevel string      `json:"difficulty_level" binding:"required,oneof=beginner intermediate advanced"`
	SkillIDs        []uuid.UUID `json:"skill_ids"`
}

// Create handles POST /missions. Requires an approved member of the target org.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	member, err := h.repo.IsApprovedOrgMember(c.Request.Context(), req.OrganizationID, userID)
	if err != nil {
		response.Internal(c, "failed to check membership")
		return
	}
	if !member {
		response.Forbidden(c, "you are not an approved member of this organization")
		return
	}
	m := &models.Mission{
		OrganizationID:  req.OrganizationID,
		TemplateID:      req.TemplateID,
		Title:           req.Title,
		Description:     req.Description,
		EstimatedHours:  req.EstimatedHours,
		DifficultyLevel: req.DifficultyLevel,
		CreatedBy:       userID,
	}
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("create mission failed", zap.Error(err))
		response.Internal(c, "failed to create mission")
		return
	}
	if len(req.SkillIDs) > 0 {
		if err := h.repo.SetSkills(c.Request.Context(), m.ID, req.SkillIDs); err != nil {
			h.logger.Warn("set mission skills failed", zap.String("mission_id", m.ID.String()), zap.Error(err))
		}
	}
	response.Created(c, m)
}

// GetByID handles GET /missions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	m, err := h.repo.GetMission(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	skills, _ := h.repo.SkillNames(c.Request.Context(), id)
	response.OK(c, gin.H{"mission": m, "skills": skills})
}

// ListOpen handles GET /missions/open (public discovery; open missions only).
func (h *Handler) ListOpen(c *gin.Context) {
	list, err := h.repo.ListOpen(c.Request.Context())
	if err != nil {
		h.logger.Error("list open missions failed", zap.Error(err))
		response.Internal(c, "failed to load missions")
		return
	}
	response.OK(c, list)
}

// ListByOrganization handles GET /organizations/:id/missions (approved members).
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	member, err := h.repo.IsApprovedOrgMember(c.Request.Context(), orgID, userID)
	if err != nil || !member {
		response.Forbidden(c, "you are not an approved member of this organization")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load missions")
		return
	}
	response.OK(c, list)
}

// ListApplied handles GET /missions/applied: missions the current
// volunteer has applied to.
func (h *Handler) ListApplied(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListForVolunteer(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load missions")
		return
	}
	response.OK(c, list)
}

// ProposeClosure handles POST /missions/:id/closure/propose.
func (h *Handler) ProposeClosure(c *gin.Context) {
	h.transition(c, h.svc.ProposeClosure)
}

// ConfirmClosure handles POST /missions/:id/closure/confirm.
func (h *Handler) ConfirmClosure(c *gin.Context) {
	h.transition(c, h.svc.ConfirmClosure)
}

// DisputeClosure handles POST /missions/:id/closure/dispute.
func (h *Handler) DisputeClosure(c *gin.Context) {
	h.transition(c, h.svc.DisputeClosure)
}

// Cancel handles POST /missions/:id/cancel (open missions only, org side).
func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.CancelMission)
}

// BulkDeleteRequest is the body for DELETE /missions (admin cleanup).
type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1"`
}

// BulkDelete handles DELETE /missions. Admin only.
func (h *Handler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.repo.DeleteByIDs(c.Request.Context(), req.IDs)
	if err != nil {
		h.logger.Error("bulk delete failed", zap.Error(err))
		response.Internal(c, "failed to delete missions")
		return
	}
	response.OK(c, gin.H{"deleted": n})
}

// transition runs one lifecycle operation for the :id mission on behalf
// of the current user and writes the standard response.
func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, missionID, userID uuid.UUID) (*models.Mission, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m, err := op(c.Request.Context(), id, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	response.OK(c, m)
}
