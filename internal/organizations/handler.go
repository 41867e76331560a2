package organizations

import (
	"errors"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/pkg/response"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an organizations handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the payload for creating an organization.
type CreateRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description" binding:"max=2000"`
	Website     string `json:"website" binding:"omitempty,url"`
}

// Create handles POST /organizations. The creator becomes an approved owner.
func (h *Handler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		response.BadRequest(c, "slug must be lowercase letters, digits and hyphens")
		return
	}
	org := &models.Organization{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Website:     req.Website,
	}
	if err := h.repo.Create(c.Request.Context(), org); err != nil {
		h.logger.Error("failed to create organization", zap.Error(err))
		response.Conflict(c, "organization slug already taken")
		return
	}
	if err := h.repo.AddMember(c.Request.Context(), org.ID, userID, models.OrgRoleOwner, models.MemberStatusApproved); err != nil {
		h.logger.Error("failed to add owner membership", zap.String("org_id", org.ID.String()), zap.Error(err))
		response.Internal(c, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// GetBySlug handles GET /organizations/:slug.
func (h *Handler) GetBySlug(c *gin.Context) {
	org, err := h.repo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}
	response.OK(c, org)
}

// Join handles POST /organizations/:id/members. The caller becomes a
// pending member until an owner approves them.
func (h *Handler) Join(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if _, err := h.repo.GetByID(c.Request.Context(), orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}
	if err := h.repo.AddMember(c.Request.Context(), orgID, userID, models.OrgRoleMember, models.MemberStatusPending); err != nil {
		h.logger.Error("failed to add member", zap.String("org_id", orgID.String()), zap.Error(err))
		response.Internal(c, "failed to join organization")
		return
	}
	response.OK(c, gin.H{"status": models.MemberStatusPending})
}

// ApproveMember handles PATCH /organizations/:id/members/:userId. Owner only.
func (h *Handler) ApproveMember(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	owner, err := h.repo.IsOwner(c.Request.Context(), orgID, userID)
	if err != nil {
		response.Internal(c, "failed to check membership")
		return
	}
	if !owner {
		response.Forbidden(c, "only organization owners can approve members")
		return
	}
	ok, err := h.repo.ApproveMember(c.Request.Context(), orgID, memberID)
	if err != nil {
		response.Internal(c, "failed to approve member")
		return
	}
	if !ok {
		response.NotFound(c, "no pending membership for this user")
		return
	}
	response.OK(c, gin.H{"status": models.MemberStatusApproved})
}

// ListMine handles GET /organizations/mine.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load organizations")
		return
	}
	response.OK(c, list)
}

// ListMembers handles GET /organizations/:id/members. Approved members only.
func (h *Handler) ListMembers(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	member, err := h.repo.IsApprovedMember(c.Request.Context(), orgID, userID)
	if err != nil {
		response.Internal(c, "failed to check membership")
		return
	}
	if !member {
		response.Forbidden(c, "you are not an approved member of this organization")
		return
	}
	members, err := h.repo.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}
