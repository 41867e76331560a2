package applications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/pkg/response"
)

// Handler handles application HTTP endpoints.
type Handler struct {
	svc    *missions.Service
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an applications handler.
func NewHandler(svc *missions.Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, repo: repo, logger: logger}
}

// SubmitRequest is the body for POST /missions/:id/applications.
type SubmitRequest struct {
	Message string `json:"application_message"`
}

// Submit handles POST /missions/:id/applications. Volunteer applies to an open mission.
func (h *Handler) Submit(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	app, err := h.svc.SubmitApplication(c.Request.Context(), missionID, userID, req.Message)
	if err != nil {
		missions.RespondError(c, err)
		return
	}
	response.Created(c, app)
}

// DecideRequest is the body for PATCH /applications/:id.
type DecideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
}

// Decide handles PATCH /applications/:id. Accepting rejects all sibling
// pending applications and moves the mission to in_progress.
func (h *Handler) Decide(c *gin.Context) {
	appID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid application id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "decision must be accept or reject")
		return
	}
	app, err := h.svc.DecideApplication(c.Request.Context(), appID, req.Decision == "accept", userID)
	if err != nil {
		missions.RespondError(c, err)
		return
	}
	response.OK(c, app)
}

// ListByMission handles GET /missions/:id/applications (org side).
func (h *Handler) ListByMission(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	m, err := h.svc.Mission(c.Request.Context(), missionID)
	if err != nil {
		missions.RespondError(c, err)
		return
	}
	if _, err := h.svc.PartyOf(c.Request.Context(), m, userID); err != nil {
		missions.RespondError(c, err)
		return
	}
	list, err := h.repo.ListByMission(c.Request.Context(), missionID)
	if err != nil {
		h.logger.Error("list applications failed", zap.Error(err))
		response.Internal(c, "failed to load applications")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /applications: the current volunteer's applications.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByVolunteer(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load applications")
		return
	}
	response.OK(c, list)
}
