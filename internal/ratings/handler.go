package ratings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/pkg/response"
)

// Handler handles rating HTTP endpoints.
type Handler struct {
	svc    *Service
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a ratings handler.
func NewHandler(svc *Service, repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, repo: repo, logger: logger}
}

// SubmitRequest is the body for POST /missions/:id/ratings.
type SubmitRequest struct {
	RatedUserID uuid.UUID `json:"rated_user_id" binding:"required"`
	Rating      int       `json:"rating" binding:"required,min=1,max=5"`
	ReviewText  string    `json:"review_text"`
}

// Submit handles POST /missions/:id/ratings.
func (h *Handler) Submit(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rating, err := h.svc.Submit(c.Request.Context(), missionID, userID, req.RatedUserID, req.Rating, req.ReviewText)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissionNotCompleted):
			response.Conflict(c, "ratings unlock once the mission is completed")
		case errors.Is(err, ErrAlreadyRated):
			response.Conflict(c, "you already rated this mission")
		case errors.Is(err, ErrInvalidCounterpart), errors.Is(err, ErrInvalidRating):
			response.BadRequest(c, err.Error())
		default:
			missions.RespondError(c, err)
		}
		return
	}
	response.Created(c, rating)
}

// ListByMission handles GET /missions/:id/ratings.
func (h *Handler) ListByMission(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	list, err := h.repo.ListByMission(c.Request.Context(), missionID)
	if err != nil {
		h.logger.Error("list ratings failed", zap.Error(err))
		response.Internal(c, "failed to load ratings")
		return
	}
	response.OK(c, list)
}

// ListForUser handles GET /users/:id/ratings: ratings a user received,
// with the running average.
func (h *Handler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	list, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load ratings")
		return
	}
	avg, count, err := h.repo.AverageForUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to load ratings")
		return
	}
	response.OK(c, gin.H{"ratings": list, "average": avg, "count": count})
}
