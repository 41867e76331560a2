package volunteers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/internal/ratings"
	"github.com/shieldmate/backend/internal/skills"
	"github.com/shieldmate/backend/pkg/response"
)

// Handler handles volunteer profile HTTP endpoints.
type Handler struct {
	repo    *Repository
	skills  *skills.Repository
	ratings *ratings.Repository
	logger  *zap.Logger
}

// NewHandler creates a volunteers handler.
func NewHandler(repo *Repository, skillsRepo *skills.Repository, ratingsRepo *ratings.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, skills: skillsRepo, ratings: ratingsRepo, logger: logger}
}

// UpdateRequest is the payload for updating the caller's volunteer profile.
type UpdateRequest struct {
	Bio      string      `json:"bio" binding:"max=2000"`
	SkillIDs []uuid.UUID `json:"skill_ids"`
}

// UpdateMine handles PUT /volunteers/me.
func (h *Handler) UpdateMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.repo.UpsertProfile(ctx, userID, req.Bio); err != nil {
		h.logger.Error("failed to update profile", zap.String("user_id", userID.String()), zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	if req.SkillIDs != nil {
		if err := h.skills.SetForUser(ctx, userID, req.SkillIDs); err != nil {
			h.logger.Error("failed to update skills", zap.String("user_id", userID.String()), zap.Error(err))
			response.Internal(c, "failed to update skills")
			return
		}
	}
	h.GetByID(c, userID)
}

// GetMine handles GET /volunteers/me.
func (h *Handler) GetMine(c *gin.Context) {
	h.GetByID(c, c.MustGet(middleware.ContextUserID).(uuid.UUID))
}

// Get handles GET /volunteers/:id: a volunteer's public profile with
// skills and rating summary.
func (h *Handler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	h.GetByID(c, userID)
}

// GetByID loads and renders a profile for the given user.
func (h *Handler) GetByID(c *gin.Context, userID uuid.UUID) {
	ctx := c.Request.Context()
	profile, err := h.repo.GetProfile(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load profile")
		return
	}
	if profile == nil {
		profile = &models.VolunteerProfile{UserID: userID}
	}
	profile.Skills, err = h.skills.ForUser(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load skills")
		return
	}
	if profile.Skills == nil {
		profile.Skills = []models.Skill{}
	}
	avg, count, err := h.ratings.AverageForUser(ctx, userID)
	if err != nil {
		response.Internal(c, "failed to load ratings")
		return
	}
	response.OK(c, gin.H{
		"profile":        profile,
		"average_rating": avg,
		"rating_count":   count,
	})
}
