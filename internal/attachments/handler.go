package attachments

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/middleware"
	"github.com/shieldmate/backend/internal/missions"
	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/pkg/response"
	"github.com/shieldmate/backend/pkg/storage"
)

// Handler handles mission attachment HTTP endpoints.
type Handler struct {
	repo   *Repository
	svc    *missions.Service
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an attachments handler.
func NewHandler(repo *Repository, svc *missions.Service, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, svc: svc, s3: s3, logger: logger}
}

// partyMission loads the mission and checks the caller is a party. Writes
// the error response itself on failure.
func (h *Handler) partyMission(c *gin.Context, missionID, userID uuid.UUID) (*models.Mission, bool) {
	m, err := h.svc.Mission(c.Request.Context(), missionID)
	if err != nil {
		missions.RespondError(c, err)
		return nil, false
	}
	if _, err := h.svc.PartyOf(c.Request.Context(), m, userID); err != nil {
		missions.RespondError(c, err)
		return nil, false
	}
	return m, true
}

// Upload handles POST /missions/:id/attachments (multipart form, "file" field).
// Mission parties only.
func (h *Handler) Upload(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if _, ok := h.partyMission(c, missionID, userID); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxAttachmentSize {
		response.BadRequest(c, "file exceeds the 20MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateAttachmentType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer f.Close()

	a := &models.Attachment{
		ID:          uuid.New(),
		MissionID:   missionID,
		UploadedBy:  userID,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		FileSize:    fileHeader.Size,
	}
	a.S3Key = storage.AttachmentKey(missionID.String(), a.ID.String(), a.FileName)

	if err := h.s3.Upload(c.Request.Context(), a.S3Key, contentType, f, fileHeader.Size); err != nil {
		h.logger.Error("attachment upload failed", zap.String("mission_id", missionID.String()), zap.Error(err))
		response.Internal(c, "failed to upload file")
		return
	}
	if err := h.repo.Create(c.Request.Context(), a); err != nil {
		h.logger.Error("failed to save attachment metadata", zap.String("s3_key", a.S3Key), zap.Error(err))
		response.Internal(c, "failed to save attachment")
		return
	}
	response.Created(c, a)
}

// List handles GET /missions/:id/attachments. Mission parties only.
func (h *Handler) List(c *gin.Context) {
	missionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mission id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if _, ok := h.partyMission(c, missionID, userID); !ok {
		return
	}
	list, err := h.repo.ListByMission(c.Request.Context(), missionID)
	if err != nil {
		response.Internal(c, "failed to load attachments")
		return
	}
	if list == nil {
		list = []models.Attachment{}
	}
	response.OK(c, list)
}

// Download handles GET /attachments/:id/download: returns a pre-signed URL.
// Mission parties only.
func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "attachment not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if _, ok := h.partyMission(c, a.MissionID, userID); !ok {
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), a.S3Key, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign failed", zap.String("s3_key", a.S3Key), zap.Error(err))
		response.Internal(c, "failed to generate download link")
		return
	}
	response.OK(c, gin.H{"url": url, "file_name": a.FileName})
}

// Delete handles DELETE /attachments/:id. Only the uploader may delete.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "attachment not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if a.UploadedBy != userID {
		response.Forbidden(c, "only the uploader can delete an attachment")
		return
	}
	if err := h.s3.DeleteObject(c.Request.Context(), a.S3Key); err != nil {
		h.logger.Warn("failed to delete attachment object", zap.String("s3_key", a.S3Key), zap.Error(err))
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete attachment")
		return
	}
	response.NoContent(c)
}
