package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment is a file attached to a mission by one of its parties (S3-backed).
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	MissionID   uuid.UUID `json:"mission_id"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type,omitempty"`
	S3Key       string    `json:"s3_key,omitempty"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}
