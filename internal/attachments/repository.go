package attachments

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles mission attachment metadata persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attachments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts attachment metadata. The ID must be set by the caller so
// the S3 key can embed it before the row exists.
func (r *Repository) Create(ctx context.Context, a *models.Attachment) error {
	const q = `INSERT INTO attachments (id, mission_id, uploaded_by, file_name, content_type, s3_key, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	return r.pool.QueryRow(ctx, q, a.ID, a.MissionID, a.UploadedBy, a.FileName, a.ContentType, a.S3Key, a.FileSize).
		Scan(&a.CreatedAt)
}

// GetByID returns attachment metadata.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	const q = `SELECT id, mission_id, uploaded_by, file_name, COALESCE(content_type, ''), s3_key, file_size, created_at
		FROM attachments WHERE id = $1`
	var a models.Attachment
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.MissionID, &a.UploadedBy, &a.FileName, &a.ContentType, &a.S3Key, &a.FileSize, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByMission returns attachments for a mission, newest first.
func (r *Repository) ListByMission(ctx context.Context, missionID uuid.UUID) ([]models.Attachment, error) {
	const q = `SELECT id, mission_id, uploaded_by, file_name, COALESCE(content_type, ''), s3_key, file_size, created_at
		FROM attachments WHERE mission_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Attachment
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.MissionID, &a.UploadedBy, &a.FileName, &a.ContentType, &a.S3Key, &a.FileSize, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Delete removes attachment metadata.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	return err
}
