package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/pkg/queue"
)

// EmailLogRepository records notification email attempts.
type EmailLogRepository struct {
	pool *pgxpool.Pool
}

// NewEmailLogRepository creates an email log repository.
func NewEmailLogRepository(pool *pgxpool.Pool) *EmailLogRepository {
	return &EmailLogRepository{pool: pool}
}

// Create inserts a pending log row for a job and returns its ID.
func (r *EmailLogRepository) Create(ctx context.Context, payload queue.NotificationEmailPayload) (*uuid.UUID, error) {
	const q = `INSERT INTO email_logs (id, notification_id, email_type, recipient_email, subject, status)
		VALUES (gen_random_uuid(), $1, NULLIF($2, ''), $3, $4, 'pending')
		RETURNING id`
	var notifID *uuid.UUID
	if payload.NotificationID != uuid.Nil {
		notifID = &payload.NotificationID
	}
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, q, notifID, payload.EmailType, payload.RecipientEmail, payload.Subject).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// MarkSent flips a log row to sent.
func (r *EmailLogRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = 'sent', sent_at = $2 WHERE id = $1`, id, at)
	return err
}

// MarkFailed flips a log row to failed with the error message.
func (r *EmailLogRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = 'failed', error = $2 WHERE id = $1`, id, errMsg)
	return err
}
