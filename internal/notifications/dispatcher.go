package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/models"
	"github.com/shieldmate/backend/pkg/queue"
)

// EmailLookup resolves a user's email address for the email side channel.
type EmailLookup interface {
	EmailByID(ctx context.Context, id uuid.UUID) (string, error)
}

// Dispatcher is the fire-and-forget notification sink: it writes the
// in-app notification row and enqueues an email job for the worker.
// Failures are logged and never propagated: a lost notification must
// not fail the state transition that triggered it.
type Dispatcher struct {
	repo   *Repository
	queue  *queue.Queue
	emails EmailLookup
	logger *zap.Logger
}

// NewDispatcher creates a notification dispatcher. queue and emails may
// be nil, in which case only the in-app row is written.
func NewDispatcher(repo *Repository, q *queue.Queue, emails EmailLookup, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{repo: repo, queue: q, emails: emails, logger: logger}
}

// Notify delivers a notification to a user, best-effort.
func (d *Dispatcher) Notify(ctx context.Context, recipientID uuid.UUID, message, link string) {
	n := &models.Notification{RecipientID: recipientID, Message: message, Link: link}
	if err := d.repo.Create(ctx, n); err != nil {
		d.logger.Warn("notification insert failed", zap.String("recipient_id", recipientID.String()), zap.Error(err))
		return
	}
	if d.queue == nil || d.emails == nil {
		return
	}
	email, err := d.emails.EmailByID(ctx, recipientID)
	if err != nil {
		d.logger.Warn("notification email lookup failed", zap.String("recipient_id", recipientID.String()), zap.Error(err))
		return
	}
	err = d.queue.EnqueueNotificationEmail(ctx, queue.NotificationEmailPayload{
		NotificationID: n.ID,
		RecipientEmail: email,
		Subject:        "ShieldMate update",
		Body:           message + "\n\n" + link,
	})
	if err != nil {
		d.logger.Warn("notification email enqueue failed", zap.String("notification_id", n.ID.String()), zap.Error(err))
	}
}
