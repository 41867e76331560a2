package models

import (
	"time"

	"github.com/google/uuid"
)

// Email kinds sent by the notification worker.
const (
	EmailTypeApplicationAccepted = "application_accepted"
	EmailTypeClosureProposed     = "closure_proposed"
	EmailTypeClosureConfirmed    = "closure_confirmed"
	EmailTypeClosureDisputed     = "closure_disputed"
	EmailTypeAutoClosed          = "auto_closed"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records notification emails attempted by the worker.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
