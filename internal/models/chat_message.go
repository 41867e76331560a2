package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is a message exchanged between mission parties during execution.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	MissionID uuid.UUID `json:"mission_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
