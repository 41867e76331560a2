package models

import (
	"time"

	"github.com/google/uuid"
)

// MissionTemplate is a reusable mission blueprint (e.g. "Build a donation page").
type MissionTemplate struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	EstimatedHours  int       `json:"estimated_hours"`
	DifficultyLevel string    `json:"difficulty_level"`
	CreatedBy       uuid.UUID `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
