package models

import (
	"time"

	"github.com/google/uuid"
)

// Skill is one entry of the platform skill taxonomy.
type Skill struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// VolunteerProfile is a volunteer's public profile with skills.
type VolunteerProfile struct {
	UserID    uuid.UUID `json:"user_id"`
	Bio       string    `json:"bio,omitempty"`
	Skills    []Skill   `json:"skills"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
