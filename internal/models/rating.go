package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating is post-completion feedback from one party about the other.
// One rating per (mission, rater); never mutated or deleted.
type Rating struct {
	ID          uuid.UUID `json:"id"`
	MissionID   uuid.UUID `json:"mission_id"`
	RaterUserID uuid.UUID `json:"rater_user_id"`
	RatedUserID uuid.UUID `json:"rated_user_id"`
	Rating      int       `json:"rating"`
	ReviewText  string    `json:"review_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
