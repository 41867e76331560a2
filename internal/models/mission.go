package models

import (
	"time"

	"github.com/google/uuid"
)

// MissionStatus is the lifecycle status of a mission.
type MissionStatus string

const (
	// MissionOpen accepts volunteer applications.
	MissionOpen MissionStatus = "open"
	// MissionInProgress has exactly one accepted volunteer working it.
	MissionInProgress MissionStatus = "in_progress"
	// MissionPendingClosure means one party proposed closure and the
	// counterpart has not yet confirmed or disputed.
	MissionPendingClosure MissionStatus = "pending_closure"
	// MissionCompleted is terminal; ratings become available.
	MissionCompleted MissionStatus = "completed"
	// MissionCancelled is terminal and reachable only from open.
	MissionCancelled MissionStatus = "cancelled"
)

// Mission difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Mission is a bounded volunteer engagement posted by an organization.
type Mission struct {
	ID              uuid.UUID     `json:"id"`
	OrganizationID  uuid.UUID     `json:"organization_id"`
	TemplateID      *uuid.UUID    `json:"template_id,omitempty"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	EstimatedHours  int           `json:"estimated_hours"`
	DifficultyLevel string        `json:"difficulty_level"`
	Status          MissionStatus `json:"status"`

	// Closure negotiation metadata. InitiatorID and InitiatedAt are set
	// while status is pending_closure and cleared on dispute; ClosedAt
	// is set if and only if status is completed.
	ClosureInitiatorID *uuid.UUID `json:"closure_initiator_id,omitempty"`
	ClosureInitiatedAt *time.Time `json:"closure_initiated_at,omitempty"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`

	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OpenMission is the public-safe discovery view of an open mission.
type OpenMission struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	OrgName         string    `json:"org_name"`
	EstimatedHours  int       `json:"estimated_hours"`
	DifficultyLevel string    `json:"difficulty_level"`
	Skills          []string  `json:"skills"`
}
