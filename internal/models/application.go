package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the decision state of a volunteer application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a volunteer's request to work a specific mission.
// At most one application exists per (mission, volunteer) pair, and a
// mission has at most one accepted application at any time.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	MissionID   uuid.UUID         `json:"mission_id"`
	VolunteerID uuid.UUID         `json:"volunteer_id"`
	Message     string            `json:"application_message,omitempty"`
	Status      ApplicationStatus `json:"status"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
