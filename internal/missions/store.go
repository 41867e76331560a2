package missions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shieldmate/backend/internal/models"
)

// Store is the persistence surface the lifecycle engine runs on.
//
// Every status-changing method is a conditional update: it applies the
// mutation only if the row is still in the expected status and reports
// whether a row was actually changed. The conditional update is the
// concurrency primitive: two racing callers get exactly one winner,
// and the loser sees false, never a corrupted record.
type Store interface {
	GetMission(ctx context.Context, id uuid.UUID) (*models.Mission, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)

	// AcceptedApplication returns the mission's single accepted
	// application, or ErrNoAcceptedVolunteer.
	AcceptedApplication(ctx context.Context, missionID uuid.UUID) (*models.Application, error)

	IsApprovedOrgMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
	ApprovedOrgMemberIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)

	// CreateApplication inserts a pending application against an open
	// mission. Returns ErrDuplicateApplication on the (mission, volunteer)
	// natural key, ErrInvalidTransition if the mission is not open.
	CreateApplication(ctx context.Context, app *models.Application) error

	// AcceptApplicationAndActivate is the compound activation update:
	// application pending→accepted, sibling pending applications→rejected,
	// mission open→in_progress. All or nothing; false if the mission had
	// already left open or the application left pending.
	AcceptApplicationAndActivate(ctx context.Context, missionID, applicationID uuid.UUID, at time.Time) (bool, error)

	// RejectApplication flips one application pending→rejected.
	RejectApplication(ctx context.Context, applicationID uuid.UUID, at time.Time) (bool, error)

	// MarkPendingClosure transitions in_progress→pending_closure and
	// records the closure initiator.
	MarkPendingClosure(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error)

	// MarkCompleted transitions pending_closure→completed and sets
	// closed_at. The update is additionally keyed on the initiator the
	// caller validated against, so a confirm that raced with a dispute
	// and a fresh proposal by the other side misses and returns false.
	MarkCompleted(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error)

	// ReopenFromPendingClosure transitions pending_closure→in_progress
	// and clears the closure initiator fields. Keyed on the initiator the
	// caller observed, like MarkCompleted.
	ReopenFromPendingClosure(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error)

	// CancelOpenMission transitions open→cancelled.
	CancelOpenMission(ctx context.Context, missionID uuid.UUID, at time.Time) (bool, error)

	// ExpirePendingClosures force-completes every mission whose closure
	// was initiated at or before cutoff, in one batch update, and returns
	// the affected mission IDs.
	ExpirePendingClosures(ctx context.Context, cutoff, closedAt time.Time) ([]uuid.UUID, error)
}
