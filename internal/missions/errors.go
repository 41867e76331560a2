package missions

import "errors"

// Lifecycle error taxonomy. Every status-changing operation returns
// success or exactly one of these; handlers map them to HTTP codes.
var (
	// ErrNotFound means the referenced mission or application does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition means the mission or application was not in a
	// status that permits the operation (stale client or race lost).
	// Always recoverable by re-fetching state.
	ErrInvalidTransition = errors.New("status does not permit this operation")

	// ErrNotAuthorized means the caller is neither the accepted volunteer
	// nor an approved member of the owning organization.
	ErrNotAuthorized = errors.New("not authorized for this mission")

	// ErrDuplicateApplication means the volunteer already applied to the mission.
	ErrDuplicateApplication = errors.New("already applied to this mission")

	// ErrNoAcceptedVolunteer means the mission has no accepted application.
	ErrNoAcceptedVolunteer = errors.New("mission has no accepted volunteer")
)
