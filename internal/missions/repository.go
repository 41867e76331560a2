package missions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles mission persistence and implements Store for the
// lifecycle service. All transitions are conditional UPDATEs keyed on
// the current status; rows-affected decides the race.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a missions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const missionColumns = `id, organization_id, template_id, title, description, estimated_hours, difficulty_level,
		status, closure_initiator_id, closure_initiated_at, closed_at, created_by, created_at, updated_at`

func scanMission(row pgx.Row) (*models.Mission, error) {
	var m models.Mission
	err := row.Scan(&m.ID, &m.OrganizationID, &m.TemplateID, &m.Title, &m.Description, &m.EstimatedHours,
		&m.DifficultyLevel, &m.Status, &m.ClosureInitiatorID, &m.ClosureInitiatedAt, &m.ClosedAt,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a new mission with status open.
func (r *Repository) Create(ctx context.Context, m *models.Mission) error {
	const q = `INSERT INTO missions (id, organization_id, template_id, title, description, estimated_hours, difficulty_level, status, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'open', $7)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, m.OrganizationID, m.TemplateID, m.Title, m.Description, m.EstimatedHours, m.DifficultyLevel, m.CreatedBy).
		Scan(&m.ID, &m.Status, &m.CreatedAt, &m.UpdatedAt)
}

// GetMission returns a mission by ID.
func (r *Repository) GetMission(ctx context.Context, id uuid.UUID) (*models.Mission, error) {
	return scanMission(r.pool.QueryRow(ctx, `SELECT `+missionColumns+` FROM missions WHERE id = $1`, id))
}

// ListByOrganization returns the org's missions, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Mission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+missionColumns+` FROM missions WHERE organization_id = $1 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// ListForVolunteer returns missions the volunteer has applied to.
func (r *Repository) ListForVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Mission, error) {
	const q = `SELECT ` + missionColumns + ` FROM missions m
		WHERE EXISTS (SELECT 1 FROM applications a WHERE a.mission_id = m.id AND a.volunteer_id = $1)
		ORDER BY m.created_at DESC`
	rows, err := r.pool.Query(ctx, q, volunteerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// ListOpen returns the public discovery view: open missions only, with
// org name and skill names.
func (r *Repository) ListOpen(ctx context.Context) ([]models.OpenMission, error) {
	const q = `SELECT m.id, m.title, o.name, m.estimated_hours, m.difficulty_level,
			COALESCE(array_agg(s.name) FILTER (WHERE s.name IS NOT NULL), '{}')
		FROM missions m
		INNER JOIN organizations o ON o.id = m.organization_id
		LEFT JOIN mission_skills ms ON ms.mission_id = m.id
		LEFT JOIN skills s ON s.id = ms.skill_id
		WHERE m.status = 'open'
		GROUP BY m.id, m.title, o.name, m.estimated_hours, m.difficulty_level, m.created_at
		ORDER BY m.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OpenMission
	for rows.Next() {
		var om models.OpenMission
		if err := rows.Scan(&om.ID, &om.Title, &om.OrgName, &om.EstimatedHours, &om.DifficultyLevel, &om.Skills); err != nil {
			return nil, err
		}
		list = append(list, om)
	}
	return list, rows.Err()
}

// SetSkills replaces the mission's skill links.
func (r *Repository) SetSkills(ctx context.Context, missionID uuid.UUID, skillIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `DELETE FROM mission_skills WHERE mission_id = $1`, missionID); err != nil {
		return err
	}
	for _, sid := range skillIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO mission_skills (mission_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, missionID, sid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SkillNames returns the mission's skill names.
func (r *Repository) SkillNames(ctx context.Context, missionID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.name FROM skills s INNER JOIN mission_skills ms ON ms.skill_id = s.id WHERE ms.mission_id = $1 ORDER BY s.name`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteByIDs removes missions (admin bulk-delete).
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM missions WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// --- Store implementation ---

// GetApplication returns an application by ID.
func (r *Repository) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	const q = `SELECT id, mission_id, volunteer_id, COALESCE(application_message, ''), status, applied_at, updated_at
		FROM applications WHERE id = $1`
	var a models.Application
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.MissionID, &a.VolunteerID, &a.Message, &a.Status, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// AcceptedApplication returns the mission's accepted application, or
// ErrNoAcceptedVolunteer.
func (r *Repository) AcceptedApplication(ctx context.Context, missionID uuid.UUID) (*models.Application, error) {
	const q = `SELECT id, mission_id, volunteer_id, COALESCE(application_message, ''), status, applied_at, updated_at
		FROM applications WHERE mission_id = $1 AND status = 'accepted'`
	var a models.Application
	err := r.pool.QueryRow(ctx, q, missionID).Scan(&a.ID, &a.MissionID, &a.VolunteerID, &a.Message, &a.Status, &a.AppliedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoAcceptedVolunteer
		}
		return nil, err
	}
	return &a, nil
}

// IsApprovedOrgMember reports whether the user is an approved member of the org.
func (r *Repository) IsApprovedOrgMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	const q = `SELECT 1 FROM organization_members WHERE organization_id = $1 AND user_id = $2 AND status = 'approved'`
	var one int
	err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ApprovedOrgMemberIDs returns user IDs of the org's approved members.
func (r *Repository) ApprovedOrgMemberIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM organization_members WHERE organization_id = $1 AND status = 'approved'`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateApplication inserts a pending application; the INSERT is guarded
// on the mission still being open.
func (r *Repository) CreateApplication(ctx context.Context, app *models.Application) error {
	const q = `INSERT INTO applications (id, mission_id, volunteer_id, application_message, status, applied_at)
		SELECT gen_random_uuid(), $1, $2, NULLIF($3, ''), 'pending', $4
		WHERE EXISTS (SELECT 1 FROM missions WHERE id = $1 AND status = 'open')
		RETURNING id, status, applied_at, updated_at`
	err := r.pool.QueryRow(ctx, q, app.MissionID, app.VolunteerID, app.Message, app.AppliedAt).
		Scan(&app.ID, &app.Status, &app.AppliedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidTransition
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

// AcceptApplicationAndActivate applies the activation compound update in
// one transaction: mission open→in_progress first (the serialization
// point), then the application pending→accepted, then sibling pending
// applications→rejected. Any missed predicate rolls everything back.
func (r *Repository) AcceptApplicationAndActivate(ctx context.Context, missionID, applicationID uuid.UUID, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE missions SET status = 'in_progress', updated_at = $2 WHERE id = $1 AND status = 'open'`, missionID, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	tag, err = tx.Exec(ctx, `UPDATE applications SET status = 'accepted', updated_at = $3 WHERE id = $1 AND mission_id = $2 AND status = 'pending'`, applicationID, missionID, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `UPDATE applications SET status = 'rejected', updated_at = $2 WHERE mission_id = $1 AND status = 'pending'`, missionID, at); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RejectApplication flips one application pending→rejected.
func (r *Repository) RejectApplication(ctx context.Context, applicationID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE applications SET status = 'rejected', updated_at = $2 WHERE id = $1 AND status = 'pending'`, applicationID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkPendingClosure transitions in_progress→pending_closure and records the initiator.
func (r *Repository) MarkPendingClosure(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	const q = `UPDATE missions SET status = 'pending_closure', closure_initiator_id = $2, closure_initiated_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'in_progress'`
	tag, err := r.pool.Exec(ctx, q, missionID, initiatorID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompleted transitions pending_closure→completed and sets
// closed_at, but only while the recorded initiator is still the one the
// confirmer was checked against. A dispute plus re-proposal in between
// changes the initiator and makes this update miss.
func (r *Repository) MarkCompleted(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	const q = `UPDATE missions SET status = 'completed', closed_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending_closure' AND closure_initiator_id = $3`
	tag, err := r.pool.Exec(ctx, q, missionID, at, initiatorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ReopenFromPendingClosure transitions pending_closure→in_progress and
// clears the closure initiator fields, keyed on the initiator the
// disputer observed so the dispute cannot cancel a newer proposal.
func (r *Repository) ReopenFromPendingClosure(ctx context.Context, missionID, initiatorID uuid.UUID, at time.Time) (bool, error) {
	const q = `UPDATE missions SET status = 'in_progress', closure_initiator_id = NULL, closure_initiated_at = NULL, updated_at = $2
		WHERE id = $1 AND status = 'pending_closure' AND closure_initiator_id = $3`
	tag, err := r.pool.Exec(ctx, q, missionID, at, initiatorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CancelOpenMission transitions open→cancelled.
func (r *Repository) CancelOpenMission(ctx context.Context, missionID uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE missions SET status = 'cancelled', updated_at = $2 WHERE id = $1 AND status = 'open'`, missionID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExpirePendingClosures force-completes all eligible missions in one
// batch. The predicate naturally excludes missions that already
// transitioned out, making the sweep idempotent.
func (r *Repository) ExpirePendingClosures(ctx context.Context, cutoff, closedAt time.Time) ([]uuid.UUID, error) {
	const q = `UPDATE missions SET status = 'completed', closed_at = $2, updated_at = $2
		WHERE status = 'pending_closure' AND closure_initiated_at <= $1
		RETURNING id`
	rows, err := r.pool.Query(ctx, q, cutoff, closedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
