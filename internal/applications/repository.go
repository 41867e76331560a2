package applications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles application read queries. Status-changing writes go
// through the missions lifecycle service, never through this repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an applications repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const applicationColumns = `id, mission_id, volunteer_id, COALESCE(application_message, ''), status, applied_at, updated_at`

// ListByMission returns all applications for a mission, newest first.
func (r *Repository) ListByMission(ctx context.Context, missionID uuid.UUID) ([]models.Application, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications WHERE mission_id = $1 ORDER BY applied_at DESC`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Application
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.MissionID, &a.VolunteerID, &a.Message, &a.Status, &a.AppliedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListByVolunteer returns the volunteer's applications, newest first.
func (r *Repository) ListByVolunteer(ctx context.Context, volunteerID uuid.UUID) ([]models.Application, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+applicationColumns+` FROM applications WHERE volunteer_id = $1 ORDER BY applied_at DESC`, volunteerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Application
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.MissionID, &a.VolunteerID, &a.Message, &a.Status, &a.AppliedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
