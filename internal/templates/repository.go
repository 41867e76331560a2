package templates

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles mission template persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a templates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, title, description, estimated_hours, difficulty_level, created_by, created_at, updated_at`

func scanTemplate(row interface{ Scan(dest ...any) error }) (*models.MissionTemplate, error) {
	var t models.MissionTemplate
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.EstimatedHours, &t.DifficultyLevel, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a mission template.
func (r *Repository) Create(ctx context.Context, t *models.MissionTemplate) error {
	const q = `INSERT INTO mission_templates (id, title, description, estimated_hours, difficulty_level, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.Title, t.Description, t.EstimatedHours, t.DifficultyLevel, t.CreatedBy).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a template by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.MissionTemplate, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM mission_templates WHERE id = $1`, id))
}

// List returns all templates, newest first.
func (r *Repository) List(ctx context.Context) ([]*models.MissionTemplate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM mission_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.MissionTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Delete removes a template.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM mission_templates WHERE id = $1`, id)
	return err
}
