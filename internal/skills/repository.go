package skills

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles the platform skill taxonomy.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a skills repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a skill. Names are unique; re-creating an existing skill
// returns the existing row.
func (r *Repository) Create(ctx context.Context, name, category string) (*models.Skill, error) {
	const q = `INSERT INTO skills (id, name, category)
		VALUES (gen_random_uuid(), $1, NULLIF($2, ''))
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, COALESCE(category, ''), created_at`
	var s models.Skill
	err := r.pool.QueryRow(ctx, q, name, category).Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all skills ordered by category then name.
func (r *Repository) List(ctx context.Context) ([]models.Skill, error) {
	const q = `SELECT id, name, COALESCE(category, ''), created_at FROM skills ORDER BY category NULLS LAST, name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Skill
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ForUser returns the skills on a volunteer's profile.
func (r *Repository) ForUser(ctx context.Context, userID uuid.UUID) ([]models.Skill, error) {
	const q = `SELECT s.id, s.name, COALESCE(s.category, ''), s.created_at
		FROM skills s
		INNER JOIN volunteer_skills vs ON vs.skill_id = s.id
		WHERE vs.user_id = $1
		ORDER BY s.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Skill
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// SetForUser replaces a volunteer's skill set.
func (r *Repository) SetForUser(ctx context.Context, userID uuid.UUID, skillIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM volunteer_skills WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, id := range skillIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO volunteer_skills (user_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
