package volunteers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles volunteer profile persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a volunteers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertProfile creates or updates a volunteer's profile bio.
func (r *Repository) UpsertProfile(ctx context.Context, userID uuid.UUID, bio string) error {
	const q = `INSERT INTO volunteer_profiles (user_id, bio)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (user_id) DO UPDATE SET bio = EXCLUDED.bio, updated_at = NOW()`
	_, err := r.pool.Exec(ctx, q, userID, bio)
	return err
}

// GetProfile returns a volunteer's profile without skills. Returns nil when
// the volunteer has not set one up yet.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.VolunteerProfile, error) {
	const q = `SELECT user_id, COALESCE(bio, ''), created_at, updated_at FROM volunteer_profiles WHERE user_id = $1`
	var p models.VolunteerProfile
	err := r.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &p.Bio, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
