package ratings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository handles rating persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a ratings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a rating. The (mission_id, rater_user_id) unique
// constraint surfaces as ErrAlreadyRated.
func (r *Repository) Create(ctx context.Context, rating *models.Rating) error {
	const q = `INSERT INTO ratings (id, mission_id, rater_user_id, rated_user_id, rating, review_text, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rating.MissionID, rating.RaterUserID, rating.RatedUserID, rating.Rating, rating.ReviewText, rating.CreatedAt).
		Scan(&rating.ID, &rating.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyRated
		}
		return err
	}
	return nil
}

// ListByMission returns the mission's ratings (at most two).
func (r *Repository) ListByMission(ctx context.Context, missionID uuid.UUID) ([]models.Rating, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, mission_id, rater_user_id, rated_user_id, rating, COALESCE(review_text, ''), created_at
		FROM ratings WHERE mission_id = $1 ORDER BY created_at`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Rating
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.MissionID, &rt.RaterUserID, &rt.RatedUserID, &rt.Rating, &rt.ReviewText, &rt.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rt)
	}
	return list, rows.Err()
}

// ListForUser returns ratings received by a user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, mission_id, rater_user_id, rated_user_id, rating, COALESCE(review_text, ''), created_at
		FROM ratings WHERE rated_user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Rating
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.MissionID, &rt.RaterUserID, &rt.RatedUserID, &rt.Rating, &rt.ReviewText, &rt.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rt)
	}
	return list, rows.Err()
}

// AverageForUser returns the user's average received rating and count.
func (r *Repository) AverageForUser(ctx context.Context, userID uuid.UUID) (avg float64, count int, err error) {
	const q = `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM ratings WHERE rated_user_id = $1`
	err = r.pool.QueryRow(ctx, q, userID).Scan(&avg, &count)
	return avg, count, err
}
