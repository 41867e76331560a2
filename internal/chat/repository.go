package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shieldmate/backend/internal/models"
)

// Repository persists mission chat messages.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chat repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a chat message.
func (r *Repository) Create(ctx context.Context, msg *models.ChatMessage) error {
	const q = `INSERT INTO chat_messages (id, mission_id, sender_id, content)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, msg.MissionID, msg.SenderID, msg.Content).Scan(&msg.ID, &msg.CreatedAt)
}

// ListByMission returns the most recent messages for a mission, oldest first.
func (r *Repository) ListByMission(ctx context.Context, missionID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, mission_id, sender_id, content, created_at FROM (
			SELECT id, mission_id, sender_id, content, created_at
			FROM chat_messages WHERE mission_id = $1
			ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, q, missionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.MissionID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
