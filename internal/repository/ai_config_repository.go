package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowsync/server/internal/models"
)

// AIConfigRepository implements AIConfigRepo for PostgreSQL/SQLite
type AIConfigRepository struct {
	db *sql.DB
}

// NewAIConfigRepository creates a new AIConfigRepository
func NewAIConfigRepository(db *sql.DB) *AIConfigRepository {
	return &AIConfigRepository{db: db}
}

func (r *AIConfigRepository) Get(ctx context.Context, userID string) (*models.AIConfig, error) {
	query := `SELECT user_id, client_timestamp, consent_granted, model, api_key, updated_at
			  FROM ai_configs WHERE user_id = $1`

	var c models.AIConfig
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&c.UserID, &c.ClientTimestamp, &c.ConsentGranted, &c.Model, &c.APIKey, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AIConfigRepository) Upsert(ctx context.Context, c *models.AIConfig) error {
	c.UpdatedAt = time.Now().UTC()

	query := `INSERT INTO ai_configs (user_id, client_timestamp, consent_granted, model, api_key, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (user_id) DO UPDATE SET
				client_timestamp = EXCLUDED.client_timestamp,
				consent_granted = EXCLUDED.consent_granted,
				model = EXCLUDED.model,
				api_key = EXCLUDED.api_key,
				updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		c.UserID, c.ClientTimestamp, c.ConsentGranted, c.Model, c.APIKey, c.UpdatedAt,
	)
	return err
}
