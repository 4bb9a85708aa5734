package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/flowsync/server/internal/models"
)

// TemplateCollectionRepository implements TemplateCollectionRepo for PostgreSQL/SQLite
type TemplateCollectionRepository struct {
	db *sql.DB
}

// NewTemplateCollectionRepository creates a new TemplateCollectionRepository
func NewTemplateCollectionRepository(db *sql.DB) *TemplateCollectionRepository {
	return &TemplateCollectionRepository{db: db}
}

func (r *TemplateCollectionRepository) GetByID(ctx context.Context, userID, id string) (*models.TemplateCollection, error) {
	query := `SELECT id, user_id, client_id, client_timestamp, name, template_ids, created_at, updated_at
			  FROM template_collections WHERE user_id = $1 AND id = $2`

	c, err := scanCollection(r.db.QueryRowContext(ctx, query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *TemplateCollectionRepository) GetAllForUser(ctx context.Context, userID string) ([]*models.TemplateCollection, error) {
	query := `SELECT id, user_id, client_id, client_timestamp, name, template_ids, created_at, updated_at
			  FROM template_collections WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*models.TemplateCollection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (r *TemplateCollectionRepository) Add(ctx context.Context, c *models.TemplateCollection) error {
	ids, err := marshalTemplateIDs(c.TemplateIDs)
	if err != nil {
		return err
	}

	query := `INSERT INTO template_collections (id, user_id, client_id, client_timestamp, name, template_ids, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.ClientID, c.ClientTimestamp, c.Name, ids, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *TemplateCollectionRepository) Update(ctx context.Context, c *models.TemplateCollection) error {
	ids, err := marshalTemplateIDs(c.TemplateIDs)
	if err != nil {
		return err
	}

	query := `UPDATE template_collections SET client_timestamp = $3, name = $4, template_ids = $5, updated_at = $6
			  WHERE user_id = $1 AND id = $2`

	_, err = r.db.ExecContext(ctx, query,
		c.UserID, c.ID, c.ClientTimestamp, c.Name, ids, c.UpdatedAt,
	)
	return err
}

func (r *TemplateCollectionRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM template_collections WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanCollection(row rowScanner) (*models.TemplateCollection, error) {
	var c models.TemplateCollection
	var clientID sql.NullString
	var templateIDs string

	err := row.Scan(&c.ID, &c.UserID, &clientID, &c.ClientTimestamp, &c.Name,
		&templateIDs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		c.ClientID = &clientID.String
	}
	if err := json.Unmarshal([]byte(templateIDs), &c.TemplateIDs); err != nil {
		return nil, fmt.Errorf("corrupt template_ids column for collection %s: %w", c.ID, err)
	}
	return &c, nil
}

func marshalTemplateIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template IDs: %w", err)
	}
	return string(data), nil
}
