package repository

import (
	"context"
	"database/sql"

	"github.com/flowsync/server/internal/models"
)

// CustomTemplateRepository implements CustomTemplateRepo for PostgreSQL/SQLite
type CustomTemplateRepository struct {
	db *sql.DB
}

// NewCustomTemplateRepository creates a new CustomTemplateRepository
func NewCustomTemplateRepository(db *sql.DB) *CustomTemplateRepository {
	return &CustomTemplateRepository{db: db}
}

func (r *CustomTemplateRepository) GetAllForCollection(ctx context.Context, collectionID string) ([]*models.CustomTemplate, error) {
	query := `SELECT id, collection_id, user_id, client_id, client_timestamp, name, code, description, created_at, updated_at
			  FROM custom_templates WHERE collection_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.CustomTemplate
	for rows.Next() {
		t, err := scanCustomTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *CustomTemplateRepository) GetByID(ctx context.Context, userID, id string) (*models.CustomTemplate, error) {
	query := `SELECT id, collection_id, user_id, client_id, client_timestamp, name, code, description, created_at, updated_at
			  FROM custom_templates WHERE user_id = $1 AND id = $2`

	t, err := scanCustomTemplate(r.db.QueryRowContext(ctx, query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *CustomTemplateRepository) Add(ctx context.Context, t *models.CustomTemplate) error {
	query := `INSERT INTO custom_templates (id, collection_id, user_id, client_id, client_timestamp, name, code, description, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.CollectionID, t.UserID, t.ClientID, t.ClientTimestamp,
		t.Name, t.Code, t.Description, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *CustomTemplateRepository) Update(ctx context.Context, t *models.CustomTemplate) error {
	query := `UPDATE custom_templates SET client_timestamp = $3, name = $4, code = $5, description = $6, updated_at = $7
			  WHERE user_id = $1 AND id = $2`

	_, err := r.db.ExecContext(ctx, query,
		t.UserID, t.ID, t.ClientTimestamp, t.Name, t.Code, t.Description, t.UpdatedAt,
	)
	return err
}

func (r *CustomTemplateRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM custom_templates WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanCustomTemplate(row rowScanner) (*models.CustomTemplate, error) {
	var t models.CustomTemplate
	var clientID sql.NullString
	var description sql.NullString

	err := row.Scan(&t.ID, &t.CollectionID, &t.UserID, &clientID, &t.ClientTimestamp,
		&t.Name, &t.Code, &description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		t.ClientID = &clientID.String
	}
	if description.Valid {
		t.Description = &description.String
	}
	return &t, nil
}
