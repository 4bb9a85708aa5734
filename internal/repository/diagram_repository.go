package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/flowsync/server/internal/models"
)

// DiagramRepository implements DiagramRepo for PostgreSQL/SQLite
type DiagramRepository struct {
	db *sql.DB
}

// NewDiagramRepository creates a new DiagramRepository
func NewDiagramRepository(db *sql.DB) *DiagramRepository {
	return &DiagramRepository{db: db}
}

func (r *DiagramRepository) GetByID(ctx context.Context, userID, id string) (*models.Diagram, error) {
	query := `SELECT id, user_id, client_id, client_timestamp, name, code, settings, created_at, updated_at
			  FROM diagrams WHERE user_id = $1 AND id = $2`

	d, err := scanDiagram(r.db.QueryRowContext(ctx, query, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *DiagramRepository) GetAllForUser(ctx context.Context, userID string) ([]*models.Diagram, error) {
	query := `SELECT id, user_id, client_id, client_timestamp, name, code, settings, created_at, updated_at
			  FROM diagrams WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diagrams []*models.Diagram
	for rows.Next() {
		d, err := scanDiagram(rows)
		if err != nil {
			return nil, err
		}
		diagrams = append(diagrams, d)
	}
	return diagrams, rows.Err()
}

func (r *DiagramRepository) Add(ctx context.Context, d *models.Diagram) error {
	query := `INSERT INTO diagrams (id, user_id, client_id, client_timestamp, name, code, settings, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.UserID, d.ClientID, d.ClientTimestamp, d.Name, d.Code,
		rawMessageToColumn(d.Settings), d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (r *DiagramRepository) Update(ctx context.Context, d *models.Diagram) error {
	query := `UPDATE diagrams SET client_timestamp = $3, name = $4, code = $5, settings = $6, updated_at = $7
			  WHERE user_id = $1 AND id = $2`

	_, err := r.db.ExecContext(ctx, query,
		d.UserID, d.ID, d.ClientTimestamp, d.Name, d.Code,
		rawMessageToColumn(d.Settings), d.UpdatedAt,
	)
	return err
}

func (r *DiagramRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM diagrams WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDiagram(row rowScanner) (*models.Diagram, error) {
	var d models.Diagram
	var clientID sql.NullString
	var settings sql.NullString

	err := row.Scan(&d.ID, &d.UserID, &clientID, &d.ClientTimestamp, &d.Name, &d.Code,
		&settings, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		d.ClientID = &clientID.String
	}
	if settings.Valid && settings.String != "" {
		d.Settings = json.RawMessage(settings.String)
	}
	return &d, nil
}

// rawMessageToColumn converts an optional JSON blob to a nullable column value
func rawMessageToColumn(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
