package repository

import (
	"context"
	"database/sql"

	"github.com/flowsync/server/internal/models"
)

// SnapshotRepository implements SnapshotRepo for PostgreSQL/SQLite
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) GetAllForUser(ctx context.Context, userID string) ([]*models.DiagramSnapshot, error) {
	query := `SELECT id, user_id, client_id, diagram_client_id, client_timestamp, code, created_at
			  FROM diagram_snapshots WHERE user_id = $1 ORDER BY client_timestamp ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.DiagramSnapshot
	for rows.Next() {
		var s models.DiagramSnapshot
		var clientID, diagramClientID sql.NullString
		if err := rows.Scan(&s.ID, &s.UserID, &clientID, &diagramClientID,
			&s.ClientTimestamp, &s.Code, &s.CreatedAt); err != nil {
			return nil, err
		}
		if clientID.Valid {
			s.ClientID = &clientID.String
		}
		if diagramClientID.Valid {
			s.DiagramClientID = &diagramClientID.String
		}
		snapshots = append(snapshots, &s)
	}
	return snapshots, rows.Err()
}

func (r *SnapshotRepository) Add(ctx context.Context, s *models.DiagramSnapshot) error {
	query := `INSERT INTO diagram_snapshots (id, user_id, client_id, diagram_client_id, client_timestamp, code, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.ClientID, s.DiagramClientID, s.ClientTimestamp, s.Code, s.CreatedAt,
	)
	return err
}

func (r *SnapshotRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM diagram_snapshots WHERE user_id = $1`, userID)
	return err
}
