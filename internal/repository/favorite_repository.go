package repository

import (
	"context"
	"database/sql"

	"github.com/flowsync/server/internal/models"
)

// FavoriteRepository implements FavoriteRepo for PostgreSQL/SQLite
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) GetAllForUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	query := `SELECT id, user_id, template_id, client_id, client_timestamp, created_at
			  FROM favorites WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []*models.Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

func (r *FavoriteRepository) GetByTemplateID(ctx context.Context, userID, templateID string) (*models.Favorite, error) {
	query := `SELECT id, user_id, template_id, client_id, client_timestamp, created_at
			  FROM favorites WHERE user_id = $1 AND template_id = $2`

	f, err := scanFavorite(r.db.QueryRowContext(ctx, query, userID, templateID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FavoriteRepository) Add(ctx context.Context, f *models.Favorite) error {
	query := `INSERT INTO favorites (id, user_id, template_id, client_id, client_timestamp, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.UserID, f.TemplateID, f.ClientID, f.ClientTimestamp, f.CreatedAt,
	)
	return err
}

func (r *FavoriteRepository) Update(ctx context.Context, f *models.Favorite) error {
	query := `UPDATE favorites SET client_id = $3, client_timestamp = $4
			  WHERE user_id = $1 AND template_id = $2`

	_, err := r.db.ExecContext(ctx, query,
		f.UserID, f.TemplateID, f.ClientID, f.ClientTimestamp,
	)
	return err
}

func (r *FavoriteRepository) DeleteByTemplateID(ctx context.Context, userID, templateID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND template_id = $2`, userID, templateID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanFavorite(row rowScanner) (*models.Favorite, error) {
	var f models.Favorite
	var clientID sql.NullString

	err := row.Scan(&f.ID, &f.UserID, &f.TemplateID, &clientID, &f.ClientTimestamp, &f.CreatedAt)
	if err != nil {
		return nil, err
	}

	if clientID.Valid {
		f.ClientID = &clientID.String
	}
	return &f, nil
}
