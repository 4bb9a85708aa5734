package repository

import (
	"context"
	"database/sql"

	"github.com/flowsync/server/internal/models"
)

// UserRepository implements UserRepo for PostgreSQL/SQLite
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, display_name, api_key_hash, password_hash, created_at, is_active
			  FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, display_name, api_key_hash, password_hash, created_at, is_active
			  FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*models.User, error) {
	query := `SELECT id, email, display_name, api_key_hash, password_hash, created_at, is_active
			  FROM users WHERE api_key_hash = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, apiKeyHash))
}

func (r *UserRepository) Add(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, display_name, api_key_hash, password_hash, created_at, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.APIKeyHash, user.PasswordHash,
		user.CreatedAt, user.IsActive,
	)
	return err
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET email = $1, display_name = $2, api_key_hash = $3,
			  password_hash = $4, is_active = $5 WHERE id = $6`

	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.DisplayName, user.APIKeyHash, user.PasswordHash,
		user.IsActive, user.ID,
	)
	return err
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.APIKeyHash, &u.PasswordHash,
		&u.CreatedAt, &u.IsActive)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
