package repository

import (
	"context"
	"database/sql"

	"github.com/flowsync/server/internal/models"
)

// ChatMessageRepository implements ChatMessageRepo for PostgreSQL/SQLite
type ChatMessageRepository struct {
	db *sql.DB
}

// NewChatMessageRepository creates a new ChatMessageRepository
func NewChatMessageRepository(db *sql.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

func (r *ChatMessageRepository) GetAllForUser(ctx context.Context, userID string) ([]*models.ChatMessage, error) {
	// Ordered by the client edit timestamp so the conversation reads in
	// the order it happened on the device, not the order it synced.
	query := `SELECT id, user_id, client_id, client_timestamp, role, content, created_at
			  FROM chat_messages WHERE user_id = $1 ORDER BY client_timestamp ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var clientID sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &clientID, &m.ClientTimestamp,
			&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		if clientID.Valid {
			m.ClientID = &clientID.String
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *ChatMessageRepository) Add(ctx context.Context, m *models.ChatMessage) error {
	query := `INSERT INTO chat_messages (id, user_id, client_id, client_timestamp, role, content, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.UserID, m.ClientID, m.ClientTimestamp, m.Role, m.Content, m.CreatedAt,
	)
	return err
}

func (r *ChatMessageRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID)
	return err
}
