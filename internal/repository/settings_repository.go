package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowsync/server/internal/models"
)

// SettingsRepository implements SettingsRepo for PostgreSQL/SQLite
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get retrieves the settings row for a user, or (nil, nil) when absent
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `SELECT user_id, client_timestamp, mermaid_config, theme_settings, key_value_store, created_at, updated_at
			  FROM user_settings WHERE user_id = $1`

	var s models.UserSettings
	var mermaidConfig, themeSettings sql.NullString
	var keyValueStore string

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.ClientTimestamp, &mermaidConfig, &themeSettings,
		&keyValueStore, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if mermaidConfig.Valid && mermaidConfig.String != "" {
		s.MermaidConfig = json.RawMessage(mermaidConfig.String)
	}
	if themeSettings.Valid && themeSettings.String != "" {
		s.ThemeSettings = json.RawMessage(themeSettings.String)
	}
	if err := json.Unmarshal([]byte(keyValueStore), &s.KeyValueStore); err != nil {
		return nil, fmt.Errorf("corrupt key_value_store column for user %s: %w", userID, err)
	}
	return &s, nil
}

// Upsert creates or replaces the settings row for a user
func (r *SettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	s.UpdatedAt = time.Now().UTC()

	kvStore := s.KeyValueStore
	if kvStore == nil {
		kvStore = map[string]json.RawMessage{}
	}
	kvData, err := json.Marshal(kvStore)
	if err != nil {
		return fmt.Errorf("failed to marshal key-value store: %w", err)
	}

	query := `
		INSERT INTO user_settings (user_id, client_timestamp, mermaid_config, theme_settings, key_value_store, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET client_timestamp = EXCLUDED.client_timestamp,
		    mermaid_config = EXCLUDED.mermaid_config,
		    theme_settings = EXCLUDED.theme_settings,
		    key_value_store = EXCLUDED.key_value_store,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		s.UserID, s.ClientTimestamp,
		rawMessageToColumn(s.MermaidConfig), rawMessageToColumn(s.ThemeSettings),
		string(kvData), s.CreatedAt, s.UpdatedAt,
	)
	return err
}
