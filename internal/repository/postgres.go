package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		api_key_hash TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_users_api_key_hash ON users(api_key_hash);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS diagrams (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		settings TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_diagrams_user_id ON diagrams(user_id);
	CREATE INDEX IF NOT EXISTS idx_diagrams_user_client ON diagrams(user_id, client_id);

	CREATE TABLE IF NOT EXISTS template_collections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		template_ids TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_collections_user_id ON template_collections(user_id);
	CREATE INDEX IF NOT EXISTS idx_collections_user_client ON template_collections(user_id, client_id);

	CREATE TABLE IF NOT EXISTS custom_templates (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL REFERENCES template_collections(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_custom_templates_collection_id ON custom_templates(collection_id);
	CREATE INDEX IF NOT EXISTS idx_custom_templates_user_client ON custom_templates(user_id, client_id);

	CREATE TABLE IF NOT EXISTS favorites (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		template_id TEXT NOT NULL,
		client_id TEXT,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(user_id, template_id)
	);

	CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id);

	CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		mermaid_config TEXT,
		theme_settings TEXT,
		key_value_store TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_user_id ON chat_messages(user_id);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_user_client ON chat_messages(user_id, client_id);

	CREATE TABLE IF NOT EXISTS diagram_snapshots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		diagram_client_id TEXT,
		code TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_diagram_snapshots_user_id ON diagram_snapshots(user_id);

	CREATE TABLE IF NOT EXISTS ai_configs (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		client_timestamp BIGINT NOT NULL DEFAULT 0,
		consent_granted BOOLEAN NOT NULL DEFAULT FALSE,
		model TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`

	_, err := db.Exec(schema)
	return err
}
