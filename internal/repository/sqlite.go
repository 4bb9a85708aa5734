package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys so custom templates cascade with collections
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		api_key_hash TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_users_api_key_hash ON users(api_key_hash);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	-- Diagrams table
	CREATE TABLE IF NOT EXISTS diagrams (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		settings TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_diagrams_user_id ON diagrams(user_id);
	CREATE INDEX IF NOT EXISTS idx_diagrams_user_client ON diagrams(user_id, client_id);

	-- Template collections table
	CREATE TABLE IF NOT EXISTS template_collections (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		template_ids TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_collections_user_id ON template_collections(user_id);
	CREATE INDEX IF NOT EXISTS idx_collections_user_client ON template_collections(user_id, client_id);

	-- Custom templates (cascade with their collection)
	CREATE TABLE IF NOT EXISTS custom_templates (
		id TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL REFERENCES template_collections(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_custom_templates_collection_id ON custom_templates(collection_id);
	CREATE INDEX IF NOT EXISTS idx_custom_templates_user_client ON custom_templates(user_id, client_id);

	-- Favorites ((user, template) pair is the identity)
	CREATE TABLE IF NOT EXISTS favorites (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		template_id TEXT NOT NULL,
		client_id TEXT,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, template_id)
	);

	CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id);

	-- Settings (one row per user)
	CREATE TABLE IF NOT EXISTS user_settings (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		mermaid_config TEXT,
		theme_settings TEXT,
		key_value_store TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- AI chat messages (append-only)
	CREATE TABLE IF NOT EXISTS chat_messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_chat_messages_user_id ON chat_messages(user_id);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_user_client ON chat_messages(user_id, client_id);

	-- Diagram snapshots (replaced wholesale on each sync)
	CREATE TABLE IF NOT EXISTS diagram_snapshots (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		client_id TEXT,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		diagram_client_id TEXT,
		code TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_diagram_snapshots_user_id ON diagram_snapshots(user_id);

	-- AI config (one row per user)
	CREATE TABLE IF NOT EXISTS ai_configs (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		client_timestamp INTEGER NOT NULL DEFAULT 0,
		consent_granted INTEGER NOT NULL DEFAULT 0,
		model TEXT NOT NULL DEFAULT '',
		api_key TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}
