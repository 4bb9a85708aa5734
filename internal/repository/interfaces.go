package repository

import (
	"context"

	"github.com/flowsync/server/internal/models"
)

// Every repository method is scoped by the owning user's ID; no
// cross-owner access path exists. Lookups that miss return (nil, nil)
// rather than an error so callers decide whether absence is terminal.

// DiagramRepo defines diagram persistence operations
type DiagramRepo interface {
	GetByID(ctx context.Context, userID, id string) (*models.Diagram, error)
	GetAllForUser(ctx context.Context, userID string) ([]*models.Diagram, error)
	Add(ctx context.Context, d *models.Diagram) error
	Update(ctx context.Context, d *models.Diagram) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// TemplateCollectionRepo defines collection persistence operations
type TemplateCollectionRepo interface {
	GetByID(ctx context.Context, userID, id string) (*models.TemplateCollection, error)
	GetAllForUser(ctx context.Context, userID string) ([]*models.TemplateCollection, error)
	Add(ctx context.Context, c *models.TemplateCollection) error
	Update(ctx context.Context, c *models.TemplateCollection) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// CustomTemplateRepo defines custom template persistence operations.
// Rows cascade-delete with their parent collection.
type CustomTemplateRepo interface {
	GetAllForCollection(ctx context.Context, collectionID string) ([]*models.CustomTemplate, error)
	GetByID(ctx context.Context, userID, id string) (*models.CustomTemplate, error)
	Add(ctx context.Context, t *models.CustomTemplate) error
	Update(ctx context.Context, t *models.CustomTemplate) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// FavoriteRepo defines favorite persistence operations. The
// (user_id, template_id) pair is unique.
type FavoriteRepo interface {
	GetAllForUser(ctx context.Context, userID string) ([]*models.Favorite, error)
	GetByTemplateID(ctx context.Context, userID, templateID string) (*models.Favorite, error)
	Add(ctx context.Context, f *models.Favorite) error
	Update(ctx context.Context, f *models.Favorite) error
	DeleteByTemplateID(ctx context.Context, userID, templateID string) (bool, error)
}

// SettingsRepo defines settings persistence (one row per user)
type SettingsRepo interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
}

// ChatMessageRepo defines chat history persistence (append-only)
type ChatMessageRepo interface {
	GetAllForUser(ctx context.Context, userID string) ([]*models.ChatMessage, error)
	Add(ctx context.Context, m *models.ChatMessage) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// SnapshotRepo defines diagram snapshot persistence (replace-all)
type SnapshotRepo interface {
	GetAllForUser(ctx context.Context, userID string) ([]*models.DiagramSnapshot, error)
	Add(ctx context.Context, s *models.DiagramSnapshot) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// AIConfigRepo defines AI config persistence (one row per user)
type AIConfigRepo interface {
	Get(ctx context.Context, userID string) (*models.AIConfig, error)
	Upsert(ctx context.Context, c *models.AIConfig) error
}

// UserRepo defines user persistence operations
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAPIKeyHash(ctx context.Context, keyHash string) (*models.User, error)
	Add(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
}
