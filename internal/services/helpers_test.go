package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/repository"
)

// testEnv wires every service against a throwaway SQLite database
type testEnv struct {
	diagrams  *DiagramService
	templates *TemplateService
	favorites *FavoriteService
	settings  *SettingsService
	ai        *AIService
	sync      *SyncService
	auth      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "flowsync-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	codec := NewContentCodec()
	diagrams := NewDiagramService(repository.NewDiagramRepository(db), codec)
	templates := NewTemplateService(
		repository.NewTemplateCollectionRepository(db),
		repository.NewCustomTemplateRepository(db),
		codec,
	)
	favorites := NewFavoriteService(repository.NewFavoriteRepository(db))
	settings := NewSettingsService(repository.NewSettingsRepository(db))
	ai := NewAIService(
		repository.NewChatMessageRepository(db),
		repository.NewSnapshotRepository(db),
		repository.NewAIConfigRepository(db),
		codec,
	)

	return &testEnv{
		diagrams:  diagrams,
		templates: templates,
		favorites: favorites,
		settings:  settings,
		ai:        ai,
		sync:      NewSyncService(diagrams, templates, favorites, settings, ai),
		auth:      NewAuthService(repository.NewUserRepository(db)),
	}
}

// newTestUser registers an account and returns its ID
func newTestUser(t *testing.T, env *testEnv) string {
	t.Helper()

	user, err := env.auth.Register(context.Background(), &models.RegisterRequest{
		Email:       "sync-test@example.com",
		DisplayName: "Sync Tester",
		Password:    "correct-horse-battery",
	})
	require.NoError(t, err)
	return user.ID
}

func strPtr(s string) *string {
	return &s
}
