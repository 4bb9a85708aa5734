package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsync/server/internal/models"
)

// failingFavoriteRepo errors on every call, standing in for a store
// outage scoped to one domain
type failingFavoriteRepo struct{}

var errFavoriteStoreDown = errors.New("favorite store unavailable")

func (failingFavoriteRepo) GetAllForUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return nil, errFavoriteStoreDown
}

func (failingFavoriteRepo) GetByTemplateID(ctx context.Context, userID, templateID string) (*models.Favorite, error) {
	return nil, errFavoriteStoreDown
}

func (failingFavoriteRepo) Add(ctx context.Context, f *models.Favorite) error {
	return errFavoriteStoreDown
}

func (failingFavoriteRepo) Update(ctx context.Context, f *models.Favorite) error {
	return errFavoriteStoreDown
}

func (failingFavoriteRepo) DeleteByTemplateID(ctx context.Context, userID, templateID string) (bool, error) {
	return false, errFavoriteStoreDown
}

func TestComputeIsFirstSync(t *testing.T) {
	t.Run("empty request is first", func(t *testing.T) {
		assert.True(t, computeIsFirstSync(&models.SyncRequest{}))
	})

	t.Run("sections with zero markers are still first", func(t *testing.T) {
		req := &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "c1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
			Settings: &models.SettingsSyncSection{},
		}
		assert.True(t, computeIsFirstSync(req))
	})

	t.Run("overall marker makes it not-first", func(t *testing.T) {
		assert.False(t, computeIsFirstSync(&models.SyncRequest{LastSyncAt: 1700000000000}))
	})

	t.Run("a single section marker makes it not-first", func(t *testing.T) {
		req := &models.SyncRequest{
			Favorites: &models.FavoriteSyncSection{LastSyncAt: 1700000000000},
		}
		assert.False(t, computeIsFirstSync(req))
	})
}

func TestSettingsEffectiveTimestamp(t *testing.T) {
	t.Run("explicit updatedAt wins", func(t *testing.T) {
		req := &models.SyncRequest{
			LastSyncAt: 300,
			Settings:   &models.SettingsSyncSection{UpdatedAt: 100, LastSyncAt: 200},
		}
		assert.Equal(t, int64(100), settingsEffectiveTimestamp(req, 999))
	})

	t.Run("falls back to section marker", func(t *testing.T) {
		req := &models.SyncRequest{
			LastSyncAt: 300,
			Settings:   &models.SettingsSyncSection{LastSyncAt: 200},
		}
		assert.Equal(t, int64(200), settingsEffectiveTimestamp(req, 999))
	})

	t.Run("falls back to overall marker", func(t *testing.T) {
		req := &models.SyncRequest{
			LastSyncAt: 300,
			Settings:   &models.SettingsSyncSection{},
		}
		assert.Equal(t, int64(300), settingsEffectiveTimestamp(req, 999))
	})

	t.Run("falls back to server time", func(t *testing.T) {
		req := &models.SyncRequest{Settings: &models.SettingsSyncSection{}}
		assert.Equal(t, int64(999), settingsEffectiveTimestamp(req, 999))
	})
}

func TestSyncService_FullSync(t *testing.T) {
	ctx := context.Background()

	t.Run("first sync pushes a whole device state up", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		resp, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "Login flow", Code: "graph TD;A-->B"},
				},
			},
			Templates: &models.TemplateSyncSection{
				Records: []models.CollectionSyncRecord{
					{
						ClientID:        "col1",
						ClientTimestamp: 100,
						Name:            "Mine",
						TemplateIDs:     []string{"flowchart-basic"},
						CustomTemplates: []models.CustomTemplateSyncRecord{
							{ClientID: "tpl1", ClientTimestamp: 100, Name: "Loop", Code: "graph TD;A-->A"},
						},
					},
				},
			},
			Favorites: &models.FavoriteSyncSection{
				Records: []models.FavoriteSyncRecord{
					{TemplateID: "sequence-basic", ClientID: "f1", ClientTimestamp: 100},
				},
			},
			Settings: &models.SettingsSyncSection{
				UpdatedAt:     100,
				MermaidConfig: json.RawMessage(`{"theme":"dark"}`),
			},
			AI: &models.AISyncSection{
				Messages: []models.ChatMessageSyncRecord{
					{ClientID: "m1", ClientTimestamp: 100, Role: models.RoleUser, Content: "hello"},
				},
				Config: &models.AIConfigSyncRecord{ClientTimestamp: 100, Model: "claude-sonnet"},
			},
		})
		require.NoError(t, err)

		assert.True(t, resp.IsFirstSync)
		assert.NotZero(t, resp.SyncedAt)
		assert.Len(t, resp.Diagrams.Records, 1)
		require.Len(t, resp.Templates.Records, 1)
		assert.Len(t, resp.Templates.Records[0].CustomTemplates, 1)
		assert.Len(t, resp.Favorites.Records, 1)
		require.NotNil(t, resp.Settings.Settings)
		assert.JSONEq(t, `{"theme":"dark"}`, string(resp.Settings.Settings.MermaidConfig))
		assert.Len(t, resp.AI.Messages, 1)
		require.NotNil(t, resp.AI.Config)
		assert.Equal(t, "claude-sonnet", resp.AI.Config.Model)
		assert.Equal(t, resp.SyncedAt, resp.Diagrams.SyncedAt)
		assert.Equal(t, resp.SyncedAt, resp.AI.SyncedAt)
	})

	t.Run("retrying a payload changes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		req := &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
			Favorites: &models.FavoriteSyncSection{
				Records: []models.FavoriteSyncRecord{
					{TemplateID: "flowchart-basic", ClientTimestamp: 100},
				},
			},
		}

		first, err := env.sync.FullSync(ctx, userID, "", req)
		require.NoError(t, err)
		second, err := env.sync.FullSync(ctx, userID, "", req)
		require.NoError(t, err)

		assert.Len(t, second.Diagrams.Records, len(first.Diagrams.Records))
		assert.Len(t, second.Favorites.Records, len(first.Favorites.Records))
		assert.Equal(t, first.Diagrams.Records[0].ClientTimestamp, second.Diagrams.Records[0].ClientTimestamp)
	})

	t.Run("absent sections return full state untouched", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
		})
		require.NoError(t, err)

		// Favorites-only payload still returns the diagram set
		resp, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
			LastSyncAt: 200,
			Favorites: &models.FavoriteSyncSection{
				Records: []models.FavoriteSyncRecord{
					{TemplateID: "flowchart-basic", ClientTimestamp: 150},
				},
			},
		})
		require.NoError(t, err)
		assert.False(t, resp.IsFirstSync)
		assert.Len(t, resp.Diagrams.Records, 1)
		assert.Len(t, resp.Favorites.Records, 1)
		require.NotNil(t, resp.Settings.Settings)
	})

	t.Run("two devices converge on the newest write", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		// Device one edits the diagram at t=1000
		_, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 1000, Name: "Device one", Code: "graph TD;one"},
				},
			},
		})
		require.NoError(t, err)

		// Device two pushes an older offline edit of the same diagram
		resp, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
			LastSyncAt: 500,
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 800, Name: "Device two", Code: "graph TD;two"},
				},
			},
		})
		require.NoError(t, err)

		require.Len(t, resp.Diagrams.Records, 1)
		assert.Equal(t, "Device one", resp.Diagrams.Records[0].Name)
		assert.Equal(t, "graph TD;one", resp.Diagrams.Records[0].Code)
	})

	t.Run("settings with no timestamp uses server time", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		resp, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
			Settings: &models.SettingsSyncSection{
				MermaidConfig: json.RawMessage(`{"theme":"dark"}`),
			},
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Settings.Settings)
		assert.Equal(t, resp.SyncedAt, resp.Settings.Settings.ClientTimestamp)
	})
}

func TestSyncRequest_Validate(t *testing.T) {
	t.Run("accepts a well-formed payload", func(t *testing.T) {
		req := &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
		}
		assert.NoError(t, req.Validate())
	})

	t.Run("rejects a diagram record without a clientId", func(t *testing.T) {
		req := &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{{ClientTimestamp: 100, Name: "A"}},
			},
		}
		var verr models.SyncValidationError
		require.ErrorAs(t, req.Validate(), &verr)
		assert.Equal(t, "diagram", verr.Domain)
	})

	t.Run("rejects a negative timestamp", func(t *testing.T) {
		req := &models.SyncRequest{
			Favorites: &models.FavoriteSyncSection{
				Records: []models.FavoriteSyncRecord{
					{TemplateID: "flowchart-basic", ClientTimestamp: -1},
				},
			},
		}
		assert.Error(t, req.Validate())
	})

	t.Run("rejects a nested template without a clientId", func(t *testing.T) {
		req := &models.SyncRequest{
			Templates: &models.TemplateSyncSection{
				Records: []models.CollectionSyncRecord{
					{
						ClientID:        "col1",
						ClientTimestamp: 100,
						Name:            "Mine",
						CustomTemplates: []models.CustomTemplateSyncRecord{
							{ClientTimestamp: 100, Name: "Bad", Code: "graph TD;"},
						},
					},
				},
			},
		}
		var verr models.SyncValidationError
		require.ErrorAs(t, req.Validate(), &verr)
		assert.Equal(t, "customTemplate", verr.Domain)
	})

	t.Run("rejects a chat message with an unknown role", func(t *testing.T) {
		req := &models.SyncRequest{
			AI: &models.AISyncSection{
				Messages: []models.ChatMessageSyncRecord{
					{ClientID: "m1", ClientTimestamp: 100, Role: "system", Content: "nope"},
				},
			},
		}
		assert.Error(t, req.Validate())
	})
}

func TestSyncService_PartialFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("a failing domain leaves earlier domains committed", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		// Same stores except favorites, which is down
		broken := NewSyncService(env.diagrams, env.templates,
			NewFavoriteService(failingFavoriteRepo{}), env.settings, env.ai)

		_, err := broken.FullSync(ctx, userID, "", &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
			Favorites: &models.FavoriteSyncSection{
				Records: []models.FavoriteSyncRecord{
					{TemplateID: "flowchart-basic", ClientTimestamp: 100},
				},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, errFavoriteStoreDown)
		assert.Contains(t, err.Error(), "favorites")

		// Domains are not one transaction: the diagram committed before
		// favorites failed, and the whole-call retry is idempotent.
		diagrams, err := env.diagrams.List(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, diagrams, 1)
	})

	t.Run("retry after the store recovers completes the sync", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		req := &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
			Favorites: &models.FavoriteSyncSection{
				Records: []models.FavoriteSyncRecord{
					{TemplateID: "flowchart-basic", ClientTimestamp: 100},
				},
			},
		}

		broken := NewSyncService(env.diagrams, env.templates,
			NewFavoriteService(failingFavoriteRepo{}), env.settings, env.ai)
		_, err := broken.FullSync(ctx, userID, "", req)
		require.Error(t, err)

		// The healthy service sees the committed diagram and merely skips it
		resp, err := env.sync.FullSync(ctx, userID, "", req)
		require.NoError(t, err)
		assert.Len(t, resp.Diagrams.Records, 1)
		assert.Len(t, resp.Favorites.Records, 1)
	})
}

func TestSyncService_ConcurrentDevices(t *testing.T) {
	ctx := context.Background()

	// The reconciler's read-compare-write runs without a store lock, so
	// two devices syncing at the same moment can interleave between the
	// read and the write. The timestamp gate is what keeps the outcome
	// stable: whichever order the writes land in, the record with the
	// greater clientTimestamp survives. This exercises that
	// order-independence; the unguarded window itself is the accepted
	// trade-off of running without transactions across the read and write.
	t.Run("arrival order does not change the converged state", func(t *testing.T) {
		deviceOne := models.DiagramSyncRecord{
			ClientID: "d1", ClientTimestamp: 2000, Name: "Newer edit", Code: "graph TD;new",
		}
		deviceTwo := models.DiagramSyncRecord{
			ClientID: "d1", ClientTimestamp: 1000, Name: "Older edit", Code: "graph TD;old",
		}

		for name, order := range map[string][]models.DiagramSyncRecord{
			"newer arrives first": {deviceOne, deviceTwo},
			"older arrives first": {deviceTwo, deviceOne},
		} {
			t.Run(name, func(t *testing.T) {
				env := newTestEnv(t)
				userID := newTestUser(t, env)

				for _, rec := range order {
					_, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{
						Diagrams: &models.DiagramSyncSection{
							Records: []models.DiagramSyncRecord{rec},
						},
					})
					require.NoError(t, err)
				}

				diagrams, err := env.diagrams.List(ctx, userID)
				require.NoError(t, err)
				require.Len(t, diagrams, 1)
				assert.Equal(t, "Newer edit", diagrams[0].Name)
				assert.Equal(t, int64(2000), diagrams[0].ClientTimestamp)
			})
		}
	})
}

func TestSyncService_CompletionEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to the user's other connections only", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		hub := NewWebSocketHub()
		go hub.Run()
		env.sync.SetWebSocketHub(hub)

		origin := hub.NewClient("conn-origin", userID, nil)
		other := hub.NewClient("conn-other", userID, nil)
		hub.Register(origin)
		hub.Register(other)
		require.Eventually(t, func() bool {
			return hub.GetUserConnectionCount(userID) == 2
		}, time.Second, 10*time.Millisecond)

		_, err := env.sync.FullSync(ctx, userID, "conn-origin", &models.SyncRequest{
			Diagrams: &models.DiagramSyncSection{
				Records: []models.DiagramSyncRecord{
					{ClientID: "d1", ClientTimestamp: 100, Name: "A", Code: "graph TD;"},
				},
			},
		})
		require.NoError(t, err)

		select {
		case data := <-other.Send:
			var msg WSMessage
			require.NoError(t, json.Unmarshal(data, &msg))
			assert.Equal(t, WSTypeSyncCompleted, msg.Type)
		case <-time.After(time.Second):
			t.Fatal("expected sync_completed on the other device's connection")
		}

		// The syncing device's own connection stays quiet
		time.Sleep(50 * time.Millisecond)
		select {
		case <-origin.Send:
			t.Fatal("syncing device received its own completion event")
		default:
		}
	})

	t.Run("no event when nothing changed", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		hub := NewWebSocketHub()
		go hub.Run()
		env.sync.SetWebSocketHub(hub)

		listener := hub.NewClient("conn-listener", userID, nil)
		hub.Register(listener)
		require.Eventually(t, func() bool {
			return hub.GetUserConnectionCount(userID) == 1
		}, time.Second, 10*time.Millisecond)

		// Pull-only sync: every domain returns state, nothing is written
		_, err := env.sync.FullSync(ctx, userID, "", &models.SyncRequest{LastSyncAt: 100})
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		select {
		case <-listener.Send:
			t.Fatal("pull-only sync should not emit a completion event")
		default:
		}
	})
}
