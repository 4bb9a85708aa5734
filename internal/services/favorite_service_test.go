package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsync/server/internal/models"
)

func TestFavoriteService_AddRemove(t *testing.T) {
	env := newTestEnv(t)
	userID := newTestUser(t, env)
	ctx := context.Background()

	t.Run("add and list", func(t *testing.T) {
		favorite, err := env.favorites.Add(ctx, userID, "flowchart-basic")
		require.NoError(t, err)
		assert.Equal(t, "flowchart-basic", favorite.TemplateID)

		favorites, err := env.favorites.List(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, favorites, 1)
	})

	t.Run("re-add returns the stored record", func(t *testing.T) {
		first, err := env.favorites.Add(ctx, userID, "sequence-basic")
		require.NoError(t, err)

		second, err := env.favorites.Add(ctx, userID, "sequence-basic")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		favorites, err := env.favorites.List(ctx, userID)
		require.NoError(t, err)
		count := 0
		for _, f := range favorites {
			if f.TemplateID == "sequence-basic" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("remove", func(t *testing.T) {
		_, err := env.favorites.Add(ctx, userID, "gantt-basic")
		require.NoError(t, err)

		require.NoError(t, env.favorites.Remove(ctx, userID, "gantt-basic"))
		err = env.favorites.Remove(ctx, userID, "gantt-basic")
		assert.ErrorIs(t, err, models.ErrFavoriteNotFound)
	})
}

func TestFavoriteService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("merge key is the template id", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		outcome, all, err := env.favorites.Reconcile(ctx, userID, []models.FavoriteSyncRecord{
			{TemplateID: "flowchart-basic", ClientID: "f1", ClientTimestamp: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Created)
		assert.Len(t, all, 1)

		// Same template from another device, older stamp: nothing changes
		outcome, all, err = env.favorites.Reconcile(ctx, userID, []models.FavoriteSyncRecord{
			{TemplateID: "flowchart-basic", ClientID: "f2", ClientTimestamp: 50},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Skipped)
		require.Len(t, all, 1)
		assert.Equal(t, "f1", *all[0].ClientID)
	})

	t.Run("newer stamp takes over the record", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, _, err := env.favorites.Reconcile(ctx, userID, []models.FavoriteSyncRecord{
			{TemplateID: "flowchart-basic", ClientID: "f1", ClientTimestamp: 100},
		})
		require.NoError(t, err)

		outcome, all, err := env.favorites.Reconcile(ctx, userID, []models.FavoriteSyncRecord{
			{TemplateID: "flowchart-basic", ClientID: "f2", ClientTimestamp: 200},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Updated)
		require.Len(t, all, 1)
		assert.Equal(t, "f2", *all[0].ClientID)
		assert.Equal(t, int64(200), all[0].ClientTimestamp)
	})

	t.Run("duplicate template ids collapse to the last entry", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		outcome, all, err := env.favorites.Reconcile(ctx, userID, []models.FavoriteSyncRecord{
			{TemplateID: "flowchart-basic", ClientID: "f1", ClientTimestamp: 300},
			{TemplateID: "flowchart-basic", ClientID: "f2", ClientTimestamp: 100},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Created)
		require.Len(t, all, 1)
		assert.Equal(t, "f2", *all[0].ClientID)
	})

	t.Run("retry is idempotent", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		records := []models.FavoriteSyncRecord{
			{TemplateID: "flowchart-basic", ClientID: "f1", ClientTimestamp: 100},
		}

		_, _, err := env.favorites.Reconcile(ctx, userID, records)
		require.NoError(t, err)

		outcome, all, err := env.favorites.Reconcile(ctx, userID, records)
		require.NoError(t, err)
		assert.Equal(t, 0, outcome.Created)
		assert.Equal(t, 1, outcome.Skipped)
		assert.Len(t, all, 1)
	})
}
