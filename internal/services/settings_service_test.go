package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsync/server/internal/models"
)

func TestSettingsService_GetOrCreate(t *testing.T) {
	env := newTestEnv(t)
	userID := newTestUser(t, env)
	ctx := context.Background()

	settings, err := env.settings.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, settings.UserID)
	assert.Equal(t, int64(0), settings.ClientTimestamp)
	assert.Empty(t, settings.KeyValueStore)

	// Second read returns the same record, not a fresh one
	again, err := env.settings.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, settings.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestSettingsService_Update(t *testing.T) {
	env := newTestEnv(t)
	userID := newTestUser(t, env)
	ctx := context.Background()

	t.Run("sub-objects replace, key-value store merges", func(t *testing.T) {
		_, err := env.settings.Update(ctx, userID, &models.UpdateSettingsRequest{
			MermaidConfig: json.RawMessage(`{"theme":"dark"}`),
			KeyValueStore: map[string]json.RawMessage{
				"sidebar": json.RawMessage(`"open"`),
				"zoom":    json.RawMessage(`1.5`),
			},
		})
		require.NoError(t, err)

		settings, err := env.settings.Update(ctx, userID, &models.UpdateSettingsRequest{
			MermaidConfig: json.RawMessage(`{"theme":"forest"}`),
			KeyValueStore: map[string]json.RawMessage{
				"zoom": json.RawMessage(`2.0`),
			},
		})
		require.NoError(t, err)

		assert.JSONEq(t, `{"theme":"forest"}`, string(settings.MermaidConfig))
		// Keys not present in the update survive
		assert.Equal(t, `"open"`, string(settings.KeyValueStore["sidebar"]))
		assert.Equal(t, `2.0`, string(settings.KeyValueStore["zoom"]))
	})

	t.Run("absent sub-objects stay untouched", func(t *testing.T) {
		settings, err := env.settings.Update(ctx, userID, &models.UpdateSettingsRequest{
			ThemeSettings: json.RawMessage(`{"accent":"blue"}`),
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"theme":"forest"}`, string(settings.MermaidConfig))
		assert.JSONEq(t, `{"accent":"blue"}`, string(settings.ThemeSettings))
	})
}

func TestSettingsService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("one timestamp gates the whole record", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		outcome, settings, err := env.settings.Reconcile(ctx, userID, &models.SettingsSyncSection{
			MermaidConfig: json.RawMessage(`{"theme":"dark"}`),
			KeyValueStore: map[string]json.RawMessage{"a": json.RawMessage(`1`)},
		}, 1000)
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Updated)
		assert.Equal(t, int64(1000), settings.ClientTimestamp)

		// A stale section is skipped entirely, key-value keys included
		outcome, settings, err = env.settings.Reconcile(ctx, userID, &models.SettingsSyncSection{
			MermaidConfig: json.RawMessage(`{"theme":"forest"}`),
			KeyValueStore: map[string]json.RawMessage{"b": json.RawMessage(`2`)},
		}, 500)
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Skipped)
		assert.JSONEq(t, `{"theme":"dark"}`, string(settings.MermaidConfig))
		assert.NotContains(t, settings.KeyValueStore, "b")
	})

	t.Run("equal timestamp is skipped", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, _, err := env.settings.Reconcile(ctx, userID, &models.SettingsSyncSection{
			MermaidConfig: json.RawMessage(`{"theme":"dark"}`),
		}, 1000)
		require.NoError(t, err)

		outcome, settings, err := env.settings.Reconcile(ctx, userID, &models.SettingsSyncSection{
			MermaidConfig: json.RawMessage(`{"theme":"forest"}`),
		}, 1000)
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Skipped)
		assert.JSONEq(t, `{"theme":"dark"}`, string(settings.MermaidConfig))
	})

	t.Run("winning section merges keys and replaces sub-objects", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, _, err := env.settings.Reconcile(ctx, userID, &models.SettingsSyncSection{
			MermaidConfig: json.RawMessage(`{"theme":"dark"}`),
			ThemeSettings: json.RawMessage(`{"accent":"blue"}`),
			KeyValueStore: map[string]json.RawMessage{
				"sidebar": json.RawMessage(`"open"`),
				"zoom":    json.RawMessage(`1.0`),
			},
		}, 1000)
		require.NoError(t, err)

		// Newer section with no themeSettings: that sub-object survives
		outcome, settings, err := env.settings.Reconcile(ctx, userID, &models.SettingsSyncSection{
			MermaidConfig: json.RawMessage(`{"theme":"neutral"}`),
			KeyValueStore: map[string]json.RawMessage{
				"zoom": json.RawMessage(`2.0`),
			},
		}, 2000)
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Updated)
		assert.JSONEq(t, `{"theme":"neutral"}`, string(settings.MermaidConfig))
		assert.JSONEq(t, `{"accent":"blue"}`, string(settings.ThemeSettings))
		assert.Equal(t, `"open"`, string(settings.KeyValueStore["sidebar"]))
		assert.Equal(t, `2.0`, string(settings.KeyValueStore["zoom"]))
		assert.Equal(t, int64(2000), settings.ClientTimestamp)
	})
}
