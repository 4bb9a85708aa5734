package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsync/server/internal/models"
)

func TestAIService_Messages(t *testing.T) {
	env := newTestEnv(t)
	userID := newTestUser(t, env)
	ctx := context.Background()

	t.Run("add and list in order", func(t *testing.T) {
		_, err := env.ai.AddMessage(ctx, userID, models.RoleUser, "draw a login flow")
		require.NoError(t, err)
		_, err = env.ai.AddMessage(ctx, userID, models.RoleAssistant, "graph TD;Login-->Home")
		require.NoError(t, err)

		messages, err := env.ai.GetHistory(ctx, userID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, models.RoleUser, messages[0].Role)
		assert.Equal(t, models.RoleAssistant, messages[1].Role)
	})

	t.Run("rejects unknown role and empty content", func(t *testing.T) {
		_, err := env.ai.AddMessage(ctx, userID, "system", "nope")
		assert.ErrorIs(t, err, models.ErrInvalidChatRole)

		_, err = env.ai.AddMessage(ctx, userID, models.RoleUser, "   ")
		assert.ErrorIs(t, err, models.ErrChatContentEmpty)
	})

	t.Run("clear removes history and snapshots", func(t *testing.T) {
		_, _, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Snapshots: []models.SnapshotSyncRecord{
				{ClientID: "s1", ClientTimestamp: 100, Code: "graph TD;"},
			},
		})
		require.NoError(t, err)

		require.NoError(t, env.ai.ClearHistory(ctx, userID))

		messages, err := env.ai.GetHistory(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, messages)

		_, state, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{})
		require.NoError(t, err)
		assert.Empty(t, state.Snapshots)
	})
}

func TestAIService_Config(t *testing.T) {
	env := newTestEnv(t)
	userID := newTestUser(t, env)
	ctx := context.Background()

	t.Run("nil before first write", func(t *testing.T) {
		config, err := env.ai.GetConfig(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, config)
	})

	t.Run("partial update and key round trip", func(t *testing.T) {
		consent := true
		model := "claude-sonnet"
		key := "sk-test-12345"
		config, err := env.ai.UpdateConfig(ctx, userID, &models.UpdateAIConfigRequest{
			ConsentGranted: &consent,
			Model:          &model,
			APIKey:         &key,
		})
		require.NoError(t, err)
		assert.True(t, config.ConsentGranted)
		assert.Equal(t, "sk-test-12345", config.APIKey)

		// Key survives the stored encoding
		loaded, err := env.ai.GetConfig(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "sk-test-12345", loaded.APIKey)

		// Updating only the model leaves the rest alone
		model2 := "claude-opus"
		config, err = env.ai.UpdateConfig(ctx, userID, &models.UpdateAIConfigRequest{Model: &model2})
		require.NoError(t, err)
		assert.Equal(t, "claude-opus", config.Model)
		assert.True(t, config.ConsentGranted)
		assert.Equal(t, "sk-test-12345", config.APIKey)
	})
}

func TestAIService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("messages are append-only", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		outcome, state, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Messages: []models.ChatMessageSyncRecord{
				{ClientID: "m1", ClientTimestamp: 100, Role: models.RoleUser, Content: "first"},
				{ClientID: "m2", ClientTimestamp: 200, Role: models.RoleAssistant, Content: "second"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, outcome.Created)
		assert.Len(t, state.Messages, 2)

		// A known clientId is skipped even with a newer stamp and different
		// content; history entries never change after the fact.
		outcome, state, err = env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Messages: []models.ChatMessageSyncRecord{
				{ClientID: "m1", ClientTimestamp: 9999, Role: models.RoleUser, Content: "edited"},
				{ClientID: "m3", ClientTimestamp: 300, Role: models.RoleUser, Content: "third"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Created)
		assert.Equal(t, 1, outcome.Skipped)
		require.Len(t, state.Messages, 3)
		assert.Equal(t, "first", state.Messages[0].Content)
	})

	t.Run("snapshots replace wholesale when present", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, _, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Snapshots: []models.SnapshotSyncRecord{
				{ClientID: "s1", ClientTimestamp: 100, Code: "graph TD;old"},
				{ClientID: "s2", ClientTimestamp: 100, Code: "graph TD;old2"},
			},
		})
		require.NoError(t, err)

		_, state, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Snapshots: []models.SnapshotSyncRecord{
				{ClientID: "s3", ClientTimestamp: 200, Code: "graph TD;new"},
			},
		})
		require.NoError(t, err)
		require.Len(t, state.Snapshots, 1)
		assert.Equal(t, "s3", *state.Snapshots[0].ClientID)
		assert.Equal(t, "graph TD;new", state.Snapshots[0].Code)
	})

	t.Run("absent snapshot list leaves the stored set alone", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, _, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Snapshots: []models.SnapshotSyncRecord{
				{ClientID: "s1", ClientTimestamp: 100, Code: "graph TD;"},
			},
		})
		require.NoError(t, err)

		// Messages-only payload: Snapshots is nil, not empty
		_, state, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Messages: []models.ChatMessageSyncRecord{
				{ClientID: "m1", ClientTimestamp: 100, Role: models.RoleUser, Content: "hi"},
			},
		})
		require.NoError(t, err)
		assert.Len(t, state.Snapshots, 1)
	})

	t.Run("empty snapshot list clears the stored set", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		_, _, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Snapshots: []models.SnapshotSyncRecord{
				{ClientID: "s1", ClientTimestamp: 100, Code: "graph TD;"},
			},
		})
		require.NoError(t, err)

		_, state, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Snapshots: []models.SnapshotSyncRecord{},
		})
		require.NoError(t, err)
		assert.Empty(t, state.Snapshots)
	})

	t.Run("config follows last write wins", func(t *testing.T) {
		env := newTestEnv(t)
		userID := newTestUser(t, env)

		outcome, state, err := env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Config: &models.AIConfigSyncRecord{
				ClientTimestamp: 1000,
				ConsentGranted:  true,
				Model:           "claude-sonnet",
				APIKey:          "sk-one",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Created)
		require.NotNil(t, state.Config)
		assert.Equal(t, "sk-one", state.Config.APIKey)

		// Stale config record is ignored
		outcome, state, err = env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Config: &models.AIConfigSyncRecord{
				ClientTimestamp: 500,
				Model:           "claude-haiku",
				APIKey:          "sk-two",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Skipped)
		assert.Equal(t, "claude-sonnet", state.Config.Model)

		outcome, state, err = env.ai.Reconcile(ctx, userID, &models.AISyncSection{
			Config: &models.AIConfigSyncRecord{
				ClientTimestamp: 2000,
				ConsentGranted:  true,
				Model:           "claude-opus",
				APIKey:          "sk-three",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outcome.Updated)
		assert.Equal(t, "claude-opus", state.Config.Model)
		assert.Equal(t, "sk-three", state.Config.APIKey)
	})
}
