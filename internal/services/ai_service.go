package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/repository"
)

// AIService manages the three per-user AI collections: the append-only
// chat history, diagram snapshots (replaced wholesale on each sync), and
// the single config record.
type AIService struct {
	messageRepo  repository.ChatMessageRepo
	snapshotRepo repository.SnapshotRepo
	configRepo   repository.AIConfigRepo
	codec        *ContentCodec
}

// NewAIService creates a new AIService
func NewAIService(messageRepo repository.ChatMessageRepo, snapshotRepo repository.SnapshotRepo, configRepo repository.AIConfigRepo, codec *ContentCodec) *AIService {
	return &AIService{
		messageRepo:  messageRepo,
		snapshotRepo: snapshotRepo,
		configRepo:   configRepo,
		codec:        codec,
	}
}

// GetHistory returns the user's chat history in client edit order
func (s *AIService) GetHistory(ctx context.Context, userID string) ([]*models.ChatMessage, error) {
	messages, err := s.messageRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// AddMessage appends one chat message via the direct endpoint path
func (s *AIService) AddMessage(ctx context.Context, userID, role, content string) (*models.ChatMessage, error) {
	if role != models.RoleUser && role != models.RoleAssistant {
		return nil, models.ErrInvalidChatRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, models.ErrChatContentEmpty
	}

	message := models.NewChatMessage(userID, role, content)
	message.ClientTimestamp = time.Now().UnixMilli()
	if err := s.messageRepo.Add(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}
	return message, nil
}

// ClearHistory deletes the user's chat history and snapshots
func (s *AIService) ClearHistory(ctx context.Context, userID string) error {
	if err := s.messageRepo.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear chat messages: %w", err)
	}
	if err := s.snapshotRepo.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// GetConfig returns the user's AI config with the API key decoded, or
// nil when none is stored
func (s *AIService) GetConfig(ctx context.Context, userID string) (*models.AIConfig, error) {
	config, err := s.configRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get AI config: %w", err)
	}
	if config == nil {
		return nil, nil
	}

	config.APIKey = s.codec.Decode(config.APIKey)
	return config, nil
}

// UpdateConfig applies a direct partial update to the AI config
func (s *AIService) UpdateConfig(ctx context.Context, userID string, req *models.UpdateAIConfigRequest) (*models.AIConfig, error) {
	config, err := s.configRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get AI config: %w", err)
	}
	if config == nil {
		config = &models.AIConfig{UserID: userID}
	}

	if req.ConsentGranted != nil {
		config.ConsentGranted = *req.ConsentGranted
	}
	if req.Model != nil {
		config.Model = *req.Model
	}
	if req.APIKey != nil {
		config.APIKey = s.codec.Encode(*req.APIKey)
	}
	config.ClientTimestamp = time.Now().UnixMilli()

	if err := s.configRepo.Upsert(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to save AI config: %w", err)
	}

	config.APIKey = s.codec.Decode(config.APIKey)
	return config, nil
}

// Reconcile merges an incoming AI section. Messages only ever create: a
// clientId already stored is skipped with no timestamp comparison.
// Snapshots are replaced wholesale when the payload carries a snapshot
// list. The config record follows the usual last-write-wins gate.
func (s *AIService) Reconcile(ctx context.Context, userID string, section *models.AISyncSection) (models.ReconcileOutcome, *models.AISyncResult, error) {
	var outcome models.ReconcileOutcome

	msgOutcome, err := s.reconcileMessages(ctx, userID, section.Messages)
	if err != nil {
		return outcome, nil, err
	}
	outcome.Add(msgOutcome)

	if section.Snapshots != nil {
		snapOutcome, err := s.replaceSnapshots(ctx, userID, section.Snapshots)
		if err != nil {
			return outcome, nil, err
		}
		outcome.Add(snapOutcome)
	}

	if section.Config != nil {
		cfgOutcome, err := s.reconcileConfig(ctx, userID, section.Config)
		if err != nil {
			return outcome, nil, err
		}
		outcome.Add(cfgOutcome)
	}

	result, err := s.currentState(ctx, userID)
	if err != nil {
		return outcome, nil, err
	}
	return outcome, result, nil
}

func (s *AIService) reconcileMessages(ctx context.Context, userID string, records []models.ChatMessageSyncRecord) (models.ReconcileOutcome, error) {
	var outcome models.ReconcileOutcome
	if len(records) == 0 {
		return outcome, nil
	}

	existing, err := s.messageRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return outcome, fmt.Errorf("failed to load chat messages: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		if m.ClientID != nil && *m.ClientID != "" {
			seen[*m.ClientID] = true
		}
	}

	for _, rec := range records {
		if seen[rec.ClientID] {
			outcome.Skipped++
			continue
		}

		clientID := rec.ClientID
		message := models.NewChatMessage(userID, rec.Role, rec.Content)
		message.ClientID = &clientID
		message.ClientTimestamp = rec.ClientTimestamp
		if err := s.messageRepo.Add(ctx, message); err != nil {
			return outcome, fmt.Errorf("failed to create chat message: %w", err)
		}
		seen[clientID] = true
		outcome.Created++
	}
	return outcome, nil
}

func (s *AIService) replaceSnapshots(ctx context.Context, userID string, records []models.SnapshotSyncRecord) (models.ReconcileOutcome, error) {
	var outcome models.ReconcileOutcome

	if err := s.snapshotRepo.DeleteAllForUser(ctx, userID); err != nil {
		return outcome, fmt.Errorf("failed to clear snapshots: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if seen[rec.ClientID] {
			outcome.Skipped++
			continue
		}
		seen[rec.ClientID] = true

		clientID := rec.ClientID
		snapshot := &models.DiagramSnapshot{
			ID:              uuid.New().String(),
			UserID:          userID,
			ClientID:        &clientID,
			DiagramClientID: rec.DiagramClientID,
			ClientTimestamp: rec.ClientTimestamp,
			Code:            s.codec.Encode(rec.Code),
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.snapshotRepo.Add(ctx, snapshot); err != nil {
			return outcome, fmt.Errorf("failed to create snapshot: %w", err)
		}
		outcome.Created++
	}
	return outcome, nil
}

func (s *AIService) reconcileConfig(ctx context.Context, userID string, rec *models.AIConfigSyncRecord) (models.ReconcileOutcome, error) {
	var outcome models.ReconcileOutcome

	stored, err := s.configRepo.Get(ctx, userID)
	if err != nil {
		return outcome, fmt.Errorf("failed to get AI config: %w", err)
	}

	if stored != nil && rec.ClientTimestamp <= stored.ClientTimestamp {
		outcome.Skipped++
		return outcome, nil
	}

	created := stored == nil
	config := &models.AIConfig{
		UserID:          userID,
		ClientTimestamp: rec.ClientTimestamp,
		ConsentGranted:  rec.ConsentGranted,
		Model:           rec.Model,
		APIKey:          s.codec.Encode(rec.APIKey),
	}
	if err := s.configRepo.Upsert(ctx, config); err != nil {
		return outcome, fmt.Errorf("failed to save AI config: %w", err)
	}

	if created {
		outcome.Created++
	} else {
		outcome.Updated++
	}
	return outcome, nil
}

// currentState loads the full AI state for the sync response
func (s *AIService) currentState(ctx context.Context, userID string) (*models.AISyncResult, error) {
	messages, err := s.messageRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload chat messages: %w", err)
	}

	snapshots, err := s.snapshotRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload snapshots: %w", err)
	}
	for _, snap := range snapshots {
		snap.Code = s.codec.Decode(snap.Code)
	}

	config, err := s.GetConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.AISyncResult{
		Messages:  messages,
		Snapshots: snapshots,
		Config:    config,
	}, nil
}
