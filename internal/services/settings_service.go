package services

import (
	"context"
	"fmt"
	"time"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/repository"
)

// SettingsService manages the single per-user settings record
type SettingsService struct {
	settingsRepo repository.SettingsRepo
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo repository.SettingsRepo) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

// GetOrCreate returns the user's settings, creating an empty record on
// first read
func (s *SettingsService) GetOrCreate(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := s.settingsRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if settings != nil {
		return settings, nil
	}

	settings = models.NewUserSettings(userID)
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}
	return settings, nil
}

// Update applies a direct settings update. mermaidConfig and
// themeSettings replace the stored value when present; keyValueStore
// entries merge key by key.
func (s *SettingsService) Update(ctx context.Context, userID string, req *models.UpdateSettingsRequest) (*models.UserSettings, error) {
	settings, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.MermaidConfig != nil {
		settings.MermaidConfig = req.MermaidConfig
	}
	if req.ThemeSettings != nil {
		settings.ThemeSettings = req.ThemeSettings
	}
	settings.MergeKeyValues(req.KeyValueStore)
	settings.ClientTimestamp = time.Now().UnixMilli()

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// Reconcile merges an incoming settings section. One outer timestamp
// comparison gates the whole record; once the incoming side wins, the
// three sub-objects merge independently. effectiveTimestamp is resolved
// by the orchestrator for sections with no explicit updatedAt.
func (s *SettingsService) Reconcile(ctx context.Context, userID string, section *models.SettingsSyncSection, effectiveTimestamp int64) (models.ReconcileOutcome, *models.UserSettings, error) {
	var outcome models.ReconcileOutcome

	settings, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return outcome, nil, err
	}

	if effectiveTimestamp <= settings.ClientTimestamp {
		outcome.Skipped++
		return outcome, settings, nil
	}

	if section.MermaidConfig != nil {
		settings.MermaidConfig = section.MermaidConfig
	}
	if section.ThemeSettings != nil {
		settings.ThemeSettings = section.ThemeSettings
	}
	settings.MergeKeyValues(section.KeyValueStore)
	settings.ClientTimestamp = effectiveTimestamp

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return outcome, nil, fmt.Errorf("failed to save settings: %w", err)
	}
	outcome.Updated++
	return outcome, settings, nil
}
