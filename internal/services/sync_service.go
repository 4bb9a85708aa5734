package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/observability"
)

// SyncService orchestrates a full multi-domain sync. Domains are
// reconciled independently in a fixed order and not transactionally as a
// unit: a failure leaves earlier domains committed, and the client
// retries the whole call, which is idempotent per clientId/timestamp.
type SyncService struct {
	diagrams  *DiagramService
	templates *TemplateService
	favorites *FavoriteService
	settings  *SettingsService
	ai        *AIService
	metrics   *observability.BusinessMetrics
	hub       *WebSocketHub
}

// NewSyncService creates a new SyncService
func NewSyncService(
	diagrams *DiagramService,
	templates *TemplateService,
	favorites *FavoriteService,
	settings *SettingsService,
	ai *AIService,
) *SyncService {
	return &SyncService{
		diagrams:  diagrams,
		templates: templates,
		favorites: favorites,
		settings:  settings,
		ai:        ai,
	}
}

// SetMetrics sets the business metrics instruments
func (s *SyncService) SetMetrics(metrics *observability.BusinessMetrics) {
	s.metrics = metrics
}

// SetWebSocketHub sets the hub used to notify a user's other devices
func (s *SyncService) SetWebSocketHub(hub *WebSocketHub) {
	s.hub = hub
}

// FullSync reconciles every domain present in the payload and returns the
// complete post-merge state for all domains, so the client can replace
// its local cache wholesale. originConn is the caller's own websocket
// connection id (empty when it has none); the completion event fans out
// to the user's other connections only.
func (s *SyncService) FullSync(ctx context.Context, userID, originConn string, req *models.SyncRequest) (*models.SyncResponse, error) {
	ctx, span := observability.StartServiceSpan(ctx, "sync", "FullSync")
	defer span.End()
	span.SetAttributes(observability.UserID(userID))

	start := time.Now()
	isFirstSync := computeIsFirstSync(req)
	syncedAt := start.UnixMilli()

	resp := &models.SyncResponse{
		SyncedAt:    syncedAt,
		IsFirstSync: isFirstSync,
	}
	var total models.ReconcileOutcome

	// Fixed domain order. Not semantically significant beyond determinism.
	diagramOutcome, diagramRecords, err := s.syncDiagrams(ctx, userID, req.Diagrams)
	if err != nil {
		return s.fail(ctx, span, start, isFirstSync, fmt.Errorf("diagrams: %w", err))
	}
	total.Add(diagramOutcome)
	resp.Diagrams = models.DiagramSyncResult{Records: diagramRecords, SyncedAt: syncedAt}

	templateOutcome, templateRecords, err := s.syncTemplates(ctx, userID, req.Templates)
	if err != nil {
		return s.fail(ctx, span, start, isFirstSync, fmt.Errorf("templates: %w", err))
	}
	total.Add(templateOutcome)
	resp.Templates = models.TemplateSyncResult{Records: templateRecords, SyncedAt: syncedAt}

	favoriteOutcome, favoriteRecords, err := s.syncFavorites(ctx, userID, req.Favorites)
	if err != nil {
		return s.fail(ctx, span, start, isFirstSync, fmt.Errorf("favorites: %w", err))
	}
	total.Add(favoriteOutcome)
	resp.Favorites = models.FavoriteSyncResult{Records: favoriteRecords, SyncedAt: syncedAt}

	settingsOutcome, settingsState, err := s.syncSettings(ctx, userID, req, syncedAt)
	if err != nil {
		return s.fail(ctx, span, start, isFirstSync, fmt.Errorf("settings: %w", err))
	}
	total.Add(settingsOutcome)
	resp.Settings = models.SettingsSyncResult{Settings: settingsState, SyncedAt: syncedAt}

	aiOutcome, aiState, err := s.syncAI(ctx, userID, req.AI)
	if err != nil {
		return s.fail(ctx, span, start, isFirstSync, fmt.Errorf("ai: %w", err))
	}
	total.Add(aiOutcome)
	aiState.SyncedAt = syncedAt
	resp.AI = *aiState

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordSyncOperation(ctx, isFirstSync, duration, nil)
	}
	observability.SetSuccess(span)

	observability.WithContext(ctx).WithFields(map[string]interface{}{
		"user_id":    userID,
		"first_sync": isFirstSync,
		"created":    total.Created,
		"updated":    total.Updated,
		"skipped":    total.Skipped,
		"duration":   duration.String(),
	}).Info("full sync completed")

	if s.hub != nil && (total.Created > 0 || total.Updated > 0) {
		s.hub.NotifyOtherDevices(userID, originConn, WSMessage{
			Type: WSTypeSyncCompleted,
			Payload: SyncCompletedPayload{
				SyncedAt:    syncedAt,
				IsFirstSync: isFirstSync,
				Created:     total.Created,
				Updated:     total.Updated,
			},
		})
	}

	return resp, nil
}

func (s *SyncService) fail(ctx context.Context, span trace.Span, start time.Time, isFirstSync bool, err error) (*models.SyncResponse, error) {
	observability.RecordError(span, err)
	if s.metrics != nil {
		s.metrics.RecordSyncOperation(ctx, isFirstSync, time.Since(start), err)
	}
	return nil, err
}

func (s *SyncService) syncDiagrams(ctx context.Context, userID string, section *models.DiagramSyncSection) (models.ReconcileOutcome, []*models.Diagram, error) {
	if section == nil {
		records, err := s.diagrams.List(ctx, userID)
		return models.ReconcileOutcome{}, records, err
	}

	outcome, records, err := s.diagrams.Reconcile(ctx, userID, section.Records)
	if err == nil && s.metrics != nil {
		s.metrics.RecordSyncDomain(ctx, "diagrams", outcome.Created, outcome.Updated, outcome.Skipped)
	}
	return outcome, records, err
}

func (s *SyncService) syncTemplates(ctx context.Context, userID string, section *models.TemplateSyncSection) (models.ReconcileOutcome, []*models.TemplateCollection, error) {
	if section == nil {
		records, err := s.templates.ListCollections(ctx, userID)
		return models.ReconcileOutcome{}, records, err
	}

	outcome, records, err := s.templates.Reconcile(ctx, userID, section.Records)
	if err == nil && s.metrics != nil {
		s.metrics.RecordSyncDomain(ctx, "templates", outcome.Created, outcome.Updated, outcome.Skipped)
	}
	return outcome, records, err
}

func (s *SyncService) syncFavorites(ctx context.Context, userID string, section *models.FavoriteSyncSection) (models.ReconcileOutcome, []*models.Favorite, error) {
	if section == nil {
		records, err := s.favorites.List(ctx, userID)
		return models.ReconcileOutcome{}, records, err
	}

	outcome, records, err := s.favorites.Reconcile(ctx, userID, section.Records)
	if err == nil && s.metrics != nil {
		s.metrics.RecordSyncDomain(ctx, "favorites", outcome.Created, outcome.Updated, outcome.Skipped)
	}
	return outcome, records, err
}

func (s *SyncService) syncSettings(ctx context.Context, userID string, req *models.SyncRequest, now int64) (models.ReconcileOutcome, *models.UserSettings, error) {
	if req.Settings == nil {
		settings, err := s.settings.GetOrCreate(ctx, userID)
		return models.ReconcileOutcome{}, settings, err
	}

	effective := settingsEffectiveTimestamp(req, now)
	outcome, settings, err := s.settings.Reconcile(ctx, userID, req.Settings, effective)
	if err == nil && s.metrics != nil {
		s.metrics.RecordSyncDomain(ctx, "settings", outcome.Created, outcome.Updated, outcome.Skipped)
	}
	return outcome, settings, err
}

func (s *SyncService) syncAI(ctx context.Context, userID string, section *models.AISyncSection) (models.ReconcileOutcome, *models.AISyncResult, error) {
	if section == nil {
		state, err := s.ai.currentState(ctx, userID)
		return models.ReconcileOutcome{}, state, err
	}

	outcome, state, err := s.ai.Reconcile(ctx, userID, section)
	if err == nil && s.metrics != nil {
		s.metrics.RecordSyncDomain(ctx, "ai", outcome.Created, outcome.Updated, outcome.Skipped)
	}
	return outcome, state, err
}

// computeIsFirstSync reports whether this payload is a device's first
// contact: true only when every sync marker in the payload is absent or
// zero. Any nonzero marker anywhere makes the whole call not-first.
func computeIsFirstSync(req *models.SyncRequest) bool {
	if req.LastSyncAt != 0 {
		return false
	}
	if req.Diagrams != nil && req.Diagrams.LastSyncAt != 0 {
		return false
	}
	if req.Templates != nil && req.Templates.LastSyncAt != 0 {
		return false
	}
	if req.Favorites != nil && req.Favorites.LastSyncAt != 0 {
		return false
	}
	if req.Settings != nil && req.Settings.LastSyncAt != 0 {
		return false
	}
	if req.AI != nil && req.AI.LastSyncAt != 0 {
		return false
	}
	return true
}

// settingsEffectiveTimestamp resolves the timestamp gating the settings
// record. Fallback chain: explicit updatedAt, else the settings section's
// lastSyncAt, else the overall lastSyncAt, else the server's current
// time, so a settings block with no timestamp still participates in
// last-write-wins deterministically.
func settingsEffectiveTimestamp(req *models.SyncRequest, now int64) int64 {
	if req.Settings.UpdatedAt != 0 {
		return req.Settings.UpdatedAt
	}
	if req.Settings.LastSyncAt != 0 {
		return req.Settings.LastSyncAt
	}
	if req.LastSyncAt != 0 {
		return req.LastSyncAt
	}
	return now
}
