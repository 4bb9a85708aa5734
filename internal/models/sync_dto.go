package models

import (
	"encoding/json"
	"fmt"
)

// SyncRequest is the full multi-domain payload for POST /api/sync.
// Every section is optional; an absent section leaves that domain's
// server state untouched (its full current state is still returned).
type SyncRequest struct {
	Diagrams   *DiagramSyncSection  `json:"diagrams,omitempty"`
	Templates  *TemplateSyncSection `json:"templates,omitempty"`
	Favorites  *FavoriteSyncSection `json:"favorites,omitempty"`
	Settings   *SettingsSyncSection `json:"settings,omitempty"`
	AI         *AISyncSection       `json:"ai,omitempty"`
	LastSyncAt int64                `json:"lastSyncAt,omitempty"`
}

// DiagramSyncSection carries client diagram records plus the device's
// last sync marker for the domain.
type DiagramSyncSection struct {
	Records    []DiagramSyncRecord `json:"records"`
	LastSyncAt int64               `json:"lastSyncAt,omitempty"`
}

// DiagramSyncRecord is one client-side diagram in a sync payload
type DiagramSyncRecord struct {
	ClientID        string          `json:"clientId"`
	ClientTimestamp int64           `json:"clientTimestamp"`
	Name            string          `json:"name"`
	Code            string          `json:"code"`
	Settings        json.RawMessage `json:"settings,omitempty"`
}

// TemplateSyncSection carries client collection records, each with its
// nested custom templates.
type TemplateSyncSection struct {
	Records    []CollectionSyncRecord `json:"records"`
	LastSyncAt int64                  `json:"lastSyncAt,omitempty"`
}

// CollectionSyncRecord is one client-side template collection
type CollectionSyncRecord struct {
	ClientID        string                     `json:"clientId"`
	ClientTimestamp int64                      `json:"clientTimestamp"`
	Name            string                     `json:"name"`
	TemplateIDs     []string                   `json:"templateIds"`
	CustomTemplates []CustomTemplateSyncRecord `json:"customTemplates,omitempty"`
}

// CustomTemplateSyncRecord is one nested custom template. It reconciles
// against the store only when its parent collection wins the outer
// timestamp comparison.
type CustomTemplateSyncRecord struct {
	ClientID        string  `json:"clientId"`
	ClientTimestamp int64   `json:"clientTimestamp"`
	Name            string  `json:"name"`
	Code            string  `json:"code"`
	Description     *string `json:"description,omitempty"`
}

// FavoriteSyncSection carries client favorite records
type FavoriteSyncSection struct {
	Records    []FavoriteSyncRecord `json:"records"`
	LastSyncAt int64                `json:"lastSyncAt,omitempty"`
}

// FavoriteSyncRecord is one client-side favorite. The templateId is the
// merge key; clientId is carried through but has no identity of its own.
type FavoriteSyncRecord struct {
	TemplateID      string `json:"templateId"`
	ClientID        string `json:"clientId,omitempty"`
	ClientTimestamp int64  `json:"clientTimestamp"`
}

// SettingsSyncSection carries the settings sub-objects. UpdatedAt is the
// client edit timestamp; when zero, the orchestrator derives an effective
// timestamp from the section's lastSyncAt, then the overall lastSyncAt,
// then server time.
type SettingsSyncSection struct {
	UpdatedAt     int64                      `json:"updatedAt,omitempty"`
	MermaidConfig json.RawMessage            `json:"mermaidConfig,omitempty"`
	ThemeSettings json.RawMessage            `json:"themeSettings,omitempty"`
	KeyValueStore map[string]json.RawMessage `json:"keyValueStore,omitempty"`
	LastSyncAt    int64                      `json:"lastSyncAt,omitempty"`
}

// AISyncSection carries the three AI collections
type AISyncSection struct {
	Messages   []ChatMessageSyncRecord `json:"messages,omitempty"`
	Snapshots  []SnapshotSyncRecord    `json:"snapshots,omitempty"`
	Config     *AIConfigSyncRecord     `json:"config,omitempty"`
	LastSyncAt int64                   `json:"lastSyncAt,omitempty"`
}

// ChatMessageSyncRecord is one client-side chat message (create-only)
type ChatMessageSyncRecord struct {
	ClientID        string `json:"clientId"`
	ClientTimestamp int64  `json:"clientTimestamp"`
	Role            string `json:"role"`
	Content         string `json:"content"`
}

// SnapshotSyncRecord is one client-side diagram snapshot (replace-all)
type SnapshotSyncRecord struct {
	ClientID        string  `json:"clientId"`
	ClientTimestamp int64   `json:"clientTimestamp"`
	DiagramClientID *string `json:"diagramClientId,omitempty"`
	Code            string  `json:"code"`
}

// AIConfigSyncRecord is the client-side AI config
type AIConfigSyncRecord struct {
	ClientTimestamp int64  `json:"clientTimestamp"`
	ConsentGranted  bool   `json:"consentGranted"`
	Model           string `json:"model"`
	APIKey          string `json:"apiKey,omitempty"`
}

// SyncValidationError reports a malformed record rejected at the boundary
type SyncValidationError struct {
	Domain string
	Index  int
	Reason string
}

func (e SyncValidationError) Error() string {
	return fmt.Sprintf("invalid %s record at index %d: %s", e.Domain, e.Index, e.Reason)
}

// Validate rejects malformed records before they reach the reconcilers.
// Shape problems are terminal 400s; the reconcilers themselves never see
// a record without a merge key or with a negative timestamp.
func (r *SyncRequest) Validate() error {
	if r.Diagrams != nil {
		for i, rec := range r.Diagrams.Records {
			if rec.ClientID == "" {
				return SyncValidationError{"diagram", i, "clientId is required"}
			}
			if rec.ClientTimestamp < 0 {
				return SyncValidationError{"diagram", i, "clientTimestamp must not be negative"}
			}
		}
	}
	if r.Templates != nil {
		for i, rec := range r.Templates.Records {
			if rec.ClientID == "" {
				return SyncValidationError{"collection", i, "clientId is required"}
			}
			if rec.ClientTimestamp < 0 {
				return SyncValidationError{"collection", i, "clientTimestamp must not be negative"}
			}
			for j, ct := range rec.CustomTemplates {
				if ct.ClientID == "" {
					return SyncValidationError{"customTemplate", j, "clientId is required"}
				}
				if ct.ClientTimestamp < 0 {
					return SyncValidationError{"customTemplate", j, "clientTimestamp must not be negative"}
				}
			}
		}
	}
	if r.Favorites != nil {
		for i, rec := range r.Favorites.Records {
			if rec.TemplateID == "" {
				return SyncValidationError{"favorite", i, "templateId is required"}
			}
			if rec.ClientTimestamp < 0 {
				return SyncValidationError{"favorite", i, "clientTimestamp must not be negative"}
			}
		}
	}
	if r.AI != nil {
		for i, rec := range r.AI.Messages {
			if rec.ClientID == "" {
				return SyncValidationError{"chatMessage", i, "clientId is required"}
			}
			if rec.Role != RoleUser && rec.Role != RoleAssistant {
				return SyncValidationError{"chatMessage", i, "role must be user or assistant"}
			}
		}
		for i, rec := range r.AI.Snapshots {
			if rec.ClientID == "" {
				return SyncValidationError{"snapshot", i, "clientId is required"}
			}
		}
	}
	return nil
}

// SyncResponse is the full-state snapshot returned by POST /api/sync.
// Every section always contains the owner's complete current record set
// for that domain, never a delta.
type SyncResponse struct {
	Diagrams    DiagramSyncResult  `json:"diagrams"`
	Templates   TemplateSyncResult `json:"templates"`
	Favorites   FavoriteSyncResult `json:"favorites"`
	Settings    SettingsSyncResult `json:"settings"`
	AI          AISyncResult       `json:"ai"`
	SyncedAt    int64              `json:"syncedAt"`
	IsFirstSync bool               `json:"isFirstSync"`
}

// DiagramSyncResult is the reconciled diagram domain state
type DiagramSyncResult struct {
	Records  []*Diagram `json:"records"`
	SyncedAt int64      `json:"syncedAt"`
}

// TemplateSyncResult is the reconciled template domain state
type TemplateSyncResult struct {
	Records  []*TemplateCollection `json:"records"`
	SyncedAt int64                 `json:"syncedAt"`
}

// FavoriteSyncResult is the reconciled favorite domain state
type FavoriteSyncResult struct {
	Records  []*Favorite `json:"records"`
	SyncedAt int64       `json:"syncedAt"`
}

// SettingsSyncResult is the reconciled settings state
type SettingsSyncResult struct {
	Settings *UserSettings `json:"settings"`
	SyncedAt int64         `json:"syncedAt"`
}

// AISyncResult is the reconciled AI state
type AISyncResult struct {
	Messages  []*ChatMessage     `json:"messages"`
	Snapshots []*DiagramSnapshot `json:"snapshots"`
	Config    *AIConfig          `json:"config"`
	SyncedAt  int64              `json:"syncedAt"`
}

// ReconcileOutcome counts what one domain reconciliation did. Skips cover
// both stale updates (existing record won) and append-only duplicates.
// A skipped incoming record is dropped with no conflict log, which is the
// documented last-write-wins trade-off.
type ReconcileOutcome struct {
	Created int
	Updated int
	Skipped int
}

// Add accumulates another outcome into this one
func (o *ReconcileOutcome) Add(other ReconcileOutcome) {
	o.Created += other.Created
	o.Updated += other.Updated
	o.Skipped += other.Skipped
}
