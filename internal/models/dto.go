package models

import (
	"encoding/json"
	"time"
)

// CreateDiagramRequest is the request body for creating a diagram
type CreateDiagramRequest struct {
	Name     string          `json:"name"`
	Code     string          `json:"code"`
	Settings json.RawMessage `json:"settings,omitempty"`
	ClientID *string         `json:"clientId,omitempty"`
}

// UpdateDiagramRequest is the request body for updating a diagram.
// Nil fields are left unchanged.
type UpdateDiagramRequest struct {
	Name     *string         `json:"name,omitempty"`
	Code     *string         `json:"code,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// DiagramListResponse is returned when listing diagrams
type DiagramListResponse struct {
	Diagrams   []*Diagram `json:"diagrams"`
	TotalCount int        `json:"totalCount"`
}

// CreateCollectionRequest is the request body for creating a collection
type CreateCollectionRequest struct {
	Name        string   `json:"name"`
	TemplateIDs []string `json:"templateIds,omitempty"`
	ClientID    *string  `json:"clientId,omitempty"`
}

// UpdateCollectionRequest is the request body for updating a collection
type UpdateCollectionRequest struct {
	Name        *string  `json:"name,omitempty"`
	TemplateIDs []string `json:"templateIds,omitempty"`
}

// CreateCustomTemplateRequest is the request body for adding a custom
// template to a collection
type CreateCustomTemplateRequest struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description *string `json:"description,omitempty"`
	ClientID    *string `json:"clientId,omitempty"`
}

// CollectionListResponse is returned when listing collections
type CollectionListResponse struct {
	Collections []*TemplateCollection `json:"collections"`
	TotalCount  int                   `json:"totalCount"`
}

// FavoriteListResponse is returned when listing favorites
type FavoriteListResponse struct {
	Favorites  []*Favorite `json:"favorites"`
	TotalCount int         `json:"totalCount"`
}

// UpdateSettingsRequest is the request body for PUT /api/settings.
// Present sub-objects replace the stored value; keyValueStore entries are
// merged key by key.
type UpdateSettingsRequest struct {
	MermaidConfig json.RawMessage            `json:"mermaidConfig,omitempty"`
	ThemeSettings json.RawMessage            `json:"themeSettings,omitempty"`
	KeyValueStore map[string]json.RawMessage `json:"keyValueStore,omitempty"`
}

// UpdateAIConfigRequest is the request body for PUT /api/ai/config
type UpdateAIConfigRequest struct {
	ConsentGranted *bool   `json:"consentGranted,omitempty"`
	Model          *string `json:"model,omitempty"`
	APIKey         *string `json:"apiKey,omitempty"`
}

// ChatHistoryResponse is returned when listing chat messages
type ChatHistoryResponse struct {
	Messages   []*ChatMessage `json:"messages"`
	TotalCount int            `json:"totalCount"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}
