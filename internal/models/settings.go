package models

import (
	"encoding/json"
	"time"
)

// UserSettings is a single record per user holding three independently
// merged sub-objects: mermaidConfig and themeSettings are replaced
// wholesale when present in an update; keyValueStore is merged key by key.
type UserSettings struct {
	UserID          string                     `json:"userId"`
	ClientTimestamp int64                      `json:"clientTimestamp"`
	MermaidConfig   json.RawMessage            `json:"mermaidConfig,omitempty"`
	ThemeSettings   json.RawMessage            `json:"themeSettings,omitempty"`
	KeyValueStore   map[string]json.RawMessage `json:"keyValueStore,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

// NewUserSettings creates an empty settings record for a user
func NewUserSettings(userID string) *UserSettings {
	now := time.Now().UTC()
	return &UserSettings{
		UserID:        userID,
		KeyValueStore: map[string]json.RawMessage{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MergeKeyValues overlays incoming keys onto the stored key-value store.
// Stored keys absent from the incoming map survive untouched.
func (s *UserSettings) MergeKeyValues(incoming map[string]json.RawMessage) {
	if len(incoming) == 0 {
		return
	}
	if s.KeyValueStore == nil {
		s.KeyValueStore = map[string]json.RawMessage{}
	}
	for k, v := range incoming {
		s.KeyValueStore[k] = v
	}
}

// Settings errors
type SettingsError struct {
	Message string
}

func (e SettingsError) Error() string {
	return e.Message
}

var ErrSettingsNotFound = SettingsError{"settings not found"}
