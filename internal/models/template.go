package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TemplateCollection groups built-in template references and user-authored
// custom templates. Built-in templates are referenced by plain string ID;
// custom templates are owned rows that cascade-delete with the collection.
type TemplateCollection struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ClientID        *string   `json:"clientId,omitempty"`
	ClientTimestamp int64     `json:"clientTimestamp"`
	Name            string    `json:"name"`
	TemplateIDs     []string  `json:"templateIds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// Loaded separately, not a DB column
	CustomTemplates []*CustomTemplate `json:"customTemplates,omitempty"`
}

// CustomTemplate is a user-authored template nested inside a collection
type CustomTemplate struct {
	ID              string    `json:"id"`
	CollectionID    string    `json:"collectionId"`
	UserID          string    `json:"userId"`
	ClientID        *string   `json:"clientId,omitempty"`
	ClientTimestamp int64     `json:"clientTimestamp"`
	Name            string    `json:"name"`
	Code            string    `json:"code"`
	Description     *string   `json:"description,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewTemplateCollection creates a collection with a generated ID
func NewTemplateCollection(userID, name string) (*TemplateCollection, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrCollectionUserRequired
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrCollectionNameRequired
	}

	now := time.Now().UTC()
	return &TemplateCollection{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		TemplateIDs: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewCustomTemplate creates a custom template inside a collection
func NewCustomTemplate(collectionID, userID, name, code string) (*CustomTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrTemplateNameRequired
	}

	now := time.Now().UTC()
	return &CustomTemplate{
		ID:           uuid.New().String(),
		CollectionID: collectionID,
		UserID:       userID,
		Name:         strings.TrimSpace(name),
		Code:         code,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Template errors
type TemplateError struct {
	Message string
}

func (e TemplateError) Error() string {
	return e.Message
}

var (
	ErrCollectionNotFound     = TemplateError{"template collection not found"}
	ErrCollectionNameRequired = TemplateError{"collection name is required"}
	ErrCollectionUserRequired = TemplateError{"user ID is required"}
	ErrTemplateNotFound       = TemplateError{"custom template not found"}
	ErrTemplateNameRequired   = TemplateError{"template name is required"}
)
