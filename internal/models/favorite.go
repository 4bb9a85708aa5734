package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite marks a template as a user favorite. The (userID, templateID)
// pair is the identity; re-adding an existing favorite is a no-op.
type Favorite struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	TemplateID      string    `json:"templateId"`
	ClientID        *string   `json:"clientId,omitempty"`
	ClientTimestamp int64     `json:"clientTimestamp"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewFavorite creates a favorite with a generated ID
func NewFavorite(userID, templateID string) (*Favorite, error) {
	if templateID == "" {
		return nil, ErrFavoriteTemplateRequired
	}

	return &Favorite{
		ID:         uuid.New().String(),
		UserID:     userID,
		TemplateID: templateID,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Favorite errors
type FavoriteError struct {
	Message string
}

func (e FavoriteError) Error() string {
	return e.Message
}

var (
	ErrFavoriteNotFound         = FavoriteError{"favorite not found"}
	ErrFavoriteTemplateRequired = FavoriteError{"template ID is required"}
)
