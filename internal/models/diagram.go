package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Diagram represents a Mermaid diagram owned by a user
type Diagram struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	ClientID        *string         `json:"clientId,omitempty"`
	ClientTimestamp int64           `json:"clientTimestamp"`
	Name            string          `json:"name"`
	Code            string          `json:"code"`
	Settings        json.RawMessage `json:"settings,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewDiagram creates a new diagram with a generated ID
func NewDiagram(userID, name, code string) (*Diagram, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrDiagramUserRequired
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrDiagramNameRequired
	}

	now := time.Now().UTC()
	return &Diagram{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Diagram errors
type DiagramError struct {
	Message string
}

func (e DiagramError) Error() string {
	return e.Message
}

var (
	ErrDiagramNotFound     = DiagramError{"diagram not found"}
	ErrDiagramNameRequired = DiagramError{"diagram name is required"}
	ErrDiagramUserRequired = DiagramError{"user ID is required"}
)
