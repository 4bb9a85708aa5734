package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry of a user's AI chat history. The log is
// append-only: a message with a clientId already stored is skipped, never
// overwritten.
type ChatMessage struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ClientID        *string   `json:"clientId,omitempty"`
	ClientTimestamp int64     `json:"clientTimestamp"`
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// NewChatMessage creates a chat message with a generated ID
func NewChatMessage(userID, role, content string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// DiagramSnapshot captures diagram source at the moment an AI exchange
// referenced it. The set is replaced wholesale on every sync.
type DiagramSnapshot struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ClientID        *string   `json:"clientId,omitempty"`
	ClientTimestamp int64     `json:"clientTimestamp"`
	DiagramClientID *string   `json:"diagramClientId,omitempty"`
	Code            string    `json:"code"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewDiagramSnapshot creates a snapshot with a generated ID
func NewDiagramSnapshot(userID, code string) *DiagramSnapshot {
	return &DiagramSnapshot{
		ID:        uuid.New().String(),
		UserID:    userID,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
}

// AIConfig is a single record per user: consent flag, selected model, and
// the user's provider API key. The key is stored encoded by the content
// codec; that transform is reversible obfuscation, not encryption.
type AIConfig struct {
	UserID          string    `json:"userId"`
	ClientTimestamp int64     `json:"clientTimestamp"`
	ConsentGranted  bool      `json:"consentGranted"`
	Model           string    `json:"model"`
	APIKey          string    `json:"apiKey,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AI errors
type AIError struct {
	Message string
}

func (e AIError) Error() string {
	return e.Message
}

var (
	ErrAIConfigNotFound  = AIError{"AI config not found"}
	ErrInvalidChatRole   = AIError{"invalid chat message role"}
	ErrChatContentEmpty  = AIError{"chat message content is empty"}
)
