package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flowsync/server/internal/middleware"
	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/services"
)

// AIHandler handles AI chat history and config endpoints
type AIHandler struct {
	aiService *services.AIService
}

// NewAIHandler creates a new AIHandler
func NewAIHandler(aiService *services.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// GetHistory returns the user's chat history
func (h *AIHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	messages, err := h.aiService.GetHistory(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get chat history", http.StatusInternalServerError)
		return
	}

	response := models.ChatHistoryResponse{
		Messages:   messages,
		TotalCount: len(messages),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// AddMessage appends one chat message
func (h *AIHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.aiService.AddMessage(r.Context(), user.ID, req.Role, req.Content)
	if err != nil {
		switch err {
		case models.ErrInvalidChatRole, models.ErrChatContentEmpty:
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to add message", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(message)
}

// ClearHistory deletes the chat history and snapshots
func (h *AIHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.aiService.ClearHistory(r.Context(), user.ID); err != nil {
		http.Error(w, "Failed to clear chat history", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetConfig returns the user's AI config
func (h *AIHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	config, err := h.aiService.GetConfig(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get AI config", http.StatusInternalServerError)
		return
	}
	if config == nil {
		http.Error(w, "AI config not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(config)
}

// UpdateConfig applies a partial AI config update
func (h *AIHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.UpdateAIConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	config, err := h.aiService.UpdateConfig(r.Context(), user.ID, &req)
	if err != nil {
		http.Error(w, "Failed to update AI config", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(config)
}
