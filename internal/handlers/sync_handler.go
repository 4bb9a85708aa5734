package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flowsync/server/internal/middleware"
	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/services"
)

// SyncHandler handles the full sync endpoint
type SyncHandler struct {
	syncService *services.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// FullSync reconciles the client's multi-domain payload
// @Summary Full sync
// @Description Merges client records across all domains and returns the complete post-merge state
// @Tags sync
// @Accept json
// @Produce json
// @Param X-Client-ID header string false "Caller's websocket connection id, excluded from the completion event"
// @Success 200 {object} models.SyncResponse "Reconciled full state"
// @Failure 400 {object} models.ErrorResponse "Malformed payload"
// @Router /api/sync [post]
func (h *SyncHandler) FullSync(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.syncService.FullSync(r.Context(), user.ID, r.Header.Get("X-Client-ID"), &req)
	if err != nil {
		var validationErr models.SyncValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Sync failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
