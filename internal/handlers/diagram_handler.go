package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/flowsync/server/internal/middleware"
	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/services"
)

// DiagramHandler handles diagram API endpoints
type DiagramHandler struct {
	diagramService *services.DiagramService
}

// NewDiagramHandler creates a new DiagramHandler
func NewDiagramHandler(diagramService *services.DiagramService) *DiagramHandler {
	return &DiagramHandler{diagramService: diagramService}
}

// ListDiagrams returns all of the user's diagrams
func (h *DiagramHandler) ListDiagrams(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	diagrams, err := h.diagramService.List(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to list diagrams", http.StatusInternalServerError)
		return
	}

	response := models.DiagramListResponse{
		Diagrams:   diagrams,
		TotalCount: len(diagrams),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CreateDiagram creates a new diagram
func (h *DiagramHandler) CreateDiagram(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateDiagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	diagram, err := h.diagramService.Create(r.Context(), user.ID, &req)
	if err != nil {
		if err == models.ErrDiagramNameRequired {
			http.Error(w, "Diagram name is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create diagram", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(diagram)
}

// GetDiagram returns a diagram by ID
func (h *DiagramHandler) GetDiagram(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	diagramID := chi.URLParam(r, "id")
	if diagramID == "" {
		http.Error(w, "Diagram ID required", http.StatusBadRequest)
		return
	}

	diagram, err := h.diagramService.GetByID(r.Context(), user.ID, diagramID)
	if err != nil {
		if err == models.ErrDiagramNotFound {
			http.Error(w, "Diagram not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get diagram", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(diagram)
}

// UpdateDiagram updates a diagram
func (h *DiagramHandler) UpdateDiagram(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	diagramID := chi.URLParam(r, "id")
	if diagramID == "" {
		http.Error(w, "Diagram ID required", http.StatusBadRequest)
		return
	}

	var req models.UpdateDiagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	diagram, err := h.diagramService.Update(r.Context(), user.ID, diagramID, &req)
	if err != nil {
		if err == models.ErrDiagramNotFound {
			http.Error(w, "Diagram not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update diagram", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(diagram)
}

// DeleteDiagram deletes a diagram
func (h *DiagramHandler) DeleteDiagram(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	diagramID := chi.URLParam(r, "id")
	if diagramID == "" {
		http.Error(w, "Diagram ID required", http.StatusBadRequest)
		return
	}

	if err := h.diagramService.Delete(r.Context(), user.ID, diagramID); err != nil {
		if err == models.ErrDiagramNotFound {
			http.Error(w, "Diagram not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete diagram", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
