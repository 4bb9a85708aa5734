package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/flowsync/server/internal/middleware"
	"github.com/flowsync/server/internal/models"
	"github.com/flowsync/server/internal/services"
)

// TemplateHandler handles template collection API endpoints
type TemplateHandler struct {
	templateService *services.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templateService *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// ListCollections returns all of the user's template collections
func (h *TemplateHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collections, err := h.templateService.ListCollections(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to list collections", http.StatusInternalServerError)
		return
	}

	response := models.CollectionListResponse{
		Collections: collections,
		TotalCount:  len(collections),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CreateCollection creates a new template collection
func (h *TemplateHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	collection, err := h.templateService.CreateCollection(r.Context(), user.ID, &req)
	if err != nil {
		if err == models.ErrCollectionNameRequired {
			http.Error(w, "Collection name is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create collection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(collection)
}

// GetCollection returns a collection by ID
func (h *TemplateHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collectionID := chi.URLParam(r, "id")
	if collectionID == "" {
		http.Error(w, "Collection ID required", http.StatusBadRequest)
		return
	}

	collection, err := h.templateService.GetCollection(r.Context(), user.ID, collectionID)
	if err != nil {
		if err == models.ErrCollectionNotFound {
			http.Error(w, "Collection not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get collection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(collection)
}

// UpdateCollection updates a collection
func (h *TemplateHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collectionID := chi.URLParam(r, "id")
	if collectionID == "" {
		http.Error(w, "Collection ID required", http.StatusBadRequest)
		return
	}

	var req models.UpdateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	collection, err := h.templateService.UpdateCollection(r.Context(), user.ID, collectionID, &req)
	if err != nil {
		if err == models.ErrCollectionNotFound {
			http.Error(w, "Collection not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update collection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(collection)
}

// DeleteCollection deletes a collection and its custom templates
func (h *TemplateHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collectionID := chi.URLParam(r, "id")
	if collectionID == "" {
		http.Error(w, "Collection ID required", http.StatusBadRequest)
		return
	}

	if err := h.templateService.DeleteCollection(r.Context(), user.ID, collectionID); err != nil {
		if err == models.ErrCollectionNotFound {
			http.Error(w, "Collection not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete collection", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddCustomTemplate adds a custom template to a collection
func (h *TemplateHandler) AddCustomTemplate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collectionID := chi.URLParam(r, "id")
	if collectionID == "" {
		http.Error(w, "Collection ID required", http.StatusBadRequest)
		return
	}

	var req models.CreateCustomTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	template, err := h.templateService.AddCustomTemplate(r.Context(), user.ID, collectionID, &req)
	if err != nil {
		switch err {
		case models.ErrCollectionNotFound:
			http.Error(w, "Collection not found", http.StatusNotFound)
		case models.ErrTemplateNameRequired:
			http.Error(w, "Template name is required", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to create custom template", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(template)
}

// UpdateCustomTemplate updates a custom template
func (h *TemplateHandler) UpdateCustomTemplate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	templateID := chi.URLParam(r, "templateId")
	if templateID == "" {
		http.Error(w, "Template ID required", http.StatusBadRequest)
		return
	}

	var req models.CreateCustomTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	template, err := h.templateService.UpdateCustomTemplate(r.Context(), user.ID, templateID, &req)
	if err != nil {
		if err == models.ErrTemplateNotFound {
			http.Error(w, "Custom template not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update custom template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(template)
}

// DeleteCustomTemplate deletes a custom template
func (h *TemplateHandler) DeleteCustomTemplate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	templateID := chi.URLParam(r, "templateId")
	if templateID == "" {
		http.Error(w, "Template ID required", http.StatusBadRequest)
		return
	}

	if err := h.templateService.DeleteCustomTemplate(r.Context(), user.ID, templateID); err != nil {
		if err == models.ErrTemplateNotFound {
			http.Error(w, "Custom template not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete custom template", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
