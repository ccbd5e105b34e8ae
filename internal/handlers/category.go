package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nurbekov/csvtodo/internal/store"
)

// ==========================
// CategoryHandler
// ==========================
type CategoryHandler struct {
	Store *store.Store
}

// ==========================
// List Categories
// ==========================
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	categories, err := h.Store.GetCategoriesByUser(userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// ==========================
// Create Category ((user_id, name) must be unique)
// ==========================
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		Color       string  `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if input.Name == "" {
		JSONValidationError(w, "validation failed", map[string]string{"name": "required"}, http.StatusBadRequest)
		return
	}

	category, err := h.Store.CreateCategory(userID, input.Name, input.Description, input.Color)
	if err != nil {
		JSONStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

// ==========================
// Update Category
// ==========================
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	category, err := h.Store.UpdateCategory(id, userID, fields)
	if err != nil {
		JSONStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// ==========================
// Delete Category
// ==========================
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	deleted, err := h.Store.DeleteCategory(id, userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !deleted {
		JSONError(w, "category not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
