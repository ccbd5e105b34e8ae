package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nurbekov/csvtodo/internal/middleware"
	"github.com/nurbekov/csvtodo/internal/models"
	"github.com/nurbekov/csvtodo/internal/store"
)

// ==========================
// TodoHandler
// ==========================
type TodoHandler struct {
	Store *store.Store
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid todo id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// ==========================
// List Todos
// ==========================
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	todos, err := h.Store.GetTodosByUser(userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// ==========================
// Create Todo (may auto-create the category for this user)
// ==========================
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Priority    string  `json:"priority"`
		DueDate     *string `json:"due_date"`
		Category    string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if input.Title == "" {
		fields["title"] = "required"
	}
	if input.Priority != "" && !models.ValidPriority(input.Priority) {
		fields["priority"] = "must be low, medium or high"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	todo, err := h.Store.CreateTodo(userID, store.TodoInput{
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Category:    input.Category,
	})
	if err != nil {
		JSONStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

// ==========================
// Get Todo (scoped by id AND owner)
// ==========================
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	todo, found, err := h.Store.GetTodoByID(id, userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !found {
		JSONError(w, "todo not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// ==========================
// Update Todo (partial merge; id/user_id/created_at are ignored)
// ==========================
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	todo, err := h.Store.UpdateTodo(id, userID, fields)
	if err != nil {
		JSONStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// ==========================
// Delete Todo
// ==========================
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	deleted, err := h.Store.DeleteTodo(id, userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !deleted {
		JSONError(w, "todo not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ==========================
// Toggle Todo
// ==========================
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	todo, err := h.Store.ToggleTodo(id, userID)
	if err != nil {
		JSONStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}
