package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/nurbekov/csvtodo/internal/middleware"
	"github.com/nurbekov/csvtodo/internal/models"
	"github.com/nurbekov/csvtodo/internal/store"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path, userID string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(middleware.WithUserID(ctx, userID))
}

func createTodo(t *testing.T, s *store.Store, userID, title string) models.Todo {
	t.Helper()
	todo, err := s.CreateTodo(userID, store.TodoInput{Title: title})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	return todo
}

func TestTodoHandler_List(t *testing.T) {
	s := newTestStore(t)
	createTodo(t, s, "u1", "mine")
	createTodo(t, s, "u2", "theirs")
	h := &TodoHandler{Store: s}

	req := requestWithChiURLParams("GET", "/todos", "u1", nil, nil)
	rr := httptest.NewRecorder()
	h.ListTodos(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ListTodos status: got %d, want 200", rr.Code)
	}
	var todos []models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&todos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "mine" {
		t.Errorf("unexpected todos: %+v", todos)
	}
}

func TestTodoHandler_Create(t *testing.T) {
	s := newTestStore(t)
	h := &TodoHandler{Store: s}

	body, _ := json.Marshal(map[string]any{
		"title":    "write report",
		"priority": "high",
		"category": "work",
	})
	req := requestWithChiURLParams("POST", "/todos", "u1", body, nil)
	rr := httptest.NewRecorder()
	h.CreateTodo(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateTodo status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var todo models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&todo); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if todo.ID != 1 || todo.Priority != "high" || todo.Category != "work" {
		t.Errorf("unexpected todo: %+v", todo)
	}

	// The named category was created alongside.
	categories, err := s.GetCategoriesByUser("u1")
	if err != nil {
		t.Fatalf("GetCategoriesByUser: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "work" {
		t.Errorf("expected auto-created category, got %+v", categories)
	}
}

func TestTodoHandler_Create_Validation(t *testing.T) {
	h := &TodoHandler{Store: newTestStore(t)}

	body, _ := json.Marshal(map[string]any{"priority": "urgent"})
	req := requestWithChiURLParams("POST", "/todos", "u1", body, nil)
	rr := httptest.NewRecorder()
	h.CreateTodo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("CreateTodo status: got %d, want 400", rr.Code)
	}
	var out struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Fields["title"] == "" || out.Fields["priority"] == "" {
		t.Errorf("expected title and priority messages, got %v", out.Fields)
	}
}

func TestTodoHandler_Get_NotFoundForOtherUser(t *testing.T) {
	s := newTestStore(t)
	todo := createTodo(t, s, "owner", "private")
	h := &TodoHandler{Store: s}

	id := strconv.Itoa(todo.ID)
	req := requestWithChiURLParams("GET", "/todos/"+id, "intruder", nil, map[string]string{"id": id})
	rr := httptest.NewRecorder()
	h.GetTodo(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("GetTodo status: got %d, want 404", rr.Code)
	}
}

func TestTodoHandler_Get_InvalidID(t *testing.T) {
	h := &TodoHandler{Store: newTestStore(t)}

	req := requestWithChiURLParams("GET", "/todos/abc", "u1", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.GetTodo(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetTodo status: got %d, want 400", rr.Code)
	}
}

func TestTodoHandler_Update(t *testing.T) {
	s := newTestStore(t)
	todo := createTodo(t, s, "u1", "orig")
	h := &TodoHandler{Store: s}

	id := strconv.Itoa(todo.ID)
	body, _ := json.Marshal(map[string]any{"title": "renamed", "completed": true})
	req := requestWithChiURLParams("PUT", "/todos/"+id, "u1", body, map[string]string{"id": id})
	rr := httptest.NewRecorder()
	h.UpdateTodo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateTodo status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var updated models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Title != "renamed" || !updated.Completed {
		t.Errorf("unexpected todo: %+v", updated)
	}
}

func TestTodoHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	todo := createTodo(t, s, "u1", "doomed")
	h := &TodoHandler{Store: s}

	id := strconv.Itoa(todo.ID)
	req := requestWithChiURLParams("DELETE", "/todos/"+id, "u1", nil, map[string]string{"id": id})
	rr := httptest.NewRecorder()
	h.DeleteTodo(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("DeleteTodo status: got %d, want 204", rr.Code)
	}

	// Second delete of the same id is a 404.
	req = requestWithChiURLParams("DELETE", "/todos/"+id, "u1", nil, map[string]string{"id": id})
	rr = httptest.NewRecorder()
	h.DeleteTodo(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("second DeleteTodo status: got %d, want 404", rr.Code)
	}
}

func TestTodoHandler_Toggle(t *testing.T) {
	s := newTestStore(t)
	todo := createTodo(t, s, "u1", "flip")
	h := &TodoHandler{Store: s}

	id := strconv.Itoa(todo.ID)
	req := requestWithChiURLParams("POST", "/todos/"+id+"/toggle", "u1", nil, map[string]string{"id": id})
	rr := httptest.NewRecorder()
	h.ToggleTodo(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ToggleTodo status: got %d, want 200", rr.Code)
	}
	var toggled models.Todo
	if err := json.NewDecoder(rr.Body).Decode(&toggled); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !toggled.Completed {
		t.Errorf("expected completed=true, got %+v", toggled)
	}
}

func TestCategoryHandler_CreateAndList(t *testing.T) {
	s := newTestStore(t)
	h := &CategoryHandler{Store: s}

	body, _ := json.Marshal(map[string]any{"name": "work", "color": "#FF0000"})
	req := requestWithChiURLParams("POST", "/categories", "u1", body, nil)
	rr := httptest.NewRecorder()
	h.CreateCategory(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateCategory status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}

	// Duplicate name maps to 409.
	req = requestWithChiURLParams("POST", "/categories", "u1", body, nil)
	rr = httptest.NewRecorder()
	h.CreateCategory(rr, req)

	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate CreateCategory status: got %d, want 409", rr.Code)
	}

	req = requestWithChiURLParams("GET", "/categories", "u1", nil, nil)
	rr = httptest.NewRecorder()
	h.ListCategories(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("ListCategories status: got %d, want 200", rr.Code)
	}
	var categories []models.Category
	if err := json.NewDecoder(rr.Body).Decode(&categories); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(categories) != 1 || categories[0].Color != "#FF0000" {
		t.Errorf("unexpected categories: %+v", categories)
	}
}
