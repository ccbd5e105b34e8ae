package todos

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/nurbekov/csvtodo/cmd/cli/config"
	"github.com/nurbekov/csvtodo/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

// storeToken points the token file at a scratch home dir.
func storeToken(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	if err := config.SaveToken("test-token"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
}

func TestListTodos_TableOutput(t *testing.T) {
	todos := []models.Todo{
		{ID: 1, Title: "buy milk", Priority: "medium", Category: "general"},
		{ID: 2, Title: "ship release", Priority: "high", Category: "work", Completed: true},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/todos" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		_ = json.NewEncoder(w).Encode(todos)
	}))
	defer srv.Close()

	t.Setenv("TODO_API_URL", srv.URL)
	storeToken(t)

	cmd := listTodosCmd()

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "buy milk") || !strings.Contains(out, "ship release") {
		t.Fatalf("expected todo titles in output, got: %s", out)
	}
}

func TestListTodos_JSONOutput(t *testing.T) {
	todos := []models.Todo{
		{ID: 1, Title: "buy milk", Priority: "medium", Category: "general"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/todos" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(todos)
	}))
	defer srv.Close()

	t.Setenv("TODO_API_URL", srv.URL)
	storeToken(t)

	cmd := listTodosCmd()
	_ = cmd.Flags().Set("json", "true")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, `"title": "buy milk"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestCreateTodo_SendsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/todos" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["title"] != "write tests" || payload["priority"] != "high" {
			t.Fatalf("unexpected payload: %v", payload)
		}
		if _, present := payload["description"]; present {
			t.Fatalf("empty flag should be omitted: %v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.Todo{ID: 1, Title: "write tests", Priority: "high"})
	}))
	defer srv.Close()

	t.Setenv("TODO_API_URL", srv.URL)
	storeToken(t)

	cmd := createTodoCmd()
	_ = cmd.Flags().Set("title", "write tests")
	_ = cmd.Flags().Set("priority", "high")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, `"title": "write tests"`) {
		t.Fatalf("expected created todo in output, got: %s", out)
	}
}

func TestFindTodos_UsesRPC(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mcp" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			JSONRPC string         `json:"jsonrpc"`
			Method  string         `json:"method"`
			Params  map[string]any `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.JSONRPC != "2.0" || req.Method != "todos.findByTitle" || req.Params["query"] != "milk" {
			t.Fatalf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  []map[string]any{{"id": 1, "title": "buy milk"}},
		})
	}))
	defer srv.Close()

	t.Setenv("TODO_API_URL", srv.URL)
	storeToken(t)

	cmd := findTodosCmd()

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{"milk"})
	})

	if !strings.Contains(out, "buy milk") {
		t.Fatalf("expected match in output, got: %s", out)
	}
}

func TestDeleteTodo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/todos/3" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Setenv("TODO_API_URL", srv.URL)
	storeToken(t)

	cmd := deleteTodoCmd()

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{"3"})
	})

	if !strings.Contains(out, "Todo deleted") {
		t.Fatalf("expected confirmation, got: %s", out)
	}
}
