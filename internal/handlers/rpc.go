package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nurbekov/csvtodo/internal/store"
)

// JSON-RPC error codes used by the tool-dispatch surface.
const (
	rpcCodeInvalidRequest = -32600
	rpcCodeMethodNotFound = -32601
	rpcCodeInvalidParams  = -32602
	rpcCodeServerError    = -32000
	rpcCodeNotFound       = 404
)

// RPCHandler is the JSON-RPC-like entry point for tool-calling agents. Each
// method maps 1:1 onto a record store operation, scoped to the authenticated
// user.
type RPCHandler struct {
	Store *store.Store
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      any            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// Dispatch handles POST /mcp.
func (h *RPCHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: rpcCodeInvalidRequest, Message: "Invalid Request: malformed JSON"}})
		return
	}

	success := func(result any) {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
	}
	fail := func(code int, message string) {
		writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: code, Message: message}})
	}

	if req.JSONRPC != "2.0" {
		fail(rpcCodeInvalidRequest, "Invalid Request: jsonrpc must be '2.0'")
		return
	}
	if req.Method == "" {
		fail(rpcCodeMethodNotFound, "Method not specified")
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	// Correlates the log lines of one dispatch, same shape the agent tooling
	// has come to expect: <unix millis>-<6 hex chars>.
	reqID := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	slog.Info("rpc incoming", "req_id", reqID, "rpc_id", req.ID, "method", req.Method, "user_id", userID)

	result, rerr := h.dispatch(userID, req.Method, req.Params)
	if rerr != nil {
		slog.Info("rpc error", "req_id", reqID, "method", req.Method, "code", rerr.Code, "message", rerr.Message)
		fail(rerr.Code, rerr.Message)
		return
	}
	success(result)
}

// dispatch routes one method call. Store failures other than not-found come
// back as -32000 with the source error string verbatim; that leak is
// deliberate, the surface exists for agent-tool development.
func (h *RPCHandler) dispatch(userID, method string, params map[string]any) (any, *rpcError) {
	switch method {
	case "mcp.schema":
		return rpcSchema, nil

	case "todos.list":
		todos, err := h.Store.GetTodosByUser(userID)
		if err != nil {
			return nil, serverError(err)
		}
		return todos, nil

	case "todos.create":
		title, _ := params["title"].(string)
		if title == "" {
			return nil, &rpcError{Code: rpcCodeInvalidParams, Message: "Missing required param: title"}
		}
		in := store.TodoInput{Title: title}
		if v, ok := params["description"].(string); ok {
			in.Description = &v
		}
		if v, ok := params["priority"].(string); ok {
			in.Priority = v
		}
		if v, ok := params["due_date"].(string); ok {
			in.DueDate = &v
		}
		if v, ok := params["category"].(string); ok {
			in.Category = v
		}
		todo, err := h.Store.CreateTodo(userID, in)
		if err != nil {
			return nil, serverError(err)
		}
		return todo, nil

	case "todos.findByTitle":
		query, _ := params["query"].(string)
		if query == "" {
			return nil, &rpcError{Code: rpcCodeInvalidParams, Message: "Missing required param: query"}
		}
		exact, _ := params["exact"].(bool)
		matches, err := h.Store.FindTodosByTitle(userID, query, exact)
		if err != nil {
			return nil, serverError(err)
		}
		// Minimal fields commonly needed for follow-up calls.
		out := make([]map[string]any, 0, len(matches))
		for _, t := range matches {
			out = append(out, map[string]any{"id": t.ID, "title": t.Title})
		}
		return out, nil

	case "todos.update":
		id, ok := paramID(params)
		if !ok {
			return nil, &rpcError{Code: rpcCodeInvalidParams, Message: "Missing required param: id"}
		}
		fields := make(map[string]any, len(params))
		for k, v := range params {
			if k != "id" {
				fields[k] = v
			}
		}
		todo, err := h.Store.UpdateTodo(id, userID, fields)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &rpcError{Code: rpcCodeNotFound, Message: "Todo not found"}
			}
			return nil, serverError(err)
		}
		return todo, nil

	case "todos.delete":
		id, ok := paramID(params)
		if !ok {
			return nil, &rpcError{Code: rpcCodeInvalidParams, Message: "Missing required param: id"}
		}
		deleted, err := h.Store.DeleteTodo(id, userID)
		if err != nil {
			return nil, serverError(err)
		}
		if !deleted {
			return nil, &rpcError{Code: rpcCodeNotFound, Message: "Todo not found"}
		}
		return map[string]any{"deleted": true}, nil

	case "todos.toggle":
		id, ok := paramID(params)
		if !ok {
			return nil, &rpcError{Code: rpcCodeInvalidParams, Message: "Missing required param: id"}
		}
		todo, err := h.Store.ToggleTodo(id, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &rpcError{Code: rpcCodeNotFound, Message: "Todo not found"}
			}
			return nil, serverError(err)
		}
		return todo, nil

	case "categories.list":
		categories, err := h.Store.GetCategoriesByUser(userID)
		if err != nil {
			return nil, serverError(err)
		}
		return categories, nil
	}

	return nil, &rpcError{Code: rpcCodeMethodNotFound, Message: "Method not found: " + method}
}

func serverError(err error) *rpcError {
	return &rpcError{Code: rpcCodeServerError, Message: "Server error: " + err.Error()}
}

// paramID extracts the integer id param. JSON numbers decode as float64.
func paramID(params map[string]any) (int, bool) {
	switch v := params["id"].(type) {
	case float64:
		if v > 0 {
			return int(v), true
		}
	case int:
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

// rpcSchema is the self-describing method list returned by mcp.schema.
var rpcSchema = map[string]any{
	"version": "0.1",
	"methods": []map[string]any{
		{
			"name":    "todos.list",
			"params":  map[string]any{},
			"returns": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		},
		{
			"name": "todos.create",
			"params": map[string]any{
				"title":       map[string]any{"type": "string", "required": true},
				"description": map[string]any{"type": []string{"string", "null"}},
				"priority":    map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
				"due_date":    map[string]any{"type": []string{"string", "null"}, "format": "date-time"},
				"category":    map[string]any{"type": "string"},
			},
			"returns": map[string]any{"type": "object"},
		},
		{
			"name": "todos.update",
			"params": map[string]any{
				"id":          map[string]any{"type": "integer", "required": true},
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": []string{"string", "null"}},
				"priority":    map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
				"due_date":    map[string]any{"type": []string{"string", "null"}, "format": "date-time"},
				"category":    map[string]any{"type": "string"},
				"completed":   map[string]any{"type": "boolean"},
			},
			"returns": map[string]any{"type": "object"},
		},
		{
			"name":    "todos.delete",
			"params":  map[string]any{"id": map[string]any{"type": "integer", "required": true}},
			"returns": map[string]any{"type": "object"},
		},
		{
			"name":    "todos.toggle",
			"params":  map[string]any{"id": map[string]any{"type": "integer", "required": true}},
			"returns": map[string]any{"type": "object"},
		},
		{
			"name": "todos.findByTitle",
			"params": map[string]any{
				"query": map[string]any{"type": "string", "required": true},
				"exact": map[string]any{"type": "boolean"},
			},
			"returns": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		},
		{
			"name":    "categories.list",
			"params":  map[string]any{},
			"returns": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		},
	},
}
