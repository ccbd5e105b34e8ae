package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nurbekov/csvtodo/internal/metrics"
	"github.com/nurbekov/csvtodo/internal/models"
)

const todosFile = "todos.csv"

var todoColumns = []string{"id", "user_id", "title", "description", "priority", "due_date", "completed", "category", "created_at", "updated_at"}

// TodoInput carries the caller-supplied fields for a new todo. Zero values
// fall back to the documented defaults (medium priority, "general" category).
type TodoInput struct {
	Title       string
	Description *string
	Priority    string
	DueDate     *string // RFC 3339 or nil
	Category    string
}

func encodeTodo(t models.Todo) []string {
	return []string{
		strconv.Itoa(t.ID),
		t.UserID,
		t.Title,
		encodeStringPtr(t.Description),
		t.Priority,
		encodeTimePtr(t.DueDate),
		encodeBool(t.Completed),
		t.Category,
		encodeTime(t.CreatedAt),
		encodeTime(t.UpdatedAt),
	}
}

// decodeTodo normalizes a raw row: empty cells become nil, booleans and
// integers are coerced from text, defaults fill blank priority/category.
func decodeTodo(rec []string) (models.Todo, error) {
	id, err := decodeInt(rec[0])
	if err != nil {
		return models.Todo{}, err
	}
	dueDate, err := decodeTimePtr(rec[5])
	if err != nil {
		return models.Todo{}, err
	}
	completed, err := decodeBool(rec[6])
	if err != nil {
		return models.Todo{}, err
	}
	created, err := decodeTime(rec[8])
	if err != nil {
		return models.Todo{}, err
	}
	updated, err := decodeTime(rec[9])
	if err != nil {
		return models.Todo{}, err
	}
	priority := rec[4]
	if priority == "" {
		priority = models.PriorityMedium
	}
	category := rec[7]
	if category == "" {
		category = models.DefaultCategory
	}
	return models.Todo{
		ID:          id,
		UserID:      rec[1],
		Title:       rec[2],
		Description: decodeStringPtr(rec[3]),
		Priority:    priority,
		DueDate:     dueDate,
		Completed:   completed,
		Category:    category,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func (s *Store) loadTodos() ([]models.Todo, error) {
	rows, err := readRows(s.path(todosFile), todoColumns)
	if err != nil {
		return nil, err
	}
	todos := make([]models.Todo, 0, len(rows))
	for _, rec := range rows {
		t, err := decodeTodo(rec)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func (s *Store) saveTodos(todos []models.Todo) error {
	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		rows = append(rows, encodeTodo(t))
	}
	return writeRows(s.path(todosFile), todoColumns, rows)
}

// nextTodoID returns max(existing ids)+1, or 1 for an empty collection. Ids
// are never recycled: the value is derived from whatever rows remain, so a
// delete of the max id makes that id eligible again only once everything
// after it is gone too. Callers must hold the todos mutex — two writers
// working from the same snapshot would mint the same id.
func nextTodoID(todos []models.Todo) int {
	max := 0
	for _, t := range todos {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

// CreateTodo inserts a new todo for userID. This is a compound operation with
// two effects: when the todo names a category unseen for that user, the
// category row is created first (empty description, default color).
func (s *Store) CreateTodo(userID string, in TodoInput) (models.Todo, error) {
	if userID == "" {
		return models.Todo{}, errors.New("store: user id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Todo{}, errors.New("store: title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return models.Todo{}, fmt.Errorf("store: invalid priority %q", in.Priority)
	}
	category := in.Category
	if category == "" {
		category = models.DefaultCategory
	}
	var dueDate *string
	if in.DueDate != nil && *in.DueDate != "" {
		dueDate = in.DueDate
	}

	s.todosMu.Lock()
	defer s.todosMu.Unlock()
	metrics.RecordStoreOp("todos", "create")

	if err := s.ensureCategory(userID, category); err != nil {
		return models.Todo{}, err
	}

	todos, err := s.loadTodos()
	if err != nil {
		return models.Todo{}, err
	}

	ts := now()
	todo := models.Todo{
		ID:        nextTodoID(todos),
		UserID:    userID,
		Title:     in.Title,
		Priority:  priority,
		Completed: false,
		Category:  category,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	todo.Description = in.Description
	if dueDate != nil {
		t, err := decodeTime(*dueDate)
		if err != nil {
			return models.Todo{}, err
		}
		todo.DueDate = &t
	}

	todos = append(todos, todo)
	if err := s.saveTodos(todos); err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

// GetTodosByUser returns all todos owned by userID, normalized.
func (s *Store) GetTodosByUser(userID string) ([]models.Todo, error) {
	s.todosMu.Lock()
	defer s.todosMu.Unlock()
	metrics.RecordStoreOp("todos", "list")

	todos, err := s.loadTodos()
	if err != nil {
		return nil, err
	}
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// GetTodoByID returns the todo with the given id only when userID owns it. A
// todo belonging to another user is indistinguishable from an absent one.
func (s *Store) GetTodoByID(id int, userID string) (models.Todo, bool, error) {
	s.todosMu.Lock()
	defer s.todosMu.Unlock()
	metrics.RecordStoreOp("todos", "get")

	todos, err := s.loadTodos()
	if err != nil {
		return models.Todo{}, false, err
	}
	for _, t := range todos {
		if t.ID == id && t.UserID == userID {
			return t, true, nil
		}
	}
	return models.Todo{}, false, nil
}

// UpdateTodo merges the caller-supplied fields into the todo scoped by
// (id, userID). The id, user_id, and created_at fields are immutable and
// silently ignored when present; unknown fields are ignored too. UpdatedAt is
// refreshed on every successful merge.
func (s *Store) UpdateTodo(id int, userID string, fields map[string]any) (models.Todo, error) {
	s.todosMu.Lock()
	defer s.todosMu.Unlock()
	metrics.RecordStoreOp("todos", "update")

	todos, err := s.loadTodos()
	if err != nil {
		return models.Todo{}, err
	}
	idx := -1
	for i, t := range todos {
		if t.ID == id && t.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Todo{}, fmt.Errorf("%w: todo %d", ErrNotFound, id)
	}

	t := todos[idx]
	if err := applyTodoPatch(&t, fields); err != nil {
		return models.Todo{}, err
	}
	t.UpdatedAt = now()

	todos[idx] = t
	if err := s.saveTodos(todos); err != nil {
		return models.Todo{}, err
	}
	return t, nil
}

func applyTodoPatch(t *models.Todo, fields map[string]any) error {
	for key, val := range fields {
		switch key {
		case "id", "user_id", "created_at":
			// immutable
		case "title":
			title, ok := val.(string)
			if !ok || strings.TrimSpace(title) == "" {
				return errors.New("store: title must be a non-empty string")
			}
			t.Title = title
		case "description":
			switch v := val.(type) {
			case nil:
				t.Description = nil
			case string:
				t.Description = decodeStringPtr(v)
			default:
				return errors.New("store: description must be a string or null")
			}
		case "priority":
			p, ok := val.(string)
			if !ok || !models.ValidPriority(p) {
				return fmt.Errorf("store: invalid priority %v", val)
			}
			t.Priority = p
		case "due_date":
			due, err := decodeTimeField(val)
			if err != nil {
				return err
			}
			t.DueDate = due
		case "completed":
			b, ok := val.(bool)
			if !ok {
				return errors.New("store: completed must be a boolean")
			}
			t.Completed = b
		case "category":
			c, ok := val.(string)
			if !ok || c == "" {
				return errors.New("store: category must be a non-empty string")
			}
			t.Category = c
		}
	}
	return nil
}

// DeleteTodo removes the todo scoped by (id, userID) and reports whether a
// row was deleted.
func (s *Store) DeleteTodo(id int, userID string) (bool, error) {
	s.todosMu.Lock()
	defer s.todosMu.Unlock()
	metrics.RecordStoreOp("todos", "delete")

	todos, err := s.loadTodos()
	if err != nil {
		return false, err
	}
	kept := todos[:0:0]
	for _, t := range todos {
		if t.ID == id && t.UserID == userID {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == len(todos) {
		return false, nil
	}
	if err := s.saveTodos(kept); err != nil {
		return false, err
	}
	return true, nil
}

// ToggleTodo flips the completed flag as a single locked transition, so two
// concurrent toggles cannot both read the same state and lose one flip.
func (s *Store) ToggleTodo(id int, userID string) (models.Todo, error) {
	s.todosMu.Lock()
	defer s.todosMu.Unlock()
	metrics.RecordStoreOp("todos", "toggle")

	todos, err := s.loadTodos()
	if err != nil {
		return models.Todo{}, err
	}
	for i, t := range todos {
		if t.ID == id && t.UserID == userID {
			t.Completed = !t.Completed
			t.UpdatedAt = now()
			todos[i] = t
			if err := s.saveTodos(todos); err != nil {
				return models.Todo{}, err
			}
			return t, nil
		}
	}
	return models.Todo{}, fmt.Errorf("%w: todo %d", ErrNotFound, id)
}

// FindTodosByTitle returns the (id, title) pairs of userID's todos matching
// query. Exact mode compares whitespace-trimmed titles; otherwise the match
// is case-insensitive trimmed containment.
func (s *Store) FindTodosByTitle(userID, query string, exact bool) ([]models.Todo, error) {
	todos, err := s.GetTodosByUser(userID)
	if err != nil {
		return nil, err
	}
	matches := make([]models.Todo, 0)
	if exact {
		q := strings.TrimSpace(query)
		for _, t := range todos {
			if strings.TrimSpace(t.Title) == q {
				matches = append(matches, t)
			}
		}
		return matches, nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for _, t := range todos {
		if strings.Contains(strings.ToLower(t.Title), q) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}
