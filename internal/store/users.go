package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nurbekov/csvtodo/internal/metrics"
	"github.com/nurbekov/csvtodo/internal/models"
)

const usersFile = "users.csv"

var userColumns = []string{"id", "username", "email", "password_hash", "created_at", "last_login", "preferences"}

func encodeUser(u models.User) []string {
	return []string{
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		encodeTime(u.CreatedAt),
		encodeTimePtr(u.LastLogin),
		string(u.Preferences),
	}
}

func decodeUser(rec []string) (models.User, error) {
	created, err := decodeTime(rec[4])
	if err != nil {
		return models.User{}, err
	}
	lastLogin, err := decodeTimePtr(rec[5])
	if err != nil {
		return models.User{}, err
	}
	prefs := rec[6]
	if prefs == "" {
		prefs = "{}"
	}
	return models.User{
		ID:           rec[0],
		Username:     rec[1],
		Email:        rec[2],
		PasswordHash: rec[3],
		CreatedAt:    created,
		LastLogin:    lastLogin,
		Preferences:  json.RawMessage(prefs),
	}, nil
}

func (s *Store) loadUsers() ([]models.User, error) {
	rows, err := readRows(s.path(usersFile), userColumns)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(rows))
	for _, rec := range rows {
		u, err := decodeUser(rec)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Store) saveUsers(users []models.User) error {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, encodeUser(u))
	}
	return writeRows(s.path(usersFile), userColumns, rows)
}

// CreateUser inserts a new user. Username and email must be unique across the
// whole collection (case-sensitive exact match); violations return
// ErrDuplicateKey.
func (s *Store) CreateUser(username, email, passwordHash string) (models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	metrics.RecordStoreOp("users", "create")

	users, err := s.loadUsers()
	if err != nil {
		return models.User{}, err
	}

	taken := make(map[string]bool, len(users))
	for _, u := range users {
		if u.Username == username {
			return models.User{}, fmt.Errorf("%w: username %q already registered", ErrDuplicateKey, username)
		}
		if u.Email == email {
			return models.User{}, fmt.Errorf("%w: email %q already registered", ErrDuplicateKey, email)
		}
		taken[u.ID] = true
	}

	user := models.User{
		ID:           newID(taken),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now(),
		LastLogin:    nil,
		Preferences:  models.EmptyPreferences(),
	}
	users = append(users, user)
	if err := s.saveUsers(users); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// GetUserByUsername looks up a user by exact username. Absence is not an
// error; the second return value reports whether the user exists.
func (s *Store) GetUserByUsername(username string) (models.User, bool, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	metrics.RecordStoreOp("users", "get")

	users, err := s.loadUsers()
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// GetUserByID looks up a user by id.
func (s *Store) GetUserByID(id string) (models.User, bool, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	metrics.RecordStoreOp("users", "get")

	users, err := s.loadUsers()
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// ListUsers returns every user. Used by the reminder job.
func (s *Store) ListUsers() ([]models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	metrics.RecordStoreOp("users", "list")
	return s.loadUsers()
}

// UpdateUser merges the given fields into the user with the given id and
// rewrites the collection. Recognized fields: username, email, preferences,
// last_login. Immutable or unknown fields are silently ignored. Returns
// ErrNotFound when the id is absent, ErrDuplicateKey when a username/email
// change collides with another user.
func (s *Store) UpdateUser(id string, fields map[string]any) (models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()
	metrics.RecordStoreOp("users", "update")

	users, err := s.loadUsers()
	if err != nil {
		return models.User{}, err
	}
	idx := -1
	for i, u := range users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}

	u := users[idx]
	for key, val := range fields {
		switch key {
		case "username":
			name, ok := val.(string)
			if !ok || name == "" {
				return models.User{}, errors.New("store: username must be a non-empty string")
			}
			for i, other := range users {
				if i != idx && other.Username == name {
					return models.User{}, fmt.Errorf("%w: username %q already registered", ErrDuplicateKey, name)
				}
			}
			u.Username = name
		case "email":
			email, ok := val.(string)
			if !ok || email == "" {
				return models.User{}, errors.New("store: email must be a non-empty string")
			}
			for i, other := range users {
				if i != idx && other.Email == email {
					return models.User{}, fmt.Errorf("%w: email %q already registered", ErrDuplicateKey, email)
				}
			}
			u.Email = email
		case "preferences":
			prefs, err := encodePreferences(val)
			if err != nil {
				return models.User{}, err
			}
			u.Preferences = prefs
		case "last_login":
			t, err := decodeTimeField(val)
			if err != nil {
				return models.User{}, err
			}
			u.LastLogin = t
		}
	}

	users[idx] = u
	if err := s.saveUsers(users); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func encodePreferences(val any) (json.RawMessage, error) {
	switch v := val.(type) {
	case nil:
		return models.EmptyPreferences(), nil
	case json.RawMessage:
		return v, nil
	case string:
		if v == "" {
			return models.EmptyPreferences(), nil
		}
		return json.RawMessage(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("store: invalid preferences: %w", err)
		}
		return b, nil
	}
}

// decodeTimeField accepts the shapes a nullable timestamp arrives in: a
// time.Time from internal callers, an RFC 3339 string from JSON payloads, or
// nil to clear the value.
func decodeTimeField(val any) (*time.Time, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := v.UTC().Truncate(time.Second)
		return &t, nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		t := v.UTC().Truncate(time.Second)
		return &t, nil
	case string:
		if v == "" {
			return nil, nil
		}
		t, err := decodeTime(v)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
	return nil, fmt.Errorf("store: invalid timestamp value %v", val)
}
