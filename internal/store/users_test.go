package store

import (
	"errors"
	"testing"
	"time"
)

func TestCreateUser_LookupRoundTrip(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateUser("alice", "alice@example.com", "hash-a")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated id")
	}
	if created.LastLogin != nil {
		t.Errorf("expected nil last_login, got %v", created.LastLogin)
	}
	if string(created.Preferences) != "{}" {
		t.Errorf("expected empty preferences object, got %s", created.Preferences)
	}

	got, ok, err := s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if !ok {
		t.Fatal("expected user to exist")
	}
	if got.ID != created.ID || got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed through round trip: %v != %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("alice", "alice@example.com", "h"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	// Same username, different email: still a duplicate.
	_, err := s.CreateUser("alice", "other@example.com", "h")
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("alice", "shared@example.com", "h"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := s.CreateUser("bob", "shared@example.com", "h")
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestGetUser_Absent(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetUserByUsername("nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if ok {
		t.Error("expected absent user")
	}
	_, ok, err = s.GetUserByID("no-such-id")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if ok {
		t.Error("expected absent user")
	}
}

func TestUpdateUser_LastLoginAndPreferences(t *testing.T) {
	s := newTestStore(t)

	u, err := s.CreateUser("alice", "alice@example.com", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	loginAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	updated, err := s.UpdateUser(u.ID, map[string]any{
		"last_login":  loginAt,
		"preferences": map[string]any{"theme": "dark"},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.LastLogin == nil || !updated.LastLogin.Equal(loginAt) {
		t.Errorf("last_login not updated: %v", updated.LastLogin)
	}

	got, ok, err := s.GetUserByID(u.ID)
	if err != nil || !ok {
		t.Fatalf("GetUserByID: ok=%v err=%v", ok, err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(loginAt) {
		t.Errorf("last_login lost in round trip: %v", got.LastLogin)
	}
	if string(got.Preferences) != `{"theme":"dark"}` {
		t.Errorf("unexpected preferences: %s", got.Preferences)
	}
	// created_at stays put.
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("created_at changed on update")
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateUser("ghost", map[string]any{"email": "g@example.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUser_UsernameCollision(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("alice", "a@example.com", "h"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := s.CreateUser("bob", "b@example.com", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err = s.UpdateUser(bob.ID, map[string]any{"username": "alice"})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
