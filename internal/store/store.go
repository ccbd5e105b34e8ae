package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateKey is returned when a create would violate a uniqueness rule
// (username/email across users, (user_id, name) across categories).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNotFound is returned when the target row is absent or owned by another user.
var ErrNotFound = errors.New("not found")

// Store owns the three CSV-backed collections (users, todos, categories).
// Every operation loads the whole collection and every mutation rewrites the
// whole file; one mutex per collection is held for the full read-modify-write
// span so concurrent writers cannot compute next ids from the same snapshot.
type Store struct {
	dir string

	usersMu      sync.Mutex
	todosMu      sync.Mutex
	categoriesMu sync.Mutex
}

// Open prepares a store rooted at dir, creating the directory if needed.
// Collection files are created lazily on first write.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Ping verifies the data directory is still accessible. Used by /ready.
func (s *Store) Ping() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store: %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dir, file)
}

// now returns the timestamp written into records. Truncated to seconds so a
// value survives the RFC 3339 round trip through the CSV file unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// newID returns a fresh UUID not present in taken. A collision is all but
// impossible, but a duplicate id would make an existing row unreachable, so
// regenerate instead of trusting the odds.
func newID(taken map[string]bool) string {
	for {
		id := uuid.NewString()
		if !taken[id] {
			return id
		}
	}
}
