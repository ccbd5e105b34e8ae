package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	LastLogin    *time.Time      `json:"last_login"`
	Preferences  json.RawMessage `json:"preferences"`
}

// EmptyPreferences is the preferences value for a freshly registered user.
func EmptyPreferences() json.RawMessage {
	return json.RawMessage("{}")
}
