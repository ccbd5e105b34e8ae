package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nurbekov/csvtodo/internal/middleware"
	"github.com/nurbekov/csvtodo/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Store       *store.Store
	Secret      []byte
	ExpireHours int
}

func (h *AuthHandler) expiry() time.Duration {
	if h.ExpireHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(h.ExpireHours) * time.Hour
}

// ==========================
// Register (password stored as bcrypt hash)
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if len(input.Username) < 3 || len(input.Username) > 50 {
		fields["username"] = "must be 3-50 characters"
	}
	if input.Email == "" {
		fields["email"] = "required"
	}
	if len(input.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.Store.CreateUser(input.Username, input.Email, string(hash))
	if err != nil {
		slog.Info("register failed", "username", input.Username, "error", err)
		JSONStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login (verify bcrypt hash, issue JWT, refresh last_login)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	user, ok, err := h.Store.GetUserByUsername(input.Username)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !ok {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(h.expiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.Secret)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	updated, err := h.Store.UpdateUser(user.ID, map[string]any{"last_login": time.Now()})
	if err != nil {
		slog.Error("refresh last_login failed", "user_id", user.ID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	user = updated

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": signed,
		"user":  user,
	})
}

// ==========================
// Me (current user from token; 401 if the user row is gone)
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	user, ok, err := h.Store.GetUserByID(userID)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if !ok {
		JSONError(w, "user no longer exists", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
