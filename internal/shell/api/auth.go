package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/foodgram/foodgram/internal/shell/api/middleware"
)

// =============================================================================
// Token Handlers
// =============================================================================

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusBadRequest, "invalid credentials", "invalid_credentials")
			return
		}
		h.logger.Error("failed to look up user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to log in", "internal_error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.writeError(w, http.StatusBadRequest, "invalid credentials", "invalid_credentials")
		return
	}

	key, err := newTokenKey()
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to log in", "internal_error")
		return
	}

	if err := h.store.CreateToken(r.Context(), key, user.ID); err != nil {
		h.logger.Error("failed to store token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to log in", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, TokenResponse{AuthToken: key})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	key := middleware.TokenFromHeader(r.Header.Get("Authorization"))

	if err := h.store.DeleteToken(r.Context(), key); err != nil && !isNotFound(err) {
		h.logger.Error("failed to delete token", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to log out", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// newTokenKey generates a 40 character random token key.
func newTokenKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
