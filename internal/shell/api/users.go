package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/shell/media"
	"github.com/foodgram/foodgram/internal/shell/store"
)

// =============================================================================
// Registration and Profiles
// =============================================================================

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	user := &domain.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := domain.ValidateNewUser(user, req.Password); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create user", "internal_error")
		return
	}
	user.PasswordHash = string(hash)

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			h.writeError(w, http.StatusBadRequest, "email already registered", "duplicate_email")
		case errors.Is(err, store.ErrDuplicateUsername):
			h.writeError(w, http.StatusBadRequest, "username already taken", "duplicate_username")
		default:
			h.logger.Error("failed to create user", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to create user", "internal_error")
		}
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	h.writeJSON(w, http.StatusCreated, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)

	users, err := h.store.ListUsers(r.Context(), store.ListOptions{Limit: p.Limit, Offset: p.Offset()})
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list users", "internal_error")
		return
	}
	count, err := h.store.CountUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to count users", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list users", "internal_error")
		return
	}

	results := make([]UserResponse, 0, len(users))
	for i := range users {
		resp, err := h.userResponse(r, &users[i])
		if err != nil {
			h.logger.Error("failed to build user response", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to list users", "internal_error")
			return
		}
		results = append(results, resp)
	}

	links := h.pageLinks(r, count, p)
	h.writeJSON(w, http.StatusOK, PageResponse{
		Count:    count,
		Next:     links.Next,
		Previous: links.Previous,
		Results:  results,
	})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "user not found", "user_not_found")
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "user not found", "user_not_found")
			return
		}
		h.logger.Error("failed to get user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get user", "internal_error")
		return
	}

	resp, err := h.userResponse(r, user)
	if err != nil {
		h.logger.Error("failed to build user response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get user", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), viewerID(r))
	if err != nil {
		h.logger.Error("failed to get current user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get user", "internal_error")
		return
	}

	resp, err := h.userResponse(r, user)
	if err != nil {
		h.logger.Error("failed to build user response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get user", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Password and Avatar
// =============================================================================

func (h *Handler) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	user, err := h.store.GetUser(r.Context(), viewerID(r))
	if err != nil {
		h.logger.Error("failed to get current user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to change password", "internal_error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		h.writeError(w, http.StatusBadRequest, "current password is wrong", "invalid_credentials")
		return
	}
	if err := domain.ValidatePassword(req.NewPassword); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to change password", "internal_error")
		return
	}

	if err := h.store.UpdateUserPassword(r.Context(), user.ID, string(hash)); err != nil {
		h.logger.Error("failed to update password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to change password", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetAvatar(w http.ResponseWriter, r *http.Request) {
	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Avatar == "" {
		h.writeError(w, http.StatusBadRequest, "avatar is required", "validation_error")
		return
	}

	user, err := h.store.GetUser(r.Context(), viewerID(r))
	if err != nil {
		h.logger.Error("failed to get current user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to set avatar", "internal_error")
		return
	}

	relPath, err := h.media.SaveDataURL(req.Avatar, "avatars")
	if err != nil {
		if errors.Is(err, media.ErrInvalidDataURL) || errors.Is(err, media.ErrUnsupportedMimeType) || errors.Is(err, media.ErrImageTooLarge) {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return
		}
		h.logger.Error("failed to save avatar", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to set avatar", "internal_error")
		return
	}

	if err := h.store.UpdateUserAvatar(r.Context(), user.ID, relPath); err != nil {
		h.logger.Error("failed to update avatar", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to set avatar", "internal_error")
		return
	}

	if user.Avatar != "" {
		if err := h.media.Delete(user.Avatar); err != nil {
			h.logger.Warn("failed to delete old avatar", "error", err)
		}
	}

	h.writeJSON(w, http.StatusOK, AvatarResponse{Avatar: h.mediaURL(relPath)})
}

func (h *Handler) handleDeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), viewerID(r))
	if err != nil {
		h.logger.Error("failed to get current user", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete avatar", "internal_error")
		return
	}

	if err := h.store.UpdateUserAvatar(r.Context(), user.ID, ""); err != nil {
		h.logger.Error("failed to clear avatar", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete avatar", "internal_error")
		return
	}

	if user.Avatar != "" {
		if err := h.media.Delete(user.Avatar); err != nil {
			h.logger.Warn("failed to delete old avatar", "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Subscriptions
// =============================================================================

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "user not found", "user_not_found")
		return
	}

	if err := domain.ValidateFollow(domain.Follow{UserID: viewerID(r), AuthorID: authorID}); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	author, err := h.store.GetUser(r.Context(), authorID)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "user not found", "user_not_found")
			return
		}
		h.logger.Error("failed to get author", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to subscribe", "internal_error")
		return
	}

	if err := h.store.AddFollow(r.Context(), viewerID(r), authorID); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			h.writeError(w, http.StatusBadRequest, "already subscribed", "duplicate_subscription")
		case errors.Is(err, store.ErrSelfFollow):
			h.writeError(w, http.StatusBadRequest, "cannot subscribe to yourself", "validation_error")
		default:
			h.logger.Error("failed to subscribe", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to subscribe", "internal_error")
		}
		return
	}

	resp, err := h.userWithRecipesResponse(r, author)
	if err != nil {
		h.logger.Error("failed to build subscription response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to subscribe", "internal_error")
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "user not found", "user_not_found")
		return
	}

	if err := h.store.RemoveFollow(r.Context(), viewerID(r), authorID); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusBadRequest, "not subscribed", "not_subscribed")
			return
		}
		h.logger.Error("failed to unsubscribe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to unsubscribe", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)

	authors, err := h.store.ListFollowedAuthors(r.Context(), viewerID(r), store.ListOptions{Limit: p.Limit, Offset: p.Offset()})
	if err != nil {
		h.logger.Error("failed to list subscriptions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list subscriptions", "internal_error")
		return
	}
	count, err := h.store.CountFollowedAuthors(r.Context(), viewerID(r))
	if err != nil {
		h.logger.Error("failed to count subscriptions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list subscriptions", "internal_error")
		return
	}

	results := make([]UserWithRecipesResponse, 0, len(authors))
	for i := range authors {
		resp, err := h.userWithRecipesResponse(r, &authors[i])
		if err != nil {
			h.logger.Error("failed to build subscription response", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to list subscriptions", "internal_error")
			return
		}
		results = append(results, resp)
	}

	links := h.pageLinks(r, count, p)
	h.writeJSON(w, http.StatusOK, PageResponse{
		Count:    count,
		Next:     links.Next,
		Previous: links.Previous,
		Results:  results,
	})
}

// userWithRecipesResponse builds a subscription entry with the author's
// recipes, truncated by the recipes_limit query parameter.
func (h *Handler) userWithRecipesResponse(r *http.Request, author *domain.User) (UserWithRecipesResponse, error) {
	userResp, err := h.userResponse(r, author)
	if err != nil {
		return UserWithRecipesResponse{}, err
	}

	limit := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("recipes_limit")); err == nil && v > 0 {
		limit = v
	}

	recipes, err := h.store.ListRecipesByAuthor(r.Context(), author.ID, limit)
	if err != nil {
		return UserWithRecipesResponse{}, err
	}
	count, err := h.store.CountRecipesByAuthor(r.Context(), author.ID)
	if err != nil {
		return UserWithRecipesResponse{}, err
	}

	resp := UserWithRecipesResponse{
		UserResponse: userResp,
		Recipes:      make([]RecipeShortResponse, 0, len(recipes)),
		RecipesCount: count,
	}
	for i := range recipes {
		resp.Recipes = append(resp.Recipes, recipeShortResponse(&recipes[i], h.mediaURL(recipes[i].Image)))
	}
	return resp, nil
}
