// Package api provides HTTP handlers for the Foodgram API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/foodgram/foodgram/internal/core/auth"
	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/core/pagination"
	"github.com/foodgram/foodgram/internal/shell/api/middleware"
	"github.com/foodgram/foodgram/internal/shell/api/openapi"
	"github.com/foodgram/foodgram/internal/shell/media"
	"github.com/foodgram/foodgram/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store   store.Store
	media   *media.Storage
	logger  *slog.Logger
	baseURL string
	openapi *openapi.Generator
}

// NewHandler creates a new API handler. baseURL is the public origin used
// in pagination and short links, without a trailing slash.
func NewHandler(s store.Store, m *media.Storage, l *slog.Logger, baseURL string) *Handler {
	if l == nil {
		l = slog.Default()
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Handler{
		store:   s,
		media:   m,
		logger:  l,
		baseURL: baseURL,
		openapi: newOpenAPIGenerator(baseURL),
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	authMW := middleware.NewAuthMiddleware(h.store, h.logger)

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(h.requestIDHeader)
	r.Use(authMW.Handler)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/openapi.json", h.handleOpenAPISpec)

		r.Route("/auth/token", func(r chi.Router) {
			r.Post("/login", h.handleLogin)
			r.With(middleware.RequireAuth).Post("/logout", h.handleLogout)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.handleSignup)
			r.Get("/", h.handleListUsers)
			r.With(middleware.RequireAuth).Get("/me", h.handleMe)
			r.With(middleware.RequireAuth).Put("/me/avatar", h.handleSetAvatar)
			r.With(middleware.RequireAuth).Delete("/me/avatar", h.handleDeleteAvatar)
			r.With(middleware.RequireAuth).Post("/set_password", h.handleSetPassword)
			r.With(middleware.RequireAuth).Get("/subscriptions", h.handleSubscriptions)
			r.Get("/{id}", h.handleGetUser)
			r.With(middleware.RequireAuth).Post("/{id}/subscribe", h.handleSubscribe)
			r.With(middleware.RequireAuth).Delete("/{id}/subscribe", h.handleUnsubscribe)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", h.handleListTags)
			r.Get("/{id}", h.handleGetTag)
		})

		r.Route("/ingredients", func(r chi.Router) {
			r.Get("/", h.handleListIngredients)
			r.Get("/{id}", h.handleGetIngredient)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.handleListRecipes)
			r.With(middleware.RequireAuth).Post("/", h.handleCreateRecipe)
			r.With(middleware.RequireAuth).Get("/download_shopping_cart", h.handleDownloadShoppingCart)
			r.Get("/{id}", h.handleGetRecipe)
			r.With(middleware.RequireAuth).Patch("/{id}", h.handleUpdateRecipe)
			r.With(middleware.RequireAuth).Delete("/{id}", h.handleDeleteRecipe)
			r.Get("/{id}/get-link", h.handleGetShortLink)
			r.With(middleware.RequireAuth).Post("/{id}/favorite", h.handleAddFavorite)
			r.With(middleware.RequireAuth).Delete("/{id}/favorite", h.handleRemoveFavorite)
			r.With(middleware.RequireAuth).Post("/{id}/shopping_cart", h.handleAddCartItem)
			r.With(middleware.RequireAuth).Delete("/{id}/shopping_cart", h.handleRemoveCartItem)
		})
	})

	// Short link redirects
	r.Get("/s/{code}", h.handleResolveShortLink)

	// Uploaded media
	if h.media != nil {
		fs := http.StripPrefix("/media/", http.FileServer(http.Dir(h.media.Root())))
		r.Get("/media/*", fs.ServeHTTP)
	}

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if _, err := h.store.CountUsers(r.Context()); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

func (h *Handler) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	data, err := openapi.MarshalSpec(h.openapi.Generate())
	if err != nil {
		h.logger.Error("failed to render openapi spec", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to render spec", "internal_error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// pageParams reads pagination from the request query.
func pageParams(r *http.Request) pagination.Params {
	return pagination.ParseParams(r.URL.Query())
}

// pageLinks builds the next/previous links for the current request.
func (h *Handler) pageLinks(r *http.Request, count int, p pagination.Params) pagination.Links {
	return pagination.BuildLinks(h.baseURL+r.URL.Path, r.URL.Query(), count, p)
}

// viewerID returns the authenticated user's ID, 0 when anonymous.
func viewerID(r *http.Request) int64 {
	return auth.FromContext(r.Context()).UserID
}

// =============================================================================
// Response Builders
// =============================================================================

// userResponse builds a profile as seen by the viewer.
func (h *Handler) userResponse(r *http.Request, user *domain.User) (UserResponse, error) {
	resp := UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    h.mediaURL(user.Avatar),
	}

	viewer := viewerID(r)
	if viewer != 0 && viewer != user.ID {
		subscribed, err := h.store.IsFollowing(r.Context(), viewer, user.ID)
		if err != nil {
			return UserResponse{}, err
		}
		resp.IsSubscribed = subscribed
	}

	return resp, nil
}

// recipeResponse builds the full recipe view for the viewer.
func (h *Handler) recipeResponse(r *http.Request, recipe *domain.Recipe) (RecipeResponse, error) {
	author, err := h.store.GetUser(r.Context(), recipe.AuthorID)
	if err != nil {
		return RecipeResponse{}, err
	}
	authorResp, err := h.userResponse(r, author)
	if err != nil {
		return RecipeResponse{}, err
	}

	resp := RecipeResponse{
		ID:          recipe.ID,
		Author:      authorResp,
		Name:        recipe.Name,
		Image:       h.mediaURL(recipe.Image),
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		Tags:        make([]TagResponse, 0, len(recipe.Tags)),
		Ingredients: make([]RecipeIngredientResponse, 0, len(recipe.Ingredients)),
	}

	for _, tag := range recipe.Tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}
	for _, ri := range recipe.Ingredients {
		resp.Ingredients = append(resp.Ingredients, RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Name,
			MeasurementUnit: ri.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	viewer := viewerID(r)
	if viewer != 0 {
		favorited, err := h.store.IsFavorited(r.Context(), viewer, recipe.ID)
		if err != nil {
			return RecipeResponse{}, err
		}
		resp.IsFavorited = favorited

		inCart, err := h.store.IsInCart(r.Context(), viewer, recipe.ID)
		if err != nil {
			return RecipeResponse{}, err
		}
		resp.IsInShoppingCart = inCart
	}

	return resp, nil
}

func recipeShortResponse(recipe *domain.Recipe, imageURL string) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       imageURL,
		CookingTime: recipe.CookingTime,
	}
}

// mediaURL resolves a stored relative path to a public URL.
func (h *Handler) mediaURL(relPath string) string {
	if relPath == "" || h.media == nil {
		return relPath
	}
	return h.baseURL + h.media.URL(relPath)
}
