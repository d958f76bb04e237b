package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/core/shopping"
	"github.com/foodgram/foodgram/internal/core/shortlink"
	"github.com/foodgram/foodgram/internal/shell/media"
	"github.com/foodgram/foodgram/internal/shell/pdf"
	"github.com/foodgram/foodgram/internal/shell/store"
)

// =============================================================================
// Recipe CRUD
// =============================================================================

func (h *Handler) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Image == "" {
		h.writeError(w, http.StatusBadRequest, "image is required", "validation_error")
		return
	}

	recipe, ok := h.recipeFromRequest(w, r, &req)
	if !ok {
		return
	}
	recipe.AuthorID = viewerID(r)

	imagePath, ok := h.saveRecipeImage(w, req.Image)
	if !ok {
		return
	}
	recipe.Image = imagePath

	if err := h.store.CreateRecipe(r.Context(), recipe); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			h.writeError(w, http.StatusBadRequest, "unknown ingredient or tag", "validation_error")
			return
		}
		h.logger.Error("failed to create recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create recipe", "internal_error")
		return
	}

	h.logger.Info("recipe created", "recipe_id", recipe.ID, "author_id", recipe.AuthorID)

	h.respondWithRecipe(w, r, recipe.ID, http.StatusCreated)
}

func (h *Handler) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
		return
	}
	h.respondWithRecipe(w, r, id, http.StatusOK)
}

func (h *Handler) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwnRecipe(w, r)
	if !ok {
		return
	}

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	recipe, ok := h.recipeFromRequest(w, r, &req)
	if !ok {
		return
	}
	recipe.ID = existing.ID
	recipe.AuthorID = existing.AuthorID
	recipe.Image = existing.Image

	if req.Image != "" {
		imagePath, ok := h.saveRecipeImage(w, req.Image)
		if !ok {
			return
		}
		recipe.Image = imagePath
	}

	if err := h.store.UpdateRecipe(r.Context(), recipe); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			h.writeError(w, http.StatusBadRequest, "unknown ingredient or tag", "validation_error")
			return
		}
		h.logger.Error("failed to update recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update recipe", "internal_error")
		return
	}

	if req.Image != "" && existing.Image != "" && existing.Image != recipe.Image {
		if err := h.media.Delete(existing.Image); err != nil {
			h.logger.Warn("failed to delete old recipe image", "error", err)
		}
	}

	h.respondWithRecipe(w, r, recipe.ID, http.StatusOK)
}

func (h *Handler) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, ok := h.loadOwnRecipe(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteRecipe(r.Context(), recipe.ID); err != nil {
		h.logger.Error("failed to delete recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete recipe", "internal_error")
		return
	}

	if recipe.Image != "" {
		if err := h.media.Delete(recipe.Image); err != nil {
			h.logger.Warn("failed to delete recipe image", "error", err)
		}
	}

	h.logger.Info("recipe deleted", "recipe_id", recipe.ID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	query := r.URL.Query()

	filter := store.RecipeFilter{TagSlugs: query["tags"]}
	if v, err := strconv.ParseInt(query.Get("author"), 10, 64); err == nil {
		filter.AuthorID = v
	}
	// Viewer-relative filters only apply to authenticated viewers; anonymous
	// requests get the unfiltered list.
	if viewer := viewerID(r); viewer != 0 {
		if isTruthy(query.Get("is_favorited")) {
			filter.FavoritedBy = viewer
		}
		if isTruthy(query.Get("is_in_shopping_cart")) {
			filter.InCartOf = viewer
		}
	}

	recipes, err := h.store.ListRecipes(r.Context(), filter, store.ListOptions{Limit: p.Limit, Offset: p.Offset()})
	if err != nil {
		h.logger.Error("failed to list recipes", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list recipes", "internal_error")
		return
	}
	count, err := h.store.CountRecipes(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to count recipes", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list recipes", "internal_error")
		return
	}

	results := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		resp, err := h.recipeResponse(r, &recipes[i])
		if err != nil {
			h.logger.Error("failed to build recipe response", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to list recipes", "internal_error")
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

// =============================================================================
// Favorites and Shopping Cart
// =============================================================================

func (h *Handler) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	h.addRecipeRelation(w, r, h.store.AddFavorite, "already in favorites")
}

func (h *Handler) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeRecipeRelation(w, r, h.store.RemoveFavorite, "not in favorites")
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	h.addRecipeRelation(w, r, h.store.AddCartItem, "already in shopping cart")
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.removeRecipeRelation(w, r, h.store.RemoveCartItem, "not in shopping cart")
}

func (h *Handler) addRecipeRelation(w http.ResponseWriter, r *http.Request, add func(ctx context.Context, userID, recipeID int64) error, dupMessage string) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
		return
	}

	recipe, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
			return
		}
		h.logger.Error("failed to get recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update recipe list", "internal_error")
		return
	}

	if err := add(r.Context(), viewerID(r), id); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.writeError(w, http.StatusBadRequest, dupMessage, "duplicate_entry")
			return
		}
		h.logger.Error("failed to add recipe relation", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update recipe list", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusCreated, recipeShortResponse(recipe, h.mediaURL(recipe.Image)))
}

func (h *Handler) removeRecipeRelation(w http.ResponseWriter, r *http.Request, remove func(ctx context.Context, userID, recipeID int64) error, missingMessage string) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
		return
	}

	if _, err := h.store.GetRecipe(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
			return
		}
		h.logger.Error("failed to get recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update recipe list", "internal_error")
		return
	}

	if err := remove(r.Context(), viewerID(r), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusBadRequest, missingMessage, "not_in_list")
			return
		}
		h.logger.Error("failed to remove recipe relation", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update recipe list", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListCartIngredients(r.Context(), viewerID(r))
	if err != nil {
		h.logger.Error("failed to list cart ingredients", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to build shopping list", "internal_error")
		return
	}

	data, err := pdf.ShoppingList(shopping.Aggregate(items), time.Now())
	if err != nil {
		h.logger.Error("failed to render shopping list", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to build shopping list", "internal_error")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="shopping_list.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// Short Links
// =============================================================================

func (h *Handler) handleGetShortLink(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
		return
	}

	if _, err := h.store.GetRecipe(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
			return
		}
		h.logger.Error("failed to get recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to build short link", "internal_error")
		return
	}

	link := fmt.Sprintf("%s/s/%s", h.baseURL, shortlink.Encode(id))
	h.writeJSON(w, http.StatusOK, ShortLinkResponse{ShortLink: link})
}

func (h *Handler) handleResolveShortLink(w http.ResponseWriter, r *http.Request) {
	id, err := shortlink.Decode(chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "unknown short link", "shortlink_not_found")
		return
	}

	if _, err := h.store.GetRecipe(r.Context(), id); err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "unknown short link", "shortlink_not_found")
			return
		}
		h.logger.Error("failed to resolve short link", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to resolve short link", "internal_error")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/recipes/%d", id), http.StatusFound)
}

// =============================================================================
// Helpers
// =============================================================================

func recipeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// recipeFromRequest validates the payload and resolves tag references.
// Writes the error response itself when the payload is invalid.
func (h *Handler) recipeFromRequest(w http.ResponseWriter, r *http.Request, req *RecipeRequest) (*domain.Recipe, bool) {
	recipe := &domain.Recipe{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Ingredients: make([]domain.RecipeIngredient, 0, len(req.Ingredients)),
		Tags:        make([]domain.Tag, 0, len(req.Tags)),
	}
	for _, ing := range req.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, domain.RecipeIngredient{
			IngredientID: ing.ID,
			Amount:       ing.Amount,
		})
	}
	for _, tagID := range req.Tags {
		recipe.Tags = append(recipe.Tags, domain.Tag{ID: tagID})
	}

	if err := domain.ValidateRecipe(recipe); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return nil, false
	}

	for i, tag := range recipe.Tags {
		resolved, err := h.store.GetTag(r.Context(), tag.ID)
		if err != nil {
			if isNotFound(err) {
				h.writeError(w, http.StatusBadRequest, "unknown tag", "validation_error")
				return nil, false
			}
			h.logger.Error("failed to resolve tag", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to save recipe", "internal_error")
			return nil, false
		}
		recipe.Tags[i] = *resolved
	}

	return recipe, true
}

// saveRecipeImage stores the uploaded image, writing the error response
// on failure.
func (h *Handler) saveRecipeImage(w http.ResponseWriter, dataURL string) (string, bool) {
	relPath, err := h.media.SaveDataURL(dataURL, "recipes")
	if err != nil {
		if errors.Is(err, media.ErrInvalidDataURL) || errors.Is(err, media.ErrUnsupportedMimeType) || errors.Is(err, media.ErrImageTooLarge) {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return "", false
		}
		h.logger.Error("failed to save recipe image", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save recipe", "internal_error")
		return "", false
	}
	return relPath, true
}

// loadOwnRecipe loads the recipe and enforces author-only access.
func (h *Handler) loadOwnRecipe(w http.ResponseWriter, r *http.Request) (*domain.Recipe, bool) {
	id, ok := recipeID(r)
	if !ok {
		h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
		return nil, false
	}

	recipe, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
			return nil, false
		}
		h.logger.Error("failed to get recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get recipe", "internal_error")
		return nil, false
	}

	if recipe.AuthorID != viewerID(r) {
		h.writeError(w, http.StatusForbidden, "only the author may modify a recipe", "permission_denied")
		return nil, false
	}

	return recipe, true
}

// respondWithRecipe reloads the recipe and writes the full representation.
func (h *Handler) respondWithRecipe(w http.ResponseWriter, r *http.Request, id int64, status int) {
	recipe, err := h.store.GetRecipe(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "recipe not found", "recipe_not_found")
			return
		}
		h.logger.Error("failed to get recipe", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get recipe", "internal_error")
		return
	}

	resp, err := h.recipeResponse(r, recipe)
	if err != nil {
		h.logger.Error("failed to build recipe response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get recipe", "internal_error")
		return
	}
	h.writeJSON(w, status, resp)
}

// isTruthy reports whether a boolean query parameter is set.
func isTruthy(v string) bool {
	return v == "1" || v == "true"
}
