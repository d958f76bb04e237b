package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/foodgram/internal/core/domain"
)

// =============================================================================
// Tag Handlers
// =============================================================================

func (h *Handler) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		h.logger.Error("failed to list tags", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list tags", "internal_error")
		return
	}

	results := make([]TagResponse, 0, len(tags))
	for _, tag := range tags {
		results = append(results, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleGetTag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "tag not found", "tag_not_found")
		return
	}

	tag, err := h.store.GetTag(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "tag not found", "tag_not_found")
			return
		}
		h.logger.Error("failed to get tag", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get tag", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, TagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug})
}

// =============================================================================
// Ingredient Handlers
// =============================================================================

func (h *Handler) handleListIngredients(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.store.ListIngredients(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		h.logger.Error("failed to list ingredients", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list ingredients", "internal_error")
		return
	}

	results := make([]IngredientResponse, 0, len(ingredients))
	for _, ing := range ingredients {
		results = append(results, ingredientResponse(&ing))
	}
	h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleGetIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "ingredient not found", "ingredient_not_found")
		return
	}

	ingredient, err := h.store.GetIngredient(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "ingredient not found", "ingredient_not_found")
			return
		}
		h.logger.Error("failed to get ingredient", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get ingredient", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, ingredientResponse(ingredient))
}

func ingredientResponse(i *domain.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:              i.ID,
		Name:            i.Name,
		MeasurementUnit: i.MeasurementUnit,
	}
}
