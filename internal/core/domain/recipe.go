package domain

import (
	"errors"
	"time"
)

// =============================================================================
// Recipe Limits
// =============================================================================

const (
	// IngredientNameMaxLength is the maximum length of an ingredient name.
	IngredientNameMaxLength = 128

	// MeasurementUnitMaxLength is the maximum length of a measurement unit.
	MeasurementUnitMaxLength = 64

	// TagMaxLength is the maximum length of a tag name and slug.
	TagMaxLength = 32

	// RecipeNameMinLength is the minimum length of a recipe name.
	RecipeNameMinLength = 2

	// RecipeNameMaxLength is the maximum length of a recipe name.
	RecipeNameMaxLength = 256

	// MinCookingTime is the minimum cooking time in minutes.
	MinCookingTime = 1

	// MinIngredientAmount is the minimum amount of an ingredient in a recipe.
	MinIngredientAmount = 1
)

// =============================================================================
// Catalog Types
// =============================================================================

// Ingredient is a catalog entry: a name with its measurement unit.
type Ingredient struct {
	ID              int64
	Name            string
	MeasurementUnit string
}

// Tag labels recipes for filtering. Name and slug are unique.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// =============================================================================
// Recipe
// =============================================================================

// RecipeIngredient links an ingredient to a recipe with an amount.
type RecipeIngredient struct {
	IngredientID    int64
	Name            string // Denormalized for read models
	MeasurementUnit string // Denormalized for read models
	Amount          int
}

// Recipe is a published recipe with its ingredient amounts and tags.
type Recipe struct {
	ID          int64
	AuthorID    int64
	Name        string
	Image       string // Relative media path
	Text        string
	CookingTime int // Minutes
	PubDate     time.Time
	Ingredients []RecipeIngredient
	Tags        []Tag
}

// =============================================================================
// Validation
// =============================================================================

var (
	ErrRecipeNameTooShort     = errors.New("recipe name is too short")
	ErrRecipeNameTooLong      = errors.New("recipe name is too long")
	ErrRecipeTextRequired     = errors.New("recipe text is required")
	ErrCookingTimeTooSmall    = errors.New("cooking time must be at least one minute")
	ErrNoIngredients          = errors.New("recipe must have at least one ingredient")
	ErrDuplicateIngredient    = errors.New("recipe ingredients must be unique")
	ErrIngredientAmountSmall  = errors.New("ingredient amount must be at least one")
	ErrDuplicateTag           = errors.New("recipe tags must be unique")
	ErrIngredientNameRequired = errors.New("ingredient name is required")
	ErrIngredientNameTooLong  = errors.New("ingredient name is too long")
	ErrUnitRequired           = errors.New("measurement unit is required")
	ErrUnitTooLong            = errors.New("measurement unit is too long")
	ErrTagNameRequired        = errors.New("tag name is required")
	ErrTagNameTooLong         = errors.New("tag name is too long")
	ErrTagSlugInvalid         = errors.New("tag slug contains invalid characters")
)

// ValidateRecipe validates a recipe's own fields, its ingredient amounts
// and the uniqueness of its ingredient and tag references.
func ValidateRecipe(r *Recipe) error {
	if len(r.Name) < RecipeNameMinLength {
		return ErrRecipeNameTooShort
	}
	if len(r.Name) > RecipeNameMaxLength {
		return ErrRecipeNameTooLong
	}
	if r.Text == "" {
		return ErrRecipeTextRequired
	}
	if r.CookingTime < MinCookingTime {
		return ErrCookingTimeTooSmall
	}
	if len(r.Ingredients) == 0 {
		return ErrNoIngredients
	}

	seen := make(map[int64]struct{}, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if ing.Amount < MinIngredientAmount {
			return ErrIngredientAmountSmall
		}
		if _, dup := seen[ing.IngredientID]; dup {
			return ErrDuplicateIngredient
		}
		seen[ing.IngredientID] = struct{}{}
	}

	seenTags := make(map[int64]struct{}, len(r.Tags))
	for _, tag := range r.Tags {
		if _, dup := seenTags[tag.ID]; dup {
			return ErrDuplicateTag
		}
		seenTags[tag.ID] = struct{}{}
	}

	return nil
}

// ValidateIngredient validates a catalog ingredient.
func ValidateIngredient(i *Ingredient) error {
	if i.Name == "" {
		return ErrIngredientNameRequired
	}
	if len(i.Name) > IngredientNameMaxLength {
		return ErrIngredientNameTooLong
	}
	if i.MeasurementUnit == "" {
		return ErrUnitRequired
	}
	if len(i.MeasurementUnit) > MeasurementUnitMaxLength {
		return ErrUnitTooLong
	}
	return nil
}

// ValidateTag validates a tag's name and slug.
func ValidateTag(t *Tag) error {
	if t.Name == "" {
		return ErrTagNameRequired
	}
	if len(t.Name) > TagMaxLength || len(t.Slug) > TagMaxLength {
		return ErrTagNameTooLong
	}
	if t.Slug == "" || !isSlug(t.Slug) {
		return ErrTagSlugInvalid
	}
	return nil
}

// isSlug reports whether s contains only slug characters.
func isSlug(s string) bool {
	for _, r := range s {
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_'
		if !ok {
			return false
		}
	}
	return true
}

// Slugify converts a name to a URL-safe slug.
//
// Lowercase letters, digits and hyphens are kept, uppercase letters are
// lowercased, spaces become hyphens, everything else is dropped.
func Slugify(name string) string {
	slug := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			slug = append(slug, r)
		case r >= 'A' && r <= 'Z':
			slug = append(slug, r+32)
		case r == ' ':
			slug = append(slug, '-')
		}
	}
	return string(slug)
}
