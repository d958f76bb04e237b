package store

import (
	"context"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/core/shopping"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for Foodgram entities.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUserAvatar(ctx context.Context, userID int64, avatar string) error
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error

	// Auth token operations
	CreateToken(ctx context.Context, key string, userID int64) error
	GetUserByToken(ctx context.Context, key string) (*domain.User, error)
	DeleteToken(ctx context.Context, key string) error

	// Ingredient catalog operations
	CreateIngredient(ctx context.Context, ingredient *domain.Ingredient) error
	GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context, namePrefix string) ([]domain.Ingredient, error)

	// Tag operations
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTagsBySlugs(ctx context.Context, slugs []string) ([]domain.Tag, error)

	// Recipe operations
	CreateRecipe(ctx context.Context, recipe *domain.Recipe) error
	GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, id int64) error
	ListRecipes(ctx context.Context, filter RecipeFilter, opts ListOptions) ([]domain.Recipe, error)
	CountRecipes(ctx context.Context, filter RecipeFilter) (int, error)
	ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.Recipe, error)
	CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error)

	// Favorite operations
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	IsFavorited(ctx context.Context, userID, recipeID int64) (bool, error)

	// Shopping cart operations
	AddCartItem(ctx context.Context, userID, recipeID int64) error
	RemoveCartItem(ctx context.Context, userID, recipeID int64) error
	IsInCart(ctx context.Context, userID, recipeID int64) (bool, error)
	ListCartRecipes(ctx context.Context, userID int64) ([]domain.Recipe, error)
	ListCartIngredients(ctx context.Context, userID int64) ([]shopping.Item, error)

	// Follow operations
	AddFollow(ctx context.Context, userID, authorID int64) error
	RemoveFollow(ctx context.Context, userID, authorID int64) error
	IsFollowing(ctx context.Context, userID, authorID int64) (bool, error)
	ListFollowedAuthors(ctx context.Context, userID int64, opts ListOptions) ([]domain.User, error)
	CountFollowedAuthors(ctx context.Context, userID int64) (int, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// RecipeFilter narrows recipe listings. Zero values mean "no constraint".
type RecipeFilter struct {
	AuthorID    int64    // Only recipes by this author
	TagSlugs    []string // Recipes having any of these tags
	FavoritedBy int64    // Only recipes favorited by this user
	InCartOf    int64    // Only recipes in this user's shopping cart
}
