package api

// =============================================================================
// Request Types
// =============================================================================

// SignupRequest creates a new user account.
type SignupRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// LoginRequest exchanges credentials for an auth token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetPasswordRequest changes the current user's password.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	CurrentPassword string `json:"current_password"`
}

// AvatarRequest carries a base64 data URL image.
type AvatarRequest struct {
	Avatar string `json:"avatar"`
}

// RecipeRequest creates or updates a recipe. Image is a base64 data URL;
// on update an empty image keeps the stored one.
type RecipeRequest struct {
	Ingredients []RecipeIngredientRef `json:"ingredients"`
	Tags        []int64               `json:"tags"`
	Image       string                `json:"image"`
	Name        string                `json:"name"`
	Text        string                `json:"text"`
	CookingTime int                   `json:"cooking_time"`
}

// RecipeIngredientRef references an ingredient with an amount.
type RecipeIngredientRef struct {
	ID     int64 `json:"id"`
	Amount int   `json:"amount"`
}

// =============================================================================
// Response Types
// =============================================================================

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse reports readiness with per-dependency checks.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// TokenResponse carries a freshly issued auth token.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// UserResponse is the public profile of a user.
type UserResponse struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar"`
}

// UserWithRecipesResponse extends a profile with the author's recipes.
// Used by the subscriptions listing.
type UserWithRecipesResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int                   `json:"recipes_count"`
}

// AvatarResponse returns the stored avatar URL.
type AvatarResponse struct {
	Avatar string `json:"avatar"`
}

// TagResponse is a recipe tag.
type TagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// IngredientResponse is a catalog ingredient.
type IngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredientResponse is an ingredient line within a recipe.
type RecipeIngredientResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full recipe representation.
type RecipeResponse struct {
	ID               int64                      `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeShortResponse is the compact recipe form used by favorites,
// the shopping cart, and subscription listings.
type RecipeShortResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// ShortLinkResponse carries a recipe short link.
type ShortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

// PageResponse is the pagination envelope.
type PageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}
