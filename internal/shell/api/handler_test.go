package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/shell/media"
)

// =============================================================================
// Test Helpers
// =============================================================================

const testBaseURL = "http://localhost:8080"

func newTestHandler(t *testing.T) (*Handler, *stubStore) {
	t.Helper()
	s := newStubStore()
	m, err := media.NewStorage(t.TempDir(), "/media/")
	require.NoError(t, err)
	return NewHandler(s, m, nil, testBaseURL), s
}

func seedUser(t *testing.T, s *stubStore, email, username, password string) (*domain.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Email:        email,
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	token := "tok-" + username
	require.NoError(t, s.CreateToken(context.Background(), token, user.ID))
	return user, token
}

func seedCatalog(t *testing.T, s *stubStore) (*domain.Ingredient, *domain.Tag) {
	t.Helper()
	flour := &domain.Ingredient{Name: "flour", MeasurementUnit: "g"}
	require.NoError(t, s.CreateIngredient(context.Background(), flour))
	tag := &domain.Tag{Name: "Breakfast", Slug: "breakfast"}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return flour, tag
}

func seedRecipe(t *testing.T, s *stubStore, author *domain.User, name string, ingredient *domain.Ingredient, tags ...domain.Tag) *domain.Recipe {
	t.Helper()
	recipe := &domain.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       "recipes/" + name + ".png",
		Text:        "Cook it.",
		CookingTime: 15,
		Ingredients: []domain.RecipeIngredient{{IngredientID: ingredient.ID, Amount: 100}},
		Tags:        tags,
	}
	require.NoError(t, s.CreateRecipe(context.Background(), recipe))
	return recipe
}

func doRequest(h *Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func testImageDataURL() string {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// =============================================================================
// Auth Tests
// =============================================================================

func TestLogin(t *testing.T) {
	h, s := newTestHandler(t)
	seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	rec := doRequest(h, http.MethodPost, "/api/auth/token/login/", "", LoginRequest{
		Email:    "chef@example.com",
		Password: "secret-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[TokenResponse](t, rec)
	assert.Len(t, resp.AuthToken, 40)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h, s := newTestHandler(t)
	seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "chef@example.com", Password: "nope"}},
		{"unknown email", LoginRequest{Email: "ghost@example.com", Password: "secret-pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodPost, "/api/auth/token/login/", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid_credentials")
		})
	}
}

func TestLogout(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	rec := doRequest(h, http.MethodPost, "/api/auth/token/logout/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Token is gone now
	rec = doRequest(h, http.MethodGet, "/api/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// User Tests
// =============================================================================

func TestSignup(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(h, http.MethodPost, "/api/users/", "", SignupRequest{
		Email:     "chef@example.com",
		Username:  "chef",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Password:  "secret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[UserResponse](t, rec)
	assert.NotZero(t, resp.ID)
	assert.Equal(t, "chef", resp.Username)
	assert.Equal(t, "Ada", resp.FirstName)
}

func TestSignup_Validation(t *testing.T) {
	h, s := newTestHandler(t)
	seedUser(t, s, "taken@example.com", "taken", "secret-pass")

	tests := []struct {
		name string
		req  SignupRequest
		code string
	}{
		{"bad email", SignupRequest{Email: "nope", Username: "x1", FirstName: "A", LastName: "B", Password: "secret-pass"}, "validation_error"},
		{"reserved username", SignupRequest{Email: "a@b.io", Username: "me", FirstName: "A", LastName: "B", Password: "secret-pass"}, "validation_error"},
		{"short password", SignupRequest{Email: "a@b.io", Username: "x2", FirstName: "A", LastName: "B", Password: "short"}, "validation_error"},
		{"duplicate email", SignupRequest{Email: "taken@example.com", Username: "x3", FirstName: "A", LastName: "B", Password: "secret-pass"}, "duplicate_email"},
		{"duplicate username", SignupRequest{Email: "new@example.com", Username: "taken", FirstName: "A", LastName: "B", Password: "secret-pass"}, "duplicate_username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(h, http.MethodPost, "/api/users/", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestMe(t *testing.T) {
	h, s := newTestHandler(t)
	user, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	rec := doRequest(h, http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[UserResponse](t, rec)
	assert.Equal(t, user.ID, resp.ID)

	rec = doRequest(h, http.MethodGet, "/api/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsers_Envelope(t *testing.T) {
	h, s := newTestHandler(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		seedUser(t, s, name+"@example.com", name, "secret-pass")
	}

	rec := doRequest(h, http.MethodGet, "/api/users/?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count    int            `json:"count"`
		Next     *string        `json:"next"`
		Previous *string        `json:"previous"`
		Results  []UserResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	require.NotNil(t, resp.Next)
	assert.Contains(t, *resp.Next, "page=2")
	assert.Nil(t, resp.Previous)
	assert.Len(t, resp.Results, 2)
}

func TestSetPassword(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "chef@example.com", "chef", "old-password")

	rec := doRequest(h, http.MethodPost, "/api/users/set_password/", token, SetPasswordRequest{
		NewPassword:     "new-password",
		CurrentPassword: "old-password",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/auth/token/login/", "", LoginRequest{
		Email:    "chef@example.com",
		Password: "new-password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetPassword_WrongCurrent(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "chef@example.com", "chef", "old-password")

	rec := doRequest(h, http.MethodPost, "/api/users/set_password/", token, SetPasswordRequest{
		NewPassword:     "new-password",
		CurrentPassword: "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvatar(t *testing.T) {
	h, s := newTestHandler(t)
	user, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	rec := doRequest(h, http.MethodPut, "/api/users/me/avatar/", token, AvatarRequest{Avatar: testImageDataURL()})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[AvatarResponse](t, rec)
	assert.Contains(t, resp.Avatar, testBaseURL+"/media/avatars/")

	stored, err := s.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Avatar)

	rec = doRequest(h, http.MethodDelete, "/api/users/me/avatar/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, err = s.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Avatar)
}

func TestAvatar_InvalidPayload(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	rec := doRequest(h, http.MethodPut, "/api/users/me/avatar/", token, AvatarRequest{Avatar: "not-a-data-url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Subscription Tests
// =============================================================================

func TestSubscribe(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "reader@example.com", "reader", "secret-pass")
	chef, _ := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, _ := seedCatalog(t, s)
	seedRecipe(t, s, chef, "Pancakes", flour)
	seedRecipe(t, s, chef, "Waffles", flour)

	rec := doRequest(h, http.MethodPost, "/api/users/"+itoa(chef.ID)+"/subscribe/", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[UserWithRecipesResponse](t, rec)
	assert.Equal(t, chef.ID, resp.ID)
	assert.True(t, resp.IsSubscribed)
	assert.Equal(t, 2, resp.RecipesCount)
	assert.Len(t, resp.Recipes, 2)

	// Duplicate subscription
	rec = doRequest(h, http.MethodPost, "/api/users/"+itoa(chef.ID)+"/subscribe/", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribe_Self(t *testing.T) {
	h, s := newTestHandler(t)
	user, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")

	rec := doRequest(h, http.MethodPost, "/api/users/"+itoa(user.ID)+"/subscribe/", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptions_RecipesLimit(t *testing.T) {
	h, s := newTestHandler(t)
	reader, token := seedUser(t, s, "reader@example.com", "reader", "secret-pass")
	chef, _ := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, _ := seedCatalog(t, s)
	for _, name := range []string{"One", "Two", "Three"} {
		seedRecipe(t, s, chef, name, flour)
	}
	require.NoError(t, s.AddFollow(context.Background(), reader.ID, chef.ID))

	rec := doRequest(h, http.MethodGet, "/api/users/subscriptions/?recipes_limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int                       `json:"count"`
		Results []UserWithRecipesResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Len(t, resp.Results[0].Recipes, 1)
	assert.Equal(t, 3, resp.Results[0].RecipesCount)
}

func TestUnsubscribe(t *testing.T) {
	h, s := newTestHandler(t)
	reader, token := seedUser(t, s, "reader@example.com", "reader", "secret-pass")
	chef, _ := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	require.NoError(t, s.AddFollow(context.Background(), reader.ID, chef.ID))

	rec := doRequest(h, http.MethodDelete, "/api/users/"+itoa(chef.ID)+"/subscribe/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodDelete, "/api/users/"+itoa(chef.ID)+"/subscribe/", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Catalog Tests
// =============================================================================

func TestTagsAndIngredients(t *testing.T) {
	h, s := newTestHandler(t)
	flour, tag := seedCatalog(t, s)

	rec := doRequest(h, http.MethodGet, "/api/tags/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decodeBody[[]TagResponse](t, rec)
	require.Len(t, tags, 1)
	assert.Equal(t, "breakfast", tags[0].Slug)

	rec = doRequest(h, http.MethodGet, "/api/tags/"+itoa(tag.ID)+"/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/tags/999/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/ingredients/?name=fl", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ingredients := decodeBody[[]IngredientResponse](t, rec)
	require.Len(t, ingredients, 1)
	assert.Equal(t, flour.ID, ingredients[0].ID)

	rec = doRequest(h, http.MethodGet, "/api/ingredients/?name=zz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

// =============================================================================
// Recipe Tests
// =============================================================================

func TestCreateRecipe(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, tag := seedCatalog(t, s)

	rec := doRequest(h, http.MethodPost, "/api/recipes/", token, RecipeRequest{
		Ingredients: []RecipeIngredientRef{{ID: flour.ID, Amount: 200}},
		Tags:        []int64{tag.ID},
		Image:       testImageDataURL(),
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[RecipeResponse](t, rec)
	assert.Equal(t, "Pancakes", resp.Name)
	assert.Equal(t, "chef", resp.Author.Username)
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, "flour", resp.Ingredients[0].Name)
	assert.Equal(t, 200, resp.Ingredients[0].Amount)
	require.Len(t, resp.Tags, 1)
	assert.Equal(t, "breakfast", resp.Tags[0].Slug)
	assert.Contains(t, resp.Image, "/media/recipes/")
}

func TestCreateRecipe_Validation(t *testing.T) {
	h, s := newTestHandler(t)
	_, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, tag := seedCatalog(t, s)

	valid := RecipeRequest{
		Ingredients: []RecipeIngredientRef{{ID: flour.ID, Amount: 200}},
		Tags:        []int64{tag.ID},
		Image:       testImageDataURL(),
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
	}

	tests := []struct {
		name   string
		mutate func(*RecipeRequest)
	}{
		{"no image", func(r *RecipeRequest) { r.Image = "" }},
		{"no ingredients", func(r *RecipeRequest) { r.Ingredients = nil }},
		{"zero amount", func(r *RecipeRequest) { r.Ingredients[0].Amount = 0 }},
		{"zero cooking time", func(r *RecipeRequest) { r.CookingTime = 0 }},
		{"unknown tag", func(r *RecipeRequest) { r.Tags = []int64{999} }},
		{"unknown ingredient", func(r *RecipeRequest) { r.Ingredients[0].ID = 999 }},
		{"duplicate ingredient", func(r *RecipeRequest) {
			r.Ingredients = append(r.Ingredients, r.Ingredients[0])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			req.Ingredients = append([]RecipeIngredientRef(nil), valid.Ingredients...)
			req.Tags = append([]int64(nil), valid.Tags...)
			tt.mutate(&req)

			rec := doRequest(h, http.MethodPost, "/api/recipes/", token, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	// Anonymous create is rejected
	rec := doRequest(h, http.MethodPost, "/api/recipes/", "", valid)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateRecipe_AuthorOnly(t *testing.T) {
	h, s := newTestHandler(t)
	chef, chefToken := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	_, otherToken := seedUser(t, s, "other@example.com", "other", "secret-pass")
	flour, _ := seedCatalog(t, s)
	recipe := seedRecipe(t, s, chef, "Pancakes", flour)

	update := RecipeRequest{
		Ingredients: []RecipeIngredientRef{{ID: flour.ID, Amount: 300}},
		Name:        "Crepes",
		Text:        "Thinner.",
		CookingTime: 10,
	}

	rec := doRequest(h, http.MethodPatch, "/api/recipes/"+itoa(recipe.ID)+"/", otherToken, update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(h, http.MethodPatch, "/api/recipes/"+itoa(recipe.ID)+"/", chefToken, update)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[RecipeResponse](t, rec)
	assert.Equal(t, "Crepes", resp.Name)
	// Image kept when the request omits it
	assert.Contains(t, resp.Image, "Pancakes.png")
}

func TestDeleteRecipe(t *testing.T) {
	h, s := newTestHandler(t)
	chef, chefToken := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	_, otherToken := seedUser(t, s, "other@example.com", "other", "secret-pass")
	flour, _ := seedCatalog(t, s)
	recipe := seedRecipe(t, s, chef, "Pancakes", flour)

	rec := doRequest(h, http.MethodDelete, "/api/recipes/"+itoa(recipe.ID)+"/", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(h, http.MethodDelete, "/api/recipes/"+itoa(recipe.ID)+"/", chefToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodGet, "/api/recipes/"+itoa(recipe.ID)+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRecipes_TagFilter(t *testing.T) {
	h, s := newTestHandler(t)
	chef, _ := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, breakfast := seedCatalog(t, s)
	dinner := &domain.Tag{Name: "Dinner", Slug: "dinner"}
	require.NoError(t, s.CreateTag(context.Background(), dinner))

	seedRecipe(t, s, chef, "Pancakes", flour, *breakfast)
	seedRecipe(t, s, chef, "Stew", flour, *dinner)

	rec := doRequest(h, http.MethodGet, "/api/recipes/?tags=dinner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int              `json:"count"`
		Results []RecipeResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Stew", resp.Results[0].Name)
}

func TestListRecipes_FavoritedFilter(t *testing.T) {
	h, s := newTestHandler(t)
	chef, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, _ := seedCatalog(t, s)
	pancakes := seedRecipe(t, s, chef, "Pancakes", flour)
	seedRecipe(t, s, chef, "Stew", flour)
	require.NoError(t, s.AddFavorite(context.Background(), chef.ID, pancakes.ID))

	rec := doRequest(h, http.MethodGet, "/api/recipes/?is_favorited=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int              `json:"count"`
		Results []RecipeResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].IsFavorited)

	// "true" is accepted as well as "1"
	rec = doRequest(h, http.MethodGet, "/api/recipes/?is_favorited=true", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	// Anonymous viewers have no favorites; the filter is ignored
	rec = doRequest(h, http.MethodGet, "/api/recipes/?is_favorited=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

// =============================================================================
// Favorite and Cart Tests
// =============================================================================

func TestFavoriteEndpoints(t *testing.T) {
	h, s := newTestHandler(t)
	chef, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, _ := seedCatalog(t, s)
	recipe := seedRecipe(t, s, chef, "Pancakes", flour)

	path := "/api/recipes/" + itoa(recipe.ID) + "/favorite/"

	rec := doRequest(h, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	short := decodeBody[RecipeShortResponse](t, rec)
	assert.Equal(t, recipe.ID, short.ID)
	assert.Equal(t, "Pancakes", short.Name)

	rec = doRequest(h, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(h, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/recipes/999/favorite/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Removing from an unknown recipe is 404, not 400
	rec = doRequest(h, http.MethodDelete, "/api/recipes/999/favorite/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodDelete, "/api/recipes/999/shopping_cart/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadShoppingCart(t *testing.T) {
	h, s := newTestHandler(t)
	chef, token := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, _ := seedCatalog(t, s)
	recipe := seedRecipe(t, s, chef, "Pancakes", flour)
	require.NoError(t, s.AddCartItem(context.Background(), chef.ID, recipe.ID))

	rec := doRequest(h, http.MethodGet, "/api/recipes/download_shopping_cart/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "shopping_list.pdf")
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}

// =============================================================================
// Short Link Tests
// =============================================================================

func TestShortLink_RoundTrip(t *testing.T) {
	h, s := newTestHandler(t)
	chef, _ := seedUser(t, s, "chef@example.com", "chef", "secret-pass")
	flour, _ := seedCatalog(t, s)
	recipe := seedRecipe(t, s, chef, "Pancakes", flour)

	rec := doRequest(h, http.MethodGet, "/api/recipes/"+itoa(recipe.ID)+"/get-link/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[ShortLinkResponse](t, rec)
	require.Contains(t, resp.ShortLink, testBaseURL+"/s/")

	code := resp.ShortLink[len(testBaseURL+"/s/"):]
	rec = doRequest(h, http.MethodGet, "/s/"+code, "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/recipes/"+itoa(recipe.ID), rec.Header().Get("Location"))
}

func TestShortLink_Unknown(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/s/zzzz", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodGet, "/s/!!!", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Misc
// =============================================================================

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = doRequest(h, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestOpenAPISpec(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doRequest(h, http.MethodGet, "/api/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spec map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spec))
	assert.Equal(t, "3.0.3", spec["openapi"])

	paths, ok := spec["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/recipes")
	assert.Contains(t, paths, "/api/users")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
