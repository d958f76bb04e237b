package api

import (
	"context"
	"strings"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/core/shopping"
	"github.com/foodgram/foodgram/internal/shell/store"
)

// =============================================================================
// Stub Store
// =============================================================================

type pair struct {
	UserID   int64
	TargetID int64
}

// stubStore implements store.Store in memory for handler tests.
type stubStore struct {
	users       []*domain.User
	tokens      map[string]int64
	ingredients []*domain.Ingredient
	tags        []*domain.Tag
	recipes     []*domain.Recipe
	favorites   map[pair]bool
	cart        map[pair]bool
	follows     []pair
	nextID      int64
	err         error // If set, all operations return this error
}

func newStubStore() *stubStore {
	return &stubStore{
		tokens:    make(map[string]int64),
		favorites: make(map[pair]bool),
		cart:      make(map[pair]bool),
		nextID:    1,
	}
}

func (s *stubStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func notFound(op, entity string) error {
	return store.NewStoreError(op, entity, "", entity+" not found", store.ErrNotFound)
}

// =============================================================================
// Users
// =============================================================================

func (s *stubStore) CreateUser(ctx context.Context, user *domain.User) error {
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.NewStoreError("CreateUser", "user", user.Email, "duplicate", store.ErrDuplicateEmail)
		}
		if u.Username == user.Username {
			return store.NewStoreError("CreateUser", "user", user.Username, "duplicate", store.ErrDuplicateUsername)
		}
	}
	user.ID = s.id()
	s.users = append(s.users, user)
	return nil
}

func (s *stubStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, notFound("GetUser", "user")
}

func (s *stubStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, notFound("GetUserByEmail", "user")
}

func (s *stubStore) ListUsers(ctx context.Context, opts store.ListOptions) ([]domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	opts = opts.Normalize()
	users := make([]domain.User, 0)
	for i := opts.Offset; i < len(s.users) && len(users) < opts.Limit; i++ {
		users = append(users, *s.users[i])
	}
	return users, nil
}

func (s *stubStore) CountUsers(ctx context.Context) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.users), nil
}

func (s *stubStore) UpdateUserAvatar(ctx context.Context, userID int64, avatar string) error {
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.ID == userID {
			u.Avatar = avatar
			return nil
		}
	}
	return notFound("UpdateUserAvatar", "user")
}

func (s *stubStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	if s.err != nil {
		return s.err
	}
	for _, u := range s.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return notFound("UpdateUserPassword", "user")
}

// =============================================================================
// Tokens
// =============================================================================

func (s *stubStore) CreateToken(ctx context.Context, key string, userID int64) error {
	if s.err != nil {
		return s.err
	}
	s.tokens[key] = userID
	return nil
}

func (s *stubStore) GetUserByToken(ctx context.Context, key string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	userID, ok := s.tokens[key]
	if !ok {
		return nil, notFound("GetUserByToken", "token")
	}
	return s.GetUser(ctx, userID)
}

func (s *stubStore) DeleteToken(ctx context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.tokens[key]; !ok {
		return notFound("DeleteToken", "token")
	}
	delete(s.tokens, key)
	return nil
}

// =============================================================================
// Ingredients and Tags
// =============================================================================

func (s *stubStore) CreateIngredient(ctx context.Context, ingredient *domain.Ingredient) error {
	if s.err != nil {
		return s.err
	}
	for _, i := range s.ingredients {
		if i.Name == ingredient.Name && i.MeasurementUnit == ingredient.MeasurementUnit {
			return store.NewStoreError("CreateIngredient", "ingredient", ingredient.Name, "duplicate", store.ErrDuplicate)
		}
	}
	ingredient.ID = s.id()
	s.ingredients = append(s.ingredients, ingredient)
	return nil
}

func (s *stubStore) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, i := range s.ingredients {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, notFound("GetIngredient", "ingredient")
}

func (s *stubStore) ListIngredients(ctx context.Context, namePrefix string) ([]domain.Ingredient, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Ingredient, 0)
	for _, i := range s.ingredients {
		if strings.HasPrefix(strings.ToLower(i.Name), strings.ToLower(namePrefix)) {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (s *stubStore) CreateTag(ctx context.Context, tag *domain.Tag) error {
	if s.err != nil {
		return s.err
	}
	for _, t := range s.tags {
		if t.Slug == tag.Slug || t.Name == tag.Name {
			return store.NewStoreError("CreateTag", "tag", tag.Slug, "duplicate", store.ErrDuplicate)
		}
	}
	tag.ID = s.id()
	s.tags = append(s.tags, tag)
	return nil
}

func (s *stubStore) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, t := range s.tags {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, notFound("GetTag", "tag")
}

func (s *stubStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubStore) GetTagsBySlugs(ctx context.Context, slugs []string) ([]domain.Tag, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Tag, 0)
	for _, t := range s.tags {
		for _, slug := range slugs {
			if t.Slug == slug {
				out = append(out, *t)
			}
		}
	}
	return out, nil
}

// =============================================================================
// Recipes
// =============================================================================

// resolveIngredients fills denormalized names the way the SQL joins do.
func (s *stubStore) resolveIngredients(recipe *domain.Recipe) *domain.Recipe {
	copied := *recipe
	copied.Ingredients = make([]domain.RecipeIngredient, len(recipe.Ingredients))
	for i, ri := range recipe.Ingredients {
		copied.Ingredients[i] = ri
		for _, ing := range s.ingredients {
			if ing.ID == ri.IngredientID {
				copied.Ingredients[i].Name = ing.Name
				copied.Ingredients[i].MeasurementUnit = ing.MeasurementUnit
			}
		}
	}
	return &copied
}

func (s *stubStore) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if s.err != nil {
		return s.err
	}
	for _, ri := range recipe.Ingredients {
		if _, err := s.GetIngredient(ctx, ri.IngredientID); err != nil {
			return store.NewStoreError("CreateRecipe", "recipe", recipe.Name, "unknown ingredient", store.ErrForeignKey)
		}
	}
	recipe.ID = s.id()
	s.recipes = append(s.recipes, recipe)
	return nil
}

func (s *stubStore) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.recipes {
		if r.ID == id {
			return s.resolveIngredients(r), nil
		}
	}
	return nil, notFound("GetRecipe", "recipe")
}

func (s *stubStore) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if s.err != nil {
		return s.err
	}
	for i, r := range s.recipes {
		if r.ID == recipe.ID {
			s.recipes[i] = recipe
			return nil
		}
	}
	return notFound("UpdateRecipe", "recipe")
}

func (s *stubStore) DeleteRecipe(ctx context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	for i, r := range s.recipes {
		if r.ID == id {
			s.recipes = append(s.recipes[:i], s.recipes[i+1:]...)
			return nil
		}
	}
	return notFound("DeleteRecipe", "recipe")
}

func (s *stubStore) matchesFilter(r *domain.Recipe, filter store.RecipeFilter) bool {
	if filter.AuthorID != 0 && r.AuthorID != filter.AuthorID {
		return false
	}
	if len(filter.TagSlugs) > 0 {
		matched := false
		for _, tag := range r.Tags {
			for _, slug := range filter.TagSlugs {
				if tag.Slug == slug {
					matched = true
				}
			}
		}
		if !matched {
			return false
		}
	}
	if filter.FavoritedBy != 0 && !s.favorites[pair{filter.FavoritedBy, r.ID}] {
		return false
	}
	if filter.InCartOf != 0 && !s.cart[pair{filter.InCartOf, r.ID}] {
		return false
	}
	return true
}

func (s *stubStore) filteredRecipes(filter store.RecipeFilter) []*domain.Recipe {
	// Newest first
	out := make([]*domain.Recipe, 0)
	for i := len(s.recipes) - 1; i >= 0; i-- {
		if s.matchesFilter(s.recipes[i], filter) {
			out = append(out, s.recipes[i])
		}
	}
	return out
}

func (s *stubStore) ListRecipes(ctx context.Context, filter store.RecipeFilter, opts store.ListOptions) ([]domain.Recipe, error) {
	if s.err != nil {
		return nil, s.err
	}
	opts = opts.Normalize()
	matched := s.filteredRecipes(filter)
	out := make([]domain.Recipe, 0)
	for i := opts.Offset; i < len(matched) && len(out) < opts.Limit; i++ {
		out = append(out, *s.resolveIngredients(matched[i]))
	}
	return out, nil
}

func (s *stubStore) CountRecipes(ctx context.Context, filter store.RecipeFilter) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return len(s.filteredRecipes(filter)), nil
}

func (s *stubStore) ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.Recipe, error) {
	if s.err != nil {
		return nil, s.err
	}
	matched := s.filteredRecipes(store.RecipeFilter{AuthorID: authorID})
	out := make([]domain.Recipe, 0)
	for _, r := range matched {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *s.resolveIngredients(r))
	}
	return out, nil
}

func (s *stubStore) CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error) {
	return s.CountRecipes(ctx, store.RecipeFilter{AuthorID: authorID})
}

// =============================================================================
// Favorites and Cart
// =============================================================================

func (s *stubStore) addPair(set map[pair]bool, userID, recipeID int64, op string) error {
	if s.err != nil {
		return s.err
	}
	p := pair{userID, recipeID}
	if set[p] {
		return store.NewStoreError(op, "relation", "", "duplicate", store.ErrDuplicate)
	}
	set[p] = true
	return nil
}

func (s *stubStore) removePair(set map[pair]bool, userID, recipeID int64, op string) error {
	if s.err != nil {
		return s.err
	}
	p := pair{userID, recipeID}
	if !set[p] {
		return notFound(op, "relation")
	}
	delete(set, p)
	return nil
}

func (s *stubStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.addPair(s.favorites, userID, recipeID, "AddFavorite")
}

func (s *stubStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return s.removePair(s.favorites, userID, recipeID, "RemoveFavorite")
}

func (s *stubStore) IsFavorited(ctx context.Context, userID, recipeID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.favorites[pair{userID, recipeID}], nil
}

func (s *stubStore) AddCartItem(ctx context.Context, userID, recipeID int64) error {
	return s.addPair(s.cart, userID, recipeID, "AddCartItem")
}

func (s *stubStore) RemoveCartItem(ctx context.Context, userID, recipeID int64) error {
	return s.removePair(s.cart, userID, recipeID, "RemoveCartItem")
}

func (s *stubStore) IsInCart(ctx context.Context, userID, recipeID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.cart[pair{userID, recipeID}], nil
}

func (s *stubStore) ListCartRecipes(ctx context.Context, userID int64) ([]domain.Recipe, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ListRecipes(ctx, store.RecipeFilter{InCartOf: userID}, store.ListOptions{})
}

func (s *stubStore) ListCartIngredients(ctx context.Context, userID int64) ([]shopping.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	items := make([]shopping.Item, 0)
	for _, r := range s.recipes {
		if !s.cart[pair{userID, r.ID}] {
			continue
		}
		resolved := s.resolveIngredients(r)
		for _, ri := range resolved.Ingredients {
			items = append(items, shopping.Item{
				Name:            ri.Name,
				MeasurementUnit: ri.MeasurementUnit,
				Amount:          ri.Amount,
			})
		}
	}
	return items, nil
}

// =============================================================================
// Follows
// =============================================================================

func (s *stubStore) AddFollow(ctx context.Context, userID, authorID int64) error {
	if s.err != nil {
		return s.err
	}
	if userID == authorID {
		return store.NewStoreError("AddFollow", "follow", "", "self follow", store.ErrSelfFollow)
	}
	for _, f := range s.follows {
		if f.UserID == userID && f.TargetID == authorID {
			return store.NewStoreError("AddFollow", "follow", "", "duplicate", store.ErrDuplicate)
		}
	}
	s.follows = append(s.follows, pair{userID, authorID})
	return nil
}

func (s *stubStore) RemoveFollow(ctx context.Context, userID, authorID int64) error {
	if s.err != nil {
		return s.err
	}
	for i, f := range s.follows {
		if f.UserID == userID && f.TargetID == authorID {
			s.follows = append(s.follows[:i], s.follows[i+1:]...)
			return nil
		}
	}
	return notFound("RemoveFollow", "follow")
}

func (s *stubStore) IsFollowing(ctx context.Context, userID, authorID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, f := range s.follows {
		if f.UserID == userID && f.TargetID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) ListFollowedAuthors(ctx context.Context, userID int64, opts store.ListOptions) ([]domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	opts = opts.Normalize()
	out := make([]domain.User, 0)
	skipped := 0
	for _, f := range s.follows {
		if f.UserID != userID {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		if len(out) == opts.Limit {
			break
		}
		author, err := s.GetUser(ctx, f.TargetID)
		if err != nil {
			return nil, err
		}
		out = append(out, *author)
	}
	return out, nil
}

func (s *stubStore) CountFollowedAuthors(ctx context.Context, userID int64) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, f := range s.follows {
		if f.UserID == userID {
			count++
		}
	}
	return count, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

func (s *stubStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(s)
}

func (s *stubStore) Close() error {
	return nil
}
