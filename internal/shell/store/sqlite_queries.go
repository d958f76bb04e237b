package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/core/shopping"
	"github.com/jmoiron/sqlx"
)

// =============================================================================
// Users
// =============================================================================

func createUser(ctx context.Context, exec executor, user *domain.User) error {
	query := `
		INSERT INTO users (email, username, first_name, last_name, password_hash, avatar, is_staff, created_at)
		VALUES (:email, :username, :first_name, :last_name, :password_hash, :avatar, :is_staff, :created_at)
	`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	result, err := exec.NamedExecContext(ctx, query, map[string]any{
		"email":         user.Email,
		"username":      user.Username,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"password_hash": user.PasswordHash,
		"avatar":        user.Avatar,
		"is_staff":      user.IsStaff,
		"created_at":    user.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return NewStoreError("CreateUser", "user", user.Email, "email already registered", ErrDuplicateEmail)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return NewStoreError("CreateUser", "user", user.Username, "username already taken", ErrDuplicateUsername)
		}
		return NewStoreError("CreateUser", "user", user.Email, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateUser", "user", user.Email, "failed to read inserted id", err)
	}
	user.ID = id

	return nil
}

func getUser(ctx context.Context, exec executor, id int64) (*domain.User, error) {
	var row userRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUser", "user", strconv.FormatInt(id, 10), "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUser", "user", strconv.FormatInt(id, 10), err.Error(), err)
	}
	return row.toDomain(), nil
}

func getUserByEmail(ctx context.Context, exec executor, email string) (*domain.User, error) {
	var row userRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByEmail", "user", email, "user not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByEmail", "user", email, err.Error(), err)
	}
	return row.toDomain(), nil
}

func listUsers(ctx context.Context, exec executor, opts ListOptions) ([]domain.User, error) {
	opts = opts.Normalize()

	var rows []userRow
	err := exec.SelectContext(ctx, &rows,
		`SELECT * FROM users ORDER BY id LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListUsers", "user", "", err.Error(), err)
	}

	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}
	return users, nil
}

func countUsers(ctx context.Context, exec executor) (int, error) {
	var count int
	err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, NewStoreError("CountUsers", "user", "", err.Error(), err)
	}
	return count, nil
}

func updateUserAvatar(ctx context.Context, exec executor, userID int64, avatar string) error {
	result, err := exec.ExecContext(ctx, `UPDATE users SET avatar = ? WHERE id = ?`, avatar, userID)
	if err != nil {
		return NewStoreError("UpdateUserAvatar", "user", strconv.FormatInt(userID, 10), err.Error(), err)
	}
	return requireAffected(result, "UpdateUserAvatar", "user", strconv.FormatInt(userID, 10))
}

func updateUserPassword(ctx context.Context, exec executor, userID int64, passwordHash string) error {
	result, err := exec.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return NewStoreError("UpdateUserPassword", "user", strconv.FormatInt(userID, 10), err.Error(), err)
	}
	return requireAffected(result, "UpdateUserPassword", "user", strconv.FormatInt(userID, 10))
}

// =============================================================================
// Auth Tokens
// =============================================================================

func createToken(ctx context.Context, exec executor, key string, userID int64) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO auth_tokens (key, user_id, created_at) VALUES (?, ?, ?)`,
		key, userID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("CreateToken", "token", "", "token key collision", ErrDuplicate)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateToken", "token", "", "user does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateToken", "token", "", err.Error(), err)
	}
	return nil
}

func getUserByToken(ctx context.Context, exec executor, key string) (*domain.User, error) {
	var row userRow
	query := `
		SELECT u.* FROM users u
		JOIN auth_tokens t ON t.user_id = u.id
		WHERE t.key = ?
	`
	err := exec.GetContext(ctx, &row, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetUserByToken", "token", "", "token not found", ErrNotFound)
		}
		return nil, NewStoreError("GetUserByToken", "token", "", err.Error(), err)
	}
	return row.toDomain(), nil
}

func deleteToken(ctx context.Context, exec executor, key string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM auth_tokens WHERE key = ?`, key)
	if err != nil {
		return NewStoreError("DeleteToken", "token", "", err.Error(), err)
	}
	return requireAffected(result, "DeleteToken", "token", "")
}

// =============================================================================
// Ingredients
// =============================================================================

func createIngredient(ctx context.Context, exec executor, ingredient *domain.Ingredient) error {
	result, err := exec.ExecContext(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES (?, ?)`,
		ingredient.Name, ingredient.MeasurementUnit)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("CreateIngredient", "ingredient", ingredient.Name, "ingredient already exists", ErrDuplicate)
		}
		return NewStoreError("CreateIngredient", "ingredient", ingredient.Name, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateIngredient", "ingredient", ingredient.Name, "failed to read inserted id", err)
	}
	ingredient.ID = id

	return nil
}

func getIngredient(ctx context.Context, exec executor, id int64) (*domain.Ingredient, error) {
	var ingredient domain.Ingredient
	err := exec.GetContext(ctx, &ingredient,
		`SELECT id, name, measurement_unit AS measurementunit FROM ingredients WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetIngredient", "ingredient", strconv.FormatInt(id, 10), "ingredient not found", ErrNotFound)
		}
		return nil, NewStoreError("GetIngredient", "ingredient", strconv.FormatInt(id, 10), err.Error(), err)
	}
	return &ingredient, nil
}

func listIngredients(ctx context.Context, exec executor, namePrefix string) ([]domain.Ingredient, error) {
	query := `SELECT id, name, measurement_unit AS measurementunit FROM ingredients`
	args := []any{}
	if namePrefix != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(namePrefix)+"%")
	}
	query += ` ORDER BY name, measurement_unit`

	ingredients := []domain.Ingredient{}
	if err := exec.SelectContext(ctx, &ingredients, query, args...); err != nil {
		return nil, NewStoreError("ListIngredients", "ingredient", "", err.Error(), err)
	}
	return ingredients, nil
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// =============================================================================
// Tags
// =============================================================================

func createTag(ctx context.Context, exec executor, tag *domain.Tag) error {
	result, err := exec.ExecContext(ctx,
		`INSERT INTO tags (name, slug) VALUES (?, ?)`, tag.Name, tag.Slug)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("CreateTag", "tag", tag.Slug, "tag already exists", ErrDuplicate)
		}
		return NewStoreError("CreateTag", "tag", tag.Slug, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateTag", "tag", tag.Slug, "failed to read inserted id", err)
	}
	tag.ID = id

	return nil
}

func getTag(ctx context.Context, exec executor, id int64) (*domain.Tag, error) {
	var tag domain.Tag
	err := exec.GetContext(ctx, &tag, `SELECT id, name, slug FROM tags WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetTag", "tag", strconv.FormatInt(id, 10), "tag not found", ErrNotFound)
		}
		return nil, NewStoreError("GetTag", "tag", strconv.FormatInt(id, 10), err.Error(), err)
	}
	return &tag, nil
}

func listTags(ctx context.Context, exec executor) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	if err := exec.SelectContext(ctx, &tags, `SELECT id, name, slug FROM tags ORDER BY name`); err != nil {
		return nil, NewStoreError("ListTags", "tag", "", err.Error(), err)
	}
	return tags, nil
}

func getTagsBySlugs(ctx context.Context, exec executor, slugs []string) ([]domain.Tag, error) {
	if len(slugs) == 0 {
		return []domain.Tag{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name, slug FROM tags WHERE slug IN (?) ORDER BY name`, slugs)
	if err != nil {
		return nil, NewStoreError("GetTagsBySlugs", "tag", "", err.Error(), err)
	}

	tags := []domain.Tag{}
	if err := exec.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, NewStoreError("GetTagsBySlugs", "tag", "", err.Error(), err)
	}
	return tags, nil
}

// =============================================================================
// Recipes
// =============================================================================

func createRecipe(ctx context.Context, exec executor, recipe *domain.Recipe) error {
	if recipe.PubDate.IsZero() {
		recipe.PubDate = time.Now().UTC()
	}

	result, err := exec.NamedExecContext(ctx, `
		INSERT INTO recipes (author_id, name, image, text, cooking_time, pub_date)
		VALUES (:author_id, :name, :image, :text, :cooking_time, :pub_date)
	`, map[string]any{
		"author_id":    recipe.AuthorID,
		"name":         recipe.Name,
		"image":        recipe.Image,
		"text":         recipe.Text,
		"cooking_time": recipe.CookingTime,
		"pub_date":     recipe.PubDate.Format(time.RFC3339),
	})
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("CreateRecipe", "recipe", recipe.Name, "author does not exist", ErrForeignKey)
		}
		return NewStoreError("CreateRecipe", "recipe", recipe.Name, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateRecipe", "recipe", recipe.Name, "failed to read inserted id", err)
	}
	recipe.ID = id

	if err := insertRecipeLinks(ctx, exec, recipe); err != nil {
		return err
	}

	return nil
}

func updateRecipe(ctx context.Context, exec executor, recipe *domain.Recipe) error {
	recipeID := strconv.FormatInt(recipe.ID, 10)

	result, err := exec.NamedExecContext(ctx, `
		UPDATE recipes
		SET name = :name, image = :image, text = :text, cooking_time = :cooking_time
		WHERE id = :id
	`, map[string]any{
		"id":           recipe.ID,
		"name":         recipe.Name,
		"image":        recipe.Image,
		"text":         recipe.Text,
		"cooking_time": recipe.CookingTime,
	})
	if err != nil {
		return NewStoreError("UpdateRecipe", "recipe", recipeID, err.Error(), err)
	}
	if err := requireAffected(result, "UpdateRecipe", "recipe", recipeID); err != nil {
		return err
	}

	// Rewrite links from scratch
	if _, err := exec.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
		return NewStoreError("UpdateRecipe", "recipe", recipeID, err.Error(), err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
		return NewStoreError("UpdateRecipe", "recipe", recipeID, err.Error(), err)
	}

	return insertRecipeLinks(ctx, exec, recipe)
}

func insertRecipeLinks(ctx context.Context, exec executor, recipe *domain.Recipe) error {
	recipeID := strconv.FormatInt(recipe.ID, 10)

	for _, ri := range recipe.Ingredients {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES (?, ?, ?)`,
			recipe.ID, ri.IngredientID, ri.Amount)
		if err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return NewStoreError("CreateRecipe", "recipe", recipeID, "ingredient does not exist", ErrForeignKey)
			}
			return NewStoreError("CreateRecipe", "recipe", recipeID, err.Error(), err)
		}
	}

	for _, tag := range recipe.Tags {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`, recipe.ID, tag.ID)
		if err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return NewStoreError("CreateRecipe", "recipe", recipeID, "tag does not exist", ErrForeignKey)
			}
			return NewStoreError("CreateRecipe", "recipe", recipeID, err.Error(), err)
		}
	}

	return nil
}

func getRecipe(ctx context.Context, exec executor, id int64) (*domain.Recipe, error) {
	var row recipeRow
	err := exec.GetContext(ctx, &row, `SELECT * FROM recipes WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRecipe", "recipe", strconv.FormatInt(id, 10), "recipe not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRecipe", "recipe", strconv.FormatInt(id, 10), err.Error(), err)
	}

	recipes := []domain.Recipe{row.toDomain()}
	if err := loadRecipeRelations(ctx, exec, recipes); err != nil {
		return nil, err
	}

	return &recipes[0], nil
}

func deleteRecipe(ctx context.Context, exec executor, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteRecipe", "recipe", strconv.FormatInt(id, 10), err.Error(), err)
	}
	return requireAffected(result, "DeleteRecipe", "recipe", strconv.FormatInt(id, 10))
}

// recipeFilterClauses translates a RecipeFilter into WHERE conditions.
func recipeFilterClauses(filter RecipeFilter) ([]string, []any, error) {
	var clauses []string
	var args []any

	if filter.AuthorID != 0 {
		clauses = append(clauses, `r.author_id = ?`)
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		sub, subArgs, err := sqlx.In(`r.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE t.slug IN (?)
		)`, filter.TagSlugs)
		if err != nil {
			return nil, nil, err
		}
		clauses = append(clauses, sub)
		args = append(args, subArgs...)
	}
	if filter.FavoritedBy != 0 {
		clauses = append(clauses, `r.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)`)
		args = append(args, filter.FavoritedBy)
	}
	if filter.InCartOf != 0 {
		clauses = append(clauses, `r.id IN (SELECT recipe_id FROM shopping_cart WHERE user_id = ?)`)
		args = append(args, filter.InCartOf)
	}

	return clauses, args, nil
}

func listRecipes(ctx context.Context, exec executor, filter RecipeFilter, opts ListOptions) ([]domain.Recipe, error) {
	opts = opts.Normalize()

	clauses, args, err := recipeFilterClauses(filter)
	if err != nil {
		return nil, NewStoreError("ListRecipes", "recipe", "", err.Error(), err)
	}

	query := `SELECT r.* FROM recipes r`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}
	query += ` ORDER BY r.pub_date DESC, r.id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	var rows []recipeRow
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListRecipes", "recipe", "", err.Error(), err)
	}

	recipes := make([]domain.Recipe, 0, len(rows))
	for i := range rows {
		recipes = append(recipes, rows[i].toDomain())
	}

	if err := loadRecipeRelations(ctx, exec, recipes); err != nil {
		return nil, err
	}

	return recipes, nil
}

func countRecipes(ctx context.Context, exec executor, filter RecipeFilter) (int, error) {
	clauses, args, err := recipeFilterClauses(filter)
	if err != nil {
		return 0, NewStoreError("CountRecipes", "recipe", "", err.Error(), err)
	}

	query := `SELECT COUNT(*) FROM recipes r`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, ` AND `)
	}

	var count int
	if err := exec.GetContext(ctx, &count, query, args...); err != nil {
		return 0, NewStoreError("CountRecipes", "recipe", "", err.Error(), err)
	}
	return count, nil
}

func listRecipesByAuthor(ctx context.Context, exec executor, authorID int64, limit int) ([]domain.Recipe, error) {
	query := `SELECT * FROM recipes WHERE author_id = ? ORDER BY pub_date DESC, id DESC`
	args := []any{authorID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []recipeRow
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListRecipesByAuthor", "recipe", strconv.FormatInt(authorID, 10), err.Error(), err)
	}

	recipes := make([]domain.Recipe, 0, len(rows))
	for i := range rows {
		recipes = append(recipes, rows[i].toDomain())
	}
	return recipes, nil
}

func countRecipesByAuthor(ctx context.Context, exec executor, authorID int64) (int, error) {
	var count int
	err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM recipes WHERE author_id = ?`, authorID)
	if err != nil {
		return 0, NewStoreError("CountRecipesByAuthor", "recipe", strconv.FormatInt(authorID, 10), err.Error(), err)
	}
	return count, nil
}

// loadRecipeRelations fills in Ingredients and Tags for the given recipes
// with two batched queries.
func loadRecipeRelations(ctx context.Context, exec executor, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(recipes))
	index := make(map[int64]*domain.Recipe, len(recipes))
	for i := range recipes {
		ids = append(ids, recipes[i].ID)
		index[recipes[i].ID] = &recipes[i]
		recipes[i].Ingredients = []domain.RecipeIngredient{}
		recipes[i].Tags = []domain.Tag{}
	}

	type ingredientLink struct {
		RecipeID        int64  `db:"recipe_id"`
		IngredientID    int64  `db:"ingredient_id"`
		Name            string `db:"name"`
		MeasurementUnit string `db:"measurement_unit"`
		Amount          int    `db:"amount"`
	}

	query, args, err := sqlx.In(`
		SELECT ri.recipe_id, ri.ingredient_id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (?)
		ORDER BY ri.recipe_id, i.name
	`, ids)
	if err != nil {
		return NewStoreError("ListRecipes", "recipe", "", err.Error(), err)
	}

	var links []ingredientLink
	if err := exec.SelectContext(ctx, &links, query, args...); err != nil {
		return NewStoreError("ListRecipes", "recipe", "", err.Error(), err)
	}
	for _, link := range links {
		r := index[link.RecipeID]
		r.Ingredients = append(r.Ingredients, domain.RecipeIngredient{
			IngredientID:    link.IngredientID,
			Name:            link.Name,
			MeasurementUnit: link.MeasurementUnit,
			Amount:          link.Amount,
		})
	}

	type tagLink struct {
		RecipeID int64  `db:"recipe_id"`
		TagID    int64  `db:"id"`
		Name     string `db:"name"`
		Slug     string `db:"slug"`
	}

	query, args, err = sqlx.In(`
		SELECT rt.recipe_id, t.id, t.name, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (?)
		ORDER BY rt.recipe_id, t.name
	`, ids)
	if err != nil {
		return NewStoreError("ListRecipes", "recipe", "", err.Error(), err)
	}

	var tagLinks []tagLink
	if err := exec.SelectContext(ctx, &tagLinks, query, args...); err != nil {
		return NewStoreError("ListRecipes", "recipe", "", err.Error(), err)
	}
	for _, link := range tagLinks {
		r := index[link.RecipeID]
		r.Tags = append(r.Tags, domain.Tag{ID: link.TagID, Name: link.Name, Slug: link.Slug})
	}

	return nil
}

// =============================================================================
// Favorites and Shopping Cart
// =============================================================================

// addRelation inserts into a (user_id, recipe_id) link table. The table name
// is always a compile-time constant.
func addRelation(ctx context.Context, exec executor, op, table string, userID, recipeID int64) error {
	query := fmt.Sprintf(`INSERT INTO %s (user_id, recipe_id, created_at) VALUES (?, ?, ?)`, table)
	_, err := exec.ExecContext(ctx, query, userID, recipeID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError(op, table, strconv.FormatInt(recipeID, 10), "already added", ErrDuplicate)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError(op, table, strconv.FormatInt(recipeID, 10), "user or recipe does not exist", ErrForeignKey)
		}
		return NewStoreError(op, table, strconv.FormatInt(recipeID, 10), err.Error(), err)
	}
	return nil
}

func removeRelation(ctx context.Context, exec executor, op, table string, userID, recipeID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND recipe_id = ?`, table)
	result, err := exec.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return NewStoreError(op, table, strconv.FormatInt(recipeID, 10), err.Error(), err)
	}
	return requireAffected(result, op, table, strconv.FormatInt(recipeID, 10))
}

func hasRelation(ctx context.Context, exec executor, op, table string, userID, recipeID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ? AND recipe_id = ?`, table)
	var count int
	if err := exec.GetContext(ctx, &count, query, userID, recipeID); err != nil {
		return false, NewStoreError(op, table, strconv.FormatInt(recipeID, 10), err.Error(), err)
	}
	return count > 0, nil
}

func listCartRecipes(ctx context.Context, exec executor, userID int64) ([]domain.Recipe, error) {
	var rows []recipeRow
	query := `
		SELECT r.* FROM recipes r
		JOIN shopping_cart c ON c.recipe_id = r.id
		WHERE c.user_id = ?
		ORDER BY r.pub_date DESC, r.id DESC
	`
	if err := exec.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, NewStoreError("ListCartRecipes", "shopping_cart", strconv.FormatInt(userID, 10), err.Error(), err)
	}

	recipes := make([]domain.Recipe, 0, len(rows))
	for i := range rows {
		recipes = append(recipes, rows[i].toDomain())
	}
	return recipes, nil
}

// listCartIngredients returns one row per recipe ingredient in the cart,
// without summing duplicates. Aggregation happens in the shopping package.
func listCartIngredients(ctx context.Context, exec executor, userID int64) ([]shopping.Item, error) {
	items := []shopping.Item{}
	query := `
		SELECT i.name, i.measurement_unit AS measurementunit, ri.amount
		FROM shopping_cart c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE c.user_id = ?
		ORDER BY i.name, i.measurement_unit
	`
	if err := exec.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, NewStoreError("ListCartIngredients", "shopping_cart", strconv.FormatInt(userID, 10), err.Error(), err)
	}
	return items, nil
}

// =============================================================================
// Follows
// =============================================================================

func addFollow(ctx context.Context, exec executor, userID, authorID int64) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO follows (user_id, author_id, created_at) VALUES (?, ?, ?)`,
		userID, authorID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("AddFollow", "follow", strconv.FormatInt(authorID, 10), "already following", ErrDuplicate)
		}
		if strings.Contains(err.Error(), "CHECK constraint failed") {
			return NewStoreError("AddFollow", "follow", strconv.FormatInt(authorID, 10), "cannot follow yourself", ErrSelfFollow)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("AddFollow", "follow", strconv.FormatInt(authorID, 10), "user or author does not exist", ErrForeignKey)
		}
		return NewStoreError("AddFollow", "follow", strconv.FormatInt(authorID, 10), err.Error(), err)
	}
	return nil
}

func removeFollow(ctx context.Context, exec executor, userID, authorID int64) error {
	result, err := exec.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return NewStoreError("RemoveFollow", "follow", strconv.FormatInt(authorID, 10), err.Error(), err)
	}
	return requireAffected(result, "RemoveFollow", "follow", strconv.FormatInt(authorID, 10))
}

func isFollowing(ctx context.Context, exec executor, userID, authorID int64) (bool, error) {
	var count int
	err := exec.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return false, NewStoreError("IsFollowing", "follow", strconv.FormatInt(authorID, 10), err.Error(), err)
	}
	return count > 0, nil
}

func listFollowedAuthors(ctx context.Context, exec executor, userID int64, opts ListOptions) ([]domain.User, error) {
	opts = opts.Normalize()

	var rows []userRow
	query := `
		SELECT u.* FROM users u
		JOIN follows f ON f.author_id = u.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, u.id DESC
		LIMIT ? OFFSET ?
	`
	if err := exec.SelectContext(ctx, &rows, query, userID, opts.Limit, opts.Offset); err != nil {
		return nil, NewStoreError("ListFollowedAuthors", "follow", strconv.FormatInt(userID, 10), err.Error(), err)
	}

	users := make([]domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, *rows[i].toDomain())
	}
	return users, nil
}

func countFollowedAuthors(ctx context.Context, exec executor, userID int64) (int, error) {
	var count int
	err := exec.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE user_id = ?`, userID)
	if err != nil {
		return 0, NewStoreError("CountFollowedAuthors", "follow", strconv.FormatInt(userID, 10), err.Error(), err)
	}
	return count, nil
}

// =============================================================================
// Helpers
// =============================================================================

// requireAffected maps a zero-row write to ErrNotFound.
func requireAffected(result sql.Result, op, entity, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return NewStoreError(op, entity, id, "failed to read rows affected", err)
	}
	if n == 0 {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}
	return nil
}
