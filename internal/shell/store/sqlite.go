package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/foodgram/foodgram/internal/core/domain"
	"github.com/foodgram/foodgram/internal/core/shopping"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// A second pool connection would see a separate database when dsn
	// is :memory:, and concurrent writers gain nothing under SQLite anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Types
// =============================================================================

type userRow struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	Username     string `db:"username"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	PasswordHash string `db:"password_hash"`
	Avatar       string `db:"avatar"`
	IsStaff      bool   `db:"is_staff"`
	CreatedAt    string `db:"created_at"`
}

func (r *userRow) toDomain() *domain.User {
	createdAt, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		Avatar:       r.Avatar,
		IsStaff:      r.IsStaff,
		CreatedAt:    createdAt,
	}
}

type recipeRow struct {
	ID          int64  `db:"id"`
	AuthorID    int64  `db:"author_id"`
	Name        string `db:"name"`
	Image       string `db:"image"`
	Text        string `db:"text"`
	CookingTime int    `db:"cooking_time"`
	PubDate     string `db:"pub_date"`
}

func (r *recipeRow) toDomain() domain.Recipe {
	pubDate, _ := time.Parse(time.RFC3339, r.PubDate)
	return domain.Recipe{
		ID:          r.ID,
		AuthorID:    r.AuthorID,
		Name:        r.Name,
		Image:       r.Image,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		PubDate:     pubDate,
	}
}

// =============================================================================
// Store Method Dispatch
// =============================================================================

func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.db, user)
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return getUser(ctx, s.db, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (s *SQLiteStore) ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error) {
	return listUsers(ctx, s.db, opts)
}

func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	return countUsers(ctx, s.db)
}

func (s *SQLiteStore) UpdateUserAvatar(ctx context.Context, userID int64, avatar string) error {
	return updateUserAvatar(ctx, s.db, userID, avatar)
}

func (s *SQLiteStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	return updateUserPassword(ctx, s.db, userID, passwordHash)
}

func (s *SQLiteStore) CreateToken(ctx context.Context, key string, userID int64) error {
	return createToken(ctx, s.db, key, userID)
}

func (s *SQLiteStore) GetUserByToken(ctx context.Context, key string) (*domain.User, error) {
	return getUserByToken(ctx, s.db, key)
}

func (s *SQLiteStore) DeleteToken(ctx context.Context, key string) error {
	return deleteToken(ctx, s.db, key)
}

func (s *SQLiteStore) CreateIngredient(ctx context.Context, ingredient *domain.Ingredient) error {
	return createIngredient(ctx, s.db, ingredient)
}

func (s *SQLiteStore) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	return getIngredient(ctx, s.db, id)
}

func (s *SQLiteStore) ListIngredients(ctx context.Context, namePrefix string) ([]domain.Ingredient, error) {
	return listIngredients(ctx, s.db, namePrefix)
}

func (s *SQLiteStore) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return createTag(ctx, s.db, tag)
}

func (s *SQLiteStore) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	return getTag(ctx, s.db, id)
}

func (s *SQLiteStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return listTags(ctx, s.db)
}

func (s *SQLiteStore) GetTagsBySlugs(ctx context.Context, slugs []string) ([]domain.Tag, error) {
	return getTagsBySlugs(ctx, s.db, slugs)
}

// CreateRecipe inserts the recipe and its ingredient/tag links atomically.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.CreateRecipe(ctx, recipe)
	})
}

func (s *SQLiteStore) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	return getRecipe(ctx, s.db, id)
}

// UpdateRecipe replaces the recipe fields and rewrites its links atomically.
func (s *SQLiteStore) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return s.WithTx(ctx, func(tx Store) error {
		return tx.UpdateRecipe(ctx, recipe)
	})
}

func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id int64) error {
	return deleteRecipe(ctx, s.db, id)
}

func (s *SQLiteStore) ListRecipes(ctx context.Context, filter RecipeFilter, opts ListOptions) ([]domain.Recipe, error) {
	return listRecipes(ctx, s.db, filter, opts)
}

func (s *SQLiteStore) CountRecipes(ctx context.Context, filter RecipeFilter) (int, error) {
	return countRecipes(ctx, s.db, filter)
}

func (s *SQLiteStore) ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.Recipe, error) {
	return listRecipesByAuthor(ctx, s.db, authorID, limit)
}

func (s *SQLiteStore) CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error) {
	return countRecipesByAuthor(ctx, s.db, authorID)
}

func (s *SQLiteStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return addRelation(ctx, s.db, "AddFavorite", "favorites", userID, recipeID)
}

func (s *SQLiteStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return removeRelation(ctx, s.db, "RemoveFavorite", "favorites", userID, recipeID)
}

func (s *SQLiteStore) IsFavorited(ctx context.Context, userID, recipeID int64) (bool, error) {
	return hasRelation(ctx, s.db, "IsFavorited", "favorites", userID, recipeID)
}

func (s *SQLiteStore) AddCartItem(ctx context.Context, userID, recipeID int64) error {
	return addRelation(ctx, s.db, "AddCartItem", "shopping_cart", userID, recipeID)
}

func (s *SQLiteStore) RemoveCartItem(ctx context.Context, userID, recipeID int64) error {
	return removeRelation(ctx, s.db, "RemoveCartItem", "shopping_cart", userID, recipeID)
}

func (s *SQLiteStore) IsInCart(ctx context.Context, userID, recipeID int64) (bool, error) {
	return hasRelation(ctx, s.db, "IsInCart", "shopping_cart", userID, recipeID)
}

func (s *SQLiteStore) ListCartRecipes(ctx context.Context, userID int64) ([]domain.Recipe, error) {
	return listCartRecipes(ctx, s.db, userID)
}

func (s *SQLiteStore) ListCartIngredients(ctx context.Context, userID int64) ([]shopping.Item, error) {
	return listCartIngredients(ctx, s.db, userID)
}

func (s *SQLiteStore) AddFollow(ctx context.Context, userID, authorID int64) error {
	return addFollow(ctx, s.db, userID, authorID)
}

func (s *SQLiteStore) RemoveFollow(ctx context.Context, userID, authorID int64) error {
	return removeFollow(ctx, s.db, userID, authorID)
}

func (s *SQLiteStore) IsFollowing(ctx context.Context, userID, authorID int64) (bool, error) {
	return isFollowing(ctx, s.db, userID, authorID)
}

func (s *SQLiteStore) ListFollowedAuthors(ctx context.Context, userID int64, opts ListOptions) ([]domain.User, error) {
	return listFollowedAuthors(ctx, s.db, userID, opts)
}

func (s *SQLiteStore) CountFollowedAuthors(ctx context.Context, userID int64) (int, error) {
	return countFollowedAuthors(ctx, s.db, userID)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txSQLiteStore{tx: tx}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, s.tx, user)
}

func (s *txSQLiteStore) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return getUser(ctx, s.tx, id)
}

func (s *txSQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, s.tx, email)
}

func (s *txSQLiteStore) ListUsers(ctx context.Context, opts ListOptions) ([]domain.User, error) {
	return listUsers(ctx, s.tx, opts)
}

func (s *txSQLiteStore) CountUsers(ctx context.Context) (int, error) {
	return countUsers(ctx, s.tx)
}

func (s *txSQLiteStore) UpdateUserAvatar(ctx context.Context, userID int64, avatar string) error {
	return updateUserAvatar(ctx, s.tx, userID, avatar)
}

func (s *txSQLiteStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	return updateUserPassword(ctx, s.tx, userID, passwordHash)
}

func (s *txSQLiteStore) CreateToken(ctx context.Context, key string, userID int64) error {
	return createToken(ctx, s.tx, key, userID)
}

func (s *txSQLiteStore) GetUserByToken(ctx context.Context, key string) (*domain.User, error) {
	return getUserByToken(ctx, s.tx, key)
}

func (s *txSQLiteStore) DeleteToken(ctx context.Context, key string) error {
	return deleteToken(ctx, s.tx, key)
}

func (s *txSQLiteStore) CreateIngredient(ctx context.Context, ingredient *domain.Ingredient) error {
	return createIngredient(ctx, s.tx, ingredient)
}

func (s *txSQLiteStore) GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error) {
	return getIngredient(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListIngredients(ctx context.Context, namePrefix string) ([]domain.Ingredient, error) {
	return listIngredients(ctx, s.tx, namePrefix)
}

func (s *txSQLiteStore) CreateTag(ctx context.Context, tag *domain.Tag) error {
	return createTag(ctx, s.tx, tag)
}

func (s *txSQLiteStore) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	return getTag(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return listTags(ctx, s.tx)
}

func (s *txSQLiteStore) GetTagsBySlugs(ctx context.Context, slugs []string) ([]domain.Tag, error) {
	return getTagsBySlugs(ctx, s.tx, slugs)
}

func (s *txSQLiteStore) CreateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return createRecipe(ctx, s.tx, recipe)
}

func (s *txSQLiteStore) GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error) {
	return getRecipe(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateRecipe(ctx context.Context, recipe *domain.Recipe) error {
	return updateRecipe(ctx, s.tx, recipe)
}

func (s *txSQLiteStore) DeleteRecipe(ctx context.Context, id int64) error {
	return deleteRecipe(ctx, s.tx, id)
}

func (s *txSQLiteStore) ListRecipes(ctx context.Context, filter RecipeFilter, opts ListOptions) ([]domain.Recipe, error) {
	return listRecipes(ctx, s.tx, filter, opts)
}

func (s *txSQLiteStore) CountRecipes(ctx context.Context, filter RecipeFilter) (int, error) {
	return countRecipes(ctx, s.tx, filter)
}

func (s *txSQLiteStore) ListRecipesByAuthor(ctx context.Context, authorID int64, limit int) ([]domain.Recipe, error) {
	return listRecipesByAuthor(ctx, s.tx, authorID, limit)
}

func (s *txSQLiteStore) CountRecipesByAuthor(ctx context.Context, authorID int64) (int, error) {
	return countRecipesByAuthor(ctx, s.tx, authorID)
}

func (s *txSQLiteStore) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return addRelation(ctx, s.tx, "AddFavorite", "favorites", userID, recipeID)
}

func (s *txSQLiteStore) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return removeRelation(ctx, s.tx, "RemoveFavorite", "favorites", userID, recipeID)
}

func (s *txSQLiteStore) IsFavorited(ctx context.Context, userID, recipeID int64) (bool, error) {
	return hasRelation(ctx, s.tx, "IsFavorited", "favorites", userID, recipeID)
}

func (s *txSQLiteStore) AddCartItem(ctx context.Context, userID, recipeID int64) error {
	return addRelation(ctx, s.tx, "AddCartItem", "shopping_cart", userID, recipeID)
}

func (s *txSQLiteStore) RemoveCartItem(ctx context.Context, userID, recipeID int64) error {
	return removeRelation(ctx, s.tx, "RemoveCartItem", "shopping_cart", userID, recipeID)
}

func (s *txSQLiteStore) IsInCart(ctx context.Context, userID, recipeID int64) (bool, error) {
	return hasRelation(ctx, s.tx, "IsInCart", "shopping_cart", userID, recipeID)
}

func (s *txSQLiteStore) ListCartRecipes(ctx context.Context, userID int64) ([]domain.Recipe, error) {
	return listCartRecipes(ctx, s.tx, userID)
}

func (s *txSQLiteStore) ListCartIngredients(ctx context.Context, userID int64) ([]shopping.Item, error) {
	return listCartIngredients(ctx, s.tx, userID)
}

func (s *txSQLiteStore) AddFollow(ctx context.Context, userID, authorID int64) error {
	return addFollow(ctx, s.tx, userID, authorID)
}

func (s *txSQLiteStore) RemoveFollow(ctx context.Context, userID, authorID int64) error {
	return removeFollow(ctx, s.tx, userID, authorID)
}

func (s *txSQLiteStore) IsFollowing(ctx context.Context, userID, authorID int64) (bool, error) {
	return isFollowing(ctx, s.tx, userID, authorID)
}

func (s *txSQLiteStore) ListFollowedAuthors(ctx context.Context, userID int64, opts ListOptions) ([]domain.User, error) {
	return listFollowedAuthors(ctx, s.tx, userID, opts)
}

func (s *txSQLiteStore) CountFollowedAuthors(ctx context.Context, userID int64) (int, error) {
	return countFollowedAuthors(ctx, s.tx, userID)
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Close() error {
	// No-op for tx store
	return nil
}
