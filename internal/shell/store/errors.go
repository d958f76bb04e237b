// Package store provides persistence for Foodgram entities.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("entity already exists")

	// ErrDuplicateEmail is returned when registering an email that is taken.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateUsername is returned when registering a username that is taken.
	ErrDuplicateUsername = errors.New("user with this username already exists")

	// ErrForeignKey is returned when a foreign key constraint is violated.
	ErrForeignKey = errors.New("foreign key constraint violated")

	// ErrSelfFollow is returned when a user tries to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")

	// ErrConnectionFailed is returned when the database connection fails.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")

	// ErrTxFailed is returned when a transaction operation fails.
	ErrTxFailed = errors.New("transaction failed")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op      string // Operation that failed (e.g. "CreateRecipe")
	Entity  string // Entity type (e.g. "recipe", "user")
	ID      string // Entity ID if applicable
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, entity, id, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}
