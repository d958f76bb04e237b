package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// =============================================================================
// User Limits
// =============================================================================

const (
	// EmailMaxLength is the maximum length of a user email.
	EmailMaxLength = 254

	// UsernameMaxLength is the maximum length of a username and name fields.
	UsernameMaxLength = 150

	// MinPasswordLength is the minimum length of a plaintext password.
	MinPasswordLength = 8
)

// usernamePattern matches the allowed username characters.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// emailPattern is a permissive address check; uniqueness is enforced by the store.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// =============================================================================
// User
// =============================================================================

// User represents a registered user account.
type User struct {
	ID           int64
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Avatar       string // Relative media path, empty if not set
	IsStaff      bool
	CreatedAt    time.Time
}

// =============================================================================
// Validation
// =============================================================================

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailTooLong     = errors.New("email is too long")
	ErrEmailInvalid     = errors.New("email is not a valid address")
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = errors.New("username is too long")
	ErrUsernameInvalid  = errors.New("username contains invalid characters")
	ErrUsernameReserved = errors.New("username is reserved")
	ErrNameRequired     = errors.New("first and last name are required")
	ErrNameTooLong      = errors.New("name is too long")
	ErrPasswordTooShort = errors.New("password is too short")
)

// ValidateUsername checks username syntax rules.
// "me" is reserved because it addresses the current user in the API.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if len(username) > UsernameMaxLength {
		return ErrUsernameTooLong
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if strings.EqualFold(username, "me") {
		return ErrUsernameReserved
	}
	return nil
}

// ValidateEmail checks email syntax and length.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > EmailMaxLength {
		return ErrEmailTooLong
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword checks plaintext password requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateNewUser validates all fields of a user being registered.
// Returns the first violation found.
func ValidateNewUser(u *User, password string) error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	if u.FirstName == "" || u.LastName == "" {
		return ErrNameRequired
	}
	if len(u.FirstName) > UsernameMaxLength || len(u.LastName) > UsernameMaxLength {
		return ErrNameTooLong
	}
	return ValidatePassword(password)
}

// =============================================================================
// Follow
// =============================================================================

// Follow represents a subscription of one user to another user's recipes.
type Follow struct {
	UserID   int64 // The follower
	AuthorID int64 // The followed author
}

var (
	// ErrSelfFollow is returned when a user attempts to follow themselves.
	ErrSelfFollow = errors.New("cannot subscribe to yourself")
)

// ValidateFollow checks that the relation is allowed.
func ValidateFollow(f Follow) error {
	if f.UserID == f.AuthorID {
		return ErrSelfFollow
	}
	return nil
}
