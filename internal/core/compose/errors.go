// Package compose contains pure functions for parsing Docker Compose files.
// All functions are pure with no I/O; the caller reads the file and env.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrEmptyInput is returned for an empty compose document.
	ErrEmptyInput = errors.New("compose file is empty")

	// ErrInvalidYAML is returned when the document is not valid YAML.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrNoServices is returned when no services are defined.
	ErrNoServices = errors.New("compose file must define at least one service")

	// ErrServiceNoImage is returned for a service without an image.
	// The release tool deploys prebuilt images; build contexts are not supported.
	ErrServiceNoImage = errors.New("service must have an image")

	// ErrCircularDependency is returned when depends_on forms a cycle.
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrUnsupportedFeature is returned for compose features the release
	// tool does not handle (secrets, configs, extends).
	ErrUnsupportedFeature = errors.New("unsupported compose feature")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g. "services.backend.ports[0]"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{Field: field, Message: message, Err: err}
}
