package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrParse marks a well-formed JSON payload whose shape is wrong
	// (slot count, out-of-enum values, wrong member types).
	ErrParse = errors.New("malformed configuration document")

	// ErrValidation marks domain-invalid input rejected before any
	// network call (empty credentials, bad buy time).
	ErrValidation = errors.New("validation error")
)

// ParseError locates a shape problem inside a configuration document.
type ParseError struct {
	Path   string // e.g. "games[2].mode"
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrParse, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrParse, e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ValidationError names the field an edit was rejected for.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func parseErr(path, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
