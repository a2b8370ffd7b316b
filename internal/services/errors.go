package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrUpstream          = errors.New("upstream provider failed")
	ErrNotConfigured     = errors.New("provider not configured")
)

// FieldIssue is one failed input check.
type FieldIssue struct {
	Field   string
	Message string
}

// ValidationError lists every input field that failed a domain check.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Field + " " + issue.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validator collects field issues and reports them together.
type validator struct {
	issues []FieldIssue
}

func (v *validator) check(ok bool, field, message string) {
	if !ok {
		v.issues = append(v.issues, FieldIssue{Field: field, Message: message})
	}
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}

func invalid(field, message string) error {
	return &ValidationError{Issues: []FieldIssue{{Field: field, Message: message}}}
}

// lookupErr maps a missing row to ErrNotFound naming the entity.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

// writeErr maps a unique or foreign key violation to a domain error.
func writeErr(err error, what string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s already exists: %w", what, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s references a missing record: %w", what, ErrNotFound)
	}
	return err
}

func transitionErr(what string, from, to interface{}) error {
	return fmt.Errorf("%s cannot move from %v to %v: %w", what, from, to, ErrInvalidTransition)
}
