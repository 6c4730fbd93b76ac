package vendors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Vendor master data record.
type Vendor struct {
	ID            int64
	Name          string
	Email         string
	Phone         string
	Address       string
	ContactPerson string
	TaxID         string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListFilters narrows vendor listings.
type ListFilters struct {
	Search  string
	Active  *bool
	SortBy  string
	SortDir string
}

var (
	// ErrNotFound indicates the vendor does not exist.
	ErrNotFound = errors.New("vendors: vendor not found")
	// ErrDuplicateEmail indicates the contact email is already registered.
	ErrDuplicateEmail = errors.New("vendors: email already registered")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("vendors: invalid input")
)

// ValidationError carries per-field messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "vendors: validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }
