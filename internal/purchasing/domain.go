package purchasing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusCompleted    Status = "COMPLETED"
	StatusBilled       Status = "BILLED"
	StatusVendorEdited Status = "VENDOR_EDITED"
	StatusAdminEdited  Status = "ADMIN_EDITED"
	StatusCancelled    Status = "CANCELLED"
)

// Statuses lists every purchase order status.
var Statuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
	StatusBilled,
	StatusVendorEdited,
	StatusAdminEdited,
	StatusCancelled,
}

// Valid reports whether the value is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted,
		StatusBilled, StatusVendorEdited, StatusAdminEdited, StatusCancelled:
		return true
	}
	return false
}

// PurchaseOrder domain model.
type PurchaseOrder struct {
	ID         int64
	Number     string
	VendorID   int64
	VendorName string
	Status     Status
	Total      float64
	OrderDate  time.Time
	Notes      string
	BillID     int64
	DocumentID int64
	CreatedBy  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LineItem is a single line on a purchase order.
type LineItem struct {
	ID          int64
	OrderID     int64
	Description string
	Quantity    int
	UnitPrice   float64
}

// ListFilters narrows purchase order listings.
type ListFilters struct {
	VendorID int64
	Status   string
	Search   string
	SortBy   string
	SortDir  string
}

var (
	// ErrNotFound indicates the purchase order does not exist.
	ErrNotFound = errors.New("purchasing: purchase order not found")
	// ErrInvalidTransition indicates the order cannot move to the requested
	// status from its current one.
	ErrInvalidTransition = errors.New("purchasing: transition not allowed")
	// ErrNotCancelled indicates a delete was attempted on a live order.
	ErrNotCancelled = errors.New("purchasing: only cancelled orders can be deleted")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("purchasing: invalid input")
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
	return "purchasing: validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a rejected status change with both sides named.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("purchasing: cannot move order from %s to %s", e.From, e.To)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// canTransition encodes the manual lifecycle edges. MarkBilled and Delete
// have dedicated guards and are not listed here.
func canTransition(from, to Status) bool {
	if to == StatusCancelled {
		return from != StatusCancelled
	}
	switch to {
	case StatusApproved, StatusRejected:
		return from == StatusPending || from == StatusVendorEdited
	case StatusCompleted:
		return from == StatusApproved || from == StatusBilled
	case StatusVendorEdited:
		return from == StatusPending || from == StatusApproved || from == StatusAdminEdited
	case StatusAdminEdited:
		return from == StatusVendorEdited
	case StatusPending:
		// Restore path.
		return from == StatusCancelled
	}
	return false
}
