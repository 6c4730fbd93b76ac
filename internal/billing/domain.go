package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Administrative lifecycle statuses of a bill.
type WorkflowStatus string

const (
	WorkflowDraft     WorkflowStatus = "DRAFT"
	WorkflowIssued    WorkflowStatus = "ISSUED"
	WorkflowSent      WorkflowStatus = "SENT"
	WorkflowOverdue   WorkflowStatus = "OVERDUE"
	WorkflowCancelled WorkflowStatus = "CANCELLED"
	WorkflowCompleted WorkflowStatus = "COMPLETED"
)

// WorkflowStatuses lists every workflow status in display order.
var WorkflowStatuses = []WorkflowStatus{
	WorkflowDraft,
	WorkflowIssued,
	WorkflowSent,
	WorkflowOverdue,
	WorkflowCancelled,
	WorkflowCompleted,
}

// Valid reports whether the value is a known workflow status.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowDraft, WorkflowIssued, WorkflowSent, WorkflowOverdue, WorkflowCancelled, WorkflowCompleted:
		return true
	}
	return false
}

// Payment collection statuses, independent of the administrative stage.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
	PaymentRefunded      PaymentStatus = "REFUNDED"
)

// PaymentStatuses lists every payment status in display order.
var PaymentStatuses = []PaymentStatus{
	PaymentUnpaid,
	PaymentPartiallyPaid,
	PaymentPaid,
	PaymentRefunded,
}

// Valid reports whether the value is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartiallyPaid, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Bill domain model. WorkflowStatus and PaymentStatus are only ever written
// together after passing through ResolveConsistency.
type Bill struct {
	ID              int64
	Number          string
	VendorID        int64
	PurchaseOrderID int64
	Total           float64
	IssueDate       time.Time
	DueDate         time.Time
	WorkflowStatus  WorkflowStatus
	PaymentStatus   PaymentStatus
	Notes           string
	DocumentID      int64
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LineItem is a single billable line on a bill.
type LineItem struct {
	ID          int64
	BillID      int64
	Description string
	Quantity    int
	UnitPrice   float64
}

// BillListItem is a listing row with the vendor name joined in.
type BillListItem struct {
	ID             int64
	Number         string
	VendorID       int64
	VendorName     string
	Total          float64
	IssueDate      time.Time
	DueDate        time.Time
	WorkflowStatus WorkflowStatus
	PaymentStatus  PaymentStatus
	CreatedAt      time.Time
}

// ListFilters narrows bill listings.
type ListFilters struct {
	VendorID       int64
	WorkflowStatus string
	PaymentStatus  string
	Search         string
	SortBy         string
	SortDir        string
}

var (
	// ErrNotFound indicates the bill does not exist.
	ErrNotFound = errors.New("billing: bill not found")
	// ErrDuplicateNumber indicates the bill number is already taken.
	ErrDuplicateNumber = errors.New("billing: bill number already exists")
	// ErrInvalidTransition indicates the requested workflow status is not
	// selectable for the bill's payment status.
	ErrInvalidTransition = errors.New("billing: workflow status not selectable")
	// ErrInvalidState indicates the bill cannot be edited in its current
	// workflow status.
	ErrInvalidState = errors.New("billing: bill not editable in current status")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("billing: invalid input")
)

// ValidationError carries per-field messages for a rejected update.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "billing: validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a rejected workflow selection together with the
// set the caller may retry with.
type TransitionError struct {
	Requested  WorkflowStatus
	Selectable []WorkflowStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("billing: workflow status %s not selectable (allowed: %v)", e.Requested, e.Selectable)
}

// Unwrap lets callers match with errors.Is(err, ErrInvalidTransition).
func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
