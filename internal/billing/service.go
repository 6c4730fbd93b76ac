package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendorhub/vendorhub/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBill(ctx context.Context, id int64) (Bill, []LineItem, error)
	ListBills(ctx context.Context, limit, offset int, filters ListFilters) ([]BillListItem, int, error)
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]Bill, error)
	SetDocument(ctx context.Context, billID, documentID int64) error
}

// TxRepository exposes transactional reads and mutations.
type TxRepository interface {
	GetBill(ctx context.Context, id int64) (Bill, []LineItem, error)
	CreateBill(ctx context.Context, bill Bill) (int64, error)
	InsertLineItem(ctx context.Context, item LineItem) error
	DeleteLineItems(ctx context.Context, billID int64) error
	UpdateBill(ctx context.Context, bill Bill) error
}

// NotifierPort records an event for the vendor behind a bill. Failures are
// logged by the caller, never propagated: the committed status change is the
// durable fact.
type NotifierPort interface {
	Emit(ctx context.Context, eventType string, vendorID int64, entityType string, entityID int64, message string) error
}

// PurchaseOrderPort is the purchasing-side integration used when a bill is
// generated from an approved purchase order.
type PurchaseOrderPort interface {
	SnapshotForBilling(ctx context.Context, orderID int64) (OrderSnapshot, error)
	MarkBilled(ctx context.Context, orderID, billID, actorID int64) error
}

// OrderSnapshot carries the purchase-order data copied onto a new bill.
type OrderSnapshot struct {
	ID       int64
	Number   string
	VendorID int64
	Total    float64
	Lines    []LineItemInput
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service applies validated status changes and field edits to bills.
type Service struct {
	repo     RepositoryPort
	orders   PurchaseOrderPort
	notifier NotifierPort
	audit    AuditPort
	logger   *slog.Logger
}

// NewService constructs the billing service.
func NewService(repo RepositoryPort, orders PurchaseOrderPort, notifier NotifierPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, orders: orders, notifier: notifier, audit: audit, logger: logger}
}

// LineItemInput describes a line on a create or update request.
type LineItemInput struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// CreateBillInput describes the creation payload.
type CreateBillInput struct {
	Number          string
	VendorID        int64
	PurchaseOrderID int64
	IssueDate       time.Time
	DueDate         time.Time
	Notes           string
	Items           []LineItemInput
	CreatedBy       int64
}

// UpdatePatch is a partial bill update. Nil fields are left untouched.
// Items, dates and total are draft-only; workflow and payment status go
// through ResolveConsistency before anything is persisted.
type UpdatePatch struct {
	IssueDate      *time.Time
	DueDate        *time.Time
	Total          *float64
	Notes          *string
	Items          *[]LineItemInput
	WorkflowStatus *WorkflowStatus
	PaymentStatus  *PaymentStatus
}

func (p UpdatePatch) touchesDraftFields() bool {
	return p.IssueDate != nil || p.DueDate != nil || p.Total != nil || p.Items != nil
}

// CreateBill persists a new bill in DRAFT/UNPAID with its line items.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (Bill, []LineItem, error) {
	if err := validateCreate(input); err != nil {
		return Bill{}, nil, err
	}
	if input.Number == "" {
		input.Number = generateNumber("BILL")
	}
	bill := Bill{
		Number:          input.Number,
		VendorID:        input.VendorID,
		PurchaseOrderID: input.PurchaseOrderID,
		Total:           sumItems(input.Items),
		IssueDate:       input.IssueDate,
		DueDate:         input.DueDate,
		WorkflowStatus:  WorkflowDraft,
		PaymentStatus:   PaymentUnpaid,
		Notes:           input.Notes,
		CreatedBy:       input.CreatedBy,
	}
	var items []LineItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateBill(ctx, bill)
		if err != nil {
			return err
		}
		bill.ID = id
		for _, line := range input.Items {
			item := LineItem{BillID: id, Description: line.Description, Quantity: line.Quantity, UnitPrice: line.UnitPrice}
			if err := tx.InsertLineItem(ctx, item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return Bill{}, nil, err
	}
	s.recordAudit(ctx, input.CreatedBy, "BILL_CREATE", bill.ID, map[string]any{"number": bill.Number})
	return bill, items, nil
}

// CreateFromPurchaseOrder generates a bill for an approved purchase order,
// copying vendor, lines and total, and marks the order BILLED.
func (s *Service) CreateFromPurchaseOrder(ctx context.Context, orderID int64, dueDate time.Time, actorID int64) (Bill, error) {
	if s.orders == nil {
		return Bill{}, fmt.Errorf("billing: purchasing integration not configured")
	}
	snapshot, err := s.orders.SnapshotForBilling(ctx, orderID)
	if err != nil {
		return Bill{}, err
	}
	if dueDate.IsZero() {
		dueDate = time.Now().AddDate(0, 1, 0)
	}
	bill, _, err := s.CreateBill(ctx, CreateBillInput{
		VendorID:        snapshot.VendorID,
		PurchaseOrderID: snapshot.ID,
		IssueDate:       time.Now(),
		DueDate:         dueDate,
		Notes:           fmt.Sprintf("Generated from purchase order %s", snapshot.Number),
		Items:           snapshot.Lines,
		CreatedBy:       actorID,
	})
	if err != nil {
		return Bill{}, err
	}
	if err := s.orders.MarkBilled(ctx, orderID, bill.ID, actorID); err != nil {
		return Bill{}, err
	}
	s.emit(ctx, "bill.created", bill.VendorID, bill.ID,
		fmt.Sprintf("Bill %s was generated for purchase order %s", bill.Number, snapshot.Number))
	return bill, nil
}

// GetBill returns a bill with its line items.
func (s *Service) GetBill(ctx context.Context, id int64) (Bill, []LineItem, error) {
	return s.repo.GetBill(ctx, id)
}

// ListBills returns a filtered page of bills.
func (s *Service) ListBills(ctx context.Context, limit, offset int, filters ListFilters) ([]BillListItem, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListBills(ctx, limit, offset, filters)
}

// ProposeUpdate validates and applies a partial update to a bill. The stored
// workflow/payment pair always passes ResolveConsistency; a workflow status
// outside the currently selectable set is rejected with a TransitionError
// carrying that set.
func (s *Service) ProposeUpdate(ctx context.Context, billID int64, patch UpdatePatch, actorID int64) (Bill, []LineItem, error) {
	if err := validatePatch(patch); err != nil {
		return Bill{}, nil, err
	}

	// Read and write inside the same repeatable-read transaction so a
	// concurrent payment update cannot slip between the resolver check and
	// the persisted row.
	var updated Bill
	var updatedItems []LineItem
	var wasPaid bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bill, items, err := tx.GetBill(ctx, billID)
		if err != nil {
			return err
		}
		if patch.touchesDraftFields() && bill.WorkflowStatus != WorkflowDraft {
			return fmt.Errorf("%w: line items, dates and total are read-only after draft", ErrInvalidState)
		}
		wasPaid = bill.PaymentStatus == PaymentPaid

		payment := bill.PaymentStatus
		if patch.PaymentStatus != nil {
			payment = *patch.PaymentStatus
		}
		resolution := ResolveConsistency(bill.WorkflowStatus, payment)
		workflow := resolution.WorkflowStatus
		if patch.WorkflowStatus != nil {
			if !resolution.Allows(*patch.WorkflowStatus) {
				return &TransitionError{Requested: *patch.WorkflowStatus, Selectable: resolution.Selectable}
			}
			// Settle on the fixed point so the persisted pair is always legal.
			workflow = ResolveConsistency(*patch.WorkflowStatus, payment).WorkflowStatus
		}

		updated = bill
		updated.WorkflowStatus = workflow
		updated.PaymentStatus = payment
		if patch.Notes != nil {
			updated.Notes = *patch.Notes
		}
		if patch.IssueDate != nil {
			updated.IssueDate = *patch.IssueDate
		}
		if patch.DueDate != nil {
			updated.DueDate = *patch.DueDate
		}
		if patch.Total != nil {
			updated.Total = *patch.Total
		}

		updatedItems = items
		if patch.Items != nil {
			if err := tx.DeleteLineItems(ctx, billID); err != nil {
				return err
			}
			updatedItems = updatedItems[:0]
			for _, line := range *patch.Items {
				item := LineItem{BillID: billID, Description: line.Description, Quantity: line.Quantity, UnitPrice: line.UnitPrice}
				if err := tx.InsertLineItem(ctx, item); err != nil {
					return err
				}
				updatedItems = append(updatedItems, item)
			}
			if patch.Total == nil {
				updated.Total = sumItems(*patch.Items)
			}
		}
		return tx.UpdateBill(ctx, updated)
	})
	if err != nil {
		return Bill{}, nil, err
	}

	if updated.PaymentStatus == PaymentPaid && !wasPaid {
		s.emit(ctx, "bill.paid", updated.VendorID, updated.ID,
			fmt.Sprintf("Bill %s has been marked as paid", updated.Number))
	}
	s.recordAudit(ctx, actorID, "BILL_UPDATE", updated.ID, map[string]any{
		"workflow_status": string(updated.WorkflowStatus),
		"payment_status":  string(updated.PaymentStatus),
	})
	return updated, updatedItems, nil
}

// MarkOverdue moves unpaid bills past their due date into OVERDUE. Each bill
// goes through the same resolver-checked update path as a manual change.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	candidates, err := s.repo.ListOverdueCandidates(ctx, asOf)
	if err != nil {
		return 0, err
	}
	overdue := WorkflowOverdue
	count := 0
	for _, bill := range candidates {
		if _, _, err := s.ProposeUpdate(ctx, bill.ID, UpdatePatch{WorkflowStatus: &overdue}, 0); err != nil {
			s.logger.Warn("overdue transition failed", slog.Int64("bill_id", bill.ID), slog.Any("error", err))
			continue
		}
		count++
	}
	return count, nil
}

// AttachDocument links a generated PDF to a bill.
func (s *Service) AttachDocument(ctx context.Context, billID, documentID int64) error {
	return s.repo.SetDocument(ctx, billID, documentID)
}

func (s *Service) emit(ctx context.Context, eventType string, vendorID, billID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, eventType, vendorID, "bill", billID, message); err != nil {
		s.logger.Warn("notification emit failed", slog.String("event", eventType), slog.Int64("bill_id", billID), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "bill", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func sumItems(items []LineItemInput) float64 {
	var total float64
	for _, line := range items {
		total += float64(line.Quantity) * line.UnitPrice
	}
	return total
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
