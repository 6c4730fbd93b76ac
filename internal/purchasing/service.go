package purchasing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vendorhub/vendorhub/internal/billing"
	"github.com/vendorhub/vendorhub/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (PurchaseOrder, []LineItem, error)
	List(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error)
	SetDocument(ctx context.Context, orderID, documentID int64) error
}

// TxRepository exposes transactional mutations.
type TxRepository interface {
	CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error)
	InsertLineItem(ctx context.Context, item LineItem) error
	DeleteLineItems(ctx context.Context, orderID int64) error
	UpdateOrder(ctx context.Context, order PurchaseOrder) error
	DeleteOrder(ctx context.Context, orderID int64) error
}

// NotifierPort records an event for the vendor behind an order.
type NotifierPort interface {
	Emit(ctx context.Context, eventType string, vendorID int64, entityType string, entityID int64, message string) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drives the purchase order lifecycle.
type Service struct {
	repo     RepositoryPort
	notifier NotifierPort
	audit    AuditPort
	logger   *slog.Logger
}

// NewService constructs the purchasing service.
func NewService(repo RepositoryPort, notifier NotifierPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, notifier: notifier, audit: audit, logger: logger}
}

// LineItemInput describes a line on a create or edit request.
type LineItemInput struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// CreateOrderInput describes the creation payload.
type CreateOrderInput struct {
	Number    string
	VendorID  int64
	OrderDate time.Time
	Notes     string
	Items     []LineItemInput
	CreatedBy int64
}

// EditInput carries the replacement lines and notes for an order revision.
type EditInput struct {
	Notes *string
	Items []LineItemInput
}

// Create persists a new order in PENDING with its line items.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (PurchaseOrder, []LineItem, error) {
	if err := validateCreate(input); err != nil {
		return PurchaseOrder{}, nil, err
	}
	if input.Number == "" {
		input.Number = fmt.Sprintf("PO-%d", time.Now().UnixNano())
	}
	order := PurchaseOrder{
		Number:    input.Number,
		VendorID:  input.VendorID,
		Status:    StatusPending,
		Total:     sumItems(input.Items),
		OrderDate: input.OrderDate,
		Notes:     input.Notes,
		CreatedBy: input.CreatedBy,
	}
	var items []LineItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		for _, line := range input.Items {
			item := LineItem{OrderID: id, Description: line.Description, Quantity: line.Quantity, UnitPrice: line.UnitPrice}
			if err := tx.InsertLineItem(ctx, item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	s.recordAudit(ctx, input.CreatedBy, "PO_CREATE", order.ID, map[string]any{"number": order.Number})
	s.emit(ctx, "order.created", order.VendorID, order.ID,
		fmt.Sprintf("Purchase order %s was created", order.Number))
	return order, items, nil
}

// Get returns an order with its line items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, []LineItem, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of orders.
func (s *Service) List(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset, filters)
}

// ListCancelled returns the cancelled orders only.
func (s *Service) ListCancelled(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error) {
	filters.Status = string(StatusCancelled)
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset, filters)
}

// Approve moves an order to APPROVED.
func (s *Service) Approve(ctx context.Context, id, actorID int64) (PurchaseOrder, error) {
	order, err := s.transition(ctx, id, StatusApproved, actorID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.emit(ctx, "order.approved", order.VendorID, order.ID,
		fmt.Sprintf("Purchase order %s was approved", order.Number))
	return order, nil
}

// Reject moves an order to REJECTED.
func (s *Service) Reject(ctx context.Context, id, actorID int64) (PurchaseOrder, error) {
	order, err := s.transition(ctx, id, StatusRejected, actorID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.emit(ctx, "order.rejected", order.VendorID, order.ID,
		fmt.Sprintf("Purchase order %s was rejected", order.Number))
	return order, nil
}

// Complete moves an order to COMPLETED.
func (s *Service) Complete(ctx context.Context, id, actorID int64) (PurchaseOrder, error) {
	return s.transition(ctx, id, StatusCompleted, actorID)
}

// Cancel moves any live order to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id, actorID int64) (PurchaseOrder, error) {
	order, err := s.transition(ctx, id, StatusCancelled, actorID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.emit(ctx, "order.cancelled", order.VendorID, order.ID,
		fmt.Sprintf("Purchase order %s was cancelled", order.Number))
	return order, nil
}

// Restore brings a cancelled order back to PENDING.
func (s *Service) Restore(ctx context.Context, id, actorID int64) (PurchaseOrder, error) {
	return s.transition(ctx, id, StatusPending, actorID)
}

// VendorEdit lets the vendor revise lines on an order awaiting fulfilment.
// The order must belong to the vendor and ends up in VENDOR_EDITED for the
// admin to re-review.
func (s *Service) VendorEdit(ctx context.Context, id, vendorID int64, input EditInput, actorID int64) (PurchaseOrder, []LineItem, error) {
	order, _, err := s.repo.Get(ctx, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	if order.VendorID != vendorID {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	if !canTransition(order.Status, StatusVendorEdited) {
		return PurchaseOrder{}, nil, &TransitionError{From: order.Status, To: StatusVendorEdited}
	}
	updated, items, err := s.applyEdit(ctx, order, StatusVendorEdited, input)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	s.recordAudit(ctx, actorID, "PO_VENDOR_EDIT", updated.ID, map[string]any{"number": updated.Number})
	return updated, items, nil
}

// AdminEdit lets an admin counter-revise a vendor-edited order.
func (s *Service) AdminEdit(ctx context.Context, id int64, input EditInput, actorID int64) (PurchaseOrder, []LineItem, error) {
	order, _, err := s.repo.Get(ctx, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	if !canTransition(order.Status, StatusAdminEdited) {
		return PurchaseOrder{}, nil, &TransitionError{From: order.Status, To: StatusAdminEdited}
	}
	updated, items, err := s.applyEdit(ctx, order, StatusAdminEdited, input)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	s.recordAudit(ctx, actorID, "PO_ADMIN_EDIT", updated.ID, map[string]any{"number": updated.Number})
	s.emit(ctx, "order.admin_edited", updated.VendorID, updated.ID,
		fmt.Sprintf("Purchase order %s was revised, please review", updated.Number))
	return updated, items, nil
}

// Delete removes a cancelled order permanently.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	order, _, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != StatusCancelled {
		return ErrNotCancelled
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "PO_DELETE", id, map[string]any{"number": order.Number})
	return nil
}

// SnapshotForBilling copies an approved order's data for bill generation.
func (s *Service) SnapshotForBilling(ctx context.Context, orderID int64) (billing.OrderSnapshot, error) {
	order, items, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return billing.OrderSnapshot{}, err
	}
	if order.Status != StatusApproved {
		return billing.OrderSnapshot{}, &TransitionError{From: order.Status, To: StatusBilled}
	}
	snapshot := billing.OrderSnapshot{
		ID:       order.ID,
		Number:   order.Number,
		VendorID: order.VendorID,
		Total:    order.Total,
	}
	for _, item := range items {
		snapshot.Lines = append(snapshot.Lines, billing.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return snapshot, nil
}

// MarkBilled records the generated bill against an approved order.
func (s *Service) MarkBilled(ctx context.Context, orderID, billID, actorID int64) error {
	order, _, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != StatusApproved {
		return &TransitionError{From: order.Status, To: StatusBilled}
	}
	order.Status = StatusBilled
	order.BillID = billID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "PO_BILLED", orderID, map[string]any{"bill_id": billID})
	return nil
}

// AttachDocument links a generated PDF to a purchase order.
func (s *Service) AttachDocument(ctx context.Context, orderID, documentID int64) error {
	return s.repo.SetDocument(ctx, orderID, documentID)
}

func (s *Service) transition(ctx context.Context, id int64, to Status, actorID int64) (PurchaseOrder, error) {
	order, _, err := s.repo.Get(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if !canTransition(order.Status, to) {
		return PurchaseOrder{}, &TransitionError{From: order.Status, To: to}
	}
	from := order.Status
	order.Status = to
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, actorID, "PO_STATUS", order.ID, map[string]any{
		"from": string(from),
		"to":   string(to),
	})
	return order, nil
}

func (s *Service) applyEdit(ctx context.Context, order PurchaseOrder, to Status, input EditInput) (PurchaseOrder, []LineItem, error) {
	if err := validateItems(input.Items); err != nil {
		return PurchaseOrder{}, nil, err
	}
	order.Status = to
	order.Total = sumItems(input.Items)
	if input.Notes != nil {
		order.Notes = *input.Notes
	}
	var items []LineItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteLineItems(ctx, order.ID); err != nil {
			return err
		}
		for _, line := range input.Items {
			item := LineItem{OrderID: order.ID, Description: line.Description, Quantity: line.Quantity, UnitPrice: line.UnitPrice}
			if err := tx.InsertLineItem(ctx, item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	return order, items, nil
}

func (s *Service) emit(ctx context.Context, eventType string, vendorID, orderID int64, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, eventType, vendorID, "purchase_order", orderID, message); err != nil {
		s.logger.Warn("notification emit failed", slog.String("event", eventType), slog.Int64("order_id", orderID), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "purchase_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func sumItems(items []LineItemInput) float64 {
	var total float64
	for _, line := range items {
		total += float64(line.Quantity) * line.UnitPrice
	}
	return total
}
