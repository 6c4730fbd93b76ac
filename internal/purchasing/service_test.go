package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryOrderRepo struct {
	orders map[int64]PurchaseOrder
	items  map[int64][]LineItem
	nextID int64
}

type memoryOrderTx struct {
	repo *memoryOrderRepo
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{
		orders: make(map[int64]PurchaseOrder),
		items:  make(map[int64][]LineItem),
	}
}

func (r *memoryOrderRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryOrderTx{repo: r})
}

func (r *memoryOrderRepo) Get(ctx context.Context, id int64) (PurchaseOrder, []LineItem, error) {
	order, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return order, append([]LineItem(nil), r.items[id]...), nil
}

func (r *memoryOrderRepo) SetDocument(ctx context.Context, orderID, documentID int64) error {
	order, ok := r.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	order.DocumentID = documentID
	r.orders[orderID] = order
	return nil
}

func (r *memoryOrderRepo) List(ctx context.Context, limit, offset int, filters ListFilters) ([]PurchaseOrder, int, error) {
	var out []PurchaseOrder
	for _, order := range r.orders {
		if filters.Status != "" {
			if string(order.Status) != filters.Status {
				continue
			}
		} else if order.Status == StatusCancelled {
			continue
		}
		if filters.VendorID > 0 && order.VendorID != filters.VendorID {
			continue
		}
		out = append(out, order)
	}
	return out, len(out), nil
}

func (tx *memoryOrderTx) CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error) {
	tx.repo.nextID++
	order.ID = tx.repo.nextID
	tx.repo.orders[order.ID] = order
	return order.ID, nil
}

func (tx *memoryOrderTx) InsertLineItem(ctx context.Context, item LineItem) error {
	tx.repo.items[item.OrderID] = append(tx.repo.items[item.OrderID], item)
	return nil
}

func (tx *memoryOrderTx) DeleteLineItems(ctx context.Context, orderID int64) error {
	delete(tx.repo.items, orderID)
	return nil
}

func (tx *memoryOrderTx) UpdateOrder(ctx context.Context, order PurchaseOrder) error {
	if _, ok := tx.repo.orders[order.ID]; !ok {
		return ErrNotFound
	}
	tx.repo.orders[order.ID] = order
	return nil
}

func (tx *memoryOrderTx) DeleteOrder(ctx context.Context, orderID int64) error {
	if _, ok := tx.repo.orders[orderID]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.orders, orderID)
	delete(tx.repo.items, orderID)
	return nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Emit(ctx context.Context, eventType string, vendorID int64, entityType string, entityID int64, message string) error {
	n.events = append(n.events, eventType)
	return nil
}

func newTestOrder(t *testing.T, svc *Service) PurchaseOrder {
	t.Helper()
	order, _, err := svc.Create(context.Background(), CreateOrderInput{
		VendorID:  3,
		OrderDate: time.Now(),
		Items: []LineItemInput{
			{Description: "Steel beams", Quantity: 10, UnitPrice: 25},
		},
		CreatedBy: 1,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderStartsPending(t *testing.T) {
	repo := newMemoryOrderRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil, nil)

	order := newTestOrder(t, svc)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, 250.0, order.Total)
	require.Contains(t, notifier.events, "order.created")
}

func TestApproveRejectOnlyFromPending(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	approved, err := svc.Approve(context.Background(), order.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)

	_, err = svc.Reject(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)

	var tErr *TransitionError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, StatusApproved, tErr.From)
	require.Equal(t, StatusRejected, tErr.To)
}

func TestCancelAndRestore(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	cancelled, err := svc.Cancel(context.Background(), order.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)

	restored, err := svc.Restore(context.Background(), order.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusPending, restored.Status)
}

func TestDeleteOnlyCancelledOrders(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	err := svc.Delete(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrNotCancelled)

	_, err = svc.Cancel(context.Background(), order.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID, 1))
	_, _, err = svc.Get(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVendorEditRoundTrip(t *testing.T) {
	repo := newMemoryOrderRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil, nil)

	order := newTestOrder(t, svc)

	// Vendor revises the pending order.
	edited, items, err := svc.VendorEdit(context.Background(), order.ID, order.VendorID, EditInput{
		Items: []LineItemInput{{Description: "Steel beams", Quantity: 8, UnitPrice: 25}},
	}, 2)
	require.NoError(t, err)
	require.Equal(t, StatusVendorEdited, edited.Status)
	require.Equal(t, 200.0, edited.Total)
	require.Len(t, items, 1)

	// Admin counters; the order goes back to the vendor for review.
	countered, _, err := svc.AdminEdit(context.Background(), order.ID, EditInput{
		Items: []LineItemInput{{Description: "Steel beams", Quantity: 9, UnitPrice: 25}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, StatusAdminEdited, countered.Status)
	require.Contains(t, notifier.events, "order.admin_edited")

	// Vendor may revise again after an admin counter.
	again, _, err := svc.VendorEdit(context.Background(), order.ID, order.VendorID, EditInput{
		Items: []LineItemInput{{Description: "Steel beams", Quantity: 9, UnitPrice: 24}},
	}, 2)
	require.NoError(t, err)
	require.Equal(t, StatusVendorEdited, again.Status)
}

func TestVendorEditScopedToOwner(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	_, _, err := svc.VendorEdit(context.Background(), order.ID, order.VendorID+1, EditInput{
		Items: []LineItemInput{{Description: "x", Quantity: 1, UnitPrice: 1}},
	}, 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkBilledRequiresApproved(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	err := svc.MarkBilled(context.Background(), order.ID, 42, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Approve(context.Background(), order.ID, 1)
	require.NoError(t, err)

	require.NoError(t, svc.MarkBilled(context.Background(), order.ID, 42, 1))
	billed, _, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusBilled, billed.Status)
	require.Equal(t, int64(42), billed.BillID)
}

func TestAttachDocumentLinksOrder(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	require.NoError(t, svc.AttachDocument(context.Background(), order.ID, 17))

	linked, _, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(17), linked.DocumentID)

	require.ErrorIs(t, svc.AttachDocument(context.Background(), 404, 17), ErrNotFound)
}

func TestSnapshotForBillingCopiesLines(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	order := newTestOrder(t, svc)
	_, err := svc.SnapshotForBilling(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Approve(context.Background(), order.ID, 1)
	require.NoError(t, err)

	snapshot, err := svc.SnapshotForBilling(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, snapshot.ID)
	require.Equal(t, order.VendorID, snapshot.VendorID)
	require.Len(t, snapshot.Lines, 1)
	require.Equal(t, "Steel beams", snapshot.Lines[0].Description)
}

func TestListExcludesCancelledByDefault(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	live := newTestOrder(t, svc)
	gone := newTestOrder(t, svc)
	_, err := svc.Cancel(context.Background(), gone.ID, 1)
	require.NoError(t, err)

	orders, total, err := svc.List(context.Background(), 20, 0, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, live.ID, orders[0].ID)

	cancelled, total, err := svc.ListCancelled(context.Background(), 20, 0, ListFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, gone.ID, cancelled[0].ID)
}

func TestCreateOrderValidation(t *testing.T) {
	repo := newMemoryOrderRepo()
	svc := NewService(repo, nil, nil, nil)

	_, _, err := svc.Create(context.Background(), CreateOrderInput{VendorID: 0})
	require.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "vendor_id")
	require.Contains(t, vErr.Fields, "items")
}
