package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryBillRepo struct {
	bills   map[int64]Bill
	items   map[int64][]LineItem
	nextID  int64
	txReads int
}

type memoryBillTx struct {
	repo *memoryBillRepo
}

func newMemoryBillRepo() *memoryBillRepo {
	return &memoryBillRepo{
		bills: make(map[int64]Bill),
		items: make(map[int64][]LineItem),
	}
}

func (r *memoryBillRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryBillTx{repo: r})
}

func (r *memoryBillRepo) GetBill(ctx context.Context, id int64) (Bill, []LineItem, error) {
	bill, ok := r.bills[id]
	if !ok {
		return Bill{}, nil, ErrNotFound
	}
	return bill, append([]LineItem(nil), r.items[id]...), nil
}

func (r *memoryBillRepo) ListBills(ctx context.Context, limit, offset int, filters ListFilters) ([]BillListItem, int, error) {
	var rows []BillListItem
	for _, bill := range r.bills {
		if filters.VendorID > 0 && bill.VendorID != filters.VendorID {
			continue
		}
		rows = append(rows, BillListItem{
			ID:             bill.ID,
			Number:         bill.Number,
			VendorID:       bill.VendorID,
			Total:          bill.Total,
			WorkflowStatus: bill.WorkflowStatus,
			PaymentStatus:  bill.PaymentStatus,
		})
	}
	return rows, len(rows), nil
}

func (r *memoryBillRepo) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]Bill, error) {
	var out []Bill
	for _, bill := range r.bills {
		switch bill.WorkflowStatus {
		case WorkflowIssued, WorkflowSent:
		default:
			continue
		}
		switch bill.PaymentStatus {
		case PaymentUnpaid, PaymentRefunded:
		default:
			continue
		}
		if bill.DueDate.Before(asOf) {
			out = append(out, bill)
		}
	}
	return out, nil
}

func (r *memoryBillRepo) SetDocument(ctx context.Context, billID, documentID int64) error {
	bill, ok := r.bills[billID]
	if !ok {
		return ErrNotFound
	}
	bill.DocumentID = documentID
	r.bills[billID] = bill
	return nil
}

func (tx *memoryBillTx) GetBill(ctx context.Context, id int64) (Bill, []LineItem, error) {
	tx.repo.txReads++
	return tx.repo.GetBill(ctx, id)
}

func (tx *memoryBillTx) CreateBill(ctx context.Context, bill Bill) (int64, error) {
	for _, existing := range tx.repo.bills {
		if existing.Number == bill.Number {
			return 0, ErrDuplicateNumber
		}
	}
	tx.repo.nextID++
	bill.ID = tx.repo.nextID
	tx.repo.bills[bill.ID] = bill
	return bill.ID, nil
}

func (tx *memoryBillTx) InsertLineItem(ctx context.Context, item LineItem) error {
	tx.repo.items[item.BillID] = append(tx.repo.items[item.BillID], item)
	return nil
}

func (tx *memoryBillTx) DeleteLineItems(ctx context.Context, billID int64) error {
	delete(tx.repo.items, billID)
	return nil
}

func (tx *memoryBillTx) UpdateBill(ctx context.Context, bill Bill) error {
	if _, ok := tx.repo.bills[bill.ID]; !ok {
		return ErrNotFound
	}
	tx.repo.bills[bill.ID] = bill
	return nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) Emit(ctx context.Context, eventType string, vendorID int64, entityType string, entityID int64, message string) error {
	n.events = append(n.events, eventType)
	return nil
}

func seedBill(t *testing.T, repo *memoryBillRepo, workflow WorkflowStatus, payment PaymentStatus) int64 {
	t.Helper()
	var id int64
	err := repo.WithTx(context.Background(), func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.CreateBill(ctx, Bill{
			Number:         generateNumber("BILL"),
			VendorID:       1,
			Total:          150,
			IssueDate:      time.Now().AddDate(0, 0, -30),
			DueDate:        time.Now().AddDate(0, 0, -1),
			WorkflowStatus: workflow,
			PaymentStatus:  payment,
		})
		return err
	})
	require.NoError(t, err)
	return id
}

func TestCreateBillDefaultsToDraftUnpaid(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	bill, items, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  1,
		IssueDate: time.Now(),
		DueDate:   time.Now().AddDate(0, 1, 0),
		Items: []LineItemInput{
			{Description: "Consulting", Quantity: 2, UnitPrice: 100},
			{Description: "Travel", Quantity: 1, UnitPrice: 50},
		},
	})
	require.NoError(t, err)
	require.Equal(t, WorkflowDraft, bill.WorkflowStatus)
	require.Equal(t, PaymentUnpaid, bill.PaymentStatus)
	require.Equal(t, 250.0, bill.Total)
	require.Len(t, items, 2)
	require.NotEmpty(t, bill.Number)
}

func TestCreateBillValidation(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	_, _, err := svc.CreateBill(context.Background(), CreateBillInput{VendorID: 0})
	require.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Contains(t, vErr.Fields, "vendor_id")
	require.Contains(t, vErr.Fields, "items")
}

func TestProposeUpdateRejectsCompletedWhileUnpaid(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	id := seedBill(t, repo, WorkflowIssued, PaymentUnpaid)

	completed := WorkflowCompleted
	_, _, err := svc.ProposeUpdate(context.Background(), id, UpdatePatch{WorkflowStatus: &completed}, 7)
	require.ErrorIs(t, err, ErrInvalidTransition)

	var tErr *TransitionError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, WorkflowCompleted, tErr.Requested)
	require.NotContains(t, tErr.Selectable, WorkflowCompleted)

	bill, _, err := svc.GetBill(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, WorkflowIssued, bill.WorkflowStatus)
}

func TestProposeUpdatePaidCompletesAndNotifiesOnce(t *testing.T) {
	repo := newMemoryBillRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, nil, notifier, nil, nil)
	id := seedBill(t, repo, WorkflowSent, PaymentUnpaid)

	paid := PaymentPaid
	bill, _, err := svc.ProposeUpdate(context.Background(), id, UpdatePatch{PaymentStatus: &paid}, 7)
	require.NoError(t, err)
	require.Equal(t, WorkflowCompleted, bill.WorkflowStatus)
	require.Equal(t, PaymentPaid, bill.PaymentStatus)
	require.Equal(t, []string{"bill.paid"}, notifier.events)

	// Re-submitting the derived pair is a no-op, not a second payment event.
	completed := WorkflowCompleted
	_, _, err = svc.ProposeUpdate(context.Background(), id, UpdatePatch{WorkflowStatus: &completed, PaymentStatus: &paid}, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"bill.paid"}, notifier.events)
}

func TestProposeUpdatePartiallyPaidSnapsOverdueToIssued(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	id := seedBill(t, repo, WorkflowOverdue, PaymentUnpaid)

	partial := PaymentPartiallyPaid
	bill, _, err := svc.ProposeUpdate(context.Background(), id, UpdatePatch{PaymentStatus: &partial}, 7)
	require.NoError(t, err)
	require.Equal(t, WorkflowIssued, bill.WorkflowStatus)
}

func TestProposeUpdateRefundReopensCompleted(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	id := seedBill(t, repo, WorkflowCompleted, PaymentPaid)

	refunded := PaymentRefunded
	bill, _, err := svc.ProposeUpdate(context.Background(), id, UpdatePatch{PaymentStatus: &refunded}, 7)
	require.NoError(t, err)
	require.Equal(t, WorkflowIssued, bill.WorkflowStatus)
	require.Equal(t, PaymentRefunded, bill.PaymentStatus)
}

func TestProposeUpdateDraftFieldsLockedAfterIssue(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	id := seedBill(t, repo, WorkflowIssued, PaymentUnpaid)

	total := 999.0
	_, _, err := svc.ProposeUpdate(context.Background(), id, UpdatePatch{Total: &total}, 7)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestProposeUpdateReplacesItemsAndRecomputesTotal(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	bill, _, err := svc.CreateBill(context.Background(), CreateBillInput{
		VendorID:  1,
		IssueDate: time.Now(),
		DueDate:   time.Now().AddDate(0, 1, 0),
		Items:     []LineItemInput{{Description: "Old line", Quantity: 1, UnitPrice: 10}},
	})
	require.NoError(t, err)

	newItems := []LineItemInput{
		{Description: "New line", Quantity: 3, UnitPrice: 40},
	}
	updated, items, err := svc.ProposeUpdate(context.Background(), bill.ID, UpdatePatch{Items: &newItems}, 7)
	require.NoError(t, err)
	require.Equal(t, 120.0, updated.Total)
	require.Len(t, items, 1)
	require.Equal(t, "New line", items[0].Description)
}

func TestProposeUpdateReadsThroughTransaction(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	id := seedBill(t, repo, WorkflowIssued, PaymentUnpaid)

	sent := WorkflowSent
	bill, _, err := svc.ProposeUpdate(context.Background(), id, UpdatePatch{WorkflowStatus: &sent}, 7)
	require.NoError(t, err)
	require.Equal(t, WorkflowSent, bill.WorkflowStatus)
	require.Equal(t, 1, repo.txReads)
}

func TestProposeUpdateUnknownBill(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)

	sent := WorkflowSent
	_, _, err := svc.ProposeUpdate(context.Background(), 404, UpdatePatch{WorkflowStatus: &sent}, 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMarkOverdueMovesPastDueBills(t *testing.T) {
	repo := newMemoryBillRepo()
	svc := NewService(repo, nil, nil, nil, nil)
	issuedID := seedBill(t, repo, WorkflowIssued, PaymentUnpaid)
	paidID := seedBill(t, repo, WorkflowCompleted, PaymentPaid)

	count, err := svc.MarkOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	bill, _, err := svc.GetBill(context.Background(), issuedID)
	require.NoError(t, err)
	require.Equal(t, WorkflowOverdue, bill.WorkflowStatus)

	untouched, _, err := svc.GetBill(context.Background(), paidID)
	require.NoError(t, err)
	require.Equal(t, WorkflowCompleted, untouched.WorkflowStatus)
}

type stubOrders struct {
	snapshot OrderSnapshot
	billedID int64
}

func (o *stubOrders) SnapshotForBilling(ctx context.Context, orderID int64) (OrderSnapshot, error) {
	return o.snapshot, nil
}

func (o *stubOrders) MarkBilled(ctx context.Context, orderID, billID, actorID int64) error {
	o.billedID = billID
	return nil
}

func TestCreateFromPurchaseOrderCopiesLinesAndMarksBilled(t *testing.T) {
	repo := newMemoryBillRepo()
	notifier := &recordingNotifier{}
	orders := &stubOrders{snapshot: OrderSnapshot{
		ID:       5,
		Number:   "PO-5",
		VendorID: 9,
		Total:    300,
		Lines: []LineItemInput{
			{Description: "Widgets", Quantity: 3, UnitPrice: 100},
		},
	}}
	svc := NewService(repo, orders, notifier, nil, nil)

	bill, err := svc.CreateFromPurchaseOrder(context.Background(), 5, time.Now().AddDate(0, 1, 0), 7)
	require.NoError(t, err)
	require.Equal(t, int64(9), bill.VendorID)
	require.Equal(t, int64(5), bill.PurchaseOrderID)
	require.Equal(t, 300.0, bill.Total)
	require.Equal(t, bill.ID, orders.billedID)
	require.Contains(t, notifier.events, "bill.created")
}
