package docgen

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vendorhub/vendorhub/internal/billing"
	"github.com/vendorhub/vendorhub/internal/purchasing"
	"github.com/vendorhub/vendorhub/internal/vendors"
)

type memoryDocRepo struct {
	docs   map[int64]Document
	nextID int64
}

func newMemoryDocRepo() *memoryDocRepo {
	return &memoryDocRepo{docs: make(map[int64]Document)}
}

func (r *memoryDocRepo) Insert(ctx context.Context, doc Document) (int64, error) {
	r.nextID++
	doc.ID = r.nextID
	r.docs[doc.ID] = doc
	return doc.ID, nil
}

func (r *memoryDocRepo) Get(ctx context.Context, id int64) (Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

type stubBillSource struct {
	bill     billing.Bill
	items    []billing.LineItem
	attached int64
}

func (s *stubBillSource) GetBill(ctx context.Context, id int64) (billing.Bill, []billing.LineItem, error) {
	if s.bill.ID != id {
		return billing.Bill{}, nil, billing.ErrNotFound
	}
	return s.bill, s.items, nil
}

func (s *stubBillSource) AttachDocument(ctx context.Context, billID, documentID int64) error {
	s.attached = documentID
	return nil
}

type stubOrderSource struct {
	order    purchasing.PurchaseOrder
	items    []purchasing.LineItem
	attached int64
}

func (s *stubOrderSource) Get(ctx context.Context, id int64) (purchasing.PurchaseOrder, []purchasing.LineItem, error) {
	if s.order.ID != id {
		return purchasing.PurchaseOrder{}, nil, purchasing.ErrNotFound
	}
	return s.order, s.items, nil
}

func (s *stubOrderSource) AttachDocument(ctx context.Context, orderID, documentID int64) error {
	s.attached = documentID
	return nil
}

type stubVendorSource struct{}

func (stubVendorSource) Get(ctx context.Context, id int64) (vendors.Vendor, error) {
	return vendors.Vendor{ID: id, Name: "Acme Industrial"}, nil
}

type stubRenderer struct{}

func (stubRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

func TestGenerateOrderDocument(t *testing.T) {
	repo := newMemoryDocRepo()
	orders := &stubOrderSource{
		order: purchasing.PurchaseOrder{
			ID:         5,
			Number:     "PO-5",
			VendorID:   3,
			VendorName: "Acme Industrial",
			Status:     purchasing.StatusApproved,
			Total:      250,
			OrderDate:  time.Now(),
		},
		items: []purchasing.LineItem{
			{OrderID: 5, Description: "Widgets", Quantity: 10, UnitPrice: 25},
		},
	}
	svc := NewService(repo, &stubBillSource{}, orders, stubVendorSource{}, stubRenderer{}, t.TempDir(), nil)

	docID, err := svc.Generate(context.Background(), "purchase_order", 5)
	require.NoError(t, err)
	require.Equal(t, docID, orders.attached)

	doc, err := svc.GetDocument(context.Background(), docID)
	require.NoError(t, err)
	require.Equal(t, "purchase_order", doc.EntityType)
	require.Equal(t, int64(5), doc.EntityID)
	require.FileExists(t, doc.Path)

	pdf, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	require.Equal(t, doc.SizeBytes, int64(len(pdf)))
}

func TestGenerateOrderCancelledNotRenderable(t *testing.T) {
	orders := &stubOrderSource{
		order: purchasing.PurchaseOrder{ID: 5, Number: "PO-5", VendorID: 3, Status: purchasing.StatusCancelled},
	}
	svc := NewService(newMemoryDocRepo(), &stubBillSource{}, orders, stubVendorSource{}, stubRenderer{}, t.TempDir(), nil)

	_, err := svc.Generate(context.Background(), "purchase_order", 5)
	require.ErrorIs(t, err, ErrNotRenderable)
}

func TestGenerateUnknownEntity(t *testing.T) {
	svc := NewService(newMemoryDocRepo(), &stubBillSource{}, &stubOrderSource{}, stubVendorSource{}, stubRenderer{}, t.TempDir(), nil)

	_, err := svc.Generate(context.Background(), "invoice", 1)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestOwnerVendorIDResolvesEntity(t *testing.T) {
	bills := &stubBillSource{bill: billing.Bill{ID: 8, VendorID: 11}}
	orders := &stubOrderSource{order: purchasing.PurchaseOrder{ID: 5, VendorID: 3, Status: purchasing.StatusApproved}}
	svc := NewService(newMemoryDocRepo(), bills, orders, stubVendorSource{}, stubRenderer{}, t.TempDir(), nil)

	ownerID, err := svc.OwnerVendorID(context.Background(), Document{EntityType: "bill", EntityID: 8})
	require.NoError(t, err)
	require.Equal(t, int64(11), ownerID)

	ownerID, err = svc.OwnerVendorID(context.Background(), Document{EntityType: "purchase_order", EntityID: 5})
	require.NoError(t, err)
	require.Equal(t, int64(3), ownerID)

	_, err = svc.OwnerVendorID(context.Background(), Document{EntityType: "invoice", EntityID: 1})
	require.ErrorIs(t, err, ErrUnknownEntity)
}
