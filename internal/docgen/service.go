package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vendorhub/vendorhub/internal/billing"
	"github.com/vendorhub/vendorhub/internal/purchasing"
	"github.com/vendorhub/vendorhub/internal/vendors"
)

// BillSource reads the bill to render and records the attachment.
type BillSource interface {
	GetBill(ctx context.Context, id int64) (billing.Bill, []billing.LineItem, error)
	AttachDocument(ctx context.Context, billID, documentID int64) error
}

// OrderSource reads the purchase order to render and records the attachment.
type OrderSource interface {
	Get(ctx context.Context, id int64) (purchasing.PurchaseOrder, []purchasing.LineItem, error)
	AttachDocument(ctx context.Context, orderID, documentID int64) error
}

// VendorSource resolves vendor names for document headers.
type VendorSource interface {
	Get(ctx context.Context, id int64) (vendors.Vendor, error)
}

// Renderer converts HTML to PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// RepositoryPort describes document metadata persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, doc Document) (int64, error)
	Get(ctx context.Context, id int64) (Document, error)
}

// Service renders entity PDFs and stores them on disk. Concurrent requests
// for the same entity are collapsed into one render.
type Service struct {
	repo     RepositoryPort
	bills    BillSource
	orders   OrderSource
	vendors  VendorSource
	renderer Renderer
	dir      string
	logger   *slog.Logger
	group    singleflight.Group
}

// NewService constructs the docgen service. dir is the document storage root.
func NewService(repo RepositoryPort, bills BillSource, orders OrderSource, vendorSrc VendorSource, renderer Renderer, dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, bills: bills, orders: orders, vendors: vendorSrc, renderer: renderer, dir: dir, logger: logger}
}

// Generate renders a PDF for the entity and returns the document ID.
func (s *Service) Generate(ctx context.Context, entityType string, entityID int64) (int64, error) {
	key := fmt.Sprintf("%s:%d", entityType, entityID)
	result, err, _ := s.group.Do(key, func() (any, error) {
		switch entityType {
		case "bill":
			return s.generateBill(ctx, entityID)
		case "purchase_order":
			return s.generateOrder(ctx, entityID)
		default:
			return int64(0), ErrUnknownEntity
		}
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// GetDocument returns document metadata by ID.
func (s *Service) GetDocument(ctx context.Context, id int64) (Document, error) {
	return s.repo.Get(ctx, id)
}

// OwnerVendorID resolves which vendor a document belongs to by looking up
// the entity it was rendered from.
func (s *Service) OwnerVendorID(ctx context.Context, doc Document) (int64, error) {
	switch doc.EntityType {
	case "bill":
		bill, _, err := s.bills.GetBill(ctx, doc.EntityID)
		if err != nil {
			return 0, err
		}
		return bill.VendorID, nil
	case "purchase_order":
		order, _, err := s.orders.Get(ctx, doc.EntityID)
		if err != nil {
			return 0, err
		}
		return order.VendorID, nil
	default:
		return 0, ErrUnknownEntity
	}
}

func (s *Service) generateBill(ctx context.Context, billID int64) (int64, error) {
	bill, items, err := s.bills.GetBill(ctx, billID)
	if err != nil {
		return 0, err
	}
	if bill.WorkflowStatus == billing.WorkflowDraft || bill.WorkflowStatus == billing.WorkflowCancelled {
		return 0, fmt.Errorf("%w: bill %s is %s", ErrNotRenderable, bill.Number, bill.WorkflowStatus)
	}

	vendorName := ""
	if s.vendors != nil {
		if vendor, err := s.vendors.Get(ctx, bill.VendorID); err == nil {
			vendorName = vendor.Name
		}
	}

	data := BillData{
		Number:         bill.Number,
		VendorName:     vendorName,
		IssueDate:      bill.IssueDate,
		DueDate:        bill.DueDate,
		WorkflowStatus: string(bill.WorkflowStatus),
		PaymentStatus:  string(bill.PaymentStatus),
		Notes:          bill.Notes,
		Total:          bill.Total,
	}
	for _, item := range items {
		data.Lines = append(data.Lines, BillLine{Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}

	html, err := RenderBillHTML(data)
	if err != nil {
		return 0, err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return 0, err
	}

	filename := fmt.Sprintf("bill-%s-%d.pdf", bill.Number, time.Now().Unix())
	path := filepath.Join(s.dir, filename)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return 0, err
	}

	docID, err := s.repo.Insert(ctx, Document{
		EntityType: "bill",
		EntityID:   billID,
		Filename:   filename,
		Path:       path,
		SizeBytes:  int64(len(pdf)),
	})
	if err != nil {
		return 0, err
	}
	if err := s.bills.AttachDocument(ctx, billID, docID); err != nil {
		s.logger.Warn("attach document failed", slog.Int64("bill_id", billID), slog.Any("error", err))
	}
	s.logger.Info("document generated", slog.Int64("bill_id", billID), slog.Int64("document_id", docID))
	return docID, nil
}

func (s *Service) generateOrder(ctx context.Context, orderID int64) (int64, error) {
	if s.orders == nil {
		return 0, ErrUnknownEntity
	}
	order, items, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Status == purchasing.StatusCancelled {
		return 0, fmt.Errorf("%w: order %s is %s", ErrNotRenderable, order.Number, order.Status)
	}

	vendorName := order.VendorName
	if vendorName == "" && s.vendors != nil {
		if vendor, err := s.vendors.Get(ctx, order.VendorID); err == nil {
			vendorName = vendor.Name
		}
	}

	data := OrderData{
		Number:     order.Number,
		VendorName: vendorName,
		OrderDate:  order.OrderDate,
		Status:     string(order.Status),
		Notes:      order.Notes,
		Total:      order.Total,
	}
	for _, item := range items {
		data.Lines = append(data.Lines, OrderLine{Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}

	html, err := RenderOrderHTML(data)
	if err != nil {
		return 0, err
	}
	pdf, err := s.renderer.RenderHTML(ctx, html)
	if err != nil {
		return 0, err
	}

	filename := fmt.Sprintf("po-%s-%d.pdf", order.Number, time.Now().Unix())
	path := filepath.Join(s.dir, filename)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return 0, err
	}

	docID, err := s.repo.Insert(ctx, Document{
		EntityType: "purchase_order",
		EntityID:   orderID,
		Filename:   filename,
		Path:       path,
		SizeBytes:  int64(len(pdf)),
	})
	if err != nil {
		return 0, err
	}
	if err := s.orders.AttachDocument(ctx, orderID, docID); err != nil {
		s.logger.Warn("attach document failed", slog.Int64("order_id", orderID), slog.Any("error", err))
	}
	s.logger.Info("document generated", slog.Int64("order_id", orderID), slog.Int64("document_id", docID))
	return docID, nil
}
