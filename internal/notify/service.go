package notify

import (
	"context"
	"errors"
	"log/slog"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, n Notification) (int64, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int, error)
	MarkRead(ctx context.Context, id, userID int64) error
	FindVendorUser(ctx context.Context, vendorID int64) (int64, string, error)
}

// MailQueue enqueues outbound email for asynchronous delivery.
type MailQueue interface {
	EnqueueSendEmail(ctx context.Context, to, subject, body string) error
}

// Service records vendor notifications and mirrors them out by email.
type Service struct {
	repo   RepositoryPort
	mail   MailQueue
	logger *slog.Logger
}

// NewService constructs the notify service.
func NewService(repo RepositoryPort, mail MailQueue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, mail: mail, logger: logger}
}

// Emit records an event for the vendor's portal user. A vendor without a
// portal login gets no notification; that is not an error for the caller.
func (s *Service) Emit(ctx context.Context, eventType string, vendorID int64, entityType string, entityID int64, message string) error {
	userID, email, err := s.repo.FindVendorUser(ctx, vendorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("no portal user for vendor", slog.Int64("vendor_id", vendorID))
			return nil
		}
		return err
	}
	if _, err := s.repo.Insert(ctx, Notification{
		VendorID:   vendorID,
		UserID:     userID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Message:    message,
	}); err != nil {
		return err
	}
	if s.mail != nil {
		if err := s.mail.EnqueueSendEmail(ctx, email, subjectFor(eventType), message); err != nil {
			s.logger.Warn("email enqueue failed", slog.String("event", eventType), slog.Any("error", err))
		}
	}
	return nil
}

// ListForUser returns a user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListForUser(ctx, userID, limit, offset)
}

// MarkRead flags a notification as read for the given user.
func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func subjectFor(eventType string) string {
	switch eventType {
	case "bill.created":
		return "A new bill has been issued"
	case "bill.paid":
		return "Your bill has been paid"
	case "order.created":
		return "A new purchase order has been created"
	case "order.approved":
		return "Your purchase order was approved"
	case "order.rejected":
		return "Your purchase order was rejected"
	case "order.cancelled":
		return "Your purchase order was cancelled"
	case "order.admin_edited":
		return "Your purchase order was revised"
	default:
		return "Account update"
	}
}
