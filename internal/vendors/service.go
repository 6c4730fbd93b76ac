package vendors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/vendorhub/vendorhub/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Vendor, error)
	List(ctx context.Context, limit, offset int, filters ListFilters) ([]Vendor, int, error)
	Update(ctx context.Context, v Vendor) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// TxRepository exposes transactional mutations.
type TxRepository interface {
	CreateVendor(ctx context.Context, v Vendor) (int64, error)
	CreatePortalUser(ctx context.Context, vendorID int64, email, passwordHash string) (int64, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages vendor master data and portal onboarding.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService constructs the vendors service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// CreateInput describes the onboarding payload. A portal login is created
// alongside the vendor when a password is supplied.
type CreateInput struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	ContactPerson string
	TaxID         string
	Password      string
	CreatedBy     int64
}

// UpdateInput describes a vendor profile update.
type UpdateInput struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	ContactPerson string
	TaxID         string
}

// Create onboards a vendor, atomically creating the portal login.
func (s *Service) Create(ctx context.Context, input CreateInput) (Vendor, error) {
	if err := validateCreate(input); err != nil {
		return Vendor{}, err
	}
	vendor := Vendor{
		Name:          strings.TrimSpace(input.Name),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         input.Phone,
		Address:       input.Address,
		ContactPerson: input.ContactPerson,
		TaxID:         input.TaxID,
		Active:        true,
	}
	var hash []byte
	if input.Password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return Vendor{}, err
		}
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateVendor(ctx, vendor)
		if err != nil {
			return err
		}
		vendor.ID = id
		if len(hash) > 0 {
			if _, err := tx.CreatePortalUser(ctx, id, vendor.Email, string(hash)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Vendor{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "VENDOR_CREATE", vendor.ID, map[string]any{"name": vendor.Name})
	return vendor, nil
}

// Get returns a vendor by ID.
func (s *Service) Get(ctx context.Context, id int64) (Vendor, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of vendors.
func (s *Service) List(ctx context.Context, limit, offset int, filters ListFilters) ([]Vendor, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit, offset, filters)
}

// Update writes mutable vendor fields.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput, actorID int64) (Vendor, error) {
	if err := validateUpdate(input); err != nil {
		return Vendor{}, err
	}
	vendor, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vendor{}, err
	}
	vendor.Name = strings.TrimSpace(input.Name)
	vendor.Email = strings.ToLower(strings.TrimSpace(input.Email))
	vendor.Phone = input.Phone
	vendor.Address = input.Address
	vendor.ContactPerson = input.ContactPerson
	vendor.TaxID = input.TaxID
	if err := s.repo.Update(ctx, vendor); err != nil {
		return Vendor{}, err
	}
	s.recordAudit(ctx, actorID, "VENDOR_UPDATE", id, map[string]any{"name": vendor.Name})
	return vendor, nil
}

// Deactivate retires a vendor. Records stay for history; no hard delete.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "VENDOR_DEACTIVATE", id, nil)
	return nil
}

// Reactivate restores a retired vendor.
func (s *Service) Reactivate(ctx context.Context, id, actorID int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "VENDOR_REACTIVATE", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "vendor", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
