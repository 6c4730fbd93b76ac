package vendors

import "time"

// CreateRequest is the JSON payload for onboarding a vendor.
type CreateRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
	Password      string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// UpdateRequest is the JSON payload for a vendor profile update.
type UpdateRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	ContactPerson string `json:"contact_person,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
}

// VendorResponse is the JSON shape of a vendor.
type VendorResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Address       string    `json:"address,omitempty"`
	ContactPerson string    `json:"contact_person,omitempty"`
	TaxID         string    `json:"tax_id,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListResponse is a paginated vendor listing.
type ListResponse struct {
	Vendors []VendorResponse `json:"vendors"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

func toVendorResponse(v Vendor) VendorResponse {
	return VendorResponse{
		ID:            v.ID,
		Name:          v.Name,
		Email:         v.Email,
		Phone:         v.Phone,
		Address:       v.Address,
		ContactPerson: v.ContactPerson,
		TaxID:         v.TaxID,
		Active:        v.Active,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func toListResponse(vendors []Vendor, total, limit, offset int) ListResponse {
	resp := ListResponse{Vendors: make([]VendorResponse, 0, len(vendors)), Total: total, Limit: limit, Offset: offset}
	for _, v := range vendors {
		resp.Vendors = append(resp.Vendors, toVendorResponse(v))
	}
	return resp
}
