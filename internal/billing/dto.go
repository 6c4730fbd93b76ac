package billing

import "time"

// CreateRequest is the JSON payload for creating a bill.
type CreateRequest struct {
	Number          string           `json:"number,omitempty"`
	VendorID        int64            `json:"vendor_id" validate:"required,gt=0"`
	PurchaseOrderID *int64           `json:"purchase_order_id,omitempty" validate:"omitempty,gt=0"`
	IssueDate       time.Time        `json:"issue_date" validate:"required"`
	DueDate         time.Time        `json:"due_date" validate:"required"`
	Notes           string           `json:"notes,omitempty"`
	Items           []LineItemReq    `json:"items" validate:"required,min=1,dive"`
}

// LineItemReq is a line item in a create or update request.
type LineItemReq struct {
	Description string  `json:"description" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// UpdateRequest is the JSON payload for a partial bill update.
type UpdateRequest struct {
	IssueDate      *time.Time     `json:"issue_date,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	Total          *float64       `json:"total,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Items          *[]LineItemReq `json:"items,omitempty"`
	WorkflowStatus *string        `json:"workflow_status,omitempty"`
	PaymentStatus  *string        `json:"payment_status,omitempty"`
}

// LineItemResponse mirrors a stored line item.
type LineItemResponse struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// BillResponse is the JSON shape of a bill with its items.
type BillResponse struct {
	ID              int64              `json:"id"`
	Number          string             `json:"number"`
	VendorID        int64              `json:"vendor_id"`
	PurchaseOrderID *int64             `json:"purchase_order_id,omitempty"`
	Total           float64            `json:"total"`
	IssueDate       time.Time          `json:"issue_date"`
	DueDate         time.Time          `json:"due_date"`
	WorkflowStatus  WorkflowStatus     `json:"workflow_status"`
	PaymentStatus   PaymentStatus      `json:"payment_status"`
	Notes           string             `json:"notes,omitempty"`
	DocumentID      *int64             `json:"document_id,omitempty"`
	Items           []LineItemResponse `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// ListResponse is a paginated bill listing.
type ListResponse struct {
	Bills  []BillListItemResponse `json:"bills"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

// BillListItemResponse is one row of a bill listing.
type BillListItemResponse struct {
	ID             int64          `json:"id"`
	Number         string         `json:"number"`
	VendorID       int64          `json:"vendor_id"`
	VendorName     string         `json:"vendor_name"`
	Total          float64        `json:"total"`
	IssueDate      time.Time      `json:"issue_date"`
	DueDate        time.Time      `json:"due_date"`
	WorkflowStatus WorkflowStatus `json:"workflow_status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// GenerateFromOrderRequest asks for a bill to be generated from a PO.
type GenerateFromOrderRequest struct {
	PurchaseOrderID int64      `json:"purchase_order_id" validate:"required,gt=0"`
	DueDate         *time.Time `json:"due_date,omitempty"`
}

func toBillResponse(bill Bill, items []LineItem) BillResponse {
	resp := BillResponse{
		ID:             bill.ID,
		Number:         bill.Number,
		VendorID:       bill.VendorID,
		Total:          bill.Total,
		IssueDate:      bill.IssueDate,
		DueDate:        bill.DueDate,
		WorkflowStatus: bill.WorkflowStatus,
		PaymentStatus:  bill.PaymentStatus,
		Notes:          bill.Notes,
		Items:          make([]LineItemResponse, 0, len(items)),
		CreatedAt:      bill.CreatedAt,
		UpdatedAt:      bill.UpdatedAt,
	}
	if bill.PurchaseOrderID != 0 {
		id := bill.PurchaseOrderID
		resp.PurchaseOrderID = &id
	}
	if bill.DocumentID != 0 {
		id := bill.DocumentID
		resp.DocumentID = &id
	}
	for _, item := range items {
		resp.Items = append(resp.Items, LineItemResponse{ID: item.ID, Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return resp
}

func toListResponse(items []BillListItem, total, limit, offset int) ListResponse {
	resp := ListResponse{Bills: make([]BillListItemResponse, 0, len(items)), Total: total, Limit: limit, Offset: offset}
	for _, item := range items {
		resp.Bills = append(resp.Bills, BillListItemResponse{
			ID:             item.ID,
			Number:         item.Number,
			VendorID:       item.VendorID,
			VendorName:     item.VendorName,
			Total:          item.Total,
			IssueDate:      item.IssueDate,
			DueDate:        item.DueDate,
			WorkflowStatus: item.WorkflowStatus,
			PaymentStatus:  item.PaymentStatus,
			CreatedAt:      item.CreatedAt,
		})
	}
	return resp
}
