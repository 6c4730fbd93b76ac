package purchasing

import "time"

// CreateRequest is the JSON payload for creating a purchase order.
type CreateRequest struct {
	Number    string        `json:"number,omitempty"`
	VendorID  int64         `json:"vendor_id" validate:"required,gt=0"`
	OrderDate time.Time     `json:"order_date" validate:"required"`
	Notes     string        `json:"notes,omitempty"`
	Items     []LineItemReq `json:"items" validate:"required,min=1,dive"`
}

// LineItemReq is a line item in a create or edit request.
type LineItemReq struct {
	Description string  `json:"description" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

// EditRequest is the JSON payload for revising an order's lines.
type EditRequest struct {
	Notes *string       `json:"notes,omitempty"`
	Items []LineItemReq `json:"items" validate:"required,min=1,dive"`
}

// LineItemResponse mirrors a stored line item.
type LineItemResponse struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// OrderResponse is the JSON shape of a purchase order.
type OrderResponse struct {
	ID         int64              `json:"id"`
	Number     string             `json:"number"`
	VendorID   int64              `json:"vendor_id"`
	VendorName string             `json:"vendor_name,omitempty"`
	Status     Status             `json:"status"`
	Total      float64            `json:"total"`
	OrderDate  time.Time          `json:"order_date"`
	Notes      string             `json:"notes,omitempty"`
	BillID     *int64             `json:"bill_id,omitempty"`
	DocumentID *int64             `json:"document_id,omitempty"`
	Items      []LineItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ListResponse is a paginated order listing.
type ListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func toOrderResponse(order PurchaseOrder, items []LineItem) OrderResponse {
	resp := OrderResponse{
		ID:         order.ID,
		Number:     order.Number,
		VendorID:   order.VendorID,
		VendorName: order.VendorName,
		Status:     order.Status,
		Total:      order.Total,
		OrderDate:  order.OrderDate,
		Notes:      order.Notes,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	if order.BillID != 0 {
		id := order.BillID
		resp.BillID = &id
	}
	if order.DocumentID != 0 {
		id := order.DocumentID
		resp.DocumentID = &id
	}
	for _, item := range items {
		resp.Items = append(resp.Items, LineItemResponse{ID: item.ID, Description: item.Description, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return resp
}

func toListResponse(orders []PurchaseOrder, total, limit, offset int) ListResponse {
	resp := ListResponse{Orders: make([]OrderResponse, 0, len(orders)), Total: total, Limit: limit, Offset: offset}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order, nil))
	}
	return resp
}
