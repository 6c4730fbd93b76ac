package purchasing

import (
	"strconv"
	"strings"
)

func validateCreate(input CreateOrderInput) error {
	fields := make(map[string]string)
	if input.VendorID <= 0 {
		fields["vendor_id"] = "vendor is required"
	}
	if input.OrderDate.IsZero() {
		fields["order_date"] = "order date is required"
	}
	if len(input.Items) == 0 {
		fields["items"] = "at least one line item is required"
	}
	itemFields(input.Items, fields)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateItems(items []LineItemInput) error {
	fields := make(map[string]string)
	if len(items) == 0 {
		fields["items"] = "at least one line item is required"
	}
	itemFields(items, fields)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func itemFields(items []LineItemInput, fields map[string]string) {
	for i, line := range items {
		key := "items[" + strconv.Itoa(i) + "]"
		switch {
		case strings.TrimSpace(line.Description) == "":
			fields[key] = "description is required"
		case line.Quantity < 1:
			fields[key] = "quantity must be at least 1"
		case line.UnitPrice < 0:
			fields[key] = "unit price must be zero or positive"
		}
	}
}
