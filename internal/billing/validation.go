package billing

import (
	"strconv"
	"strings"
)

func validateCreate(input CreateBillInput) error {
	fields := make(map[string]string)
	if input.VendorID <= 0 {
		fields["vendor_id"] = "vendor is required"
	}
	if input.IssueDate.IsZero() {
		fields["issue_date"] = "issue date is required"
	}
	if input.DueDate.IsZero() {
		fields["due_date"] = "due date is required"
	}
	if !input.IssueDate.IsZero() && !input.DueDate.IsZero() && input.DueDate.Before(input.IssueDate) {
		fields["due_date"] = "due date cannot precede issue date"
	}
	if len(input.Items) == 0 {
		fields["items"] = "at least one line item is required"
	}
	validateItems(input.Items, fields)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validatePatch(patch UpdatePatch) error {
	fields := make(map[string]string)
	if patch.Total != nil && *patch.Total < 0 {
		fields["total"] = "total must be zero or positive"
	}
	if patch.IssueDate != nil && patch.IssueDate.IsZero() {
		fields["issue_date"] = "issue date is required"
	}
	if patch.DueDate != nil && patch.DueDate.IsZero() {
		fields["due_date"] = "due date is required"
	}
	if patch.WorkflowStatus != nil && !patch.WorkflowStatus.Valid() {
		fields["workflow_status"] = "unknown workflow status"
	}
	if patch.PaymentStatus != nil && !patch.PaymentStatus.Valid() {
		fields["payment_status"] = "unknown payment status"
	}
	if patch.Items != nil {
		if len(*patch.Items) == 0 {
			fields["items"] = "at least one line item is required"
		}
		validateItems(*patch.Items, fields)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateItems(items []LineItemInput, fields map[string]string) {
	for i, line := range items {
		key := itemField(i)
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

func itemField(i int) string {
	return "items[" + strconv.Itoa(i) + "]"
}
