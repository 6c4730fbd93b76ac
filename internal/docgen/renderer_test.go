package docgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderBillHTML(t *testing.T) {
	html, err := RenderBillHTML(BillData{
		Number:         "INV-2026-001",
		VendorName:     "Acme Industrial",
		IssueDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		WorkflowStatus: "ISSUED",
		PaymentStatus:  "UNPAID",
		Total:          12500.5,
		Lines: []BillLine{
			{Description: "Steel beams", Quantity: 100, UnitPrice: 125.005},
		},
	})
	require.NoError(t, err)
	require.Contains(t, html, "INV-2026-001")
	require.Contains(t, html, "Acme Industrial")
	require.Contains(t, html, "1 Mar 2026")
	require.Contains(t, html, "31 Mar 2026")
	require.Contains(t, html, "Steel beams")
	require.Contains(t, html, "12,500.50")
}

func TestRenderOrderHTML(t *testing.T) {
	html, err := RenderOrderHTML(OrderData{
		Number:     "PO-2026-014",
		VendorName: "Acme Industrial",
		OrderDate:  time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		Status:     "APPROVED",
		Total:      3300,
		Lines: []OrderLine{
			{Description: "Copper wire", Quantity: 33, UnitPrice: 100},
		},
	})
	require.NoError(t, err)
	require.Contains(t, html, "Purchase Order PO-2026-014")
	require.Contains(t, html, "Acme Industrial")
	require.Contains(t, html, "12 Apr 2026")
	require.Contains(t, html, "Copper wire")
	require.Contains(t, html, "3,300.00")
}

func TestRenderBillHTMLEscapesNotes(t *testing.T) {
	html, err := RenderBillHTML(BillData{
		Number: "INV-1",
		Notes:  `<script>alert("x")</script>`,
	})
	require.NoError(t, err)
	require.NotContains(t, html, "<script>")
}
