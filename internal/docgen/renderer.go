package docgen

import (
	"bytes"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const billTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 40px; }
h1 { font-size: 22px; margin-bottom: 0; }
.meta { color: #666; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #ddd; }
th { background: #f5f5f5; }
td.amount, th.amount { text-align: right; }
.total-row td { font-weight: bold; border-top: 2px solid #1a1a1a; }
.status { display: inline-block; padding: 2px 10px; border: 1px solid #999; border-radius: 4px; font-size: 12px; }
</style>
</head>
<body>
<h1>Bill {{.Number}}</h1>
<p class="meta">
Vendor: {{.VendorName}}<br>
Issued: {{.IssueDate}} &middot; Due: {{.DueDate}}<br>
<span class="status">{{.WorkflowStatus}}</span> <span class="status">{{.PaymentStatus}}</span>
</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<table>
<tr><th>Description</th><th class="amount">Qty</th><th class="amount">Unit Price</th><th class="amount">Amount</th></tr>
{{range .Lines}}
<tr><td>{{.Description}}</td><td class="amount">{{.Quantity}}</td><td class="amount">{{.UnitPrice}}</td><td class="amount">{{.Amount}}</td></tr>
{{end}}
<tr class="total-row"><td colspan="3">Total</td><td class="amount">{{.Total}}</td></tr>
</table>
</body>
</html>`

var billTmpl = template.Must(template.New("bill").Parse(billTemplate))

// amountPrinter groups thousands for readability on printed documents.
var amountPrinter = message.NewPrinter(language.English)

type billLineView struct {
	Description string
	Quantity    int
	UnitPrice   string
	Amount      string
}

type billView struct {
	Number         string
	VendorName     string
	IssueDate      string
	DueDate        string
	WorkflowStatus string
	PaymentStatus  string
	Notes          string
	Lines          []billLineView
	Total          string
}

// BillData is the renderer input assembled by the service.
type BillData struct {
	Number         string
	VendorName     string
	IssueDate      time.Time
	DueDate        time.Time
	WorkflowStatus string
	PaymentStatus  string
	Notes          string
	Total          float64
	Lines          []BillLine
}

// BillLine is one renderable bill line.
type BillLine struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// RenderBillHTML produces the HTML document sent to the PDF converter.
func RenderBillHTML(data BillData) (string, error) {
	view := billView{
		Number:         data.Number,
		VendorName:     data.VendorName,
		IssueDate:      data.IssueDate.Format("2 Jan 2006"),
		DueDate:        data.DueDate.Format("2 Jan 2006"),
		WorkflowStatus: data.WorkflowStatus,
		PaymentStatus:  data.PaymentStatus,
		Notes:          data.Notes,
		Total:          formatAmount(data.Total),
	}
	for _, line := range data.Lines {
		view.Lines = append(view.Lines, billLineView{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   formatAmount(line.UnitPrice),
			Amount:      formatAmount(float64(line.Quantity) * line.UnitPrice),
		})
	}
	var buf bytes.Buffer
	if err := billTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

const orderTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 40px; }
h1 { font-size: 22px; margin-bottom: 0; }
.meta { color: #666; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #ddd; }
th { background: #f5f5f5; }
td.amount, th.amount { text-align: right; }
.total-row td { font-weight: bold; border-top: 2px solid #1a1a1a; }
.status { display: inline-block; padding: 2px 10px; border: 1px solid #999; border-radius: 4px; font-size: 12px; }
</style>
</head>
<body>
<h1>Purchase Order {{.Number}}</h1>
<p class="meta">
Vendor: {{.VendorName}}<br>
Ordered: {{.OrderDate}}<br>
<span class="status">{{.Status}}</span>
</p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<table>
<tr><th>Description</th><th class="amount">Qty</th><th class="amount">Unit Price</th><th class="amount">Amount</th></tr>
{{range .Lines}}
<tr><td>{{.Description}}</td><td class="amount">{{.Quantity}}</td><td class="amount">{{.UnitPrice}}</td><td class="amount">{{.Amount}}</td></tr>
{{end}}
<tr class="total-row"><td colspan="3">Total</td><td class="amount">{{.Total}}</td></tr>
</table>
</body>
</html>`

var orderTmpl = template.Must(template.New("order").Parse(orderTemplate))

type orderLineView struct {
	Description string
	Quantity    int
	UnitPrice   string
	Amount      string
}

type orderView struct {
	Number     string
	VendorName string
	OrderDate  string
	Status     string
	Notes      string
	Lines      []orderLineView
	Total      string
}

// OrderData is the renderer input assembled by the service.
type OrderData struct {
	Number     string
	VendorName string
	OrderDate  time.Time
	Status     string
	Notes      string
	Total      float64
	Lines      []OrderLine
}

// OrderLine is one renderable purchase order line.
type OrderLine struct {
	Description string
	Quantity    int
	UnitPrice   float64
}

// RenderOrderHTML produces the HTML document sent to the PDF converter.
func RenderOrderHTML(data OrderData) (string, error) {
	view := orderView{
		Number:     data.Number,
		VendorName: data.VendorName,
		OrderDate:  data.OrderDate.Format("2 Jan 2006"),
		Status:     data.Status,
		Notes:      data.Notes,
		Total:      formatAmount(data.Total),
	}
	for _, line := range data.Lines {
		view.Lines = append(view.Lines, orderLineView{
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   formatAmount(line.UnitPrice),
			Amount:      formatAmount(float64(line.Quantity) * line.UnitPrice),
		})
	}
	var buf bytes.Buffer
	if err := orderTmpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
