package invoice

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/pkg/errors"
	"github.com/poskit/billingd/internal/billing"
	"github.com/poskit/billingd/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Branding holds the header and footer values printed on every invoice.
type Branding struct {
	StoreName  string `mapstructure:"store_name"`
	TagLine    string `mapstructure:"tag_line"`
	Currency   string `mapstructure:"currency"`
	FooterNote string `mapstructure:"footer_note"`
}

// BrandingProvider supplies the current register branding settings.
type BrandingProvider interface {
	Branding() Branding
}

// Renderer is a pure formatting consumer of finalized bill snapshots: a
// printable HTML view for the print action and an XLSX workbook for the
// download action.
type Renderer struct {
	branding BrandingProvider
	printer  *message.Printer
}

func NewRenderer(branding BrandingProvider) *Renderer {
	return &Renderer{
		branding: branding,
		printer:  message.NewPrinter(language.English),
	}
}

var _ billing.Renderer = (*Renderer)(nil)

// Render implements the billing.Renderer contract.
func (r *Renderer) Render(action string, snap domain.BillSnapshot) (*billing.Artifact, error) {
	switch action {
	case billing.ActionPrint:
		return r.RenderHTML(snap)
	case billing.ActionDownload:
		return r.RenderXLSX(snap)
	default:
		return nil, errors.Errorf("invoice: unknown render action %q", action)
	}
}

func (r *Renderer) money(v float64) string {
	return r.printer.Sprintf("%s %.2f", r.branding.Branding().Currency, v)
}

type invoiceView struct {
	Branding      Branding
	InvoiceNo     string
	Date          string
	CustomerName  string
	CustomerPhone string
	Lines         []invoiceLine
	Subtotal      string
	Discount      string
	DiscountAmt   string
	Total         string
}

type invoiceLine struct {
	Name     string
	Quantity int
	Rate     string
	Total    string
}

// RenderHTML produces the print-ready invoice page.
func (r *Renderer) RenderHTML(snap domain.BillSnapshot) (*billing.Artifact, error) {
	view := r.buildView(snap)
	var buf bytes.Buffer
	if err := invoiceTmpl.Execute(&buf, view); err != nil {
		return nil, errors.Wrap(err, "invoice: render html")
	}
	return &billing.Artifact{
		ContentType: "text/html; charset=utf-8",
		Filename:    fmt.Sprintf("%s.html", snap.InvoiceNo),
		Content:     buf.Bytes(),
	}, nil
}

// RenderXLSX produces the downloadable invoice workbook.
func (r *Renderer) RenderXLSX(snap domain.BillSnapshot) (*billing.Artifact, error) {
	view := r.buildView(snap)
	const sheet = "Invoice"
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)
	f.SetColWidth(sheet, "A", "A", 36)
	f.SetColWidth(sheet, "B", "D", 16)

	f.MergeCell(sheet, "A1", "D1")
	f.SetCellValue(sheet, "A1", view.Branding.StoreName)
	f.MergeCell(sheet, "A2", "D2")
	f.SetCellValue(sheet, "A2", view.Branding.TagLine)

	f.SetCellValue(sheet, "A4", "Bill No")
	f.SetCellValue(sheet, "B4", view.InvoiceNo)
	f.SetCellValue(sheet, "A5", "Date")
	f.SetCellValue(sheet, "B5", view.Date)
	f.SetCellValue(sheet, "A6", "Bill To")
	f.SetCellValue(sheet, "B6", view.CustomerName)
	if view.CustomerPhone != "" {
		f.SetCellValue(sheet, "A7", "Phone")
		f.SetCellValue(sheet, "B7", view.CustomerPhone)
	}

	row := 9
	for col, title := range []string{"Item Name", "Quantity", "Rate", "Total"} {
		f.SetCellValue(sheet, fmt.Sprintf("%c%d", 'A'+col, row), title)
	}
	for _, line := range view.Lines {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.Quantity)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.Rate)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Total)
	}

	row += 2
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Subtotal")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), view.Subtotal)
	row++
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("Discount (%s%%)", view.Discount))
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), view.DiscountAmt)
	row++
	f.SetCellValue(sheet, fmt.Sprintf("C%d", row), "Grand Total")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", row), view.Total)
	row += 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), view.Branding.FooterNote)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "invoice: render xlsx")
	}
	return &billing.Artifact{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    fmt.Sprintf("%s.xlsx", snap.InvoiceNo),
		Content:     buf.Bytes(),
	}, nil
}

func (r *Renderer) buildView(snap domain.BillSnapshot) invoiceView {
	lines := make([]invoiceLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, invoiceLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Rate:     r.money(item.UnitPrice),
			Total:    r.money(item.UnitPrice * float64(item.Quantity)),
		})
	}
	return invoiceView{
		Branding:      r.branding.Branding(),
		InvoiceNo:     snap.InvoiceNo,
		Date:          snap.CreatedAt.Format("02 Jan 2006 15:04"),
		CustomerName:  snap.CustomerName,
		CustomerPhone: snap.CustomerPhone,
		Lines:         lines,
		Subtotal:      r.money(snap.Bill.Subtotal),
		Discount:      r.printer.Sprintf("%v", snap.Discount),
		DiscountAmt:   r.money(snap.Bill.DiscountAmount),
		Total:         r.money(snap.Bill.Total),
	}
}

var invoiceTmpl = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.InvoiceNo}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
h1 { text-align: center; margin-bottom: 0; }
.tagline { text-align: center; margin-top: 0.2em; color: #555; }
.meta { display: flex; justify-content: space-between; margin: 2em 0 1em; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #444; padding: 6px 10px; text-align: left; }
th { background: #282828; color: #fff; }
.totals { margin-top: 1.5em; text-align: right; }
.totals .grand { font-size: 1.2em; font-weight: bold; }
.footer { margin-top: 3em; text-align: center; font-style: italic; }
@media print { .noprint { display: none; } }
</style>
</head>
<body>
<h1>{{.Branding.StoreName}}</h1>
<p class="tagline">{{.Branding.TagLine}}</p>
<div class="meta">
  <div>
    <div>Date: {{.Date}}</div>
    <div>Bill No: {{.InvoiceNo}}</div>
  </div>
  <div>
    <div>Bill To:</div>
    <div><strong>{{.CustomerName}}</strong></div>
    {{if .CustomerPhone}}<div>Phone: {{.CustomerPhone}}</div>{{end}}
  </div>
</div>
<table>
  <thead>
    <tr><th>Item Name</th><th>Quantity</th><th>Rate</th><th>Total</th></tr>
  </thead>
  <tbody>
    {{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Rate}}</td><td>{{.Total}}</td></tr>
    {{end}}
  </tbody>
</table>
<div class="totals">
  <div>Subtotal: {{.Subtotal}}</div>
  <div>Discount ({{.Discount}}%): {{.DiscountAmt}}</div>
  <div class="grand">Grand Total: {{.Total}}</div>
</div>
<p class="footer">{{.Branding.FooterNote}}</p>
</body>
</html>
`))
