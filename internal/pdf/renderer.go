package pdf

import (
	"bytes"
	"fmt"
	"time"

	"invoice-billing-backend/internal/models"
	"invoice-billing-backend/internal/services/billing"

	"github.com/jung-kurt/gofpdf"
)

// RenderInvoice produces the fixed-layout A4 invoice document: header,
// from/to blocks, item table, tax summary and optional note. Purely
// presentational; totals come in precomputed so the document always shows
// the same numbers the invoice was persisted and charged with.
func RenderInvoice(inv *models.Invoice, totals billing.Totals) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	cur := inv.Currency
	if cur == "" {
		cur = "INR"
	}

	// Header
	doc.SetFont("Helvetica", "B", 24)
	doc.Text(20, 20, inv.InvoiceName)
	doc.SetFont("Helvetica", "", 10)
	doc.Text(20, 26, fmt.Sprintf("Invoice ID: %s", inv.ID))

	// From block
	doc.SetFont("Helvetica", "B", 12)
	doc.Text(20, 40, "From")
	doc.SetFont("Helvetica", "", 10)
	doc.Text(20, 46, inv.FromName)
	doc.Text(20, 51, inv.FromEmail)
	doc.Text(20, 56, inv.FromAddress)

	// Bill-to block
	doc.SetFont("Helvetica", "B", 12)
	doc.Text(20, 70, "Bill to")
	doc.SetFont("Helvetica", "", 10)
	doc.Text(20, 76, inv.ClientName)
	doc.Text(20, 81, inv.ClientEmail)
	doc.Text(20, 86, inv.ClientAddress)

	// Invoice details
	doc.SetFont("Helvetica", "", 10)
	doc.Text(120, 40, fmt.Sprintf("Invoice Number: #%d", inv.InvoiceNumber))
	doc.Text(120, 45, fmt.Sprintf("Date: %s", inv.Date.Format("January 2, 2006")))
	doc.Text(120, 50, fmt.Sprintf("Due Date: Net %d", inv.DueDate))

	// Item table
	doc.SetFont("Helvetica", "B", 10)
	doc.Text(20, 100, "Description")
	doc.Text(100, 100, "Quantity")
	doc.Text(130, 100, "Rate")
	doc.Text(160, 100, "Total")
	doc.Line(20, 102, 190, 102)

	y := 110.0
	doc.SetFont("Helvetica", "", 10)
	for _, it := range inv.Items {
		lineTotal := it.Quantity * it.Rate
		doc.Text(20, y, it.Description)
		doc.Text(100, y, fmt.Sprintf("%g", it.Quantity))
		doc.Text(130, y, fmt.Sprintf("%s %.2f", cur, it.Rate))
		doc.Text(160, y, fmt.Sprintf("%s %.2f", cur, billing.Round2(lineTotal)))
		y += 10
		if y > 270 {
			doc.AddPage()
			y = 20
		}
	}

	doc.Line(20, y, 190, y)
	y += 10

	// Tax summary
	doc.SetFont("Helvetica", "B", 10)
	doc.Text(130, y, "Subtotal")
	doc.Text(160, y, fmt.Sprintf("%s %.2f", cur, billing.Round2(totals.Subtotal)))
	y += 7
	doc.Text(130, y, "GST (18%)")
	doc.Text(160, y, fmt.Sprintf("%s %.2f", cur, billing.Round2(totals.TaxAmount)))
	y += 7
	doc.Text(130, y, "CGST (9%)")
	doc.Text(160, y, fmt.Sprintf("%s %.2f", cur, billing.Round2(totals.CGST)))
	y += 7
	doc.Text(130, y, "SGST (9%)")
	doc.Text(160, y, fmt.Sprintf("%s %.2f", cur, billing.Round2(totals.SGST)))
	y += 7
	doc.Text(130, y, fmt.Sprintf("Total (%s)", cur))
	doc.Text(160, y, fmt.Sprintf("%s %.2f", cur, billing.Round2(totals.GrandTotal)))

	if inv.Note != "" {
		y += 20
		doc.SetFont("Helvetica", "", 10)
		doc.Text(20, y, "Note:")
		doc.Text(20, y+5, inv.Note)
	}

	doc.SetFont("Helvetica", "", 8)
	doc.Text(20, 287, fmt.Sprintf("Generated %s", time.Now().Format(time.RFC1123)))

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
