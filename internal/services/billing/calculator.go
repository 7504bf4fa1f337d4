package billing

import (
	"errors"
	"math"

	"invoice-billing-backend/internal/models"
)

// TaxRate is the flat GST rate applied to every invoice, split evenly into
// CGST and SGST halves.
const TaxRate = 0.18

var ErrInvalidLineItem = errors.New("invalid line item")

// LineItem is the ephemeral form of an invoice line while composing or
// editing. Amount is quantity times rate; nothing is rounded until the
// formatting/persistence boundary.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	TaxRate    float64 `json:"tax_rate"`
	TaxAmount  float64 `json:"tax_amount"`
	CGST       float64 `json:"cgst"`
	SGST       float64 `json:"sgst"`
	GrandTotal float64 `json:"grand_total"`
}

// ComputeTotals derives invoice totals from line items. It is a pure
// function: identical items in identical order produce identical totals.
// Negative quantities or rates are not clamped; a negative line reduces the
// subtotal. That is contractual, validation happens at the input boundary
// (ValidateItems), not here. Empty input yields all zeros.
func ComputeTotals(items []LineItem) Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += it.Quantity * it.Rate
	}
	tax := subtotal * TaxRate
	return Totals{
		Subtotal:   subtotal,
		TaxRate:    TaxRate,
		TaxAmount:  tax,
		CGST:       tax / 2,
		SGST:       tax / 2,
		GrandTotal: subtotal + tax,
	}
}

// ValidateItems is the boundary check the calculator itself deliberately
// skips: NaN, infinite or negative quantities/rates are rejected before an
// invoice is persisted.
func ValidateItems(items []LineItem) error {
	for _, it := range items {
		if it.Description == "" {
			return ErrInvalidLineItem
		}
		for _, v := range []float64{it.Quantity, it.Rate} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return ErrInvalidLineItem
			}
		}
	}
	return nil
}

// Round2 rounds to 2 decimal places, half away from zero. Applied only at
// display/persist boundaries, never inside intermediate sums.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts a major-unit amount to the integer minor units the
// gateway charges (e.g. rupees to paise).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ItemsFromModel converts persisted invoice items back into calculator
// input, so a stored invoice's total can be recomputed and checked.
func ItemsFromModel(rows []models.InvoiceItem) []LineItem {
	items := make([]LineItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, LineItem{Description: r.Description, Quantity: r.Quantity, Rate: r.Rate})
	}
	return items
}
