// Package billing holds the pure totals arithmetic for financial documents.
// Everything in this package is free of I/O and hidden state: the same
// inputs always produce the same outputs. Every mutation path recomputes
// from the full item set instead of patching the stored total.
package billing

import "math"

// DiscountSpec is a document-level discount. Percent and Amount are mutually
// exclusive; if both are set, Percent wins.
type DiscountSpec struct {
	Percent float64
	Amount  float64
}

// TaxSpec is the document's tax mode. With Inclusive set, the tax amount is
// extracted from an already-tax-included total rather than added on top.
type TaxSpec struct {
	Rate      float64
	Inclusive bool
}

// Totals is the derived monetary breakdown of a document.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	DiscountValue float64 `json:"discount_value"`
	TaxAmount     float64 `json:"tax_amount"`
	Total         float64 `json:"total"`
}

// Compute derives the totals for a set of line item amounts. Credits must
// already be negative in amounts.
func Compute(amounts []float64, discount DiscountSpec, tax TaxSpec) Totals {
	var subtotal float64
	for _, a := range amounts {
		subtotal += a
	}
	return ComputeFromSubtotal(round2(subtotal), discount, tax)
}

// ComputeFromSubtotal derives the totals for a known subtotal. This is the
// path for a manual subtotal override, which is only permitted when a
// document has no line items.
func ComputeFromSubtotal(subtotal float64, discount DiscountSpec, tax TaxSpec) Totals {
	var discountValue float64
	switch {
	case discount.Percent > 0:
		discountValue = round2(subtotal * discount.Percent / 100)
	case discount.Amount > 0:
		discountValue = round2(discount.Amount)
	}

	afterDiscount := round2(subtotal - discountValue)

	var taxAmount, total float64
	switch {
	case tax.Rate > 0 && tax.Inclusive:
		taxAmount = round2(afterDiscount * tax.Rate / (100 + tax.Rate))
		total = afterDiscount
	case tax.Rate > 0:
		taxAmount = round2(afterDiscount * tax.Rate / 100)
		total = round2(afterDiscount + taxAmount)
	default:
		total = afterDiscount
	}

	return Totals{
		Subtotal:      subtotal,
		DiscountValue: discountValue,
		TaxAmount:     taxAmount,
		Total:         total,
	}
}

// ItemAmount derives a line item's signed contribution to the subtotal.
// When both quantity and rate are given the amount is quantity*rate minus
// the item discount; otherwise manualAmount is taken as-is. Credits flip
// the sign.
func ItemAmount(quantity, rate, itemDiscount, manualAmount float64, credit bool) float64 {
	amount := manualAmount
	if quantity != 0 && rate != 0 {
		amount = quantity*rate - itemDiscount
	}
	amount = round2(amount)
	if credit {
		amount = -amount
	}
	return amount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
