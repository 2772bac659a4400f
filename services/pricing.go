// Package services provides pure business helpers shared by the grid
// engine, the export generators and the handlers: pricing math, currency
// formatting and the static option lists referenced by product templates.
package services

// CalcExtendedAmount returns qty times unit price.
func CalcExtendedAmount(qty, unitPrice float64) float64 {
	return qty * unitPrice
}

// ApplyMarkup applies a whole-number percent markup to an amount.
func ApplyMarkup(amount, markupPercent float64) float64 {
	return amount * (1 + markupPercent/100)
}

// EstimateTotals is the document-level money rollup.
type EstimateTotals struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Total    float64
}

// CalcEstimateTotals computes discount, tax and grand total from a
// subtotal. discountPercent is a whole-number percent; taxRate is a
// decimal fraction (0.08 for 8%), never a whole-number percent.
func CalcEstimateTotals(subtotal, discountPercent, taxRate float64) EstimateTotals {
	totals := EstimateTotals{Subtotal: subtotal}
	totals.Discount = subtotal * discountPercent / 100
	taxable := subtotal - totals.Discount
	totals.Tax = taxable * taxRate
	totals.Total = taxable + totals.Tax
	return totals
}
