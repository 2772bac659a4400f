package grid

import (
	"github.com/spf13/cast"

	"gridbuilder/services"
)

// ManufacturingPreferences are the customer-specific production defaults
// that inform pricing (markup, rush handling) and the UI's default slot
// values for new rows.
type ManufacturingPreferences struct {
	DefaultIllumination  string  `json:"defaultIllumination"`
	DefaultMounting      string  `json:"defaultMounting"`
	WireExit             string  `json:"wireExit"`
	MarkupPercent        float64 `json:"markupPercent"`
	RushSurchargePercent float64 `json:"rushSurchargePercent"`
}

// CustomerContext carries the customer facts the calculation needs beyond
// manufacturing preferences.
type CustomerContext struct {
	CustomerID      string  `json:"customerId"`
	DiscountPercent float64 `json:"discountPercent"`
	Rush            bool    `json:"rush"`
}

// RowAmount is the per-row pricing line of a preview.
type RowAmount struct {
	RowID     string  `json:"rowId"`
	Qty       float64 `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	Extended  float64 `json:"extended"`
}

// PricingPreview is the computed, not-yet-persisted document total.
type PricingPreview struct {
	Rows     []RowAmount `json:"rows"`
	Subtotal float64     `json:"subtotal"`
	Discount float64     `json:"discount"`
	TaxRate  float64     `json:"taxRate"` // decimal fraction, not a percent
	Tax      float64     `json:"tax"`
	Total    float64     `json:"total"`
}

// RowAmountFor returns the preview line for a row id.
func (p *PricingPreview) RowAmountFor(rowID string) (RowAmount, bool) {
	if p == nil {
		return RowAmount{}, false
	}
	for _, ra := range p.Rows {
		if ra.RowID == rowID {
			return ra, true
		}
	}
	return RowAmount{}, false
}

// Price computes the full pricing preview for a row set. Pure and
// deterministic: identical inputs always produce identical output, with no
// clock or random dependency, and the row set is never mutated. The engine
// only invokes it after the same-revision validation pass has completed.
func Price(rows []Row, templates map[int]Template, prefs *ManufacturingPreferences, taxRate float64, cust CustomerContext) PricingPreview {
	preview := PricingPreview{
		Rows:    make([]RowAmount, 0, len(rows)),
		TaxRate: taxRate,
	}

	markup := 0.0
	if prefs != nil {
		markup = prefs.MarkupPercent
	}

	for _, r := range rows {
		ra := RowAmount{RowID: r.ID, Qty: r.Qty()}
		tmpl, ok := templates[r.ProductTypeID]
		if r.ProductTypeID != 0 && ok {
			ra.UnitPrice = services.ApplyMarkup(unitPrice(r, tmpl), markup)
			ra.Extended = services.CalcExtendedAmount(ra.Qty, ra.UnitPrice)
		}
		preview.Rows = append(preview.Rows, ra)
		preview.Subtotal += ra.Extended
	}

	if cust.Rush && prefs != nil {
		preview.Subtotal = services.ApplyMarkup(preview.Subtotal, prefs.RushSurchargePercent)
	}

	totals := services.CalcEstimateTotals(preview.Subtotal, cust.DiscountPercent, taxRate)
	preview.Discount = totals.Discount
	preview.Tax = totals.Tax
	preview.Total = totals.Total
	return preview
}

// unitPrice is the template base price plus the contribution of every
// enabled number field (slot value × per-unit rate from the template).
func unitPrice(r Row, tmpl Template) float64 {
	price := tmpl.BaseUnitPrice
	for _, f := range tmpl.Fields {
		if !f.Enabled || f.Kind != FieldKindNumber || f.UnitPrice == 0 || f.Slot == SlotQty {
			continue
		}
		price += services.CalcExtendedAmount(cast.ToFloat64(r.Data[f.Slot]), f.UnitPrice)
	}
	return price
}
