package handlers

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase"

	"gridbuilder/grid"
	"gridbuilder/storage"
)

// gridEvaluation is the server-side authoritative run of the validation and
// pricing layers over a submitted row set.
type gridEvaluation struct {
	rows       []grid.Row
	simplified []grid.SimplifiedRow // normalized persistence shape of rows
	numbers    []string
	validation grid.DocumentValidation
	rowResults []grid.RowValidation // aligned with row order
	preview    grid.PricingPreview
	templates  map[int]grid.Template
}

// evaluateGrid hydrates the submitted rows against the template catalog,
// validates everything (no blur gating server side) and prices the result.
// customerID may be empty for a customer-less draft.
func evaluateGrid(ctx context.Context, app *pocketbase.PocketBase, displayName, customerID string, rush bool, simplified []grid.SimplifiedRow) (gridEvaluation, error) {
	registry := grid.NewRegistry(storage.NewTemplates(app))
	if err := registry.Load(ctx); err != nil {
		return gridEvaluation{}, fmt.Errorf("load templates: %w", err)
	}

	store := grid.NewRowStore(registry)
	store.Hydrate(simplified)
	rows := store.Rows()

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	ve := grid.NewValidationEngine(registry)
	ve.SetDisplayName(displayName)
	validation := ve.Revalidate(rows, ids)

	rowResults := make([]grid.RowValidation, len(rows))
	for i, r := range rows {
		rowResults[i] = validation.Rows[r.ID]
	}

	prefs, err := storage.NewPreferences(app).GetPreferences(ctx, customerID)
	if err != nil {
		return gridEvaluation{}, fmt.Errorf("load preferences: %w", err)
	}

	cust := grid.CustomerContext{CustomerID: customerID, Rush: rush}
	var taxRate float64
	if customerID != "" {
		if customer, err := app.FindRecordById("customers", customerID); err == nil {
			taxRate = customer.GetFloat("tax_rate")
			cust.DiscountPercent = customer.GetFloat("discount_percent")
		}
	}

	preview := grid.Price(rows, registry.All(), prefs, taxRate, cust)

	return gridEvaluation{
		rows:       rows,
		simplified: store.ToBulkSimplified(),
		numbers:    grid.DisplayNumbers(rows),
		validation: validation,
		rowResults: rowResults,
		preview:    preview,
		templates:  registry.All(),
	}, nil
}
