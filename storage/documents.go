package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
)

// Documents persists the flattened grid rows of an estimate. It implements
// grid.DocumentStore.
type Documents struct {
	app *pocketbase.PocketBase
}

func NewDocuments(app *pocketbase.PocketBase) *Documents {
	return &Documents{app: app}
}

// LoadDocument returns the estimate's rows in sort order. An estimate with
// no saved rows yet returns an empty slice, not an error.
func (s *Documents) LoadDocument(ctx context.Context, estimateID string) ([]grid.SimplifiedRow, error) {
	if _, err := s.app.FindRecordById("estimates", estimateID); err != nil {
		return nil, fmt.Errorf("storage: estimate %s not found: %w", estimateID, err)
	}

	records, err := s.app.FindRecordsByFilter(
		"estimate_rows",
		"estimate = {:estimate}",
		"sort_order",
		0,
		0,
		dbx.Params{"estimate": estimateID},
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load rows for estimate %s: %w", estimateID, err)
	}

	rows := make([]grid.SimplifiedRow, 0, len(records))
	for _, r := range records {
		row := grid.SimplifiedRow{
			RowType:         grid.RowType(r.GetString("row_type")),
			ProductTypeID:   int(r.GetFloat("product_type_id")),
			ProductTypeName: r.GetString("product_type_name"),
			AssemblyGroup:   r.GetString("assembly_group"),
			Qty:             r.GetFloat("qty"),
		}
		for i := 1; i <= grid.FieldSlotCount; i++ {
			row.SetField(i, r.GetString(fmt.Sprintf("field%d", i)))
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// SaveDocument replaces the estimate's rows and updates its total and
// last_saved stamp in a single transaction. Replacement is
// delete-and-reinsert so sort_order always matches slice order.
func (s *Documents) SaveDocument(ctx context.Context, estimateID string, rows []grid.SimplifiedRow, total float64) error {
	estimate, err := s.app.FindRecordById("estimates", estimateID)
	if err != nil {
		return fmt.Errorf("storage: estimate %s not found: %w", estimateID, err)
	}

	rowsCol, err := s.app.FindCollectionByNameOrId("estimate_rows")
	if err != nil {
		return fmt.Errorf("storage: find estimate_rows collection: %w", err)
	}

	return s.app.RunInTransaction(func(txApp core.App) error {
		existing, err := txApp.FindRecordsByFilter(
			"estimate_rows",
			"estimate = {:estimate}",
			"",
			0,
			0,
			dbx.Params{"estimate": estimateID},
		)
		if err != nil {
			return fmt.Errorf("storage: query existing rows: %w", err)
		}
		for _, r := range existing {
			if err := txApp.Delete(r); err != nil {
				return fmt.Errorf("storage: delete row %s: %w", r.Id, err)
			}
		}

		for i, row := range rows {
			r := core.NewRecord(rowsCol)
			r.Set("estimate", estimateID)
			r.Set("sort_order", i+1)
			r.Set("row_type", string(row.RowType))
			r.Set("product_type_id", row.ProductTypeID)
			r.Set("product_type_name", row.ProductTypeName)
			r.Set("assembly_group", row.AssemblyGroup)
			r.Set("qty", row.Qty)
			for n := 1; n <= grid.FieldSlotCount; n++ {
				r.Set(fmt.Sprintf("field%d", n), row.Field(n))
			}
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("storage: save row %d: %w", i+1, err)
			}
		}

		estimate.Set("total", total)
		estimate.Set("last_saved", time.Now().UTC())
		if err := txApp.Save(estimate); err != nil {
			return fmt.Errorf("storage: update estimate %s: %w", estimateID, err)
		}

		return nil
	})
}
