package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cast"

	"gridbuilder/grid"
	"gridbuilder/services"
	"gridbuilder/storage"
)

// buildEstimateExportData loads an estimate and flattens it into the shape
// the Excel and PDF generators consume. Pricing is recomputed from the
// stored rows so the export never shows a stale total.
func buildEstimateExportData(ctx context.Context, app *pocketbase.PocketBase, estimateID string) (services.EstimateExportData, error) {
	estimate, err := app.FindRecordById("estimates", estimateID)
	if err != nil {
		return services.EstimateExportData{}, fmt.Errorf("estimate not found: %w", err)
	}

	customerName := ""
	if customerID := estimate.GetString("customer"); customerID != "" {
		if customer, err := app.FindRecordById("customers", customerID); err == nil {
			customerName = customer.GetString("name")
		}
	}

	rows, err := storage.NewDocuments(app).LoadDocument(ctx, estimateID)
	if err != nil {
		return services.EstimateExportData{}, fmt.Errorf("loading rows: %w", err)
	}

	eval, err := evaluateGrid(ctx, app, estimate.GetString("display_name"), estimate.GetString("customer"), false, rows)
	if err != nil {
		return services.EstimateExportData{}, fmt.Errorf("evaluating rows: %w", err)
	}

	exportRows := make([]services.ExportRow, 0, len(eval.rows))
	for i, row := range eval.rows {
		amount, _ := eval.preview.RowAmountFor(row.ID)
		exportRows = append(exportRows, services.ExportRow{
			Level:       row.Indent(),
			Index:       eval.numbers[i],
			ProductType: row.ProductTypeName,
			Description: describeRow(row, eval.templates),
			Qty:         row.Qty(),
			UnitPrice:   amount.UnitPrice,
			Extended:    amount.Extended,
		})
	}

	created := estimate.GetDateTime("created").Time()

	return services.EstimateExportData{
		EstimateName: estimate.GetString("display_name"),
		CustomerName: customerName,
		CreatedDate:  created.Format("January 2, 2006"),
		Rows:         exportRows,
		Subtotal:     eval.preview.Subtotal,
		Discount:     eval.preview.Discount,
		TaxRate:      eval.preview.TaxRate,
		Tax:          eval.preview.Tax,
		Total:        eval.preview.Total,
	}, nil
}

// describeRow summarizes a row's filled-in slots as "Label: value" pairs.
// Booleans contribute their label alone when set, nothing when unset.
func describeRow(row grid.Row, templates map[int]grid.Template) string {
	tmpl, ok := templates[row.ProductTypeID]
	if !ok {
		return ""
	}

	var parts []string
	for _, f := range tmpl.Fields {
		if !f.Enabled || f.Slot == grid.SlotQty {
			continue
		}
		raw := row.Data[f.Slot]
		if f.Kind == grid.FieldKindBool {
			if cast.ToBool(raw) {
				parts = append(parts, f.Label)
			}
			continue
		}
		value := strings.TrimSpace(cast.ToString(raw))
		if value == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Label, value))
	}
	return strings.Join(parts, ", ")
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "\\", "-")
	name = strings.ReplaceAll(name, ":", "-")
	return name
}

// HandleEstimateExportExcel streams the estimate as an .xlsx download.
func HandleEstimateExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")

		data, err := buildEstimateExportData(e.Request.Context(), app, estimateID)
		if err != nil {
			return apiErrorLog(e, http.StatusNotFound, "export", "building export data", err)
		}

		buf, err := services.GenerateEstimateExcel(data)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "export", "generating excel", err)
		}

		filename := sanitizeFilename(data.EstimateName) + ".xlsx"
		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, err = e.Response.Write(buf)
		return err
	}
}

// HandleEstimateExportPDF streams the estimate as a customer-facing quote
// PDF download.
func HandleEstimateExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")

		data, err := buildEstimateExportData(e.Request.Context(), app, estimateID)
		if err != nil {
			return apiErrorLog(e, http.StatusNotFound, "export", "building export data", err)
		}

		buf, err := services.GenerateQuotePDF(&data)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "export", "generating pdf", err)
		}

		filename := sanitizeFilename(data.EstimateName) + ".pdf"
		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, err = e.Response.Write(buf)
		return err
	}
}
