package services

// ExportRow represents a single grid row in an estimate export (main or
// sub/continuation item).
type ExportRow struct {
	Level       int    // 0 = main row, 1 = sub/continuation row
	Index       string // "1", "1.a", "2" etc
	ProductType string
	Description string
	Qty         float64
	UnitPrice   float64
	Extended    float64
}

// EstimateExportData holds everything the Excel and PDF generators need.
type EstimateExportData struct {
	EstimateName string
	CustomerName string
	CreatedDate  string
	Rows         []ExportRow
	Subtotal     float64
	Discount     float64
	TaxRate      float64 // decimal fraction
	Tax          float64
	Total        float64
}
