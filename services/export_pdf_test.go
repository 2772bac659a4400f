package services

import (
	"testing"
)

func TestGenerateQuotePDF_BasicEstimate(t *testing.T) {
	data := &EstimateExportData{
		EstimateName: "Acme Storefront",
		CustomerName: "Acme Corp",
		CreatedDate:  "2026-03-15",
		Rows: []ExportRow{
			{Level: 0, Index: "1", ProductType: "Front Lit Channel Letters", Description: "24in letters, White faces", Qty: 12, UnitPrice: 148, Extended: 1776},
			{Level: 1, Index: "1.a", ProductType: "Raceway", Description: "8ft raceway, painted", Qty: 1, UnitPrice: 250, Extended: 250},
		},
		Subtotal: 2026,
		TaxRate:  0.08,
		Tax:      162.08,
		Total:    2188.08,
	}

	result, err := GenerateQuotePDF(data)
	if err != nil {
		t.Fatalf("GenerateQuotePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateQuotePDF() returned empty bytes")
	}
	// PDF files start with %PDF
	if len(result) > 4 && string(result[:5]) != "%PDF-" {
		t.Errorf("result does not start with PDF header, got %q", string(result[:5]))
	}
}

func TestGenerateQuotePDF_EmptyRows(t *testing.T) {
	data := &EstimateExportData{
		EstimateName: "Empty Estimate",
		CreatedDate:  "2026-03-15",
		Rows:         []ExportRow{},
	}

	result, err := GenerateQuotePDF(data)
	if err != nil {
		t.Fatalf("GenerateQuotePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateQuotePDF() returned empty bytes")
	}
}

func TestGenerateQuotePDF_NoCustomer(t *testing.T) {
	data := &EstimateExportData{
		EstimateName: "Walk In Quote",
		CreatedDate:  "2026-03-15",
		Rows: []ExportRow{
			{Level: 0, Index: "1", ProductType: "Vinyl", Description: "Window lettering", Qty: 1, UnitPrice: 180, Extended: 180},
		},
		Subtotal: 180,
		TaxRate:  0.08,
		Tax:      14.4,
		Total:    194.4,
	}

	result, err := GenerateQuotePDF(data)
	if err != nil {
		t.Fatalf("GenerateQuotePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateQuotePDF() returned empty bytes")
	}
}

func TestGenerateQuotePDF_WithDiscount(t *testing.T) {
	data := &EstimateExportData{
		EstimateName: "Repeat Customer",
		CustomerName: "Blue Sky Signs",
		CreatedDate:  "2026-03-15",
		Rows: []ExportRow{
			{Level: 0, Index: "1", ProductType: "Flat Cut Letters", Description: "Brushed aluminum", Qty: 8, UnitPrice: 95, Extended: 760},
		},
		Subtotal: 760,
		Discount: 76,
		TaxRate:  0.08,
		Tax:      54.72,
		Total:    738.72,
	}

	result, err := GenerateQuotePDF(data)
	if err != nil {
		t.Fatalf("GenerateQuotePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateQuotePDF() returned empty bytes")
	}
}
