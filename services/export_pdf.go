package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateQuotePDF creates a customer-facing quote PDF for an estimate using
// maroto/v2. It returns the raw PDF bytes or an error.
func GenerateQuotePDF(data *EstimateExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.Letter).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addQuoteHeader(m, data)
	addQuoteCustomerBlock(m, data)
	addQuoteLineTable(m, data)
	addQuoteTotals(m, data)
	addQuoteFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quote PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addQuoteHeader adds the estimate name, "QUOTE" title, and date.
func addQuoteHeader(m core.Maroto, data *EstimateExportData) {
	// Row 1: Estimate name (left) + QUOTE title (right)
	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(
				text.New(data.EstimateName, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
			col.New(5).Add(
				text.New("QUOTE", props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: &props.Color{Red: 33, Green: 37, Blue: 41},
				}),
			),
		),
	)

	// Row 2: Date (right)
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  10,
					Align: align.Right,
					Color: &props.Color{Red: 100, Green: 100, Blue: 100},
				}),
			),
		),
	)

	m.AddRows(row.New(3))
}

// addQuoteCustomerBlock adds the customer block if a customer is attached.
func addQuoteCustomerBlock(m core.Maroto, data *EstimateExportData) {
	if data.CustomerName == "" {
		return
	}

	sectionLabel := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 100, Green: 100, Blue: 100},
	}

	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(text.New("PREPARED FOR", sectionLabel)),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New(data.CustomerName, props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
		),
	)

	m.AddRows(row.New(3))
}

// addQuoteLineTable adds the line items table with header and body rows.
func addQuoteLineTable(m core.Maroto, data *EstimateExportData) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left
	headerCell := props.Cell{BackgroundColor: headerBg}

	// Table header
	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("#", headerText)).WithStyle(&headerCell),
			col.New(3).Add(text.New("Product", headerTextLeft)).WithStyle(&headerCell),
			col.New(4).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Unit Price", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Amount", headerText)).WithStyle(&headerCell),
		),
	)

	// Table body with alternating backgrounds
	altBg := &props.Color{Red: 248, Green: 249, Blue: 250}

	for i, item := range data.Rows {
		bodyText := props.Text{Size: 7, Align: align.Center}
		bodyTextLeft := props.Text{Size: 7, Align: align.Left}
		bodyTextRight := props.Text{Size: 7, Align: align.Right}
		if item.Level == 0 {
			bodyTextLeft.Style = fontstyle.Bold
		} else {
			bodyTextLeft.Left = 3
		}

		var cellStyle *props.Cell
		if i%2 == 1 {
			cellStyle = &props.Cell{BackgroundColor: altBg}
		}

		colIndex := col.New(1).Add(text.New(item.Index, bodyText))
		colProduct := col.New(3).Add(text.New(item.ProductType, bodyTextLeft))
		colDesc := col.New(4).Add(text.New(item.Description, bodyTextLeft))
		colQty := col.New(1).Add(text.New(fmt.Sprintf("%g", item.Qty), bodyTextRight))
		colUnit := col.New(1).Add(text.New(FormatUSD(item.UnitPrice), bodyTextRight))
		colAmount := col.New(2).Add(text.New(FormatUSD(item.Extended), bodyTextRight))

		if cellStyle != nil {
			colIndex = colIndex.WithStyle(cellStyle)
			colProduct = colProduct.WithStyle(cellStyle)
			colDesc = colDesc.WithStyle(cellStyle)
			colQty = colQty.WithStyle(cellStyle)
			colUnit = colUnit.WithStyle(cellStyle)
			colAmount = colAmount.WithStyle(cellStyle)
		}

		m.AddRows(
			row.New(7).Add(colIndex, colProduct, colDesc, colQty, colUnit, colAmount),
		)
	}

	m.AddRows(row.New(2))
}

// addQuoteTotals adds right-aligned total rows.
func addQuoteTotals(m core.Maroto, data *EstimateExportData) {
	summaryBg := &props.Color{Red: 245, Green: 245, Blue: 245}
	summaryCell := &props.Cell{BackgroundColor: summaryBg}

	labelStyle := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := props.Text{
		Size:  8,
		Align: align.Right,
	}

	// Subtotal
	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New("Subtotal", labelStyle)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatUSD(data.Subtotal), valueStyle)).WithStyle(summaryCell),
		),
	)

	// Discount (only when applied)
	if data.Discount != 0 {
		m.AddRows(
			row.New(7).Add(
				col.New(9).Add(text.New("Discount", labelStyle)).WithStyle(summaryCell),
				col.New(3).Add(text.New("-"+FormatUSD(data.Discount), valueStyle)).WithStyle(summaryCell),
			),
		)
	}

	// Tax
	taxLabel := fmt.Sprintf("Tax %.2f%%", data.TaxRate*100)
	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New(taxLabel, labelStyle)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatUSD(data.Tax), valueStyle)).WithStyle(summaryCell),
		),
	)

	// Total
	grandBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	grandCell := &props.Cell{BackgroundColor: grandBg}
	grandLabelStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	grandValueStyle := grandLabelStyle

	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(text.New("Total", grandLabelStyle)).WithStyle(grandCell),
			col.New(3).Add(text.New(FormatUSD(data.Total), grandValueStyle)).WithStyle(grandCell),
		),
	)

	m.AddRows(row.New(3))
}

// addQuoteFooter adds the validity note at the bottom.
func addQuoteFooter(m core.Maroto) {
	m.AddRows(row.New(6))

	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New("Quote valid for 30 days from the date above.", props.Text{
					Size:  7,
					Align: align.Left,
					Color: &props.Color{Red: 100, Green: 100, Blue: 100},
				}),
			),
		),
	)
}
