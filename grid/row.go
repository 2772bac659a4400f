// Package grid implements the estimation grid engine: the row/document data
// model, template-driven validation, the pricing pipeline, debounced
// autosave and the multi-user edit lock. It is the in-process core behind
// the grid job builder screens; handlers and storage adapters live outside.
package grid

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// RowType classifies a grid row.
type RowType string

const (
	RowTypeMain         RowType = "main"
	RowTypeContinuation RowType = "continuation"
	RowTypeSubItem      RowType = "subItem"
)

// FieldSlotCount is the number of generic field slots persisted per row
// (field1..field10). Templates decide which slots are active and what they
// mean; the engine never hard-codes per-slot behavior.
const FieldSlotCount = 10

// SlotQty is the dedicated quantity slot present on every template.
const SlotQty = "qty"

// SlotName returns the persisted name of generic slot n (1-based).
func SlotName(n int) string {
	return fmt.Sprintf("field%d", n)
}

// Row is the atomic unit of an estimate document. Rows are value types;
// the RowStore owns the canonical ordered slice.
type Row struct {
	ID              string         `json:"id"`
	Type            RowType        `json:"rowType"`
	ProductTypeID   int            `json:"productTypeId"` // 0 means unselected
	ProductTypeName string         `json:"productTypeName"`
	Data            map[string]any `json:"data"`
	ParentProductID string         `json:"parentProductId"` // owning main row id, "" for main rows
	AssemblyGroup   string         `json:"assemblyGroup"`
}

// IsMain reports whether the row is a top-level line item.
func (r Row) IsMain() bool {
	return r.Type == RowTypeMain
}

// Indent is the display depth derived from the row type.
func (r Row) Indent() int {
	if r.Type == RowTypeMain {
		return 0
	}
	return 1
}

// Qty returns the row's quantity slot coerced to a float.
func (r Row) Qty() float64 {
	return cast.ToFloat64(r.Data[SlotQty])
}

// EditMode gates whether the document accepts mutations.
type EditMode string

const (
	EditModeNormal   EditMode = "normal"
	EditModeReadonly EditMode = "readonly"
)

// DocumentState is a read-only snapshot of one open estimate document.
type DocumentState struct {
	Rows       []Row
	Numbers    []string // display numbers aligned with Rows (1, 1.a, 2, ...)
	Dirty      bool
	LastSaved  time.Time
	EditMode   EditMode
	Validation DocumentValidation
	Preview    *PricingPreview
}

// SimplifiedRow is the flattened persistence shape: row type, product type,
// qty and up to ten generic field slots, all slot values stringified.
type SimplifiedRow struct {
	RowType         RowType `json:"rowType"`
	ProductTypeID   int     `json:"productTypeId"`
	ProductTypeName string  `json:"productTypeName"`
	AssemblyGroup   string  `json:"assemblyGroup,omitempty"`
	Qty             float64 `json:"qty"`
	Field1          string  `json:"field1"`
	Field2          string  `json:"field2"`
	Field3          string  `json:"field3"`
	Field4          string  `json:"field4"`
	Field5          string  `json:"field5"`
	Field6          string  `json:"field6"`
	Field7          string  `json:"field7"`
	Field8          string  `json:"field8"`
	Field9          string  `json:"field9"`
	Field10         string  `json:"field10"`
}

// Field returns the value of generic slot n (1-based).
func (s SimplifiedRow) Field(n int) string {
	switch n {
	case 1:
		return s.Field1
	case 2:
		return s.Field2
	case 3:
		return s.Field3
	case 4:
		return s.Field4
	case 5:
		return s.Field5
	case 6:
		return s.Field6
	case 7:
		return s.Field7
	case 8:
		return s.Field8
	case 9:
		return s.Field9
	case 10:
		return s.Field10
	}
	return ""
}

// SetField sets the value of generic slot n (1-based).
func (s *SimplifiedRow) SetField(n int, v string) {
	switch n {
	case 1:
		s.Field1 = v
	case 2:
		s.Field2 = v
	case 3:
		s.Field3 = v
	case 4:
		s.Field4 = v
	case 5:
		s.Field5 = v
	case 6:
		s.Field6 = v
	case 7:
		s.Field7 = v
	case 8:
		s.Field8 = v
	case 9:
		s.Field9 = v
	case 10:
		s.Field10 = v
	}
}

// DisplayNumbers computes the derived display numbering for an ordered row
// slice: main rows get sequential integers, owned sub rows get
// "<mainNumber>.<letter>" (1.a, 1.b, ...). Never stored, recomputed on
// every structural change.
func DisplayNumbers(rows []Row) []string {
	numbers := make([]string, len(rows))
	mainNo := 0
	subNo := 0
	for i, r := range rows {
		if r.IsMain() {
			mainNo++
			subNo = 0
			numbers[i] = fmt.Sprintf("%d", mainNo)
			continue
		}
		numbers[i] = fmt.Sprintf("%d.%s", mainNo, subLetter(subNo))
		subNo++
	}
	return numbers
}

// subLetter maps 0 -> "a", 25 -> "z", 26 -> "aa" and so on.
func subLetter(n int) string {
	s := ""
	for {
		s = string(rune('a'+n%26)) + s
		n = n/26 - 1
		if n < 0 {
			return s
		}
	}
}
