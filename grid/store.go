package grid

import (
	"log"
	"reflect"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/tiendc/go-deepcopy"
)

// DuplicateMode selects how much of a main row DuplicateRow clones.
type DuplicateMode string

const (
	DuplicateSingle       DuplicateMode = "single"
	DuplicateWithSubItems DuplicateMode = "withSubItems"
)

// RowStore owns the ordered row collection of one estimate document. All
// mutations are total: an operation against a read-only document, an
// unknown row id or an invalid position is a no-op that returns false,
// never an error. The store is not safe for concurrent use; the Engine
// serializes access.
type RowStore struct {
	registry *Registry

	rows     []Row
	readOnly bool
	dirty    bool

	// row ids touched since the last TakeChanged, consumed by the
	// incremental validation pass
	changed map[string]struct{}
}

// NewRowStore creates a store holding a single blank main row. The dirty
// flag starts false so opening a fresh estimate never triggers a save.
func NewRowStore(registry *Registry) *RowStore {
	s := &RowStore{
		registry: registry,
		changed:  map[string]struct{}{},
	}
	s.rows = []Row{s.newRow(RowTypeMain)}
	return s
}

func (s *RowStore) newRow(t RowType) Row {
	return Row{
		ID:   uuid.NewString(),
		Type: t,
		Data: map[string]any{},
	}
}

// Rows returns a deep copy of the current row slice. Callers may hold the
// copy across later mutations.
func (s *RowStore) Rows() []Row {
	var out []Row
	if err := deepcopy.Copy(&out, s.rows); err != nil {
		log.Printf("rowstore: snapshot copy failed: %v", err)
		return nil
	}
	return out
}

// RowCount returns the number of rows; always >= 1.
func (s *RowStore) RowCount() int {
	return len(s.rows)
}

// RowByID returns a copy of the row with the given id.
func (s *RowStore) RowByID(rowID string) (Row, bool) {
	i := s.indexOf(rowID)
	if i < 0 {
		return Row{}, false
	}
	var out Row
	if err := deepcopy.Copy(&out, s.rows[i]); err != nil {
		return Row{}, false
	}
	return out, true
}

func (s *RowStore) indexOf(rowID string) int {
	for i, r := range s.rows {
		if r.ID == rowID {
			return i
		}
	}
	return -1
}

// ReadOnly reports whether mutations are currently rejected.
func (s *RowStore) ReadOnly() bool {
	return s.readOnly
}

// SetReadOnly toggles mutation acceptance. Used by the edit lock manager
// when the lock is refused or lost.
func (s *RowStore) SetReadOnly(readOnly bool) {
	s.readOnly = readOnly
}

// Dirty reports whether the document has unsaved user changes.
func (s *RowStore) Dirty() bool {
	return s.dirty
}

// ClearDirty resets the dirty flag after a successful save.
func (s *RowStore) ClearDirty() {
	s.dirty = false
}

// TakeChanged returns the ids of rows mutated since the previous call and
// resets the set.
func (s *RowStore) TakeChanged() []string {
	ids := make([]string, 0, len(s.changed))
	for id := range s.changed {
		ids = append(ids, id)
	}
	s.changed = map[string]struct{}{}
	return ids
}

func (s *RowStore) markChanged(rowIDs ...string) {
	s.dirty = true
	for _, id := range rowIDs {
		s.changed[id] = struct{}{}
	}
}

// markAllChanged flags every row for revalidation after a structural
// change (insert, delete, reorder) where ownership may have shifted.
func (s *RowStore) markAllChanged() {
	s.dirty = true
	for _, r := range s.rows {
		s.changed[r.ID] = struct{}{}
	}
}

// ── Mutations ────────────────────────────────────────────────────────────

// InsertRow appends a new empty row after the given index and returns its
// id. A negative afterIndex inserts at the top, which is only permitted
// for main rows (no row may sit above the first main row).
func (s *RowStore) InsertRow(afterIndex int, rowType RowType) (string, bool) {
	if s.readOnly {
		return "", false
	}
	if afterIndex >= len(s.rows) {
		afterIndex = len(s.rows) - 1
	}
	if afterIndex < 0 {
		if rowType != RowTypeMain {
			return "", false
		}
		afterIndex = -1
	}
	row := s.newRow(rowType)
	pos := afterIndex + 1
	s.rows = append(s.rows[:pos], append([]Row{row}, s.rows[pos:]...)...)
	s.relink()
	s.markAllChanged()
	return row.ID, true
}

// DeleteRow removes a row. Deleting a main row also removes the
// continuation and sub-item rows it owns. The last remaining row of a
// document is never deleted outright; it is replaced by a blank main row
// so the document always has at least one row.
func (s *RowStore) DeleteRow(rowID string) bool {
	if s.readOnly {
		return false
	}
	start := s.indexOf(rowID)
	if start < 0 {
		return false
	}
	end := start + 1
	if s.rows[start].IsMain() {
		for end < len(s.rows) && !s.rows[end].IsMain() {
			end++
		}
	}
	s.rows = append(s.rows[:start], s.rows[end:]...)
	if len(s.rows) == 0 {
		s.rows = []Row{s.newRow(RowTypeMain)}
	}
	s.relink()
	s.markAllChanged()
	return true
}

// UpdateField sets a single field slot value. Setting a field to the value
// it already holds is a no-op and emits no change signal, so repeated
// blur commits of an unchanged input never wake the pipeline.
func (s *RowStore) UpdateField(rowID, field string, value any) bool {
	if s.readOnly {
		return false
	}
	i := s.indexOf(rowID)
	if i < 0 {
		return false
	}
	if existing, ok := s.rows[i].Data[field]; ok && reflect.DeepEqual(existing, value) {
		return false
	}
	s.rows[i].Data[field] = value
	s.markChanged(rowID)
	return true
}

// SetRowProductType selects a product type for a row and reconciles its
// data against the resolved template: defaults are applied to empty
// enabled slots, values for slots the new template does not declare are
// left in place (validation ignores them). If the template bundles
// sub-items and the row is a main row, the bundled rows are synthesized
// directly after it.
func (s *RowStore) SetRowProductType(rowID string, productTypeID int, productTypeName string) bool {
	if s.readOnly {
		return false
	}
	i := s.indexOf(rowID)
	if i < 0 {
		return false
	}
	s.rows[i].ProductTypeID = productTypeID
	s.rows[i].ProductTypeName = productTypeName

	tmpl, ok := s.registry.Get(productTypeID)
	if !ok {
		// Template not loaded yet; validation reports the row unavailable
		// and the defaults are applied once templates arrive.
		s.markChanged(rowID)
		return true
	}

	for _, f := range tmpl.Fields {
		if !f.Enabled || f.Default == nil {
			continue
		}
		if cur, exists := s.rows[i].Data[f.Slot]; !exists || cast.ToString(cur) == "" {
			s.rows[i].Data[f.Slot] = f.Default
		}
	}

	if s.rows[i].IsMain() && len(tmpl.BundledSubItems) > 0 {
		bundle := make([]Row, 0, len(tmpl.BundledSubItems))
		for _, b := range tmpl.BundledSubItems {
			sub := s.newRow(RowTypeSubItem)
			sub.ParentProductID = rowID
			sub.Data[SlotName(1)] = b.Description
			sub.Data[SlotQty] = b.Qty
			bundle = append(bundle, sub)
		}
		pos := i + 1
		s.rows = append(s.rows[:pos], append(bundle, s.rows[pos:]...)...)
		s.relink()
		s.markAllChanged()
		return true
	}

	s.markChanged(rowID)
	return true
}

// DuplicateRow clones a row with fresh ids, inserted immediately after the
// source. DuplicateWithSubItems also clones the contiguous sub rows a main
// row owns.
func (s *RowStore) DuplicateRow(rowID string, mode DuplicateMode) (string, bool) {
	if s.readOnly {
		return "", false
	}
	start := s.indexOf(rowID)
	if start < 0 {
		return "", false
	}
	end := start + 1
	if mode == DuplicateWithSubItems && s.rows[start].IsMain() {
		for end < len(s.rows) && !s.rows[end].IsMain() {
			end++
		}
	}

	var clones []Row
	if err := deepcopy.Copy(&clones, s.rows[start:end]); err != nil {
		log.Printf("rowstore: duplicate copy failed: %v", err)
		return "", false
	}
	for i := range clones {
		clones[i].ID = uuid.NewString()
	}

	s.rows = append(s.rows[:end], append(clones, s.rows[end:]...)...)
	s.relink()
	s.markAllChanged()
	return clones[0].ID, true
}

// Reorder moves the drag block anchored at rowID to the target index as a
// single atomic transition. Grouping rules live in reorder.go.
func (s *RowStore) Reorder(rowID string, targetIndex int) bool {
	if s.readOnly {
		return false
	}
	moved, ok := MoveRows(s.rows, rowID, targetIndex)
	if !ok {
		return false
	}
	s.rows = moved
	s.relink()
	s.markAllChanged()
	return true
}

// relink recomputes the derived parent back-references: every non-main row
// is owned by the nearest preceding main row. A document must never start
// with an orphaned sub row; if it does, the first row is promoted to main.
func (s *RowStore) relink() {
	if len(s.rows) > 0 && !s.rows[0].IsMain() {
		s.rows[0].Type = RowTypeMain
		s.rows[0].ParentProductID = ""
	}
	parent := ""
	for i := range s.rows {
		if s.rows[i].IsMain() {
			parent = s.rows[i].ID
			s.rows[i].ParentProductID = ""
			continue
		}
		s.rows[i].ParentProductID = parent
	}
}

// ── Persistence projection & hydration ───────────────────────────────────

// ToBulkSimplified projects the rows into the flattened persistence shape.
// Pure: never mutates the store. Unknown data keys are not projected; only
// the qty slot and the ten generic slots survive the trip.
func (s *RowStore) ToBulkSimplified() []SimplifiedRow {
	out := make([]SimplifiedRow, len(s.rows))
	for i, r := range s.rows {
		sr := SimplifiedRow{
			RowType:         r.Type,
			ProductTypeID:   r.ProductTypeID,
			ProductTypeName: r.ProductTypeName,
			AssemblyGroup:   r.AssemblyGroup,
			Qty:             r.Qty(),
		}
		for n := 1; n <= FieldSlotCount; n++ {
			if v, ok := r.Data[SlotName(n)]; ok {
				sr.SetField(n, cast.ToString(v))
			}
		}
		out[i] = sr
	}
	return out
}

// Hydrate replaces the document contents with rows loaded from
// persistence. Hydration never marks the document dirty, so opening an
// estimate does not schedule a phantom save. Field values are re-typed
// from their stored strings using the template's declared field kind.
func (s *RowStore) Hydrate(simplified []SimplifiedRow) {
	if len(simplified) == 0 {
		s.rows = []Row{s.newRow(RowTypeMain)}
		s.dirty = false
		s.changed = map[string]struct{}{}
		s.relink()
		return
	}
	rows := make([]Row, 0, len(simplified))
	for _, sr := range simplified {
		r := s.newRow(sr.RowType)
		r.ProductTypeID = sr.ProductTypeID
		r.ProductTypeName = sr.ProductTypeName
		r.AssemblyGroup = sr.AssemblyGroup
		if sr.Qty != 0 {
			r.Data[SlotQty] = sr.Qty
		}
		tmpl, hasTmpl := s.registry.Get(sr.ProductTypeID)
		for n := 1; n <= FieldSlotCount; n++ {
			raw := sr.Field(n)
			if raw == "" {
				continue
			}
			r.Data[SlotName(n)] = retype(raw, tmpl, hasTmpl, SlotName(n))
		}
		rows = append(rows, r)
	}
	s.rows = rows
	s.dirty = false
	s.changed = map[string]struct{}{}
	s.relink()
}

// retype converts a stored string back to the type the template declares
// for the slot. Without a template the raw string is kept.
func retype(raw string, tmpl Template, hasTmpl bool, slot string) any {
	if !hasTmpl {
		return raw
	}
	f, ok := tmpl.FieldBySlot(slot)
	if !ok {
		return raw
	}
	switch f.Kind {
	case FieldKindNumber:
		n, err := cast.ToFloat64E(raw)
		if err != nil {
			// keep the raw string so validation reports the format problem
			return raw
		}
		return n
	case FieldKindBool:
		return cast.ToBool(raw)
	default:
		return raw
	}
}
