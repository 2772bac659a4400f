package grid

import (
	"testing"
)

func TestNewRowStoreStartsWithOneBlankMainRow(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	if s.RowCount() != 1 {
		t.Fatalf("expected 1 row, got %d", s.RowCount())
	}
	rows := s.Rows()
	if !rows[0].IsMain() || rows[0].ProductTypeID != 0 {
		t.Errorf("expected a blank main row, got %+v", rows[0])
	}
	if s.Dirty() {
		t.Error("fresh store must not be dirty")
	}
}

func TestInsertRow(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	first := s.Rows()[0].ID

	id, ok := s.InsertRow(0, RowTypeSubItem)
	if !ok {
		t.Fatal("insert failed")
	}
	rows := s.Rows()
	if len(rows) != 2 || rows[1].ID != id {
		t.Fatalf("expected new row at index 1, got %+v", rows)
	}
	if rows[1].ParentProductID != first {
		t.Errorf("sub row should be owned by preceding main, got %q", rows[1].ParentProductID)
	}
	if !s.Dirty() {
		t.Error("insert should dirty the document")
	}

	if _, ok := s.InsertRow(-1, RowTypeSubItem); ok {
		t.Error("inserting a sub row above the first main row must be refused")
	}
	if _, ok := s.InsertRow(-1, RowTypeMain); !ok {
		t.Error("inserting a main row at the top should succeed")
	}
}

func TestInsertRowClampsDeepNegativeIndex(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	first := s.Rows()[0].ID

	id, ok := s.InsertRow(-5, RowTypeMain)
	if !ok {
		t.Fatal("main insert with a deeply negative index should clamp to the top")
	}
	rows := s.Rows()
	if rows[0].ID != id {
		t.Errorf("new row should sit at index 0, found %q there", rows[0].ID)
	}
	if rows[1].ID != first {
		t.Error("original row should follow the inserted one")
	}

	if _, ok := s.InsertRow(-5, RowTypeSubItem); ok {
		t.Error("sub row above the first main row must be refused for any negative index")
	}
}

func TestInsertRowReadOnlyIsNoOp(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	s.SetReadOnly(true)
	if _, ok := s.InsertRow(0, RowTypeMain); ok {
		t.Error("read-only insert must be a silent no-op")
	}
	if s.RowCount() != 1 || s.Dirty() {
		t.Error("read-only insert must not change state")
	}
}

func TestDeleteMainRowCascadesOwnedSubRows(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	m1 := s.Rows()[0].ID
	m2, _ := s.InsertRow(0, RowTypeMain)
	s.InsertRow(1, RowTypeSubItem)
	s.InsertRow(2, RowTypeSubItem)
	// layout: m1, m2, sub, sub

	if !s.DeleteRow(m2) {
		t.Fatal("delete failed")
	}
	rows := s.Rows()
	if len(rows) != 1 || rows[0].ID != m1 {
		t.Fatalf("expected only m1 to survive, got %d rows", len(rows))
	}
}

func TestDeleteLastRowReplacesWithBlank(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	only := s.Rows()[0].ID
	s.UpdateField(only, SlotQty, 5.0)

	if !s.DeleteRow(only) {
		t.Fatal("delete failed")
	}
	if s.RowCount() != 1 {
		t.Fatalf("document must keep at least one row, got %d", s.RowCount())
	}
	r := s.Rows()[0]
	if r.ID == only || len(r.Data) != 0 || !r.IsMain() {
		t.Errorf("expected a fresh blank main row, got %+v", r)
	}
}

func TestRowCountNeverDropsBelowOne(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	s.InsertRow(0, RowTypeMain)
	s.InsertRow(1, RowTypeSubItem)

	for i := 0; i < 10; i++ {
		rows := s.Rows()
		s.DeleteRow(rows[0].ID)
		if s.RowCount() < 1 {
			t.Fatalf("row count dropped to %d after delete %d", s.RowCount(), i)
		}
	}
}

func TestUpdateFieldIdempotence(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	id := s.Rows()[0].ID

	if !s.UpdateField(id, "field1", 12.0) {
		t.Fatal("first update should signal a change")
	}
	s.TakeChanged()
	s.ClearDirty()

	if s.UpdateField(id, "field1", 12.0) {
		t.Error("updating to the same value must not signal a change")
	}
	if s.Dirty() {
		t.Error("no-op update must not dirty the document")
	}
	if len(s.TakeChanged()) != 0 {
		t.Error("no-op update must not mark the row changed")
	}
}

func TestUpdateFieldNonComparableValue(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	rowID := s.Rows()[0].ID

	if !s.UpdateField(rowID, "field9", []string{"White", "Black"}) {
		t.Fatal("first write should report a change")
	}
	if s.UpdateField(rowID, "field9", []string{"White", "Black"}) {
		t.Error("rewriting an equal slice must be a no-op")
	}
	if !s.UpdateField(rowID, "field9", []string{"White"}) {
		t.Error("a different slice value should report a change")
	}
}

func TestUpdateFieldUnknownRow(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	if s.UpdateField("missing", "field1", 1.0) {
		t.Error("unknown row must be a no-op")
	}
}

func TestSetRowProductTypeAppliesDefaults(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	id := s.Rows()[0].ID

	if !s.SetRowProductType(id, 3, "Front Lit Channel Letters") {
		t.Fatal("set product type failed")
	}
	r, _ := s.RowByID(id)
	if r.ProductTypeID != 3 || r.ProductTypeName != "Front Lit Channel Letters" {
		t.Errorf("product type not applied: %+v", r)
	}
	if r.Data["field2"] != "White" {
		t.Errorf("expected Face Color default, got %v", r.Data["field2"])
	}
}

func TestSetRowProductTypeKeepsUnknownKeys(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	id := s.Rows()[0].ID
	s.UpdateField(id, "legacy_note", "keep me")

	s.SetRowProductType(id, 3, "Front Lit Channel Letters")
	r, _ := s.RowByID(id)
	if r.Data["legacy_note"] != "keep me" {
		t.Error("unknown data keys must be preserved opaquely")
	}
}

func TestSetRowProductTypeSynthesizesBundledSubItems(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	id := s.Rows()[0].ID

	s.SetRowProductType(id, 5, "Push Thru Sign")
	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected bundled sub row, got %d rows", len(rows))
	}
	sub := rows[1]
	if sub.Type != RowTypeSubItem || sub.ParentProductID != id {
		t.Errorf("bundled row misattached: %+v", sub)
	}
	if sub.Data["field1"] != "Raceway" || sub.Qty() != 1 {
		t.Errorf("bundled row data wrong: %+v", sub.Data)
	}
}

func TestSetRowProductTypeUnknownTemplateStillSelects(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	id := s.Rows()[0].ID

	if !s.SetRowProductType(id, 42, "Retired Product") {
		t.Fatal("selection should still apply without a template")
	}
	r, _ := s.RowByID(id)
	if r.ProductTypeID != 42 {
		t.Error("product type id not recorded")
	}
	if s.RowCount() != 1 {
		t.Error("no bundled rows without a template")
	}
}

func TestDuplicateRow(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	id := s.Rows()[0].ID
	s.SetRowProductType(id, 5, "Push Thru Sign") // adds one bundled sub
	s.UpdateField(id, SlotQty, 2.0)

	t.Run("withSubItems clones the block", func(t *testing.T) {
		cloneID, ok := s.DuplicateRow(id, DuplicateWithSubItems)
		if !ok {
			t.Fatal("duplicate failed")
		}
		rows := s.Rows()
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows after block duplicate, got %d", len(rows))
		}
		if rows[2].ID != cloneID {
			t.Errorf("clone should sit immediately after the source block")
		}
		if rows[2].Qty() != 2 || rows[2].ProductTypeID != 5 {
			t.Errorf("clone lost data: %+v", rows[2])
		}
		if rows[3].ParentProductID != cloneID {
			t.Errorf("cloned sub should be owned by the cloned main, got %q", rows[3].ParentProductID)
		}
		if rows[2].ID == rows[0].ID || rows[3].ID == rows[1].ID {
			t.Error("clones must get fresh ids")
		}
	})

	t.Run("clone data is independent", func(t *testing.T) {
		rows := s.Rows()
		cloneID := rows[2].ID
		s.UpdateField(cloneID, SlotQty, 9.0)
		orig, _ := s.RowByID(id)
		if orig.Qty() != 2 {
			t.Error("mutating the clone leaked into the source row")
		}
	})
}

func TestBulkSimplifiedRoundTrip(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	main := s.Rows()[0].ID
	s.SetRowProductType(main, 3, "Front Lit Channel Letters")
	s.UpdateField(main, SlotQty, 4.0)
	s.UpdateField(main, "field1", 18.0)
	s.UpdateField(main, "field3", "UL123456")
	sub, _ := s.InsertRow(0, RowTypeSubItem)
	s.UpdateField(sub, "field1", "extra wiring")

	flat := s.ToBulkSimplified()

	s2 := NewRowStore(loadedRegistry())
	s2.Hydrate(flat)

	if s2.Dirty() {
		t.Error("hydration must not dirty the document")
	}
	rows := s2.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows after round trip, got %d", len(rows))
	}
	m := rows[0]
	if m.ProductTypeID != 3 || m.Qty() != 4 {
		t.Errorf("main row lost identity: %+v", m)
	}
	if m.Data["field1"] != 18.0 {
		t.Errorf("number slot should re-type to float64, got %T %v", m.Data["field1"], m.Data["field1"])
	}
	if m.Data["field2"] != "White" || m.Data["field3"] != "UL123456" {
		t.Errorf("text slots lost: %+v", m.Data)
	}
	if rows[1].ParentProductID != m.ID {
		t.Error("parent resolution must survive the round trip")
	}
	if m.ID == main {
		t.Error("hydration regenerates ids")
	}
}

func TestHydrateEmptyInitializesBlankRow(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	s.Hydrate(nil)
	if s.RowCount() != 1 || !s.Rows()[0].IsMain() {
		t.Error("empty hydration should leave one blank main row")
	}
}

func TestHydratePromotesLeadingSubRow(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	s.Hydrate([]SimplifiedRow{
		{RowType: RowTypeSubItem, Field1: "stray"},
		{RowType: RowTypeMain},
	})
	rows := s.Rows()
	if !rows[0].IsMain() {
		t.Error("a document may not start with an orphaned sub row")
	}
}

func TestParentResolutionAlwaysFindsExistingMain(t *testing.T) {
	s := NewRowStore(loadedRegistry())
	m1 := s.Rows()[0].ID
	s.InsertRow(0, RowTypeSubItem)
	m2, _ := s.InsertRow(1, RowTypeMain)
	s.InsertRow(2, RowTypeContinuation)

	byID := map[string]bool{m1: true, m2: true}
	for _, r := range s.Rows() {
		if r.IsMain() {
			continue
		}
		if !byID[r.ParentProductID] {
			t.Errorf("sub row %s resolves to missing parent %q", r.ID, r.ParentProductID)
		}
	}

	// Deleting a parent must not leave its former subs orphaned.
	s.DeleteRow(m1)
	for _, r := range s.Rows() {
		if !r.IsMain() && r.ParentProductID == m1 {
			t.Error("sub row still references a deleted main row")
		}
	}
}
