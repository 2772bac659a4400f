package grid

// Reorder rules: dragging a main row carries the contiguous block of rows
// it owns; dragging a sub row only moves it within its sibling set, so a
// sub-item can never end up orphaned above its parent. Assembly coloring
// is derived from the persisted group token, never stored as a color.

// PaletteSize is the number of assembly colors the UI cycles through.
const PaletteSize = 8

// dragBlock returns the half-open index range [start, end) of the rows
// that move together when the row with the given id is dragged.
func dragBlock(rows []Row, rowID string) (int, int) {
	start := -1
	for i, r := range rows {
		if r.ID == rowID {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end := start + 1
	if rows[start].IsMain() {
		for end < len(rows) && !rows[end].IsMain() {
			end++
		}
	}
	return start, end
}

// MoveRows computes the row order after dragging the block anchored at
// rowID so that the block starts at targetIndex in the resulting slice.
// The input slice is not modified. Returns false when the move is invalid
// (unknown row, no-op position, a main block landing inside another main
// row's sub block, or a sub row leaving its sibling set).
func MoveRows(rows []Row, rowID string, targetIndex int) ([]Row, bool) {
	start, end := dragBlock(rows, rowID)
	if start < 0 {
		return nil, false
	}

	block := append([]Row{}, rows[start:end]...)
	reduced := make([]Row, 0, len(rows)-len(block))
	reduced = append(reduced, rows[:start]...)
	reduced = append(reduced, rows[end:]...)

	if targetIndex < 0 {
		targetIndex = 0
	}
	if targetIndex > len(reduced) {
		targetIndex = len(reduced)
	}
	if targetIndex == start {
		return nil, false
	}

	if block[0].IsMain() {
		// A main block must land on a main-row boundary so it never
		// splits another row's sub block.
		if targetIndex < len(reduced) && !reduced[targetIndex].IsMain() {
			return nil, false
		}
	} else {
		// A sub row may only land directly under its owning main row.
		parent := block[0].ParentProductID
		p := -1
		for i, r := range reduced {
			if r.ID == parent {
				p = i
				break
			}
		}
		if p < 0 {
			return nil, false
		}
		q := p
		for q+1 < len(reduced) && !reduced[q+1].IsMain() {
			q++
		}
		if targetIndex < p+1 || targetIndex > q+1 {
			return nil, false
		}
	}

	out := make([]Row, 0, len(rows))
	out = append(out, reduced[:targetIndex]...)
	out = append(out, block...)
	out = append(out, reduced[targetIndex:]...)
	return out, true
}

// AssemblyPalette derives the palette index for every assembly group token
// present in the rows. Indices are assigned in first-appearance order and
// wrap around the palette, so membership changes recolor deterministically.
func AssemblyPalette(rows []Row) map[string]int {
	palette := map[string]int{}
	next := 0
	for _, r := range rows {
		if r.AssemblyGroup == "" {
			continue
		}
		if _, seen := palette[r.AssemblyGroup]; seen {
			continue
		}
		palette[r.AssemblyGroup] = next % PaletteSize
		next++
	}
	return palette
}
