package grid

import (
	"reflect"
	"testing"
)

func TestDisplayNumbers(t *testing.T) {
	tests := []struct {
		name   string
		types  []RowType
		expect []string
	}{
		{"single main", []RowType{RowTypeMain}, []string{"1"}},
		{"mains only", []RowType{RowTypeMain, RowTypeMain, RowTypeMain}, []string{"1", "2", "3"}},
		{
			"main with subs",
			[]RowType{RowTypeMain, RowTypeSubItem, RowTypeContinuation, RowTypeMain},
			[]string{"1", "1.a", "1.b", "2"},
		},
		{
			"sub numbering restarts per main",
			[]RowType{RowTypeMain, RowTypeSubItem, RowTypeMain, RowTypeSubItem},
			[]string{"1", "1.a", "2", "2.a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]Row, len(tt.types))
			for i, rt := range tt.types {
				rows[i] = Row{ID: string(rune('a' + i)), Type: rt}
			}
			got := DisplayNumbers(rows)
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("DisplayNumbers = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestSubLetterWrapsPastZ(t *testing.T) {
	tests := []struct {
		n      int
		expect string
	}{
		{0, "a"},
		{1, "b"},
		{25, "z"},
		{26, "aa"},
		{27, "ab"},
	}
	for _, tt := range tests {
		if got := subLetter(tt.n); got != tt.expect {
			t.Errorf("subLetter(%d) = %q, want %q", tt.n, got, tt.expect)
		}
	}
}

func TestRowIndentDerivedFromType(t *testing.T) {
	if (Row{Type: RowTypeMain}).Indent() != 0 {
		t.Error("main row should have indent 0")
	}
	if (Row{Type: RowTypeSubItem}).Indent() != 1 {
		t.Error("sub row should have indent 1")
	}
	if (Row{Type: RowTypeContinuation}).Indent() != 1 {
		t.Error("continuation row should have indent 1")
	}
}

func TestSimplifiedRowFieldAccess(t *testing.T) {
	var sr SimplifiedRow
	sr.SetField(1, "one")
	sr.SetField(10, "ten")
	if sr.Field1 != "one" || sr.Field10 != "ten" {
		t.Errorf("SetField wrote wrong slots: %+v", sr)
	}
	if sr.Field(1) != "one" || sr.Field(10) != "ten" {
		t.Error("Field read wrong slots")
	}
	if sr.Field(11) != "" {
		t.Error("out-of-range slot should read empty")
	}
}
