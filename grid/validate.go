package grid

import (
	"fmt"
	"log"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
)

// FieldErrors maps a field slot to its violation messages.
type FieldErrors map[string][]string

// RowValidation is the outcome of validating one row against its template.
type RowValidation struct {
	Errors FieldErrors `json:"errors,omitempty"`
	// TemplateMissing marks a row whose product type has no loaded
	// template yet. The row is re-evaluated once templates finish
	// loading; the state is never silently dropped.
	TemplateMissing bool `json:"templateMissing,omitempty"`
	Valid           bool `json:"valid"`
}

// DocumentValidation aggregates row results plus the document-level
// required display name.
type DocumentValidation struct {
	Rows       map[string]RowValidation `json:"rows"`
	NameError  string                   `json:"nameError,omitempty"`
	ErrorCount int                      `json:"errorCount"`
	HasErrors  bool                     `json:"hasErrors"`
}

// ValidationEngine computes field-level and row-level errors from the
// template rules. Validity is always computed unconditionally; the
// blur-gating of error display is tracked separately as a touched set so
// an untouched field never shows its error.
type ValidationEngine struct {
	registry *Registry

	results     map[string]RowValidation
	touched     map[string]map[string]bool // rowID -> slot -> blurred at least once
	displayName string
}

// NewValidationEngine creates an engine resolving templates from the
// registry.
func NewValidationEngine(registry *Registry) *ValidationEngine {
	return &ValidationEngine{
		registry: registry,
		results:  map[string]RowValidation{},
		touched:  map[string]map[string]bool{},
	}
}

// SetDisplayName records the document display name checked by the
// document-level required rule.
func (v *ValidationEngine) SetDisplayName(name string) {
	v.displayName = name
}

// Touch records that a field has been blurred at least once. Display
// gating only; validity is unaffected.
func (v *ValidationEngine) Touch(rowID, slot string) {
	if v.touched[rowID] == nil {
		v.touched[rowID] = map[string]bool{}
	}
	v.touched[rowID][slot] = true
}

// Touched reports whether a field has been blurred at least once.
func (v *ValidationEngine) Touched(rowID, slot string) bool {
	return v.touched[rowID][slot]
}

// VisibleErrors filters a row's errors down to the fields the user has
// actually blurred.
func (v *ValidationEngine) VisibleErrors(rowID string) FieldErrors {
	rv, ok := v.results[rowID]
	if !ok {
		return nil
	}
	visible := FieldErrors{}
	for slot, msgs := range rv.Errors {
		if v.Touched(rowID, slot) {
			visible[slot] = msgs
		}
	}
	if len(visible) == 0 {
		return nil
	}
	return visible
}

// ValidateRow evaluates a single row against its resolved template. Rows
// without a product type are trivially valid; rows whose template is not
// loaded are flagged TemplateMissing. Rule failures are recovered into
// messages, never returned as errors.
func (v *ValidationEngine) ValidateRow(row Row) RowValidation {
	if row.ProductTypeID == 0 {
		return RowValidation{Valid: true}
	}
	tmpl, ok := v.registry.Get(row.ProductTypeID)
	if !ok {
		return RowValidation{TemplateMissing: true}
	}

	errs := FieldErrors{}
	for _, f := range tmpl.Fields {
		if !f.Enabled {
			continue
		}
		for _, msg := range validateField(f, row.Data[f.Slot]) {
			errs[f.Slot] = append(errs[f.Slot], msg)
		}
	}
	if len(errs) == 0 {
		return RowValidation{Valid: true}
	}
	return RowValidation{Errors: errs}
}

// validateField runs the required / range / pattern rules for one field
// prompt, in increasing specificity.
func validateField(f FieldPrompt, value any) []string {
	var msgs []string

	if f.Required {
		rule := validation.Required.Error(fmt.Sprintf("%s is required", f.Label))
		if err := validation.Validate(normalize(f, value), rule); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if value == nil || cast.ToString(value) == "" {
		return msgs
	}

	switch f.Kind {
	case FieldKindNumber:
		n, err := cast.ToFloat64E(value)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%s must be a number", f.Label))
			break
		}
		var rules []validation.Rule
		if f.Min != nil {
			rules = append(rules, validation.Min(*f.Min).
				Error(fmt.Sprintf("%s must be at least %v", f.Label, *f.Min)))
		}
		if f.Max != nil {
			rules = append(rules, validation.Max(*f.Max).
				Error(fmt.Sprintf("%s must be at most %v", f.Label, *f.Max)))
		}
		if err := validation.Validate(n, rules...); err != nil {
			msgs = append(msgs, err.Error())
		}
	case FieldKindText:
		if f.Pattern == "" {
			break
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			log.Printf("validate: template pattern for %s does not compile: %v", f.Slot, err)
			break
		}
		rule := validation.Match(re).
			Error(fmt.Sprintf("%s has an invalid format", f.Label))
		if err := validation.Validate(cast.ToString(value), rule); err != nil {
			msgs = append(msgs, err.Error())
		}
	case FieldKindSelect:
		if len(f.Options) == 0 {
			break
		}
		s := cast.ToString(value)
		found := false
		for _, opt := range f.Options {
			if opt == s {
				found = true
				break
			}
		}
		if !found {
			msgs = append(msgs, fmt.Sprintf("%s has an invalid format", f.Label))
		}
	}
	return msgs
}

// normalize maps a field value to something ozzo's Required rule treats
// correctly: numeric zero counts as empty for number fields (a qty of 0 is
// no qty), and whitespace-only text counts as empty.
func normalize(f FieldPrompt, value any) any {
	if value == nil {
		return nil
	}
	switch f.Kind {
	case FieldKindNumber:
		n, err := cast.ToFloat64E(value)
		if err != nil {
			// Uncastable but non-empty input is present, not missing; the
			// number rules report the format problem.
			return cast.ToString(value)
		}
		return n
	case FieldKindBool:
		return value
	default:
		return cast.ToString(value)
	}
}

// Revalidate re-evaluates the rows whose ids are in changedIDs, drops
// results for rows no longer present, and recomputes the document
// aggregate in full so the error count stays authoritative even though
// per-row work is incremental.
func (v *ValidationEngine) Revalidate(rows []Row, changedIDs []string) DocumentValidation {
	changed := map[string]bool{}
	for _, id := range changedIDs {
		changed[id] = true
	}

	next := make(map[string]RowValidation, len(rows))
	for _, r := range rows {
		if prev, ok := v.results[r.ID]; ok && !changed[r.ID] && !prev.TemplateMissing {
			next[r.ID] = prev
			continue
		}
		next[r.ID] = v.ValidateRow(r)
	}
	v.results = next
	v.pruneTouched(rows)

	return v.aggregate()
}

// aggregate recomputes the document-level union over all current rows.
func (v *ValidationEngine) aggregate() DocumentValidation {
	doc := DocumentValidation{Rows: v.results}
	for _, rv := range v.results {
		for _, msgs := range rv.Errors {
			doc.ErrorCount += len(msgs)
		}
		if rv.TemplateMissing {
			doc.ErrorCount++
		}
	}
	if v.displayName == "" {
		doc.NameError = "Estimate name is required"
		doc.ErrorCount++
	}
	doc.HasErrors = doc.ErrorCount > 0
	return doc
}

func (v *ValidationEngine) pruneTouched(rows []Row) {
	alive := map[string]bool{}
	for _, r := range rows {
		alive[r.ID] = true
	}
	for id := range v.touched {
		if !alive[id] {
			delete(v.touched, id)
		}
	}
}

// sortedSlots returns a row's error slots in stable order, for display and
// deterministic tests.
func (e FieldErrors) sortedSlots() []string {
	slots := make([]string, 0, len(e))
	for s := range e {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	return slots
}

// Messages flattens the error map into a stable-ordered message list.
func (e FieldErrors) Messages() []string {
	var out []string
	for _, slot := range e.sortedSlots() {
		out = append(out, e[slot]...)
	}
	return out
}
