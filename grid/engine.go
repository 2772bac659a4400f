package grid

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tiendc/go-deepcopy"
)

// EventType identifies a completed engine transition.
type EventType string

const (
	EventRowsChanged EventType = "rowsChanged"
	EventValidated   EventType = "validated"
	EventPriced      EventType = "priced"
	EventSaved       EventType = "saved"
	EventSaveFailed  EventType = "saveFailed"
	EventLockLost    EventType = "lockLost"
	EventReadOnly    EventType = "readOnly"
)

// Event is emitted to subscribers after each completed transition; the
// revision ties validated/priced/saved events to the row state they
// describe.
type Event struct {
	Type     EventType
	Revision int64
}

// EngineConfig wires one engine instance to its document and external
// collaborators.
type EngineConfig struct {
	EstimateID  string
	CustomerID  string
	UserID      string
	DisplayName string
	TaxRate     float64 // decimal fraction

	Templates   TemplateSource
	Preferences PreferenceSource
	Documents   DocumentStore
	Locks       LockService

	Debounce          time.Duration
	HeartbeatInterval time.Duration
}

// Engine is the per-document coordination point. Every mutation runs the
// strict pipeline under one mutex: row mutation, incremental validation,
// pricing, autosave scheduling — fully serialized, so pricing never runs
// against a row set that skipped validation in the same cycle and a save
// always reflects a completed validation+pricing pass.
//
// Concurrent documents are independent: one Engine per open estimate,
// no shared mutable state between instances.
type Engine struct {
	cfg      EngineConfig
	registry *Registry
	prefSrc  PreferenceSource
	docs     DocumentStore

	mu         sync.Mutex
	store      *RowStore
	validator  *ValidationEngine
	lock       *EditLockManager
	autosave   *AutoSavePipeline
	prefs      *ManufacturingPreferences
	validation DocumentValidation
	preview    *PricingPreview
	revision   int64
	lastSaved  time.Time

	subscribers []func(Event)
}

// NewEngine assembles an engine for one estimate document. Call Open to
// hydrate it before use.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: NewRegistry(cfg.Templates),
		prefSrc:  cfg.Preferences,
		docs:     cfg.Documents,
	}
	e.store = NewRowStore(e.registry)
	e.validator = NewValidationEngine(e.registry)
	e.validator.SetDisplayName(cfg.DisplayName)
	e.lock = NewEditLockManager(cfg.Locks, cfg.EstimateID, cfg.UserID, cfg.HeartbeatInterval, e.onLockLost)
	e.autosave = NewAutoSavePipeline(cfg.Documents, cfg.EstimateID, cfg.Debounce, e.onSaved, e.onSaveFailed)
	return e
}

// Subscribe registers an observer invoked after each completed engine
// transition. Callbacks run synchronously on the mutating goroutine and
// must not call back into the engine.
func (e *Engine) Subscribe(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

func (e *Engine) emit(evt Event) {
	for _, fn := range e.subscribers {
		fn(evt)
	}
}

// Open prepares the document for editing: templates and preferences are
// fetched, the edit lock is requested, and the persisted rows are
// hydrated. A refused lock opens the document read-only with the holder
// reported in LockStatus. A failed load also opens read-only: the blank
// hydrated document must never autosave over the real persisted rows.
func (e *Engine) Open(ctx context.Context) (LockStatus, error) {
	if err := e.registry.Load(ctx); err != nil {
		return LockStatus{}, fmt.Errorf("load templates: %w", err)
	}

	prefs, err := e.prefSrc.GetPreferences(ctx, e.cfg.CustomerID)
	if err != nil {
		log.Printf("engine: preferences unavailable for %s: %v", e.cfg.CustomerID, err)
	}

	status, err := e.lock.Acquire(ctx)
	if err != nil {
		log.Printf("engine: lock acquire failed for %s: %v", e.cfg.EstimateID, err)
	}

	rows, loadErr := e.docs.LoadDocument(ctx, e.cfg.EstimateID)
	if loadErr != nil {
		log.Printf("engine: load failed for %s: %v", e.cfg.EstimateID, loadErr)
		rows = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs = prefs
	if !status.Acquired || loadErr != nil {
		e.store.SetReadOnly(true)
	}
	e.store.Hydrate(rows)

	// Initial validation+pricing pass; hydration is never dirty so no
	// save is scheduled.
	e.revision++
	e.validation = e.validator.Revalidate(e.store.Rows(), allIDs(e.store.Rows()))
	preview := Price(e.store.Rows(), e.registry.All(), e.prefs, e.cfg.TaxRate, e.customerContext())
	e.preview = &preview

	return status, loadErr
}

func allIDs(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func (e *Engine) customerContext() CustomerContext {
	return CustomerContext{CustomerID: e.cfg.CustomerID}
}

// Close releases the edit lock and flushes any pending save.
func (e *Engine) Close(ctx context.Context) error {
	e.autosave.Flush()
	return e.lock.Release(ctx)
}

// ── Mutations (UI intents) ───────────────────────────────────────────────

// InsertRow appends a new row after the given index.
func (e *Engine) InsertRow(afterIndex int, rowType RowType) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.store.InsertRow(afterIndex, rowType)
	if ok {
		e.advance()
	}
	return id, ok
}

// DeleteRow removes a row and, for main rows, its owned sub rows.
func (e *Engine) DeleteRow(rowID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.DeleteRow(rowID) {
		return false
	}
	e.advance()
	return true
}

// UpdateField sets one field slot value. An unchanged value produces no
// new revision.
func (e *Engine) UpdateField(rowID, field string, value any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.UpdateField(rowID, field, value) {
		return false
	}
	e.advance()
	return true
}

// CommitField is the blur commit: it marks the field touched (making its
// errors visible) and writes the edit-buffer value into the committed row
// data in one transition.
func (e *Engine) CommitField(rowID, field string, value any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validator.Touch(rowID, field)
	if !e.store.UpdateField(rowID, field, value) {
		// The touch alone can make an existing error visible; recompute
		// nothing, the validity was already current.
		return false
	}
	e.advance()
	return true
}

// TouchField records a blur without a value change.
func (e *Engine) TouchField(rowID, field string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.validator.Touch(rowID, field)
}

// SetRowProductType selects a product type for a row.
func (e *Engine) SetRowProductType(rowID string, productTypeID int, productTypeName string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.SetRowProductType(rowID, productTypeID, productTypeName) {
		return false
	}
	e.advance()
	return true
}

// DuplicateRow clones a row (and optionally its sub rows) after the
// source.
func (e *Engine) DuplicateRow(rowID string, mode DuplicateMode) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.store.DuplicateRow(rowID, mode)
	if ok {
		e.advance()
	}
	return id, ok
}

// Reorder moves a drag block to a new position as one atomic transition,
// so autosave can never observe an intermediate order.
func (e *Engine) Reorder(rowID string, targetIndex int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.store.Reorder(rowID, targetIndex) {
		return false
	}
	e.advance()
	return true
}

// SetDisplayName renames the estimate; the name participates in the
// document-level validation.
func (e *Engine) SetDisplayName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == e.cfg.DisplayName {
		return
	}
	e.cfg.DisplayName = name
	e.validator.SetDisplayName(name)
	e.advance()
}

// advance runs the strict pipeline for the revision just produced by a
// store mutation: validate the changed rows, recompute pricing from the
// validated row set, then hand the settled revision to autosave. Caller
// holds e.mu, which is what serializes the stages.
func (e *Engine) advance() {
	e.revision++
	rev := e.revision
	e.emit(Event{Type: EventRowsChanged, Revision: rev})

	rows := e.store.Rows()
	e.validation = e.validator.Revalidate(rows, e.store.TakeChanged())
	e.emit(Event{Type: EventValidated, Revision: rev})

	preview := Price(rows, e.registry.All(), e.prefs, e.cfg.TaxRate, e.customerContext())
	e.preview = &preview
	e.emit(Event{Type: EventPriced, Revision: rev})

	if !e.store.ReadOnly() && e.store.Dirty() {
		e.autosave.Schedule(e.store.ToBulkSimplified(), preview.Total, rev)
	}
}

// ── Lock / autosave callbacks ────────────────────────────────────────────

// onLockLost demotes the document to read-only immediately. A save already
// in flight completes; no new save starts.
func (e *Engine) onLockLost() {
	e.mu.Lock()
	// Mark read-only before cancelling; a mutation serialized after this
	// point sees the flag and cannot schedule, so cancellation under the
	// same lock leaves nothing pending.
	e.store.SetReadOnly(true)
	e.autosave.CancelPending()
	rev := e.revision
	subs := e.subscribers
	e.mu.Unlock()
	for _, fn := range subs {
		fn(Event{Type: EventLockLost, Revision: rev})
		fn(Event{Type: EventReadOnly, Revision: rev})
	}
}

func (e *Engine) onSaved(at time.Time, revision int64) {
	e.mu.Lock()
	e.lastSaved = at
	// Only clear the dirty flag when no newer revision exists, otherwise
	// the newer edits would be reported as saved.
	if revision == e.revision {
		e.store.ClearDirty()
	}
	subs := e.subscribers
	e.mu.Unlock()
	for _, fn := range subs {
		fn(Event{Type: EventSaved, Revision: revision})
	}
}

func (e *Engine) onSaveFailed(err error) {
	e.mu.Lock()
	rev := e.revision
	subs := e.subscribers
	e.mu.Unlock()
	for _, fn := range subs {
		fn(Event{Type: EventSaveFailed, Revision: rev})
	}
	_ = err // already logged by the pipeline
}

// OverrideLock force-acquires the edit lock for users with the override
// capability and re-enables editing on success.
func (e *Engine) OverrideLock(ctx context.Context) (LockStatus, error) {
	status, err := e.lock.Override(ctx)
	if err == nil && status.Acquired {
		e.mu.Lock()
		e.store.SetReadOnly(false)
		e.mu.Unlock()
	}
	return status, err
}

// ── Read-only accessors ──────────────────────────────────────────────────

// State returns a deep-copied snapshot of the document.
func (e *Engine) State() DocumentState {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows := e.store.Rows()
	mode := EditModeNormal
	if e.store.ReadOnly() {
		mode = EditModeReadonly
	}
	state := DocumentState{
		Rows:       rows,
		Numbers:    DisplayNumbers(rows),
		Dirty:      e.store.Dirty(),
		LastSaved:  e.lastSaved,
		EditMode:   mode,
		Validation: e.validation,
	}
	if e.preview != nil {
		var preview PricingPreview
		if err := deepcopy.Copy(&preview, *e.preview); err == nil {
			state.Preview = &preview
		}
	}
	return state
}

// HasUnsavedChanges is the signal the navigation guard consults.
func (e *Engine) HasUnsavedChanges() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Dirty()
}

// LastSaved returns the time of the last successful save.
func (e *Engine) LastSaved() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSaved
}

// EditMode reports whether the document currently accepts mutations.
func (e *Engine) EditMode() EditMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store.ReadOnly() {
		return EditModeReadonly
	}
	return EditModeNormal
}

// Validation returns the current document validation aggregate.
func (e *Engine) Validation() DocumentValidation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validation
}

// VisibleErrors returns a row's blur-gated errors for display.
func (e *Engine) VisibleErrors(rowID string) FieldErrors {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validator.VisibleErrors(rowID)
}

// Preview returns the current pricing preview, nil before the first
// pricing pass.
func (e *Engine) Preview() *PricingPreview {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preview
}

// LockState exposes the edit lock lifecycle state.
func (e *Engine) LockState() LockState {
	return e.lock.State()
}

// LockStatus exposes the last observed lock status (holder identity on
// refusal).
func (e *Engine) LockStatus() LockStatus {
	return e.lock.Status()
}

// SaveState exposes the autosave pipeline state.
func (e *Engine) SaveState() SaveState {
	return e.autosave.State()
}

// AssemblyPalette returns the derived assembly-group palette indices.
func (e *Engine) AssemblyPalette() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return AssemblyPalette(e.store.Rows())
}
