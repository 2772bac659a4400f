package grid

import (
	"context"
	"log"
	"sync"
	"time"
)

// SaveState is the autosave pipeline's position for one document.
type SaveState string

const (
	SaveIdle    SaveState = "idle"
	SavePending SaveState = "pending"
	SaveSaving  SaveState = "saving"
	SaveError   SaveState = "error"
)

// DefaultDebounce is the quiet period applied after pricing settles before
// a save is dispatched, coalescing bursts of edits into one call.
const DefaultDebounce = 300 * time.Millisecond

// AutoSavePipeline turns settled row revisions into persistence calls:
// idle -> pending (debouncing) -> saving -> idle, or -> error on failure.
// The engine only schedules a revision after its validation and pricing
// have completed, so a save can never persist rows whose price was not
// computed in the same change cycle.
//
// Invariants: at most one in-flight save per document; a revision that
// arrives mid-save waits for the current save to resolve; a failed save is
// not retried on a timer, the pipeline waits for the next organic edit.
type AutoSavePipeline struct {
	store      DocumentStore
	estimateID string
	debounce   time.Duration

	onSaved func(at time.Time, revision int64)
	onError func(err error)

	mu       sync.Mutex
	state    SaveState
	timer    *time.Timer
	pending  *savePayload
	inFlight bool
}

type savePayload struct {
	rows     []SimplifiedRow
	total    float64
	revision int64
}

// NewAutoSavePipeline creates an idle pipeline writing through the given
// store. onSaved and onError are invoked from the save goroutine.
func NewAutoSavePipeline(store DocumentStore, estimateID string, debounce time.Duration, onSaved func(time.Time, int64), onError func(error)) *AutoSavePipeline {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &AutoSavePipeline{
		store:      store,
		estimateID: estimateID,
		debounce:   debounce,
		onSaved:    onSaved,
		onError:    onError,
		state:      SaveIdle,
	}
}

// State returns the current pipeline state.
func (p *AutoSavePipeline) State() SaveState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Schedule records a settled revision and (re)starts the debounce timer.
// A newer revision scheduled while still pending simply replaces the
// payload and resets the timer; the earlier pending save never fires.
func (p *AutoSavePipeline) Schedule(rows []SimplifiedRow, total float64, revision int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = &savePayload{rows: rows, total: total, revision: revision}
	if p.state != SaveSaving {
		p.state = SavePending
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.fire)
}

// CancelPending drops a not-yet-dispatched save. A save already in flight
// is not cancelled; only no new save will start. Used when the edit lock
// is lost.
func (p *AutoSavePipeline) CancelPending() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.pending = nil
	if p.state == SavePending {
		p.state = SaveIdle
	}
}

// fire moves pending -> saving once the debounce window has elapsed. If a
// save is still in flight the payload stays queued and is picked up when
// that save resolves.
func (p *AutoSavePipeline) fire() {
	p.mu.Lock()
	if p.pending == nil || p.inFlight {
		p.mu.Unlock()
		return
	}
	payload := p.pending
	p.pending = nil
	p.inFlight = true
	p.state = SaveSaving
	p.mu.Unlock()

	go p.save(payload)
}

func (p *AutoSavePipeline) save(payload *savePayload) {
	err := p.store.SaveDocument(context.Background(), p.estimateID, payload.rows, payload.total)
	savedAt := time.Now()

	p.mu.Lock()
	p.inFlight = false
	var next *savePayload
	if err != nil {
		// No timer retry: overwriting fresher edits with a stale retry is
		// worse than waiting for the next organic change.
		p.state = SaveError
		log.Printf("autosave: save failed for %s (revision %d): %v", p.estimateID, payload.revision, err)
	} else if p.pending != nil {
		// A revision settled while we were saving; it is already
		// debounced, dispatch it next.
		next = p.pending
		p.pending = nil
		p.inFlight = true
		p.state = SaveSaving
	} else {
		p.state = SaveIdle
	}
	p.mu.Unlock()

	if err != nil {
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	if p.onSaved != nil {
		p.onSaved(savedAt, payload.revision)
	}
	if next != nil {
		p.save(next)
	}
}

// Flush dispatches any pending payload immediately, bypassing the
// debounce. Used on navigation away so the last edits are not lost.
func (p *AutoSavePipeline) Flush() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	p.fire()
}
