package grid

import (
	"context"
	"errors"
	"sync"
	"time"
)

func fptr(f float64) *float64 { return &f }

// letterTemplate is a lit channel letter product: priced per letter height
// with required qty and height, a face color select and a UL number
// pattern field.
func letterTemplate() Template {
	return Template{
		ProductTypeID: 3,
		Name:          "Front Lit Channel Letters",
		BaseUnitPrice: 100,
		Fields: []FieldPrompt{
			{Slot: SlotQty, Label: "Qty", Enabled: true, Required: true, Kind: FieldKindNumber, Min: fptr(1)},
			{Slot: "field1", Label: "Letter Height", Enabled: true, Required: true, Kind: FieldKindNumber, Min: fptr(3), Max: fptr(60), UnitPrice: 2},
			{Slot: "field2", Label: "Face Color", Enabled: true, Kind: FieldKindSelect, Options: []string{"White", "Black", "Red"}, Default: "White"},
			{Slot: "field3", Label: "UL Number", Enabled: true, Kind: FieldKindText, Pattern: `^UL[0-9]{6}$`},
			{Slot: "field4", Label: "Disabled Slot", Enabled: false, Required: true, Kind: FieldKindText},
		},
	}
}

// pushThruTemplate bundles a raceway sub-item when selected on a main row.
func pushThruTemplate() Template {
	return Template{
		ProductTypeID: 5,
		Name:          "Push Thru Sign",
		BaseUnitPrice: 250,
		Fields: []FieldPrompt{
			{Slot: SlotQty, Label: "Qty", Enabled: true, Required: true, Kind: FieldKindNumber, Min: fptr(1)},
			{Slot: "field1", Label: "Width", Enabled: true, Kind: FieldKindNumber},
		},
		BundledSubItems: []BundledSubItem{
			{Description: "Raceway", Qty: 1},
		},
	}
}

type fakeTemplates struct {
	mu    sync.Mutex
	calls int
	err   error
	set   map[int]Template
}

func newFakeTemplates() *fakeTemplates {
	return &fakeTemplates{set: map[int]Template{
		3: letterTemplate(),
		5: pushThruTemplate(),
	}}
}

func (f *fakeTemplates) GetAllTemplates(ctx context.Context) (map[int]Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int]Template, len(f.set))
	for id, t := range f.set {
		out[id] = t
	}
	return out, nil
}

type fakePreferences struct {
	prefs *ManufacturingPreferences
	err   error
}

func (f *fakePreferences) GetPreferences(ctx context.Context, customerID string) (*ManufacturingPreferences, error) {
	return f.prefs, f.err
}

// fakeDocuments records saves and can inject failures and load payloads.
type fakeDocuments struct {
	mu       sync.Mutex
	loadRows []SimplifiedRow
	loadErr  error
	saveErr  error
	saves    [][]SimplifiedRow
	totals   []float64
	saved    chan struct{}
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{saved: make(chan struct{}, 16)}
}

func (f *fakeDocuments) LoadDocument(ctx context.Context, estimateID string) ([]SimplifiedRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadRows, f.loadErr
}

func (f *fakeDocuments) SaveDocument(ctx context.Context, estimateID string, rows []SimplifiedRow, total float64) error {
	f.mu.Lock()
	err := f.saveErr
	if err == nil {
		f.saves = append(f.saves, rows)
		f.totals = append(f.totals, total)
	}
	f.mu.Unlock()
	if err == nil {
		f.saved <- struct{}{}
	}
	return err
}

func (f *fakeDocuments) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeDocuments) lastSave() []SimplifiedRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func (f *fakeDocuments) waitSave(t interface{ Fatalf(string, ...any) }, timeout time.Duration) {
	select {
	case <-f.saved:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for a save")
	}
}

// fakeLocks is an in-memory single-holder lock service.
type fakeLocks struct {
	mu       sync.Mutex
	holder   string
	renewErr error
}

func (f *fakeLocks) Acquire(ctx context.Context, resourceType, resourceID, userID string) (LockStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder != "" && f.holder != userID {
		return LockStatus{HolderID: f.holder, HolderName: f.holder}, nil
	}
	f.holder = userID
	now := time.Now()
	return LockStatus{Acquired: true, HolderID: userID, AcquiredAt: now, HeartbeatAt: now}, nil
}

func (f *fakeLocks) Renew(ctx context.Context, resourceType, resourceID, userID string) (LockStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renewErr != nil {
		return LockStatus{HolderID: f.holder}, f.renewErr
	}
	if f.holder != userID {
		return LockStatus{HolderID: f.holder, HolderName: f.holder}, nil
	}
	return LockStatus{Acquired: true, HolderID: userID, HeartbeatAt: time.Now()}, nil
}

func (f *fakeLocks) Release(ctx context.Context, resourceType, resourceID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder == userID {
		f.holder = ""
	}
	return nil
}

func (f *fakeLocks) Override(ctx context.Context, resourceType, resourceID, userID string) (LockStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holder = userID
	now := time.Now()
	return LockStatus{Acquired: true, HolderID: userID, AcquiredAt: now, HeartbeatAt: now}, nil
}

func (f *fakeLocks) failRenewals() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renewErr = errors.New("lock service unreachable")
}

// loadedRegistry returns a registry with the fake template set already
// fetched.
func loadedRegistry() *Registry {
	r := NewRegistry(newFakeTemplates())
	if err := r.Load(context.Background()); err != nil {
		panic(err)
	}
	return r
}
