package grid

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FieldKind describes how a template field slot is typed and validated.
type FieldKind string

const (
	FieldKindText   FieldKind = "text"
	FieldKindNumber FieldKind = "number"
	FieldKindBool   FieldKind = "bool"
	FieldKindSelect FieldKind = "select"
)

// FieldPrompt describes one field slot of a product template: its label,
// whether it is active for the product type, and its validation rules.
type FieldPrompt struct {
	Slot      string    `json:"slot"` // "qty" or "field1".."field10"
	Label     string    `json:"label"`
	Enabled   bool      `json:"enabled"`
	Required  bool      `json:"required"`
	Kind      FieldKind `json:"kind"`
	Min       *float64  `json:"min,omitempty"`
	Max       *float64  `json:"max,omitempty"`
	Pattern   string    `json:"pattern,omitempty"` // regexp for text fields
	Options   []string  `json:"options,omitempty"` // static option list for selects
	UnitPrice float64   `json:"unitPrice,omitempty"`
	Default   any       `json:"default,omitempty"`
}

// BundledSubItem is a sub-item row a template synthesizes when the product
// type is selected on a main row (e.g. a raceway bundled with channel
// letters).
type BundledSubItem struct {
	Description string  `json:"description"`
	Qty         float64 `json:"qty"`
}

// Template is the per-product-type metadata driving the dynamic grid
// schema: field labels, enabled flags, static option lists and base
// pricing inputs.
type Template struct {
	ProductTypeID   int              `json:"productTypeId"`
	Name            string           `json:"name"`
	BaseUnitPrice   float64          `json:"baseUnitPrice"`
	Fields          []FieldPrompt    `json:"fieldPrompts"`
	BundledSubItems []BundledSubItem `json:"bundledSubItems,omitempty"`
}

// FieldBySlot returns the prompt for a slot name, if the template declares
// one.
func (t Template) FieldBySlot(slot string) (FieldPrompt, bool) {
	for _, f := range t.Fields {
		if f.Slot == slot {
			return f, true
		}
	}
	return FieldPrompt{}, false
}

// Registry caches the full template set for one editing session. Templates
// are fetched once through the TemplateSource; concurrent first loads are
// collapsed into a single fetch.
type Registry struct {
	source TemplateSource

	group singleflight.Group

	mu        sync.RWMutex
	templates map[int]Template
	loaded    bool
}

// NewRegistry creates an empty registry backed by the given source.
func NewRegistry(source TemplateSource) *Registry {
	return &Registry{source: source}
}

// Load fetches all templates through the source. Calling Load again after
// a successful fetch is a no-op; concurrent callers share one fetch.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := r.group.Do("templates", func() (any, error) {
		templates, err := r.source.GetAllTemplates(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.templates = templates
		r.loaded = true
		r.mu.Unlock()
		return nil, nil
	})
	return err
}

// Loaded reports whether the template set has been fetched.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Get returns the template for a product type id.
func (r *Registry) Get(productTypeID int) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[productTypeID]
	return t, ok
}

// All returns the cached template set keyed by product type id.
func (r *Registry) All() map[int]Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]Template, len(r.templates))
	for id, t := range r.templates {
		out[id] = t
	}
	return out
}
