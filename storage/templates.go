// Package storage backs the grid engine's source interfaces with
// PocketBase collections.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pocketbase/pocketbase"

	"gridbuilder/grid"
)

// Templates reads the product catalog from the product_templates
// collection. It implements grid.TemplateSource.
type Templates struct {
	app *pocketbase.PocketBase
}

func NewTemplates(app *pocketbase.PocketBase) *Templates {
	return &Templates{app: app}
}

// GetAllTemplates loads every product template keyed by product type id.
func (s *Templates) GetAllTemplates(ctx context.Context) (map[int]grid.Template, error) {
	records, err := s.app.FindAllRecords("product_templates")
	if err != nil {
		return nil, fmt.Errorf("storage: load product templates: %w", err)
	}

	templates := make(map[int]grid.Template, len(records))
	for _, r := range records {
		t := grid.Template{
			ProductTypeID: int(r.GetFloat("product_type_id")),
			Name:          r.GetString("name"),
			BaseUnitPrice: r.GetFloat("base_unit_price"),
		}

		if raw := r.GetString("field_prompts"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &t.Fields); err != nil {
				return nil, fmt.Errorf("storage: parse field prompts for template %q: %w", t.Name, err)
			}
		}
		if raw := r.GetString("bundled_sub_items"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &t.BundledSubItems); err != nil {
				return nil, fmt.Errorf("storage: parse bundled sub items for template %q: %w", t.Name, err)
			}
		}

		templates[t.ProductTypeID] = t
	}

	return templates, nil
}
