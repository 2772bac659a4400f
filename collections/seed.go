package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
	"gridbuilder/services"
)

func fptr(v float64) *float64 { return &v }

// qtyPrompt is the shared quantity slot every product template starts with.
func qtyPrompt() grid.FieldPrompt {
	return grid.FieldPrompt{
		Slot: grid.SlotQty, Label: "Quantity", Enabled: true, Required: true,
		Kind: grid.FieldKindNumber, Min: fptr(1),
	}
}

// Seed populates the collections with the sign-shop product catalog, a
// walk-in customer and its default manufacturing preferences. It is safe to
// call on every startup because it returns early if any product templates
// already exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if templates already exist ─────────────────
	templatesCol, err := app.FindCollectionByNameOrId("product_templates")
	if err != nil {
		return fmt.Errorf("seed: could not find product_templates collection: %w", err)
	}
	existing, err := app.FindAllRecords(templatesCol)
	if err != nil {
		return fmt.Errorf("seed: could not query product_templates: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: product_templates collection is empty – inserting seed data …")

	customersCol, err := app.FindCollectionByNameOrId("customers")
	if err != nil {
		return fmt.Errorf("seed: could not find customers collection: %w", err)
	}
	prefsCol, err := app.FindCollectionByNameOrId("manufacturing_preferences")
	if err != nil {
		return fmt.Errorf("seed: could not find manufacturing_preferences collection: %w", err)
	}

	// ── helper: create product template ──────────────────────────────
	createTemplate := func(sortOrder int, t grid.Template) error {
		r := core.NewRecord(templatesCol)
		r.Set("product_type_id", t.ProductTypeID)
		r.Set("name", t.Name)
		r.Set("base_unit_price", t.BaseUnitPrice)
		r.Set("field_prompts", t.Fields)
		if len(t.BundledSubItems) > 0 {
			r.Set("bundled_sub_items", t.BundledSubItems)
		}
		r.Set("sort_order", sortOrder)
		if err := app.Save(r); err != nil {
			return fmt.Errorf("seed: save product template %q: %w", t.Name, err)
		}
		return nil
	}

	// ── product catalog ──────────────────────────────────────────────

	if err := createTemplate(1, grid.Template{
		ProductTypeID: 1, Name: "Front Lit Channel Letters", BaseUnitPrice: 100,
		Fields: []grid.FieldPrompt{
			qtyPrompt(),
			{Slot: "field1", Label: "Letter Height (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(3), Max: fptr(60), UnitPrice: 2},
			{Slot: "field2", Label: "Return Depth (in)", Enabled: true, Kind: grid.FieldKindSelect, Options: []string{"3", "3.5", "5", "8"}, Default: "5"},
			{Slot: "field3", Label: "Face Color", Enabled: true, Kind: grid.FieldKindSelect, Options: services.FaceColorOptions, Default: "White"},
			{Slot: "field4", Label: "Illumination", Enabled: true, Kind: grid.FieldKindSelect, Options: services.IlluminationOptions, Default: "LED"},
			{Slot: "field5", Label: "Mounting", Enabled: true, Kind: grid.FieldKindSelect, Options: services.MountingOptions, Default: "Flush"},
			{Slot: "field6", Label: "UL Number", Enabled: true, Kind: grid.FieldKindText, Pattern: `^UL[0-9]{6}$`},
		},
	}); err != nil {
		return err
	}

	if err := createTemplate(2, grid.Template{
		ProductTypeID: 2, Name: "Halo Lit Channel Letters", BaseUnitPrice: 135,
		Fields: []grid.FieldPrompt{
			qtyPrompt(),
			{Slot: "field1", Label: "Letter Height (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(6), Max: fptr(48), UnitPrice: 2.5},
			{Slot: "field2", Label: "Standoff (in)", Enabled: true, Kind: grid.FieldKindNumber, Min: fptr(1), Max: fptr(4), Default: 1.5},
			{Slot: "field3", Label: "Face Material", Enabled: true, Kind: grid.FieldKindSelect, Options: []string{"Aluminum", "Stainless Steel"}, Default: "Aluminum"},
			{Slot: "field4", Label: "Halo Color", Enabled: true, Kind: grid.FieldKindSelect, Options: []string{"White", "Warm White", "Blue", "Red"}, Default: "Warm White"},
			{Slot: "field5", Label: "Wire Exit", Enabled: true, Kind: grid.FieldKindSelect, Options: services.WireExitOptions, Default: "Back"},
		},
	}); err != nil {
		return err
	}

	if err := createTemplate(3, grid.Template{
		ProductTypeID: 3, Name: "Push Thru Sign", BaseUnitPrice: 250,
		Fields: []grid.FieldPrompt{
			qtyPrompt(),
			{Slot: "field1", Label: "Cabinet Width (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(12), Max: fptr(240), UnitPrice: 1.5},
			{Slot: "field2", Label: "Cabinet Height (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(12), Max: fptr(96), UnitPrice: 1.5},
			{Slot: "field3", Label: "Push Thru Depth (in)", Enabled: true, Kind: grid.FieldKindSelect, Options: []string{"0.5", "0.75", "1"}, Default: "0.75"},
			{Slot: "field4", Label: "Cabinet Color", Enabled: true, Kind: grid.FieldKindText, Default: "Matte Black"},
			{Slot: "field5", Label: "Illumination", Enabled: true, Kind: grid.FieldKindSelect, Options: services.IlluminationOptions, Default: "LED"},
		},
		BundledSubItems: []grid.BundledSubItem{
			{Description: "Raceway", Qty: 1},
		},
	}); err != nil {
		return err
	}

	if err := createTemplate(4, grid.Template{
		ProductTypeID: 4, Name: "Flat Cut Letters", BaseUnitPrice: 45,
		Fields: []grid.FieldPrompt{
			qtyPrompt(),
			{Slot: "field1", Label: "Letter Height (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(2), Max: fptr(48), UnitPrice: 1.2},
			{Slot: "field2", Label: "Material", Enabled: true, Kind: grid.FieldKindSelect, Options: []string{"Acrylic", "Aluminum", "PVC", "Brass"}, Default: "Acrylic"},
			{Slot: "field3", Label: "Thickness (in)", Enabled: true, Kind: grid.FieldKindSelect, Options: []string{"0.25", "0.5", "1"}, Default: "0.5"},
			{Slot: "field4", Label: "Finish", Enabled: true, Kind: grid.FieldKindText, Default: "Painted"},
			{Slot: "field5", Label: "Stud Mounted", Enabled: true, Kind: grid.FieldKindBool, Default: true},
		},
	}); err != nil {
		return err
	}

	if err := createTemplate(5, grid.Template{
		ProductTypeID: 5, Name: "Vinyl Graphics", BaseUnitPrice: 12,
		Fields: []grid.FieldPrompt{
			qtyPrompt(),
			{Slot: "field1", Label: "Width (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(1), Max: fptr(600), UnitPrice: 0.15},
			{Slot: "field2", Label: "Height (in)", Enabled: true, Required: true, Kind: grid.FieldKindNumber, Min: fptr(1), Max: fptr(120), UnitPrice: 0.15},
			{Slot: "field3", Label: "Vinyl Brand", Enabled: true, Kind: grid.FieldKindSelect, Options: services.VinylBrandOptions, Default: "3M"},
			{Slot: "field4", Label: "Color", Enabled: true, Kind: grid.FieldKindText, Default: "White"},
			{Slot: "field5", Label: "Laminated", Enabled: true, Kind: grid.FieldKindBool, Default: false},
		},
	}); err != nil {
		return err
	}

	// ── walk-in customer + default preferences ───────────────────────

	walkIn := core.NewRecord(customersCol)
	walkIn.Set("name", "Walk-In Customer")
	walkIn.Set("tax_rate", 0.08)
	walkIn.Set("discount_percent", 0)
	if err := app.Save(walkIn); err != nil {
		return fmt.Errorf("seed: save walk-in customer: %w", err)
	}

	prefs := core.NewRecord(prefsCol)
	prefs.Set("customer", walkIn.Id)
	prefs.Set("default_illumination", "LED")
	prefs.Set("default_mounting", "Flush")
	prefs.Set("wire_exit", "Back")
	prefs.Set("markup_percent", 0)
	prefs.Set("rush_surcharge_percent", 20)
	if err := app.Save(prefs); err != nil {
		return fmt.Errorf("seed: save default preferences: %w", err)
	}

	log.Println("seed: all seed data inserted successfully (5 product templates, 1 customer, 1 preference set)")
	return nil
}
