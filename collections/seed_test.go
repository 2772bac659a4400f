package collections_test

import (
	"context"
	"testing"

	"gridbuilder/collections"
	"gridbuilder/storage"
	"gridbuilder/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	// Verify product templates
	templatesCol, _ := app.FindCollectionByNameOrId("product_templates")
	templates, err := app.FindAllRecords(templatesCol)
	if err != nil {
		t.Fatalf("query product_templates error: %v", err)
	}
	if len(templates) != 5 {
		t.Fatalf("expected 5 product templates, got %d", len(templates))
	}

	// Verify walk-in customer
	customersCol, _ := app.FindCollectionByNameOrId("customers")
	customers, _ := app.FindAllRecords(customersCol)
	if len(customers) != 1 {
		t.Fatalf("expected 1 customer, got %d", len(customers))
	}
	if customers[0].GetString("name") != "Walk-In Customer" {
		t.Errorf("customer name = %q, want 'Walk-In Customer'", customers[0].GetString("name"))
	}

	// Verify preferences linked to customer
	prefsCol, _ := app.FindCollectionByNameOrId("manufacturing_preferences")
	prefs, _ := app.FindAllRecords(prefsCol)
	if len(prefs) != 1 {
		t.Fatalf("expected 1 preference set, got %d", len(prefs))
	}
	if prefs[0].GetString("customer") != customers[0].Id {
		t.Errorf("preferences customer = %q, want %q", prefs[0].GetString("customer"), customers[0].Id)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	templatesCol, _ := app.FindCollectionByNameOrId("product_templates")
	templates, _ := app.FindAllRecords(templatesCol)
	if len(templates) != 5 {
		t.Errorf("expected 5 templates after double seed, got %d", len(templates))
	}

	customersCol, _ := app.FindCollectionByNameOrId("customers")
	customers, _ := app.FindAllRecords(customersCol)
	if len(customers) != 1 {
		t.Errorf("expected 1 customer after double seed, got %d", len(customers))
	}
}

func TestSeed_TemplatesLoadThroughStorage(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	src := storage.NewTemplates(app)
	templates, err := src.GetAllTemplates(context.Background())
	if err != nil {
		t.Fatalf("GetAllTemplates() error: %v", err)
	}

	letters, ok := templates[1]
	if !ok {
		t.Fatal("seeded front lit template not loadable by product type id 1")
	}
	if letters.Name != "Front Lit Channel Letters" {
		t.Errorf("template 1 name = %q", letters.Name)
	}
	if _, ok := letters.FieldBySlot("qty"); !ok {
		t.Error("seeded template missing qty prompt")
	}

	pushThru, ok := templates[3]
	if !ok {
		t.Fatal("seeded push thru template not found")
	}
	if len(pushThru.BundledSubItems) != 1 {
		t.Errorf("push thru bundled sub items = %d, want 1", len(pushThru.BundledSubItems))
	}
}
