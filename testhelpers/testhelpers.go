// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"fmt"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/collections"
	"gridbuilder/grid"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestCustomer creates a customer record with the given name and returns it.
func CreateTestCustomer(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("customers")
	if err != nil {
		t.Fatalf("failed to find customers collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("tax_rate", 0.08)
	record.Set("discount_percent", 0)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test customer: %v", err)
	}

	return record
}

// CreateTestPreferences creates a manufacturing preferences record for a customer.
func CreateTestPreferences(t *testing.T, app *pocketbase.PocketBase, customerID string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("manufacturing_preferences")
	if err != nil {
		t.Fatalf("failed to find manufacturing_preferences collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("customer", customerID)
	record.Set("default_illumination", "LED")
	record.Set("default_mounting", "Flush")
	record.Set("wire_exit", "Back")
	record.Set("markup_percent", 10)
	record.Set("rush_surcharge_percent", 20)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test preferences: %v", err)
	}

	return record
}

// CreateTestEstimate creates an estimate record and returns it. customerID
// may be empty for a customer-less draft.
func CreateTestEstimate(t *testing.T, app *pocketbase.PocketBase, customerID, displayName string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		t.Fatalf("failed to find estimates collection: %v", err)
	}

	record := core.NewRecord(col)
	if customerID != "" {
		record.Set("customer", customerID)
	}
	record.Set("display_name", displayName)
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test estimate: %v", err)
	}

	return record
}

// CreateTestTemplate creates a product template record from a grid.Template.
func CreateTestTemplate(t *testing.T, app *pocketbase.PocketBase, tpl grid.Template) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("product_templates")
	if err != nil {
		t.Fatalf("failed to find product_templates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("product_type_id", tpl.ProductTypeID)
	record.Set("name", tpl.Name)
	record.Set("base_unit_price", tpl.BaseUnitPrice)
	record.Set("field_prompts", tpl.Fields)
	if len(tpl.BundledSubItems) > 0 {
		record.Set("bundled_sub_items", tpl.BundledSubItems)
	}
	record.Set("sort_order", tpl.ProductTypeID)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test template: %v", err)
	}

	return record
}

// CreateTestRow creates an estimate_rows record from a grid.SimplifiedRow.
func CreateTestRow(t *testing.T, app *pocketbase.PocketBase, estimateID string, sortOrder int, row grid.SimplifiedRow) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_rows")
	if err != nil {
		t.Fatalf("failed to find estimate_rows collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("sort_order", sortOrder)
	record.Set("row_type", string(row.RowType))
	record.Set("product_type_id", row.ProductTypeID)
	record.Set("product_type_name", row.ProductTypeName)
	record.Set("assembly_group", row.AssemblyGroup)
	record.Set("qty", row.Qty)
	for n := 1; n <= grid.FieldSlotCount; n++ {
		record.Set(fmt.Sprintf("field%d", n), row.Field(n))
	}

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test row: %v", err)
	}

	return record
}

// CreateTestLock creates an edit_locks record whose heartbeat is offset
// from now by heartbeatAge (pass 0 for a fresh lock).
func CreateTestLock(t *testing.T, app *pocketbase.PocketBase, resourceType, resourceID, holder string, heartbeatAge time.Duration) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("edit_locks")
	if err != nil {
		t.Fatalf("failed to find edit_locks collection: %v", err)
	}

	now := time.Now().UTC()
	record := core.NewRecord(col)
	record.Set("resource_type", resourceType)
	record.Set("resource_id", resourceID)
	record.Set("holder", holder)
	record.Set("holder_name", holder)
	record.Set("acquired", now.Add(-heartbeatAge))
	record.Set("heartbeat", now.Add(-heartbeatAge))

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test lock: %v", err)
	}

	return record
}
