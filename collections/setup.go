package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the customers,
// manufacturing_preferences, product_templates, estimates, estimate_rows
// and edit_locks collections exist.
func Setup(app *pocketbase.PocketBase) {
	customers := ensureCollection(app, "customers", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "tax_rate", Required: false})
		c.Fields.Add(&core.NumberField{Name: "discount_percent", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "manufacturing_preferences", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "customer",
			Required:      true,
			CollectionId:  customers.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "default_illumination", Required: false})
		c.Fields.Add(&core.TextField{Name: "default_mounting", Required: false})
		c.Fields.Add(&core.TextField{Name: "wire_exit", Required: false})
		c.Fields.Add(&core.NumberField{Name: "markup_percent", Required: false})
		c.Fields.Add(&core.NumberField{Name: "rush_surcharge_percent", Required: false})
	})

	ensureCollection(app, "product_templates", func(c *core.Collection) {
		c.Fields.Add(&core.NumberField{Name: "product_type_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "base_unit_price", Required: false})
		c.Fields.Add(&core.JSONField{Name: "field_prompts", Required: true})
		c.Fields.Add(&core.JSONField{Name: "bundled_sub_items", Required: false})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: false})
	})

	estimates := ensureCollection(app, "estimates", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "customer",
			Required:      false,
			CollectionId:  customers.Id,
			CascadeDelete: false,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "display_name", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "sent", "approved", "rejected"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "total", Required: false})
		c.Fields.Add(&core.DateField{Name: "last_saved", Required: false})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "estimate_rows", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "estimate",
			Required:      true,
			CollectionId:  estimates.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "row_type",
			Required:  true,
			Values:    []string{"main", "continuation", "subItem"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "product_type_id", Required: false})
		c.Fields.Add(&core.TextField{Name: "product_type_name", Required: false})
		c.Fields.Add(&core.TextField{Name: "assembly_group", Required: false})
		c.Fields.Add(&core.NumberField{Name: "qty", Required: false})
		for i := 1; i <= 10; i++ {
			c.Fields.Add(&core.TextField{Name: fmt.Sprintf("field%d", i), Required: false})
		}
	})

	ensureCollection(app, "edit_locks", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "resource_type", Required: true})
		c.Fields.Add(&core.TextField{Name: "resource_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "holder", Required: true})
		c.Fields.Add(&core.TextField{Name: "holder_name", Required: false})
		c.Fields.Add(&core.DateField{Name: "acquired", Required: true})
		c.Fields.Add(&core.DateField{Name: "heartbeat", Required: true})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
