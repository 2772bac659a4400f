package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
	"gridbuilder/storage"
)

// HandleGridTemplates returns the full product template catalog as JSON,
// keyed by product type id the way the grid's template registry expects it.
func HandleGridTemplates(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	src := storage.NewTemplates(app)
	return func(e *core.RequestEvent) error {
		templates, err := src.GetAllTemplates(e.Request.Context())
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_templates", "Failed to load product templates", err)
		}
		return e.JSON(http.StatusOK, map[string]any{"templates": templates})
	}
}

// HandleGridPreferences returns a customer's manufacturing preferences.
// Customers without recorded preferences get the zero-value defaults.
func HandleGridPreferences(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	src := storage.NewPreferences(app)
	return func(e *core.RequestEvent) error {
		customerID := e.Request.PathValue("customerId")
		if customerID == "" {
			return apiError(e, http.StatusBadRequest, "Missing customer ID")
		}

		prefs, err := src.GetPreferences(e.Request.Context(), customerID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_preferences", "Failed to load preferences", err)
		}
		if prefs == nil {
			prefs = &grid.ManufacturingPreferences{}
		}
		return e.JSON(http.StatusOK, prefs)
	}
}
