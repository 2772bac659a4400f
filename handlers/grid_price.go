package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
)

// gridPriceRequest is a stateless validate-and-price run: nothing is
// persisted and no lock is required.
type gridPriceRequest struct {
	Rows        []grid.SimplifiedRow `json:"rows"`
	DisplayName string               `json:"displayName"`
	CustomerID  string               `json:"customerId"`
	Rush        bool                 `json:"rush"`
}

// HandleGridPrice validates and prices a submitted row set without saving
// it. The editor uses this for its live preview while typing.
func HandleGridPrice(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req gridPriceRequest
		if err := e.BindBody(&req); err != nil {
			return apiError(e, http.StatusBadRequest, "invalid request body")
		}

		eval, err := evaluateGrid(e.Request.Context(), app, req.DisplayName, req.CustomerID, req.Rush, req.Rows)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_price", "evaluating rows", err)
		}

		return e.JSON(http.StatusOK, map[string]any{
			"rows":       eval.simplified,
			"numbers":    eval.numbers,
			"rowResults": eval.rowResults,
			"validation": eval.validation,
			"preview":    eval.preview,
		})
	}
}
