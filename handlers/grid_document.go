package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
	"gridbuilder/services"
	"gridbuilder/storage"
)

// gridSaveRequest is the PUT body for a full-document save. The client
// always sends the complete row set; partial saves are not supported.
type gridSaveRequest struct {
	Rows        []grid.SimplifiedRow `json:"rows"`
	DisplayName string               `json:"displayName"`
	Rush        bool                 `json:"rush"`
}

// HandleGridLoad returns the persisted document for an estimate: ordered
// rows plus the estimate metadata the editor header needs.
func HandleGridLoad(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	docs := storage.NewDocuments(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")

		estimate, err := app.FindRecordById("estimates", estimateID)
		if err != nil {
			return apiError(e, http.StatusNotFound, "estimate not found")
		}

		rows, err := docs.LoadDocument(e.Request.Context(), estimateID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_load", "loading rows", err)
		}

		return e.JSON(http.StatusOK, map[string]any{
			"id":               estimate.Id,
			"displayName":      estimate.GetString("display_name"),
			"status":           estimate.GetString("status"),
			"customerId":       estimate.GetString("customer"),
			"total":            estimate.GetFloat("total"),
			"lastSaved":        estimate.GetDateTime("last_saved"),
			"lastSavedDisplay": services.FormatLastSaved(estimate.GetDateTime("last_saved").Time()),
			"rows":             rows,
		})
	}
}

// HandleGridSave persists a full row set for an estimate. The caller must
// hold the edit lock (a free lock is taken implicitly). The server recomputes
// validation and pricing; an invalid document still saves, so work in
// progress is never lost, and the response carries the validation state the
// client should display.
func HandleGridSave(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	docs := storage.NewDocuments(app)
	locks := storage.NewLocks(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		user := GetUserIdentity(e.Request)

		estimate, err := app.FindRecordById("estimates", estimateID)
		if err != nil {
			return apiError(e, http.StatusNotFound, "estimate not found")
		}

		var req gridSaveRequest
		if err := e.BindBody(&req); err != nil {
			return apiError(e, http.StatusBadRequest, "invalid request body")
		}

		status, err := locks.Acquire(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_save", "checking edit lock", err)
		}
		if !status.Acquired {
			return e.JSON(http.StatusConflict, map[string]any{
				"error": "estimate is locked by another user",
				"lock":  status,
			})
		}

		displayName := req.DisplayName
		if displayName == "" {
			displayName = estimate.GetString("display_name")
		}

		eval, err := evaluateGrid(e.Request.Context(), app, displayName, estimate.GetString("customer"), req.Rush, req.Rows)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_save", "evaluating document", err)
		}

		if err := docs.SaveDocument(e.Request.Context(), estimateID, eval.simplified, eval.preview.Total); err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_save", "saving rows", err)
		}

		// reload: SaveDocument updated total and last_saved
		saved, err := app.FindRecordById("estimates", estimateID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "grid_save", "reloading estimate", err)
		}
		if req.DisplayName != "" && req.DisplayName != saved.GetString("display_name") {
			saved.Set("display_name", req.DisplayName)
			if err := app.Save(saved); err != nil {
				return apiErrorLog(e, http.StatusInternalServerError, "grid_save", "saving display name", err)
			}
		}

		return e.JSON(http.StatusOK, map[string]any{
			"rows":             eval.simplified,
			"numbers":          eval.numbers,
			"rowResults":       eval.rowResults,
			"validation":       eval.validation,
			"preview":          eval.preview,
			"total":            eval.preview.Total,
			"lastSaved":        saved.GetDateTime("last_saved"),
			"lastSavedDisplay": services.FormatLastSaved(saved.GetDateTime("last_saved").Time()),
			"displayName":      saved.GetString("display_name"),
		})
	}
}
