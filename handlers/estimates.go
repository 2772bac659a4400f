package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
	"gridbuilder/storage"
)

type estimateCreateRequest struct {
	DisplayName string `json:"displayName"`
	CustomerID  string `json:"customerId"`
}

func estimateJSON(r *core.Record) map[string]any {
	return map[string]any{
		"id":          r.Id,
		"displayName": r.GetString("display_name"),
		"status":      r.GetString("status"),
		"customerId":  r.GetString("customer"),
		"total":       r.GetFloat("total"),
		"lastSaved":   r.GetDateTime("last_saved"),
		"created":     r.GetDateTime("created"),
	}
}

// HandleEstimateList returns all estimates, newest first.
func HandleEstimateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("estimates", "id != ''", "-created", 0, 0)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "estimates", "listing estimates", err)
		}

		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			out = append(out, estimateJSON(r))
		}
		return e.JSON(http.StatusOK, map[string]any{"estimates": out})
	}
}

// HandleEstimateCreate creates an empty draft estimate. The display name
// defaults to a dated placeholder so a draft is never nameless in lists.
func HandleEstimateCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req estimateCreateRequest
		if err := e.BindBody(&req); err != nil {
			return apiError(e, http.StatusBadRequest, "invalid request body")
		}

		if req.CustomerID != "" {
			if _, err := app.FindRecordById("customers", req.CustomerID); err != nil {
				return apiError(e, http.StatusBadRequest, "unknown customer")
			}
		}

		name := req.DisplayName
		if name == "" {
			name = fmt.Sprintf("Estimate %s", time.Now().Format("2006-01-02"))
		}

		col, err := app.FindCollectionByNameOrId("estimates")
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "estimates", "finding collection", err)
		}

		estimate := core.NewRecord(col)
		estimate.Set("display_name", name)
		estimate.Set("customer", req.CustomerID)
		estimate.Set("status", "draft")
		estimate.Set("total", 0)
		if err := app.Save(estimate); err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "estimates", "creating estimate", err)
		}

		return e.JSON(http.StatusCreated, estimateJSON(estimate))
	}
}

// HandleEstimateDelete removes an estimate. Rows cascade with the relation;
// any edit lock on the estimate is cleaned up alongside.
func HandleEstimateDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	locks := storage.NewLocks(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		user := GetUserIdentity(e.Request)

		estimate, err := app.FindRecordById("estimates", estimateID)
		if err != nil {
			return apiError(e, http.StatusNotFound, "estimate not found")
		}

		status, err := locks.Acquire(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "estimates", "checking edit lock", err)
		}
		if !status.Acquired {
			return e.JSON(http.StatusConflict, map[string]any{
				"error": "estimate is locked by another user",
				"lock":  status,
			})
		}

		if err := app.Delete(estimate); err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "estimates", "deleting estimate", err)
		}
		if err := locks.Release(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID); err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "estimates", "releasing lock", err)
		}

		return e.JSON(http.StatusOK, map[string]bool{"deleted": true})
	}
}
