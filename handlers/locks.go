package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
	"gridbuilder/storage"
)

// HandleLockAcquire takes or refreshes the edit lock on an estimate. A
// refusal is a normal 200 response with acquired=false and the current
// holder, so the client can offer read-only mode or an admin override.
func HandleLockAcquire(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	locks := storage.NewLocks(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		user := GetUserIdentity(e.Request)

		if _, err := app.FindRecordById("estimates", estimateID); err != nil {
			return apiError(e, http.StatusNotFound, "estimate not found")
		}

		status, err := locks.Acquire(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "locks", "acquiring lock", err)
		}
		return e.JSON(http.StatusOK, status)
	}
}

// HandleLockRenew refreshes the heartbeat on a held lock. acquired=false
// means the lock was lost (expired and reclaimed, or overridden) and the
// editor must drop to read-only.
func HandleLockRenew(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	locks := storage.NewLocks(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		user := GetUserIdentity(e.Request)

		status, err := locks.Renew(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "locks", "renewing lock", err)
		}
		return e.JSON(http.StatusOK, status)
	}
}

// HandleLockRelease drops the caller's lock. Releasing a lock held by
// someone else is a silent no-op.
func HandleLockRelease(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	locks := storage.NewLocks(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		user := GetUserIdentity(e.Request)

		if err := locks.Release(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID); err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "locks", "releasing lock", err)
		}
		return e.JSON(http.StatusOK, map[string]bool{"released": true})
	}
}

// HandleLockOverride forcibly takes the lock from its current holder.
// Admin only; the previous holder finds out on their next renewal.
func HandleLockOverride(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	locks := storage.NewLocks(app)

	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		user := GetUserIdentity(e.Request)

		if !user.Admin {
			return apiError(e, http.StatusForbidden, "lock override requires an admin")
		}

		status, err := locks.Override(e.Request.Context(), grid.ResourceTypeEstimate, estimateID, user.ID)
		if err != nil {
			return apiErrorLog(e, http.StatusInternalServerError, "locks", "overriding lock", err)
		}
		return e.JSON(http.StatusOK, status)
	}
}
