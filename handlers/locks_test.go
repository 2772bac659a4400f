package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gridbuilder/grid"
	"gridbuilder/testhelpers"
)

func TestHandleLockAcquire_Free(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Lockable")

	handler := HandleLockAcquire(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/estimates/%s/lock", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "alice", "Alice", false)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var status grid.LockStatus
	decodeJSON(t, rec, &status)
	if !status.Acquired || status.HolderID != "alice" {
		t.Errorf("status = %+v, want acquired by alice", status)
	}
}

func TestHandleLockAcquire_HeldByOther(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Contested")
	testhelpers.CreateTestLock(t, app, grid.ResourceTypeEstimate, estimate.Id, "bob", 0)

	handler := HandleLockAcquire(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/estimates/%s/lock", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "alice", "Alice", false)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (refusal is not an error)", rec.Code)
	}

	var status grid.LockStatus
	decodeJSON(t, rec, &status)
	if status.Acquired {
		t.Error("lock should not be acquired")
	}
	if status.HolderID != "bob" {
		t.Errorf("holder = %q, want bob", status.HolderID)
	}
}

func TestHandleLockAcquire_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	handler := HandleLockAcquire(app)
	req := httptest.NewRequest(http.MethodPost, "/api/estimates/nonexistent/lock", nil)
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleLockRenew(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Renewable")
	testhelpers.CreateTestLock(t, app, grid.ResourceTypeEstimate, estimate.Id, "alice", 0)

	handler := HandleLockRenew(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/estimates/%s/lock/renew", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "alice", "Alice", false)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var status grid.LockStatus
	decodeJSON(t, rec, &status)
	if !status.Acquired {
		t.Errorf("renewal by holder should succeed, got %+v", status)
	}
}

func TestHandleLockRenew_LostToOverride(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Taken Over")
	testhelpers.CreateTestLock(t, app, grid.ResourceTypeEstimate, estimate.Id, "bob", 0)

	handler := HandleLockRenew(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/estimates/%s/lock/renew", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "alice", "Alice", false)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var status grid.LockStatus
	decodeJSON(t, rec, &status)
	if status.Acquired {
		t.Error("renewal by a non-holder should report the lock as lost")
	}
	if status.HolderID != "bob" {
		t.Errorf("holder = %q, want bob", status.HolderID)
	}
}

func TestHandleLockRelease(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Releasable")
	testhelpers.CreateTestLock(t, app, grid.ResourceTypeEstimate, estimate.Id, "alice", 0)

	handler := HandleLockRelease(app)
	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/estimates/%s/lock", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "alice", "Alice", false)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	locks, _ := app.FindRecordsByFilter("edit_locks", "resource_id = {:rid}", "", 0, 0, map[string]any{"rid": estimate.Id})
	if len(locks) != 0 {
		t.Error("lock record should be gone")
	}
}

func TestHandleLockOverride_Admin(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Overridable")
	testhelpers.CreateTestLock(t, app, grid.ResourceTypeEstimate, estimate.Id, "bob", 0)

	handler := HandleLockOverride(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/estimates/%s/lock/override", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "carol", "Carol", true)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var status grid.LockStatus
	decodeJSON(t, rec, &status)
	if !status.Acquired || status.HolderID != "carol" {
		t.Errorf("status = %+v, want acquired by carol", status)
	}
}

func TestHandleLockOverride_NonAdmin(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	estimate := testhelpers.CreateTestEstimate(t, app, "", "Protected")
	testhelpers.CreateTestLock(t, app, grid.ResourceTypeEstimate, estimate.Id, "bob", 0)

	handler := HandleLockOverride(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/estimates/%s/lock/override", estimate.Id), nil)
	req.SetPathValue("id", estimate.Id)
	req = asUser(req, "alice", "Alice", false)
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}

	// bob's lock survives
	locks, _ := app.FindRecordsByFilter("edit_locks", "resource_id = {:rid}", "", 0, 0, map[string]any{"rid": estimate.Id})
	if len(locks) != 1 || locks[0].GetString("holder") != "bob" {
		t.Error("lock should still belong to bob")
	}
}
