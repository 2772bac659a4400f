package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/collections"
	"gridbuilder/handlers"
	"gridbuilder/storage"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateEstimateDisplayNames(app); err != nil {
			log.Printf("Warning: display name migration failed: %v", err)
		}
		if err := collections.PurgeExpiredLocks(app, storage.DefaultLockTTL); err != nil {
			log.Printf("Warning: lock purge failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// The proxy in front of the app authenticates and forwards identity
		// headers; every route sees the resolved caller.
		se.Router.BindFunc(handlers.UserIdentityMiddleware(app))

		// ── Grid catalog ─────────────────────────────────────────
		se.Router.GET("/api/grid/templates", handlers.HandleGridTemplates(app))
		se.Router.GET("/api/grid/preferences/{customerId}", handlers.HandleGridPreferences(app))

		// ── Stateless validate & price ───────────────────────────
		se.Router.POST("/api/grid/price", handlers.HandleGridPrice(app))

		// ── Estimate CRUD ────────────────────────────────────────
		se.Router.GET("/api/estimates", handlers.HandleEstimateList(app))
		se.Router.POST("/api/estimates", handlers.HandleEstimateCreate(app))
		se.Router.DELETE("/api/estimates/{id}", handlers.HandleEstimateDelete(app))

		// ── Estimate document ────────────────────────────────────
		se.Router.GET("/api/estimates/{id}/grid", handlers.HandleGridLoad(app))
		se.Router.PUT("/api/estimates/{id}/grid", handlers.HandleGridSave(app))

		// ── Edit locks ───────────────────────────────────────────
		se.Router.POST("/api/estimates/{id}/lock", handlers.HandleLockAcquire(app))
		se.Router.POST("/api/estimates/{id}/lock/renew", handlers.HandleLockRenew(app))
		se.Router.DELETE("/api/estimates/{id}/lock", handlers.HandleLockRelease(app))
		se.Router.POST("/api/estimates/{id}/lock/override", handlers.HandleLockOverride(app))

		// ── Exports ──────────────────────────────────────────────
		se.Router.GET("/api/estimates/{id}/export/xlsx", handlers.HandleEstimateExportExcel(app))
		se.Router.GET("/api/estimates/{id}/export/pdf", handlers.HandleEstimateExportPDF(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
