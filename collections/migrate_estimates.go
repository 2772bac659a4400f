package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/tools/types"
)

// MigrateEstimateDisplayNames finds all estimate records without a display
// name and backfills one from the record's creation date. Safe to call on
// every startup -- returns early if nothing to migrate.
func MigrateEstimateDisplayNames(app *pocketbase.PocketBase) error {
	estimatesCol, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return fmt.Errorf("migrate: could not find estimates collection: %w", err)
	}

	unnamed, err := app.FindRecordsByFilter(
		estimatesCol,
		"display_name = ''",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query unnamed estimates: %w", err)
	}

	if len(unnamed) == 0 {
		return nil
	}

	log.Printf("migrate: found %d estimate(s) without a display name -- backfilling...\n", len(unnamed))

	for _, est := range unnamed {
		created := est.GetDateTime("created").Time()
		name := fmt.Sprintf("Estimate %s", created.Format("2006-01-02"))

		est.Set("display_name", name)
		if err := app.Save(est); err != nil {
			log.Printf("migrate: failed to backfill display name for estimate %s: %v\n", est.Id, err)
			continue
		}
	}

	log.Println("migrate: estimate display name backfill complete.")
	return nil
}

// PurgeExpiredLocks deletes edit_locks rows whose heartbeat is older than
// the TTL. Run on startup so locks orphaned by a crash do not block editing.
func PurgeExpiredLocks(app *pocketbase.PocketBase, ttl time.Duration) error {
	locksCol, err := app.FindCollectionByNameOrId("edit_locks")
	if err != nil {
		return fmt.Errorf("migrate: could not find edit_locks collection: %w", err)
	}

	cutoff := time.Now().Add(-ttl)
	cutoffDT, err := types.ParseDateTime(cutoff)
	if err != nil {
		return fmt.Errorf("migrate: parse cutoff: %w", err)
	}

	expired, err := app.FindRecordsByFilter(
		locksCol,
		"heartbeat < {:cutoff}",
		"",
		0,
		0,
		dbx.Params{"cutoff": cutoffDT.String()},
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query expired locks: %w", err)
	}

	if len(expired) == 0 {
		return nil
	}

	log.Printf("migrate: purging %d expired edit lock(s)...\n", len(expired))

	for _, lock := range expired {
		if err := app.Delete(lock); err != nil {
			log.Printf("migrate: failed to delete expired lock %s: %v\n", lock.Id, err)
		}
	}

	return nil
}
