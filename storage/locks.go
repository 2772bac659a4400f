package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"gridbuilder/grid"
)

// DefaultLockTTL is how stale a lock heartbeat may be before any other
// user can reclaim the lock. Four missed heartbeats at the engine's
// default interval.
const DefaultLockTTL = 60 * time.Second

// Locks is the edit_locks-backed single-writer lock. It implements
// grid.LockService. Expiry is enforced here: a row whose heartbeat is
// older than the TTL is treated as free.
type Locks struct {
	app *pocketbase.PocketBase
	ttl time.Duration

	// serializes check-then-write sequences within this process
	mu sync.Mutex
}

func NewLocks(app *pocketbase.PocketBase) *Locks {
	return &Locks{app: app, ttl: DefaultLockTTL}
}

// NewLocksWithTTL is used by tests that need fast expiry.
func NewLocksWithTTL(app *pocketbase.PocketBase, ttl time.Duration) *Locks {
	return &Locks{app: app, ttl: ttl}
}

// Acquire takes the lock for userID. Re-acquiring a lock you already hold
// refreshes its heartbeat. A fresh lock held by someone else is refused
// (Acquired false, no error); an expired one is reclaimed.
func (s *Locks) Acquire(ctx context.Context, resourceType, resourceID, userID string) (grid.LockStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.find(resourceType, resourceID)
	if err != nil {
		return grid.LockStatus{}, err
	}

	now := time.Now().UTC()

	if existing != nil {
		holder := existing.GetString("holder")
		heartbeat := existing.GetDateTime("heartbeat").Time()

		if holder == userID {
			existing.Set("heartbeat", now)
			if err := s.app.Save(existing); err != nil {
				return grid.LockStatus{}, fmt.Errorf("storage: refresh lock: %w", err)
			}
			return s.status(existing, true), nil
		}

		if now.Sub(heartbeat) <= s.ttl {
			return s.status(existing, false), nil
		}

		// expired: reclaim
		if err := s.app.Delete(existing); err != nil {
			return grid.LockStatus{}, fmt.Errorf("storage: reclaim expired lock: %w", err)
		}
	}

	return s.create(resourceType, resourceID, userID, now)
}

// Renew refreshes the heartbeat of a lock the user holds. If the lock is
// gone or held by someone else the status comes back unacquired with the
// current holder, and no error: the caller decides how to react.
func (s *Locks) Renew(ctx context.Context, resourceType, resourceID, userID string) (grid.LockStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.find(resourceType, resourceID)
	if err != nil {
		return grid.LockStatus{}, err
	}
	if existing == nil {
		return grid.LockStatus{}, nil
	}
	if existing.GetString("holder") != userID {
		return s.status(existing, false), nil
	}

	existing.Set("heartbeat", time.Now().UTC())
	if err := s.app.Save(existing); err != nil {
		return grid.LockStatus{}, fmt.Errorf("storage: renew lock: %w", err)
	}
	return s.status(existing, true), nil
}

// Release drops the lock if userID holds it. Releasing a lock you do not
// hold is a no-op.
func (s *Locks) Release(ctx context.Context, resourceType, resourceID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.find(resourceType, resourceID)
	if err != nil {
		return err
	}
	if existing == nil || existing.GetString("holder") != userID {
		return nil
	}
	if err := s.app.Delete(existing); err != nil {
		return fmt.Errorf("storage: release lock: %w", err)
	}
	return nil
}

// Override forcibly transfers the lock to userID regardless of the current
// holder or freshness. The handlers restrict who may call this.
func (s *Locks) Override(ctx context.Context, resourceType, resourceID, userID string) (grid.LockStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.find(resourceType, resourceID)
	if err != nil {
		return grid.LockStatus{}, err
	}
	if existing != nil {
		if err := s.app.Delete(existing); err != nil {
			return grid.LockStatus{}, fmt.Errorf("storage: evict lock: %w", err)
		}
	}

	return s.create(resourceType, resourceID, userID, time.Now().UTC())
}

func (s *Locks) find(resourceType, resourceID string) (*core.Record, error) {
	records, err := s.app.FindRecordsByFilter(
		"edit_locks",
		"resource_type = {:rt} && resource_id = {:rid}",
		"",
		1,
		0,
		dbx.Params{"rt": resourceType, "rid": resourceID},
	)
	if err != nil {
		return nil, fmt.Errorf("storage: query lock: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (s *Locks) create(resourceType, resourceID, userID string, now time.Time) (grid.LockStatus, error) {
	col, err := s.app.FindCollectionByNameOrId("edit_locks")
	if err != nil {
		return grid.LockStatus{}, fmt.Errorf("storage: find edit_locks collection: %w", err)
	}

	r := core.NewRecord(col)
	r.Set("resource_type", resourceType)
	r.Set("resource_id", resourceID)
	r.Set("holder", userID)
	r.Set("holder_name", s.holderName(userID))
	r.Set("acquired", now)
	r.Set("heartbeat", now)
	if err := s.app.Save(r); err != nil {
		return grid.LockStatus{}, fmt.Errorf("storage: create lock: %w", err)
	}

	return s.status(r, true), nil
}

// holderName resolves a display name for the locking user, best effort.
func (s *Locks) holderName(userID string) string {
	user, err := s.app.FindRecordById("users", userID)
	if err != nil {
		return ""
	}
	if name := user.GetString("name"); name != "" {
		return name
	}
	return user.GetString("email")
}

func (s *Locks) status(r *core.Record, acquired bool) grid.LockStatus {
	return grid.LockStatus{
		Acquired:    acquired,
		HolderID:    r.GetString("holder"),
		HolderName:  r.GetString("holder_name"),
		AcquiredAt:  r.GetDateTime("acquired").Time(),
		HeartbeatAt: r.GetDateTime("heartbeat").Time(),
	}
}
