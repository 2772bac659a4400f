package grid

import (
	"context"
	"log"
	"sync"
	"time"
)

// LockState is the edit lock manager's lifecycle position.
type LockState string

const (
	LockUnlocked  LockState = "unlocked"
	LockAcquiring LockState = "acquiring"
	LockHeld      LockState = "held"
	LockLost      LockState = "lost"
	LockReleased  LockState = "released"
)

// ResourceTypeEstimate is the lock resource type for estimate documents.
const ResourceTypeEstimate = "estimate"

// DefaultHeartbeatInterval is how often a held lock is renewed.
const DefaultHeartbeatInterval = 15 * time.Second

// EditLockManager owns the single-writer lock for one document on behalf
// of one user. While held, a background heartbeat renews the lock; a
// failed renewal moves the manager to LockLost and fires the loss
// callback, which must demote the document to read-only immediately.
//
// Read-only is advisory here: the persistence layer is the authoritative
// enforcement, the manager only keeps the session consistent with it.
type EditLockManager struct {
	svc        LockService
	resourceID string
	userID     string
	interval   time.Duration

	onLost func()

	mu     sync.Mutex
	state  LockState
	status LockStatus
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEditLockManager creates a manager in the unlocked state. onLost is
// invoked (from the heartbeat goroutine) when a renewal fails or reports
// another holder.
func NewEditLockManager(svc LockService, resourceID, userID string, interval time.Duration, onLost func()) *EditLockManager {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &EditLockManager{
		svc:        svc,
		resourceID: resourceID,
		userID:     userID,
		interval:   interval,
		onLost:     onLost,
		state:      LockUnlocked,
	}
}

// State returns the current lifecycle state.
func (m *EditLockManager) State() LockState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the last lock status observed, including the holder
// identity when the lock was refused.
func (m *EditLockManager) Status() LockStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Acquire requests exclusive ownership. On success the manager moves to
// LockHeld and starts the heartbeat; on refusal it stays unlocked and the
// returned status names the current holder for display.
func (m *EditLockManager) Acquire(ctx context.Context) (LockStatus, error) {
	m.mu.Lock()
	if m.state == LockHeld {
		status := m.status
		m.mu.Unlock()
		return status, nil
	}
	m.state = LockAcquiring
	m.mu.Unlock()

	status, err := m.svc.Acquire(ctx, ResourceTypeEstimate, m.resourceID, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	if err != nil {
		m.state = LockUnlocked
		return status, err
	}
	if !status.Acquired {
		m.state = LockUnlocked
		return status, nil
	}
	m.state = LockHeld
	m.startHeartbeatLocked()
	return status, nil
}

// Override force-acquires the lock, preempting the current holder. The
// caller is responsible for checking the user's override capability; the
// service rejects unauthorized overrides regardless.
func (m *EditLockManager) Override(ctx context.Context) (LockStatus, error) {
	status, err := m.svc.Override(ctx, ResourceTypeEstimate, m.resourceID, m.userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	if err != nil || !status.Acquired {
		return status, err
	}
	m.state = LockHeld
	m.startHeartbeatLocked()
	return status, nil
}

// Release voluntarily gives the lock up, on navigation away or editor
// close. Stops the heartbeat first so a renewal never races the release.
func (m *EditLockManager) Release(ctx context.Context) error {
	m.mu.Lock()
	if m.state != LockHeld {
		m.mu.Unlock()
		return nil
	}
	m.state = LockReleased
	m.stopHeartbeatLocked()
	m.mu.Unlock()

	return m.svc.Release(ctx, ResourceTypeEstimate, m.resourceID, m.userID)
}

// Stop halts the heartbeat without contacting the service. Used on
// shutdown paths where the lock is left to expire.
func (m *EditLockManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopHeartbeatLocked()
}

// startHeartbeatLocked launches the renewal loop. Caller holds m.mu.
func (m *EditLockManager) startHeartbeatLocked() {
	m.stopHeartbeatLocked()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !m.renew(ctx) {
					return
				}
			}
		}
	}(m.done)
}

func (m *EditLockManager) stopHeartbeatLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// renew performs one heartbeat. Returns false when the lock is gone and
// the loop should exit.
func (m *EditLockManager) renew(ctx context.Context) bool {
	status, err := m.svc.Renew(ctx, ResourceTypeEstimate, m.resourceID, m.userID)
	if err == nil && status.Acquired && status.HolderID == m.userID {
		m.mu.Lock()
		m.status = status
		m.mu.Unlock()
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		log.Printf("editlock: renew failed for %s: %v", m.resourceID, err)
	}

	m.mu.Lock()
	if m.state != LockHeld {
		m.mu.Unlock()
		return false
	}
	m.state = LockLost
	m.status = status
	m.stopHeartbeatLocked()
	m.mu.Unlock()

	if m.onLost != nil {
		m.onLost()
	}
	return false
}
