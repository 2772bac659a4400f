package grid

import (
	"context"
	"time"
)

// The engine talks to the outside world only through these narrow
// interfaces. PocketBase-backed implementations live in the storage
// package; tests substitute in-memory fakes.

// TemplateSource provides the full product-template set, fetched once per
// editing session before first row hydration.
type TemplateSource interface {
	GetAllTemplates(ctx context.Context) (map[int]Template, error)
}

// PreferenceSource provides a customer's manufacturing preferences. A nil
// result with nil error means the customer has none recorded.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, customerID string) (*ManufacturingPreferences, error)
}

// DocumentStore loads and saves the flattened grid representation of one
// estimate.
type DocumentStore interface {
	LoadDocument(ctx context.Context, estimateID string) ([]SimplifiedRow, error)
	SaveDocument(ctx context.Context, estimateID string, rows []SimplifiedRow, total float64) error
}

// LockStatus reports the outcome of a lock operation, including the current
// holder's identity when the request was refused.
type LockStatus struct {
	Acquired    bool      `json:"acquired"`
	HolderID    string    `json:"holderId"`
	HolderName  string    `json:"holderName"`
	AcquiredAt  time.Time `json:"acquiredAt"`
	HeartbeatAt time.Time `json:"heartbeatAt"`
}

// LockService is the remote single-writer lock. Expiry is enforced by the
// service; the engine only reacts to refusals and renewal failures.
type LockService interface {
	Acquire(ctx context.Context, resourceType, resourceID, userID string) (LockStatus, error)
	Renew(ctx context.Context, resourceType, resourceID, userID string) (LockStatus, error)
	Release(ctx context.Context, resourceType, resourceID, userID string) error
	Override(ctx context.Context, resourceType, resourceID, userID string) (LockStatus, error)
}
