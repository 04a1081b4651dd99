// Package store provides session snapshot persistence.
package store

import (
	"context"

	"github.com/KatriaDopex/moltmatch/internal/domain"
)

// Repository persists one session snapshot per device identity. The
// snapshot covers credentials, the signed-in agent, live/demo mode, and
// matches; the in-memory candidate queue is rebuilt on demand and never
// persisted.
type Repository interface {
	// LoadSession reads the snapshot for a device. A missing row yields
	// (nil, nil); a malformed row yields the defined empty session, never
	// an error. Corruption is logged, not fatal.
	LoadSession(ctx context.Context, deviceID string) (*domain.SessionState, error)

	// SaveSession writes the full snapshot for a device. Re-saving an
	// unchanged state is idempotent. On failure the previously stored
	// snapshot is left intact.
	SaveSession(ctx context.Context, deviceID string, state *domain.SessionState) error

	// ClearSession deletes the snapshot for a device. Clearing an absent
	// snapshot is a no-op.
	ClearSession(ctx context.Context, deviceID string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
