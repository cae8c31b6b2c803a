// Package metadata keeps small pieces of client bookkeeping, such as the
// outcome of the last sync pass, in a key/value table.
package metadata

import (
	"context"
	"time"
)

// Well-known keys.
const (
	KeyLastSyncAt    = "last_sync_at"
	KeyLastSyncError = "last_sync_error"
)

// LeaseSync names the lease held while a sync pass runs.
const LeaseSync = "sync"

type Repository interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error

	// TryLease takes or extends the named lease for owner until the given
	// time. It fails (ok is false) while another owner holds an unexpired
	// lease at now.
	TryLease(ctx context.Context, name, owner string, now, until time.Time) (ok bool, err error)
	// ReleaseLease drops the lease if owner holds it.
	ReleaseLease(ctx context.Context, name, owner string) error
}
