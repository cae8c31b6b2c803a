package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iobis/edna-sample-app/internal/client/repositories/metadata"
)

// DefaultLeaseTTL bounds how long a crashed process can keep others from
// syncing. Holders renew well before it runs out.
const DefaultLeaseTTL = time.Minute

// SyncLease is the store-wide sync lock. Every process opening the same
// data directory competes for the one lease row, so only one of them runs
// a pass at a time.
type SyncLease struct {
	repo  metadata.Repository
	owner string
	ttl   time.Duration
	now   func() time.Time
}

func NewSyncLease(repo metadata.Repository, ttl time.Duration) *SyncLease {
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	return &SyncLease{
		repo:  repo,
		owner: uuid.NewString(),
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Acquire takes the lease, or extends it when already held. ok is false
// while another holder's lease is live.
func (l *SyncLease) Acquire(ctx context.Context) (bool, error) {
	now := l.now()
	return l.repo.TryLease(ctx, metadata.LeaseSync, l.owner, now, now.Add(l.ttl))
}

func (l *SyncLease) Release(ctx context.Context) error {
	return l.repo.ReleaseLease(ctx, metadata.LeaseSync, l.owner)
}

// RenewEvery is how often a holder should call Acquire again.
func (l *SyncLease) RenewEvery() time.Duration {
	return l.ttl / 3
}
