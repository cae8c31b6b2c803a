package orchestrator

import "errors"

var (
	// ErrSyncInProgress is returned while a pass is running, in this process
	// or in another one sharing the store.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrOffline is returned by SyncNow when the endpoint is unreachable.
	ErrOffline = errors.New("no internet connection")
	// ErrStopped is returned by SyncNow when Run is not active.
	ErrStopped = errors.New("orchestrator is not running")
)
