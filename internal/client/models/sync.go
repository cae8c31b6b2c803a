package models

import "time"

// ErrorKind classifies why a sync attempt did not succeed.
type ErrorKind string

const (
	// KindNoConnection means no request was attempted.
	KindNoConnection ErrorKind = "no_connection"
	// KindTransport means the request failed before a response arrived.
	KindTransport ErrorKind = "transport"
	// KindRemoteRejected means the endpoint answered with a failure.
	KindRemoteRejected ErrorKind = "remote_rejected"
	// KindStorage means the local store could not be read or written.
	KindStorage ErrorKind = "storage"
)

// SyncError is the failure attached to a SyncResult. Message is meant to
// be shown to the user as is.
type SyncError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *SyncError) Error() string { return e.Message }

func (e *SyncError) Unwrap() error { return e.Err }

// SyncResult is the outcome of one engine run.
type SyncResult struct {
	Success bool
	Synced  int
	Err     *SyncError
}

// Failed reports whether the run attempted a transfer and it went wrong.
func (r SyncResult) Failed() bool {
	return !r.Success && r.Err != nil
}

// CollectionStats counts synced and queued items of one collection.
type CollectionStats struct {
	Synced int `json:"synced"`
	Queued int `json:"queued"`
}

// Stats is the aggregate state of the local queue.
type Stats struct {
	Samples CollectionStats `json:"samples"`
	Images  CollectionStats `json:"images"`
}

// PassResult is the outcome of one orchestrated sync pass.
type PassResult struct {
	Trigger    string
	Samples    SyncResult
	Images     SyncResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is how long the pass took.
func (p PassResult) Duration() time.Duration {
	return p.FinishedAt.Sub(p.StartedAt)
}
