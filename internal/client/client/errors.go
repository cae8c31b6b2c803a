package client

import (
	"errors"
	"fmt"
)

// ErrUnavailable reports that a request failed before any response was
// received.
var ErrUnavailable = errors.New("server unavailable")

// RemoteError is a non-2xx answer from the collection endpoint.
type RemoteError struct {
	StatusCode int
	Reason     string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote rejected request: %d %s", e.StatusCode, e.Reason)
}
