package mgmt

import (
	"errors"
	"fmt"
)

// Failure taxonomy for one exchange. The three sentinels are the call-level
// failures; a peer-reported update failure is not an error at all — it rides
// inside the returned result list.
var (
	// ErrConnect: the connection could not be established within the
	// connect timeout. Never retried by this layer.
	ErrConnect = errors.New("connection to server manager failed")

	// ErrProtocolMismatch: the response code or a field tag did not match
	// what the variant declared. Signals wire desynchronization or version
	// skew; fatal to the exchange and the connection is never reused.
	ErrProtocolMismatch = errors.New("management protocol mismatch")

	// ErrCountMismatch: the batch response announced a different number of
	// results than updates sent. The whole call fails; no partial results
	// are exposed.
	ErrCountMismatch = errors.New("response count not equal to update count")
)

// ManagementError is what the client facade raises for any call-level
// failure, wrapping the underlying cause so errors.Is still reaches the
// sentinels above.
type ManagementError struct {
	Op  string // the facade operation, e.g. "update host model"
	Err error
}

func (e *ManagementError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ManagementError) Unwrap() error {
	return e.Err
}
