package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when no base URL is set.
	ErrNotConfigured = errors.New("remote service is not configured")
	// ErrUnknownResponseShape means the upload response matched no known envelope.
	ErrUnknownResponseShape = errors.New("unknown response shape")
	// ErrRejected means the service answered but refused the upload.
	ErrRejected = errors.New("upload rejected")
)

// TransportError reports a request that failed before a usable response arrived.
// No local state is changed when it is returned.
type TransportError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
