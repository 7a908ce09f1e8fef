package upload

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every *TransportError
	ErrTransport = errors.New("upload: transport error")

	// ErrResponseFormat is returned when the upload service replies with a body
	// that is not JSON or has no "key" field
	ErrResponseFormat = errors.New("upload: unexpected response format")
)

// TransportError reports a failed upload request: either the HTTP round trip
// failed or the service answered with a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload: %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upload: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
