package types

import (
	"errors"
	"fmt"
)

// Entity lifecycle errors.
var (
	// ErrRemote is matched by every *RemoteError.
	ErrRemote = errors.New("remote error")

	// ErrNotImplemented reports a variant that does not declare a resource
	// name or schema.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownModel reports a registry lookup miss.
	ErrUnknownModel = errors.New("unknown model")

	// ErrBusy is returned when a save or delete is requested while another
	// request for the same entity is in flight.
	ErrBusy = errors.New("request already in flight")

	// ErrDetached is returned when a response arrives for an entity that
	// was evicted while the request was in flight.
	ErrDetached = errors.New("entity is detached")

	ErrUnknownField = errors.New("unknown field")
)

// RemoteError is a non-2xx HTTP response from the catalog backend.
type RemoteError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *RemoteError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is makes errors.Is(err, ErrRemote) true for any RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// IsClientError reports whether the status is in the 4xx range.
func (e *RemoteError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
