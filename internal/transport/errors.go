// ABOUTME: Error taxonomy for network operations
// ABOUTME: Distinguishes offline, transport-level, server, and malformed-payload failures

package transport

import (
	"errors"
	"fmt"
)

// ConnectivityError means the operation was attempted while the
// connectivity signal was down. Expected during offline use; callers
// queue or skip rather than report a failure.
type ConnectivityError struct {
	Op string
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: offline", e.Op)
}

// TransportError is a network-level failure that survived the retry
// budget.
type TransportError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx HTTP response. Status and Body are kept for
// caller inspection; the transport never retries these.
type ServerError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Body)
}

// MalformedDataError is an unexpected payload shape. Callers with a safe
// default log it and degrade rather than fail.
type MalformedDataError struct {
	Op  string
	Err error
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

// IsOffline reports whether err is (or wraps) a ConnectivityError.
func IsOffline(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsServer reports whether err is (or wraps) a ServerError.
func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
