package client

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection indicates the server could not be reached.
	ErrConnection = errors.New("could not connect to the server")
	// ErrAuth indicates a 401: bad credentials or an expired session.
	ErrAuth = errors.New("not authenticated")
	// ErrPermission indicates a 403.
	ErrPermission = errors.New("permission denied")
	// ErrNotFound indicates a 404 for the requested post or user.
	ErrNotFound = errors.New("not found")
	// ErrUnexpectedStatus indicates a status code the operation does not
	// define. Returned errors are *StatusError values that match it.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrTransport indicates any other failure while sending the request or
	// reading the response.
	ErrTransport = errors.New("transport error")
)

// StatusError carries the status code of an unexpected response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) true for any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// kindOf classifies an error into an outcome kind. Failures the server
// reports deliberately are expected; everything else is a transport failure.
func kindOf(err error) Kind {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrAuth), errors.Is(err, ErrPermission), errors.Is(err, ErrNotFound):
		return ExpectedFailure
	default:
		return TransportFailure
	}
}
