package portalclient

import (
	"errors"
	"fmt"
)

// ErrRequestInFlight is returned when a booking or reschedule is started
// while a previous one has not finished. One submission at a time.
var ErrRequestInFlight = errors.New("a booking request is already in progress")

// ValidationError reports a missing or malformed field in the booking draft,
// caught before anything is sent to the server.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// NetworkError wraps a transport failure: the request may or may not have
// reached the server.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response with the server's error message.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// PartialFailure means a reschedule cancelled the old appointment but failed
// to create the new one. The patient has no booking and must book again.
type PartialFailure struct {
	CancelledID int64
	Err         error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("appointment %d was cancelled but rebooking failed: %v", e.CancelledID, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }
