package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend operations. Checked with errors.Is().
var (
	// ErrBusy indicates a dispatch was attempted while one is in flight.
	// This is a caller guard violation and should never reach the user.
	ErrBusy = errors.New("request already in flight")

	// ErrUnauthorized indicates the backend rejected the credential (401).
	// The controller treats this as a forced logout.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnreachable indicates no response was received at all.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrRejected is the base of every RejectedError, so callers can use
	// errors.Is(err, ErrRejected) without caring about the message.
	ErrRejected = errors.New("request rejected")
)

// RejectedError is a non-success HTTP response with a server-supplied
// reason. The message is safe to show verbatim to the user.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("request rejected (HTTP %d): %s", e.Status, e.Message)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }
