// File: api/errors.go
//
// Common error values and the integer error codes mirrored across the
// host boundary. The core never retries: every error is handed upward
// per-request so the host's own policy can act.

package api

import "errors"

// Sentinel errors used across the engine.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidHandle    = errors.New("invalid handle")
	ErrInvalidDirection = errors.New("invalid direction: only reads are supported")
	ErrQueueFull        = errors.New("in-flight queue full")
	ErrEmptyQueue       = errors.New("completion queue empty")
	ErrRequestsInFlight = errors.New("requests still in flight")
	ErrSessionsOpen     = errors.New("sessions still open")
	ErrSessionClosed    = errors.New("session is closed")
	ErrBackendIO        = errors.New("backend i/o error")
)

// ErrorCode is the integer form of an error condition, suitable for
// return across a boundary where only integer-sized values are safe.
// Zero always means success.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeInvalidHandle
	ErrCodeInvalidDirection
	ErrCodeQueueFull
	ErrCodeEmptyQueue
	ErrCodeBusy
	ErrCodeIO
	ErrCodeInternal
)

// CodeOf maps an error to its wire code. Unrecognized errors are
// reported as ErrCodeIO: by the time an unknown error surfaces it came
// out of a backend completion.
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrCodeOK
	case errors.Is(err, ErrInvalidArgument):
		return ErrCodeInvalidArgument
	case errors.Is(err, ErrInvalidHandle), errors.Is(err, ErrSessionClosed):
		return ErrCodeInvalidHandle
	case errors.Is(err, ErrInvalidDirection):
		return ErrCodeInvalidDirection
	case errors.Is(err, ErrQueueFull):
		return ErrCodeQueueFull
	case errors.Is(err, ErrEmptyQueue):
		return ErrCodeEmptyQueue
	case errors.Is(err, ErrRequestsInFlight), errors.Is(err, ErrSessionsOpen):
		return ErrCodeBusy
	default:
		return ErrCodeIO
	}
}
