package models

import "errors"

// Expected, caller-actionable outcomes. Services return these (usually wrapped
// with fmt.Errorf("%w: ...")) and the HTTP layer maps them to status codes with
// errors.Is. Anything not in this list is treated as an infrastructure failure.
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrIllegalState          = errors.New("operation not valid in current state")
	ErrConflict              = errors.New("conflict")
	ErrExpired               = errors.New("grant expired")
	ErrNoCapacity            = errors.New("no capacity")
	ErrUnsupportedMediaType  = errors.New("unsupported media type")
	ErrPayloadTooLarge       = errors.New("payload too large")
	ErrUnsafeContent         = errors.New("unsafe content")
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrClassifierUnavailable = errors.New("tone classifier unavailable")
	ErrToneBlocked           = errors.New("message blocked by tone policy")

	// ErrCaseloadUnderflow indicates a prior accounting bug, not a user error.
	// It must never be clamped silently.
	ErrCaseloadUnderflow = errors.New("caseload decrement would underflow")
)

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// HealthCheckResponse is the response body for the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
