package domain

import "errors"

// Error classes. Remote and local failures wrap exactly one of these so
// callers can branch with errors.Is.
var (
	// ErrTransient is a network failure, timeout, throttle or 5xx. Retryable.
	ErrTransient = errors.New("transient failure")
	// ErrRejected is a validation or conflict failure for a specific request.
	ErrRejected = errors.New("rejected by server")
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means the bearer credential was missing, expired or insufficient.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadyApplied is returned when the requested transition is already in
	// effect. Batch execution counts it as success.
	ErrAlreadyApplied    = errors.New("transition already applied")
	ErrInvalidResponse   = errors.New("invalid server response")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidRequest    = errors.New("invalid request")
)

// ErrorClass is the serializable name of an error's class.
type ErrorClass string

const (
	ClassTransient ErrorClass = "transient"
	ClassRejected  ErrorClass = "rejected"
	ClassNotFound  ErrorClass = "not_found"
	ClassAuth      ErrorClass = "unauthorized"
	ClassInvalid   ErrorClass = "invalid"
	ClassUnknown   ErrorClass = "unknown"
)

// Classify maps an error onto its class.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransient):
		return ClassTransient
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrUnauthorized):
		return ClassAuth
	case errors.Is(err, ErrRejected):
		return ClassRejected
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInvalidRequest):
		return ClassInvalid
	}
	return ClassUnknown
}

// Retryable reports whether retrying the same call may succeed.
func (c ErrorClass) Retryable() bool {
	return c == ClassTransient || c == ClassUnknown
}
