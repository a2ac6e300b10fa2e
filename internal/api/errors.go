package api

import "errors"

var (
	// ErrNetwork covers transport failures, timeouts, and auth teardown
	// mid-flow. Callers treat it as "no information", never as a payment
	// outcome.
	ErrNetwork = errors.New("network error")

	// ErrPayloadTooLarge indicates the backend rejected the image upload
	// with 413.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrServiceUnavailable indicates a 5xx from the verification service.
	ErrServiceUnavailable = errors.New("verification service unavailable")
)

// ValidationError carries the backend's 422 detail.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "validation error"
	}
	return "validation error: " + e.Detail
}
