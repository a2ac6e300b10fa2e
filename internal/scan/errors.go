package scan

import (
	"errors"

	"github.com/scan-pay/scan_pay/internal/api"
)

var (
	// ErrPermissionDenied indicates camera access was refused even after a
	// re-request.
	ErrPermissionDenied = errors.New("camera permission denied")

	// ErrCaptureFailed indicates the camera produced no usable image.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrCaptureCancelled indicates the user backed out of the capture.
	// The flow stays idle; this is not surfaced as an error notice.
	ErrCaptureCancelled = errors.New("capture cancelled")

	// ErrUserCancelled indicates an explicit cancel of the whole payment
	// attempt. The orchestrator performs a full reset, including the
	// entered amount.
	ErrUserCancelled = errors.New("cancelled by user")

	// ErrPinIncorrect indicates the backend rejected the submitted PIN.
	// The entry stays actionable so the customer can retry.
	ErrPinIncorrect = errors.New("incorrect pin")
)

// RecognitionError indicates the backend could not match the face. It carries
// the backend's human-readable reason when one was given.
type RecognitionError struct {
	Message string
}

func (e *RecognitionError) Error() string {
	if e.Message == "" {
		return "face not recognized"
	}
	return e.Message
}

// Fixed user-facing strings. Raw transport errors and backend bodies never
// reach the customer display.
const (
	msgPermissionDenied   = "Camera access is required to scan a face."
	msgCaptureFailed      = "Could not capture an image. Please try again."
	msgNetwork            = "Network error. Please check the connection and try again."
	msgPayloadTooLarge    = "The captured image is too large to upload."
	msgServiceUnavailable = "The verification service is temporarily unavailable."
	msgPinIncorrect       = "Incorrect PIN. Please try again."
	msgCancelled          = "Transaction cancelled."
	msgNotRecognized      = "Face not recognized. Please try again."
	msgUnexpected         = "Unexpected response from the verification service."
	msgInvalidResponse    = "Invalid response from verification service."
)

// UserMessage maps any flow error onto exactly one fixed human-readable
// string for the terminal display.
func UserMessage(err error) string {
	var recognition *RecognitionError
	var validation *api.ValidationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return msgPermissionDenied
	case errors.Is(err, ErrCaptureFailed):
		return msgCaptureFailed
	case errors.Is(err, ErrUserCancelled):
		return msgCancelled
	case errors.Is(err, ErrPinIncorrect):
		return msgPinIncorrect
	case errors.Is(err, api.ErrPayloadTooLarge):
		return msgPayloadTooLarge
	case errors.Is(err, api.ErrServiceUnavailable):
		return msgServiceUnavailable
	case errors.Is(err, api.ErrNetwork):
		return msgNetwork
	case errors.As(err, &validation):
		if validation.Detail != "" {
			return "The request was rejected: " + validation.Detail
		}
		return msgUnexpected
	case errors.As(err, &recognition):
		if recognition.Message != "" {
			return recognition.Message
		}
		return msgNotRecognized
	default:
		return msgUnexpected
	}
}
