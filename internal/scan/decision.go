package scan

import (
	"strings"

	"github.com/scan-pay/scan_pay/internal/api"
)

// DecisionKind tags the outcome of interpreting a face verification response.
type DecisionKind int

const (
	// DecisionFailure is a terminal recognition failure.
	DecisionFailure DecisionKind = iota
	// DecisionSuccess is a terminal success; AlreadyProcessed and RequestID
	// say what, if anything, still has to be watched.
	DecisionSuccess
	// DecisionRequirePin means a PIN must be collected before the payment
	// can proceed.
	DecisionRequirePin
)

// Decision is the interpreted form of a FaceVerificationResult.
type Decision struct {
	Kind             DecisionKind
	UserID           string
	UserName         string
	FaceScanID       string
	AlreadyProcessed bool
	RequestID        string
	Message          string
}

// Phrases signalling that a payment request was already created and
// dispatched, regardless of what the flags claim.
var dispatchedPhrases = []string{
	"payment request created",
	"sent to customer",
	"payment initiated",
}

// Phrases signalling an ambiguous match that should fall back to a PIN.
var ambiguousPhrases = []string{
	"multiple",
	"similar",
	"pin",
	"verification required",
}

func containsAny(message string, phrases []string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// InterpretFaceResponse maps a backend response onto a Decision through an
// ordered strict-then-lenient cascade. The backend's contract is known to be
// inconsistent: the same service has returned contradictory flag/message
// combinations, so a true success must never be read as a failure, and an
// uncertain match must err toward requesting a PIN rather than authorizing
// silently. The branch order is load-bearing.
func InterpretFaceResponse(result api.FaceVerificationResult) Decision {
	if result.RequiresPIN {
		if result.FaceScanID == "" {
			// Hard error, distinct from "no match": the PIN step cannot
			// be correlated without a scan ID.
			return Decision{Kind: DecisionFailure, Message: msgInvalidResponse}
		}
		return Decision{Kind: DecisionRequirePin, FaceScanID: result.FaceScanID}
	}

	if result.Success {
		if containsAny(result.Message, dispatchedPhrases) {
			d := Decision{
				Kind:      DecisionSuccess,
				RequestID: result.EffectiveRequestID(),
				Message:   result.Message,
			}
			if len(result.Matches) > 0 {
				d.UserID = result.Matches[0].UserID
				d.UserName = result.Matches[0].Name
			}
			return d
		}

		if result.MatchFound && len(result.Matches) > 0 && result.FaceScanID != "" {
			return Decision{
				Kind:             DecisionSuccess,
				UserID:           result.Matches[0].UserID,
				UserName:         result.Matches[0].Name,
				FaceScanID:       result.FaceScanID,
				AlreadyProcessed: result.AutoPayment,
				RequestID:        result.EffectiveRequestID(),
			}
		}

		if containsAny(result.Message, ambiguousPhrases) {
			return Decision{Kind: DecisionRequirePin, FaceScanID: result.FaceScanID}
		}

		if result.FaceScanID != "" {
			return Decision{Kind: DecisionRequirePin, FaceScanID: result.FaceScanID}
		}

		return Decision{
			Kind:      DecisionSuccess,
			UserID:    "unknown",
			UserName:  "Customer",
			RequestID: result.EffectiveRequestID(),
		}
	}

	// A false success flag must not mask an actual successful dispatch.
	if containsAny(result.Message, dispatchedPhrases) {
		return Decision{
			Kind:      DecisionSuccess,
			RequestID: result.EffectiveRequestID(),
			Message:   result.Message,
		}
	}

	message := result.Message
	if message == "" {
		message = msgNotRecognized
	}
	return Decision{Kind: DecisionFailure, Message: message}
}
