package scan

import (
	"testing"

	"github.com/scan-pay/scan_pay/internal/api"
)

func TestRequiresPinWithScanID(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{RequiresPIN: true, FaceScanID: "f2"})
	if d.Kind != DecisionRequirePin {
		t.Fatalf("expected RequirePin, got %v", d.Kind)
	}
	if d.FaceScanID != "f2" {
		t.Fatalf("expected scan id f2, got %q", d.FaceScanID)
	}
}

func TestRequiresPinWithoutScanIDIsHardError(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{RequiresPIN: true, Success: true})
	if d.Kind != DecisionFailure {
		t.Fatalf("expected Failure, got %v", d.Kind)
	}
	if d.Message != msgInvalidResponse {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestDispatchedPhraseWinsRegardlessOfFlags(t *testing.T) {
	cases := []api.FaceVerificationResult{
		{Success: true, Message: "Payment Request Created for customer"},
		{Success: false, Message: "payment request created"},
		{Success: false, MatchFound: false, Message: "Already sent to customer"},
		{Success: true, MatchFound: true, Message: "payment initiated", RequestID: "r7"},
	}
	for i, result := range cases {
		d := InterpretFaceResponse(result)
		if d.Kind != DecisionSuccess {
			t.Fatalf("case %d: expected Success, got %v", i, d.Kind)
		}
		if d.AlreadyProcessed {
			t.Fatalf("case %d: dispatched request must be watched, not treated as processed", i)
		}
	}
}

func TestDispatchedPhraseExtractsRequestID(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{
		Success: true,
		Message: "payment request created",
		Request: &api.PaymentRequest{RequestID: "r-nested"},
	})
	if d.RequestID != "r-nested" {
		t.Fatalf("expected nested request id, got %q", d.RequestID)
	}

	d = InterpretFaceResponse(api.FaceVerificationResult{
		Success:   false,
		Message:   "sent to customer",
		RequestID: "r-flat",
	})
	if d.RequestID != "r-flat" {
		t.Fatalf("expected flat request id, got %q", d.RequestID)
	}
}

func TestMatchFoundSuccess(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{
		Success:     true,
		MatchFound:  true,
		Matches:     []api.Match{{UserID: "u1", Name: "Jane", Similarity: 0.92}},
		FaceScanID:  "f1",
		AutoPayment: true,
	})
	if d.Kind != DecisionSuccess {
		t.Fatalf("expected Success, got %v", d.Kind)
	}
	if d.UserID != "u1" || d.UserName != "Jane" || d.FaceScanID != "f1" {
		t.Fatalf("unexpected identity: %+v", d)
	}
	if !d.AlreadyProcessed {
		t.Fatalf("auto_payment must mark the outcome already processed")
	}
}

func TestMatchWithoutAutoPaymentIsNotProcessed(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{
		Success:    true,
		MatchFound: true,
		Matches:    []api.Match{{UserID: "u1", Name: "Jane"}},
		FaceScanID: "f1",
	})
	if d.Kind != DecisionSuccess || d.AlreadyProcessed {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestAmbiguousMessageForcesPin(t *testing.T) {
	for _, message := range []string{
		"Multiple candidates found",
		"faces are too similar",
		"PIN verification required",
		"additional verification required",
	} {
		d := InterpretFaceResponse(api.FaceVerificationResult{
			Success:    true,
			Message:    message,
			FaceScanID: "f3",
		})
		if d.Kind != DecisionRequirePin {
			t.Fatalf("message %q: expected RequirePin, got %v", message, d.Kind)
		}
	}
}

func TestBareScanIDForcesPin(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{Success: true, FaceScanID: "f4"})
	if d.Kind != DecisionRequirePin || d.FaceScanID != "f4" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestBareSuccessFallsBackToGenericIdentity(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{Success: true})
	if d.Kind != DecisionSuccess {
		t.Fatalf("expected Success, got %v", d.Kind)
	}
	if d.AlreadyProcessed {
		t.Fatalf("generic success must not claim the payment was processed")
	}
	if d.UserID == "" {
		t.Fatalf("expected a placeholder identity")
	}
}

func TestFailureSurfacesBackendMessage(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{Success: false, Message: "No matching face on file"})
	if d.Kind != DecisionFailure {
		t.Fatalf("expected Failure, got %v", d.Kind)
	}
	if d.Message != "No matching face on file" {
		t.Fatalf("unexpected message: %q", d.Message)
	}
}

func TestFailureWithoutMessageUsesDefault(t *testing.T) {
	d := InterpretFaceResponse(api.FaceVerificationResult{})
	if d.Kind != DecisionFailure {
		t.Fatalf("expected Failure, got %v", d.Kind)
	}
	if d.Message == "" {
		t.Fatalf("expected a default failure message")
	}
}
