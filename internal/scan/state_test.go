package scan

import "testing"

func TestApplyDerivesCombinedLoading(t *testing.T) {
	var s VerificationState

	s = s.Apply(StatePatch{Loading: Bool(true)})
	if !s.AnyLoading {
		t.Fatalf("expected AnyLoading while face verification runs")
	}

	s = s.Apply(StatePatch{Loading: Bool(false), PinVerificationLoading: Bool(true)})
	if !s.AnyLoading {
		t.Fatalf("expected AnyLoading while pin verification runs")
	}

	s = s.Apply(StatePatch{PinVerificationLoading: Bool(false)})
	if s.AnyLoading {
		t.Fatalf("expected AnyLoading cleared")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	patch := StatePatch{
		Loading:      Bool(true),
		ShowPinModal: Bool(true),
		FaceScanID:   String("f1"),
		Error:        String(""),
	}

	var s VerificationState
	once := s.Apply(patch)
	twice := once.Apply(patch)
	if once != twice {
		t.Fatalf("applying the same patch twice changed the state: %+v vs %+v", once, twice)
	}
}

func TestApplyLeavesUnpatchedFieldsAlone(t *testing.T) {
	s := VerificationState{FaceScanID: "f1", VerifiedUserName: "Jane"}
	s = s.Apply(StatePatch{Success: Bool(true)})
	if s.FaceScanID != "f1" || s.VerifiedUserName != "Jane" || !s.Success {
		t.Fatalf("unexpected state: %+v", s)
	}
}
