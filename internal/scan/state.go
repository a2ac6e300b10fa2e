package scan

// VerificationState is the face controller's ephemeral screen state. It is
// mutated only through Apply so the combined loading signal is always
// re-derived and never drifts.
type VerificationState struct {
	Loading                bool
	ShowPinModal           bool
	FaceScanID             string
	Error                  string
	Success                bool
	VerifiedUserName       string
	PinVerificationLoading bool

	// AnyLoading is derived: true while either verification call is
	// outstanding.
	AnyLoading bool
}

// StatePatch is a partial update; nil fields are left untouched.
type StatePatch struct {
	Loading                *bool
	ShowPinModal           *bool
	FaceScanID             *string
	Error                  *string
	Success                *bool
	VerifiedUserName       *string
	PinVerificationLoading *bool
}

// Apply returns the state with the patch applied and AnyLoading re-derived.
// Applying the same patch twice yields the same state as applying it once.
func (s VerificationState) Apply(patch StatePatch) VerificationState {
	if patch.Loading != nil {
		s.Loading = *patch.Loading
	}
	if patch.ShowPinModal != nil {
		s.ShowPinModal = *patch.ShowPinModal
	}
	if patch.FaceScanID != nil {
		s.FaceScanID = *patch.FaceScanID
	}
	if patch.Error != nil {
		s.Error = *patch.Error
	}
	if patch.Success != nil {
		s.Success = *patch.Success
	}
	if patch.VerifiedUserName != nil {
		s.VerifiedUserName = *patch.VerifiedUserName
	}
	if patch.PinVerificationLoading != nil {
		s.PinVerificationLoading = *patch.PinVerificationLoading
	}
	s.AnyLoading = s.Loading || s.PinVerificationLoading
	return s
}

// Bool builds a *bool for a StatePatch field.
func Bool(v bool) *bool { return &v }

// String builds a *string for a StatePatch field.
func String(v string) *string { return &v }
