package api

import "time"

// Payment request lifecycle statuses as reported by the backend. A request
// transitions from PENDING to exactly one terminal state.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusDeclined  = "DECLINED"
	StatusCancelled = "CANCELLED"
)

// Match is one candidate identity returned by the face matcher.
type Match struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// PaymentRequest is the server-owned record of a pending charge. The client
// only reads it.
type PaymentRequest struct {
	RequestID   string    `json:"request_id"`
	AmountMinor int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Terminal reports whether the request has reached a final status.
func (p PaymentRequest) Terminal() bool {
	switch p.Status {
	case StatusCompleted, StatusFailed, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// FaceVerificationResult is the backend's answer to a submitted image. The
// shape varies across backend versions, so most fields are optional.
type FaceVerificationResult struct {
	Success     bool            `json:"success"`
	MatchFound  bool            `json:"match_found"`
	RequiresPIN bool            `json:"requires_pin"`
	Matches     []Match         `json:"matches"`
	FaceScanID  string          `json:"face_scan_id,omitempty"`
	AutoPayment bool            `json:"auto_payment,omitempty"`
	Message     string          `json:"message,omitempty"`
	Request     *PaymentRequest `json:"request,omitempty"`
	RequestID   string          `json:"request_id,omitempty"`
}

// EffectiveRequestID extracts the payment request identifier, preferring the
// embedded request record over the flat field.
func (r FaceVerificationResult) EffectiveRequestID() string {
	if r.Request != nil && r.Request.RequestID != "" {
		return r.Request.RequestID
	}
	return r.RequestID
}

// PinVerificationResult is the backend's answer to a submitted PIN.
type PinVerificationResult struct {
	Success        bool            `json:"success"`
	VerifiedUserID string          `json:"verified_user_id,omitempty"`
	Matches        []Match         `json:"matches,omitempty"`
	Message        string          `json:"message,omitempty"`
	Request        *PaymentRequest `json:"request,omitempty"`
	RequestID      string          `json:"request_id,omitempty"`
}

// EffectiveRequestID extracts the payment request identifier, preferring the
// embedded request record over the flat field.
func (r PinVerificationResult) EffectiveRequestID() string {
	if r.Request != nil && r.Request.RequestID != "" {
		return r.Request.RequestID
	}
	return r.RequestID
}

// VerifyFaceInput carries the multipart payload for a face verification call.
type VerifyFaceInput struct {
	Image       []byte
	Filename    string
	AmountMinor int64
	Currency    string
	Description string
}

// VerifyPINInput carries the payload for a PIN verification call.
type VerifyPINInput struct {
	PIN         string
	FaceScanID  string
	AmountMinor int64
	Currency    string
	Description string
}
