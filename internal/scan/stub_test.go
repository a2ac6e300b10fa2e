package scan

import (
	"context"

	"github.com/scan-pay/scan_pay/internal/api"
)

// stubClient lets each test script the backend boundary with closures.
type stubClient struct {
	verifyFace func(ctx context.Context, input api.VerifyFaceInput) (api.FaceVerificationResult, error)
	verifyPIN  func(ctx context.Context, input api.VerifyPINInput) (api.PinVerificationResult, error)
	list       func(ctx context.Context) ([]api.PaymentRequest, error)
	cancel     func(ctx context.Context, requestID string) (string, error)
}

func (s *stubClient) VerifyFace(ctx context.Context, input api.VerifyFaceInput) (api.FaceVerificationResult, error) {
	if s.verifyFace == nil {
		return api.FaceVerificationResult{}, nil
	}
	return s.verifyFace(ctx, input)
}

func (s *stubClient) VerifyPIN(ctx context.Context, input api.VerifyPINInput) (api.PinVerificationResult, error) {
	if s.verifyPIN == nil {
		return api.PinVerificationResult{}, nil
	}
	return s.verifyPIN(ctx, input)
}

func (s *stubClient) ListPaymentRequests(ctx context.Context) ([]api.PaymentRequest, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx)
}

func (s *stubClient) CancelPaymentRequest(ctx context.Context, requestID string) (string, error) {
	if s.cancel == nil {
		return "cancelled", nil
	}
	return s.cancel(ctx, requestID)
}

// stubCamera serves a fixed frame or a scripted error.
type stubCamera struct {
	frame          []byte
	permissionErrs []error
	captureErr     error
}

func (c *stubCamera) RequestPermission(_ context.Context) error {
	if len(c.permissionErrs) == 0 {
		return nil
	}
	err := c.permissionErrs[0]
	c.permissionErrs = c.permissionErrs[1:]
	return err
}

func (c *stubCamera) Capture(_ context.Context) ([]byte, error) {
	if c.captureErr != nil {
		return nil, c.captureErr
	}
	return c.frame, nil
}

// stubPrompt serves scripted PIN codes or errors in order.
type stubPrompt struct {
	codes []string
	errs  []error
}

func (p *stubPrompt) CollectPIN(_ context.Context) (string, error) {
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if len(p.codes) == 0 {
		return "", ErrUserCancelled
	}
	code := p.codes[0]
	p.codes = p.codes[1:]
	return code, nil
}
