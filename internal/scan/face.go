package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/scan-pay/scan_pay/internal/api"
	"github.com/scan-pay/scan_pay/internal/clock"
)

// VerifyOutcome is a terminal verification success: the identity the payment
// was (or will be) charged against.
type VerifyOutcome struct {
	UserID           string
	UserName         string
	FaceScanID       string
	AlreadyProcessed bool
	RequestID        string
}

// FaceResult is the tagged result of one face verification attempt: either a
// terminal outcome or a hand-off to the PIN sub-flow.
type FaceResult struct {
	PinRequired bool
	FaceScanID  string
	Outcome     VerifyOutcome
}

// FaceDeps wires the face controller's collaborators.
type FaceDeps struct {
	Client      api.Client
	Camera      Camera
	Clock       clock.Clock
	Logger      *slog.Logger
	SettleDelay time.Duration
	Currency    string
	Description string
}

// FaceController owns capture, submission, response interpretation, and the
// success settle dwell. It produces exactly one result per attempt.
type FaceController struct {
	client      api.Client
	camera      Camera
	clock       clock.Clock
	logger      *slog.Logger
	settleDelay time.Duration
	currency    string
	description string

	mu       sync.Mutex
	state    VerificationState
	observer func(VerificationState)
}

// NewFaceController constructs a face controller.
func NewFaceController(d FaceDeps) *FaceController {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &FaceController{
		client:      d.Client,
		camera:      d.Camera,
		clock:       d.Clock,
		logger:      d.Logger,
		settleDelay: d.SettleDelay,
		currency:    d.Currency,
		description: d.Description,
	}
}

// Observe registers a callback invoked after every state change, used by the
// parent to track the combined loading signal.
func (c *FaceController) Observe(fn func(VerificationState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// State returns a snapshot of the controller's screen state.
func (c *FaceController) State() VerificationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears all verification state between flows.
func (c *FaceController) Reset() {
	c.mu.Lock()
	c.state = VerificationState{}
	observer := c.observer
	state := c.state
	c.mu.Unlock()
	if observer != nil {
		observer(state)
	}
}

func (c *FaceController) apply(patch StatePatch) {
	c.mu.Lock()
	c.state = c.state.Apply(patch)
	observer := c.observer
	state := c.state
	c.mu.Unlock()
	if observer != nil {
		observer(state)
	}
}

// CaptureImage requests camera permission and takes one capture. A denied
// permission is re-requested once before giving up; a user cancel surfaces as
// ErrCaptureCancelled and leaves state idle.
func (c *FaceController) CaptureImage(ctx context.Context) ([]byte, error) {
	if err := c.camera.RequestPermission(ctx); err != nil {
		if !errors.Is(err, ErrPermissionDenied) {
			return nil, err
		}
		// Offer the retry path rather than failing silently.
		if err := c.camera.RequestPermission(ctx); err != nil {
			return nil, err
		}
	}

	image, err := c.camera.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, ErrCaptureFailed
	}
	return image, nil
}

// Verify submits the image and interprets the response through the decision
// cascade. On terminal success it dwells for the settle delay before
// returning so the next screen does not flicker in.
func (c *FaceController) Verify(ctx context.Context, image []byte, amountMinor int64) (FaceResult, error) {
	c.apply(StatePatch{Loading: Bool(true), Error: String("")})

	result, err := c.client.VerifyFace(ctx, api.VerifyFaceInput{
		Image:       image,
		AmountMinor: amountMinor,
		Currency:    c.currency,
		Description: c.description,
	})
	if err != nil {
		c.apply(StatePatch{Loading: Bool(false), Error: String(UserMessage(err))})
		return FaceResult{}, err
	}

	decision := InterpretFaceResponse(result)
	c.logger.Debug("face response interpreted",
		"kind", int(decision.Kind),
		"already_processed", decision.AlreadyProcessed,
		"request_id", decision.RequestID)

	switch decision.Kind {
	case DecisionRequirePin:
		c.apply(StatePatch{
			Loading:      Bool(false),
			ShowPinModal: Bool(true),
			FaceScanID:   String(decision.FaceScanID),
		})
		return FaceResult{PinRequired: true, FaceScanID: decision.FaceScanID}, nil

	case DecisionSuccess:
		c.apply(StatePatch{
			Loading:          Bool(false),
			Success:          Bool(true),
			VerifiedUserName: String(decision.UserName),
		})
		if err := c.settle(ctx); err != nil {
			return FaceResult{}, err
		}
		c.Reset()
		return FaceResult{Outcome: VerifyOutcome{
			UserID:           decision.UserID,
			UserName:         decision.UserName,
			FaceScanID:       decision.FaceScanID,
			AlreadyProcessed: decision.AlreadyProcessed,
			RequestID:        decision.RequestID,
		}}, nil

	default:
		c.apply(StatePatch{Loading: Bool(false), Error: String(decision.Message)})
		return FaceResult{}, &RecognitionError{Message: decision.Message}
	}
}

// settle holds the success indicator on screen for the configured dwell.
func (c *FaceController) settle(ctx context.Context) error {
	if c.settleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(c.settleDelay):
		return nil
	}
}
