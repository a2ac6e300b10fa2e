package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scan-pay/scan_pay/internal/api"
	"github.com/scan-pay/scan_pay/internal/clock"
)

const pinLength = 4

// PinEntry models the four single-digit boxes of the PIN prompt: entering a
// digit advances focus, backspace on an empty box steps back, and the fourth
// digit completes the code for auto-submission.
type PinEntry struct {
	digits [pinLength]byte
	focus  int

	// Shake is visual failure feedback; it is set for one render after a
	// rejected code and has no bearing on correctness.
	Shake bool
}

// NewPinEntry creates an empty entry focused on the first box.
func NewPinEntry() *PinEntry {
	return &PinEntry{}
}

// Input records a digit in the focused box and advances focus. It returns
// true once all four boxes are filled, which triggers auto-submission.
// Non-digit input is ignored.
func (e *PinEntry) Input(ch rune) bool {
	if ch < '0' || ch > '9' {
		return e.Complete()
	}
	if e.focus >= pinLength {
		return true
	}
	e.digits[e.focus] = byte(ch)
	e.focus++
	e.Shake = false
	return e.Complete()
}

// Backspace clears the focused box, or steps back and clears the previous
// box when the focused one is already empty.
func (e *PinEntry) Backspace() {
	if e.focus > 0 && (e.focus == pinLength || e.digits[e.focus] == 0) {
		e.focus--
	}
	e.digits[e.focus] = 0
}

// Complete reports whether all four digits are filled.
func (e *PinEntry) Complete() bool {
	return e.focus == pinLength
}

// Code returns the entered digits.
func (e *PinEntry) Code() string {
	return string(e.digits[:e.focus])
}

// Focus returns the index of the focused box.
func (e *PinEntry) Focus() int {
	if e.focus >= pinLength {
		return pinLength - 1
	}
	return e.focus
}

// Fail clears all boxes, returns focus to the first box, and fires the shake
// feedback.
func (e *PinEntry) Fail() {
	e.digits = [pinLength]byte{}
	e.focus = 0
	e.Shake = true
}

// Clear resets the entry without failure feedback.
func (e *PinEntry) Clear() {
	e.digits = [pinLength]byte{}
	e.focus = 0
	e.Shake = false
}

// PinDeps wires the PIN controller's collaborators.
type PinDeps struct {
	Client      api.Client
	Clock       clock.Clock
	Logger      *slog.Logger
	SettleDelay time.Duration
	Currency    string
	Description string
}

// PinController submits a collected code keyed to a face scan and interprets
// the (also ambiguous) response. A transport error is a failure, never a
// success, and leaves the entry actionable.
type PinController struct {
	client      api.Client
	clock       clock.Clock
	logger      *slog.Logger
	settleDelay time.Duration
	currency    string
	description string

	mu         sync.Mutex
	generation int
}

// NewPinController constructs a PIN controller.
func NewPinController(d PinDeps) *PinController {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &PinController{
		client:      d.Client,
		clock:       d.Clock,
		logger:      d.Logger,
		settleDelay: d.SettleDelay,
		currency:    d.Currency,
		description: d.Description,
	}
}

// Cancel aborts the current attempt. A verification call already in flight is
// not interrupted, but its response is discarded when it resolves.
func (c *PinController) Cancel() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
}

func (c *PinController) begin() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *PinController) current(gen int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// Verify submits the code. PIN-verified payments are always captured by the
// backend before it answers, so a success always carries
// AlreadyProcessed=true.
func (c *PinController) Verify(ctx context.Context, faceScanID, code string, amountMinor int64) (VerifyOutcome, error) {
	gen := c.begin()

	result, err := c.client.VerifyPIN(ctx, api.VerifyPINInput{
		PIN:         code,
		FaceScanID:  faceScanID,
		AmountMinor: amountMinor,
		Currency:    c.currency,
		Description: c.description,
	})
	if !c.current(gen) {
		// Cancelled while the call was in flight; the late response must
		// not mutate anything or fire a second outcome.
		return VerifyOutcome{}, ErrUserCancelled
	}
	if err != nil {
		return VerifyOutcome{}, err
	}

	if !result.Success {
		c.logger.Debug("pin rejected", "face_scan_id", faceScanID)
		return VerifyOutcome{}, ErrPinIncorrect
	}

	userID := result.VerifiedUserID
	userName := ""
	if userID == "" && len(result.Matches) > 0 {
		userID = result.Matches[0].UserID
	}
	if len(result.Matches) > 0 {
		userName = result.Matches[0].Name
	}

	if err := c.settle(ctx); err != nil {
		return VerifyOutcome{}, err
	}
	if !c.current(gen) {
		return VerifyOutcome{}, ErrUserCancelled
	}

	return VerifyOutcome{
		UserID:           userID,
		UserName:         userName,
		FaceScanID:       faceScanID,
		AlreadyProcessed: true,
		RequestID:        result.EffectiveRequestID(),
	}, nil
}

func (c *PinController) settle(ctx context.Context) error {
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
