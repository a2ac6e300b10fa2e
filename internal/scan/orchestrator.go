package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/scan-pay/scan_pay/internal/api"
	"github.com/scan-pay/scan_pay/internal/clock"
	"github.com/scan-pay/scan_pay/internal/config"
	"github.com/scan-pay/scan_pay/internal/journal"
	"github.com/scan-pay/scan_pay/internal/notify"
)

// LoadingState is the single flow state driving what the terminal shows. At
// most one screen is active at a time; transitions are checked, so illegal
// combinations (a PIN prompt while waiting for payment, say) cannot occur.
type LoadingState int

const (
	StateIdle LoadingState = iota
	StateFaceVerification
	StatePinVerification
	StatePaymentProcessing
	StatePaymentSuccess
	StatePaymentWaiting
)

func (s LoadingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFaceVerification:
		return "face_verification"
	case StatePinVerification:
		return "pin_verification"
	case StatePaymentProcessing:
		return "payment_processing"
	case StatePaymentSuccess:
		return "payment_success"
	case StatePaymentWaiting:
		return "payment_waiting"
	default:
		return "unknown"
	}
}

var allowedTransitions = map[LoadingState][]LoadingState{
	StateIdle:              {StateFaceVerification},
	StateFaceVerification:  {StatePinVerification, StatePaymentProcessing, StatePaymentWaiting, StateIdle},
	StatePinVerification:   {StatePaymentProcessing, StatePaymentWaiting, StateIdle},
	StatePaymentProcessing: {StatePaymentSuccess, StateIdle},
	StatePaymentWaiting:    {StatePaymentProcessing, StateIdle},
	StatePaymentSuccess:    {StateIdle},
}

// PinPrompt collects a PIN code from the customer. Implementations return
// ErrUserCancelled when the customer aborts the attempt; cancel is a
// distinct action from closing the prompt because it must abort the whole
// payment, not just dismiss the PIN step.
type PinPrompt interface {
	CollectPIN(ctx context.Context) (string, error)
}

// ChargeResult reports how one charge attempt ended. Status uses the journal
// result constants.
type ChargeResult struct {
	Status    string
	UserID    string
	RequestID string
}

// Deps aggregates everything the orchestrator needs to run a flow.
type Deps struct {
	Cfg       config.Config
	Client    api.Client
	Camera    Camera
	PinPrompt PinPrompt
	Clock     clock.Clock
	Logger    *slog.Logger
	Journal   journal.Journal
	Notifier  notify.Notifier
}

// Orchestrator composes the face, PIN, and waiting controllers into one flow
// with a single loading state and reset semantics.
type Orchestrator struct {
	cfg      config.Config
	client   api.Client
	logger   *slog.Logger
	journal  journal.Journal
	notifier notify.Notifier
	clock    clock.Clock

	face    *FaceController
	pin     *PinController
	waiting *WaitingController
	prompt  PinPrompt

	mu    sync.Mutex
	state LoadingState
}

// NewOrchestrator wires the flow controllers from shared dependencies.
func NewOrchestrator(d Deps) *Orchestrator {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Journal == nil {
		d.Journal = journal.NewInMemory()
	}
	if d.Notifier == nil {
		d.Notifier = notify.NewLoggerNotifier(d.Logger)
	}

	face := NewFaceController(FaceDeps{
		Client:      d.Client,
		Camera:      d.Camera,
		Clock:       d.Clock,
		Logger:      d.Logger,
		SettleDelay: d.Cfg.SettleDelay,
		Currency:    d.Cfg.Currency,
		Description: d.Cfg.Description,
	})
	pin := NewPinController(PinDeps{
		Client:      d.Client,
		Clock:       d.Clock,
		Logger:      d.Logger,
		SettleDelay: d.Cfg.SettleDelay,
		Currency:    d.Cfg.Currency,
		Description: d.Cfg.Description,
	})
	waiting := NewWaitingController(WaitingDeps{
		Client:            d.Client,
		Clock:             d.Clock,
		Logger:            d.Logger,
		PollInterval:      d.Cfg.PollInterval,
		CountdownTick:     d.Cfg.CountdownTick,
		ProvisionalExpiry: d.Cfg.ProvisionalExpiry,
	})

	return &Orchestrator{
		cfg:      d.Cfg,
		client:   d.Client,
		logger:   d.Logger,
		journal:  d.Journal,
		notifier: d.Notifier,
		clock:    d.Clock,
		face:     face,
		pin:      pin,
		waiting:  waiting,
		prompt:   d.PinPrompt,
	}
}

// State returns the current loading state.
func (o *Orchestrator) State() LoadingState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a verification call is outstanding. The waiting screen
// does not count: cancel must stay available there.
func (o *Orchestrator) Busy() bool {
	state := o.State()
	return state != StateIdle && state != StatePaymentWaiting
}

// Countdown exposes the waiting screen's remaining time as "m:ss".
func (o *Orchestrator) Countdown() string {
	return o.waiting.Countdown()
}

// Face exposes the face controller's screen state for rendering.
func (o *Orchestrator) Face() *FaceController {
	return o.face
}

// Cancel aborts the current payment attempt, whatever phase it is in. It is
// never gated on a loading flag: the merchant must always be able to abort a
// pending charge.
func (o *Orchestrator) Cancel() {
	o.pin.Cancel()
	o.waiting.Cancel()
}

func (o *Orchestrator) transition(to LoadingState) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, next := range allowedTransitions[o.state] {
		if next == to {
			o.logger.Debug("state transition", "from", o.state.String(), "to", to.String())
			o.state = to
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", o.state, to)
}

func (o *Orchestrator) toIdle() {
	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
	o.face.Reset()
}

// Charge runs one end-to-end payment attempt for the entered amount string.
// Validation failures are returned before any state changes; the amount gate
// is the only client-side business rule in the flow.
func (o *Orchestrator) Charge(ctx context.Context, amount string) (ChargeResult, error) {
	amountMinor, err := ParseAmount(amount, o.cfg.MinAmountMinor)
	if err != nil {
		return ChargeResult{}, err
	}

	if err := o.transition(StateFaceVerification); err != nil {
		return ChargeResult{}, err
	}

	attemptID := uuid.NewString()
	if err := o.journal.Begin(ctx, journal.Attempt{
		ID:          attemptID,
		AmountMinor: amountMinor,
		Currency:    o.cfg.Currency,
		Description: o.cfg.Description,
		StartedAt:   o.clock.Now(),
	}); err != nil {
		o.logger.Warn("journal begin failed", "error", err)
	}

	image, err := o.face.CaptureImage(ctx)
	if err != nil {
		if errors.Is(err, ErrCaptureCancelled) {
			// Backing out of the capture is not an error and shows no
			// notice; the flow simply returns to idle.
			o.complete(ctx, attemptID, journal.Outcome{Result: journal.ResultCancelled, Detail: "capture cancelled"})
			o.toIdle()
			return ChargeResult{Status: journal.ResultCancelled}, nil
		}
		return o.fail(ctx, attemptID, err)
	}

	faceResult, err := o.face.Verify(ctx, image, amountMinor)
	if err != nil {
		if errors.Is(err, ErrUserCancelled) {
			return o.cancelled(ctx, attemptID, "")
		}
		return o.fail(ctx, attemptID, err)
	}

	outcome := faceResult.Outcome
	if faceResult.PinRequired {
		if err := o.transition(StatePinVerification); err != nil {
			return ChargeResult{}, err
		}
		outcome, err = o.collectPin(ctx, faceResult.FaceScanID, amountMinor)
		if err != nil {
			if errors.Is(err, ErrUserCancelled) {
				return o.cancelled(ctx, attemptID, "")
			}
			return o.fail(ctx, attemptID, err)
		}
	}

	// A success with nothing left to watch resolves immediately; a created
	// request has to be watched until the customer confirms.
	if outcome.AlreadyProcessed || outcome.RequestID == "" {
		return o.succeed(ctx, attemptID, outcome)
	}

	if err := o.transition(StatePaymentWaiting); err != nil {
		return ChargeResult{}, err
	}

	wait := o.waiting.Wait(ctx, outcome.RequestID)
	switch wait.Kind {
	case WaitCompleted:
		return o.succeed(ctx, attemptID, outcome)

	case WaitExpired:
		o.notice(ctx, notify.KindPaymentExpired, "The payment request expired before the customer confirmed.")
		o.complete(ctx, attemptID, journal.Outcome{
			Result:    journal.ResultExpired,
			UserID:    outcome.UserID,
			RequestID: outcome.RequestID,
		})
		o.toIdle()
		return ChargeResult{Status: journal.ResultExpired, UserID: outcome.UserID, RequestID: outcome.RequestID}, nil

	case WaitCancelled:
		// The waiting controller only stops local polling; telling the
		// backend is this caller's job.
		if _, err := o.client.CancelPaymentRequest(ctx, outcome.RequestID); err != nil {
			o.logger.Warn("cancel payment request failed", "request_id", outcome.RequestID, "error", err)
		}
		return o.cancelled(ctx, attemptID, outcome.RequestID)

	default:
		o.notice(ctx, notify.KindPaymentFailed, "The payment was not completed.")
		o.complete(ctx, attemptID, journal.Outcome{
			Result:    journal.ResultFailed,
			UserID:    outcome.UserID,
			RequestID: outcome.RequestID,
			Detail:    wait.Request.Status,
		})
		o.toIdle()
		return ChargeResult{Status: journal.ResultFailed, UserID: outcome.UserID, RequestID: outcome.RequestID}, nil
	}
}

// collectPin drives the PIN prompt until the code verifies, the customer
// cancels, or a non-retryable error occurs. Rejections and transport errors
// leave the entry actionable: boxes cleared, focus on the first box, shake
// fired.
func (o *Orchestrator) collectPin(ctx context.Context, faceScanID string, amountMinor int64) (VerifyOutcome, error) {
	entry := NewPinEntry()

	for {
		code, err := o.prompt.CollectPIN(ctx)
		if err != nil {
			return VerifyOutcome{}, err
		}

		entry.Clear()
		for _, ch := range code {
			if entry.Input(ch) {
				break
			}
		}
		if !entry.Complete() {
			entry.Fail()
			continue
		}

		o.face.apply(StatePatch{PinVerificationLoading: Bool(true)})
		outcome, err := o.pin.Verify(ctx, faceScanID, entry.Code(), amountMinor)
		o.face.apply(StatePatch{PinVerificationLoading: Bool(false)})
		if err == nil {
			return outcome, nil
		}
		if errors.Is(err, ErrUserCancelled) {
			return VerifyOutcome{}, err
		}

		retryable := errors.Is(err, ErrPinIncorrect) ||
			errors.Is(err, api.ErrNetwork) ||
			errors.Is(err, api.ErrServiceUnavailable)
		if !retryable {
			return VerifyOutcome{}, err
		}

		entry.Fail()
		o.notice(ctx, notify.KindError, UserMessage(err))
	}
}

func (o *Orchestrator) succeed(ctx context.Context, attemptID string, outcome VerifyOutcome) (ChargeResult, error) {
	if err := o.transition(StatePaymentProcessing); err != nil {
		return ChargeResult{}, err
	}
	o.complete(ctx, attemptID, journal.Outcome{
		Result:    journal.ResultCompleted,
		UserID:    outcome.UserID,
		RequestID: outcome.RequestID,
	})
	if err := o.transition(StatePaymentSuccess); err != nil {
		return ChargeResult{}, err
	}
	o.notice(ctx, notify.KindPaymentSuccess, "Payment completed.")
	o.toIdle()
	return ChargeResult{Status: journal.ResultCompleted, UserID: outcome.UserID, RequestID: outcome.RequestID}, nil
}

func (o *Orchestrator) fail(ctx context.Context, attemptID string, cause error) (ChargeResult, error) {
	// Recognition failures reset only verification state; the entered
	// amount stays with the caller so a rescan does not redo the form.
	o.notice(ctx, notify.KindError, UserMessage(cause))

	result := journal.ResultError
	var recognition *RecognitionError
	if errors.As(cause, &recognition) {
		result = journal.ResultFailed
	}
	o.complete(ctx, attemptID, journal.Outcome{Result: result, Detail: cause.Error()})
	o.toIdle()
	return ChargeResult{Status: result}, cause
}

func (o *Orchestrator) cancelled(ctx context.Context, attemptID, requestID string) (ChargeResult, error) {
	o.notice(ctx, notify.KindCancelled, msgCancelled)
	o.complete(ctx, attemptID, journal.Outcome{Result: journal.ResultCancelled, RequestID: requestID})
	o.toIdle()
	return ChargeResult{Status: journal.ResultCancelled, RequestID: requestID}, nil
}

func (o *Orchestrator) complete(ctx context.Context, attemptID string, outcome journal.Outcome) {
	outcome.CompletedAt = o.clock.Now()
	if err := o.journal.Complete(ctx, attemptID, outcome); err != nil {
		o.logger.Warn("journal complete failed", "attempt_id", attemptID, "error", err)
	}
}

func (o *Orchestrator) notice(ctx context.Context, kind, message string) {
	if err := o.notifier.Send(ctx, notify.Notice{Kind: kind, Message: message}); err != nil {
		o.logger.Warn("notice delivery failed", "kind", kind, "error", err)
	}
}

// ParseAmount validates an entered major-unit decimal amount and converts it
// to minor units.
func ParseAmount(amount string, minMinor int64) (int64, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return 0, fmt.Errorf("amount is required")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("amount must be a number")
	}
	minor := int64(math.Round(value * 100))
	if minor < minMinor {
		return 0, fmt.Errorf("amount must be at least %d.%02d", minMinor/100, minMinor%100)
	}
	return minor, nil
}
