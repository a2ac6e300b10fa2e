package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scan-pay/scan_pay/internal/api"
	"github.com/scan-pay/scan_pay/internal/clock"
)

// WaitOutcomeKind tags how a payment wait ended.
type WaitOutcomeKind int

const (
	// WaitCompleted means the customer confirmed and the payment settled.
	WaitCompleted WaitOutcomeKind = iota
	// WaitFailed covers the FAILED, DECLINED, and CANCELLED server statuses.
	WaitFailed
	// WaitExpired means expires_at elapsed before any terminal status. It
	// is reported distinctly from a failure.
	WaitExpired
	// WaitCancelled means the merchant aborted the wait.
	WaitCancelled
)

// WaitOutcome resolves a payment wait. Request is the last server record
// seen, zero-valued if the request never appeared in a listing.
type WaitOutcome struct {
	Kind    WaitOutcomeKind
	Request api.PaymentRequest
}

// WaitingDeps wires the waiting controller's collaborators.
type WaitingDeps struct {
	Client            api.Client
	Clock             clock.Clock
	Logger            *slog.Logger
	PollInterval      time.Duration
	CountdownTick     time.Duration
	ProvisionalExpiry time.Duration
}

// WaitingController polls the payment-request list until the watched request
// reaches a terminal status, expires, or is cancelled. Polls are serialized:
// a new fetch never starts before the previous one is evaluated, so the
// outcome fires exactly once.
type WaitingController struct {
	client            api.Client
	clock             clock.Clock
	logger            *slog.Logger
	pollInterval      time.Duration
	countdownTick     time.Duration
	provisionalExpiry time.Duration

	mu        sync.Mutex
	expiresAt time.Time
	remaining time.Duration
	watching  bool
	cancelCh  chan struct{}
}

// NewWaitingController constructs a waiting controller.
func NewWaitingController(d WaitingDeps) *WaitingController {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 2 * time.Second
	}
	if d.CountdownTick <= 0 {
		d.CountdownTick = time.Second
	}
	if d.ProvisionalExpiry <= 0 {
		d.ProvisionalExpiry = 5 * time.Minute
	}
	return &WaitingController{
		client:            d.Client,
		clock:             d.Clock,
		logger:            d.Logger,
		pollInterval:      d.PollInterval,
		countdownTick:     d.CountdownTick,
		provisionalExpiry: d.ProvisionalExpiry,
	}
}

// Countdown renders the remaining time as "m:ss".
func (w *WaitingController) Countdown() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return FormatCountdown(w.remaining)
}

// Cancel aborts the wait. It is always accepted, including while a listing
// fetch is in flight; the stale fetch result is discarded.
func (w *WaitingController) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching && w.cancelCh != nil {
		close(w.cancelCh)
		w.cancelCh = nil
	}
}

func (w *WaitingController) cancelled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching && w.cancelCh == nil
}

// Wait blocks until the request with requestID resolves. Transient listing
// errors carry no information and polling continues; the only exits are a
// terminal status, expiry, or cancellation. All timers are released on every
// exit path.
func (w *WaitingController) Wait(ctx context.Context, requestID string) WaitOutcome {
	cancelCh := make(chan struct{})

	w.mu.Lock()
	// Provisional expiry so the countdown never shows a frozen or blank
	// value before the first server response.
	w.expiresAt = w.clock.Now().Add(w.provisionalExpiry)
	w.remaining = w.provisionalExpiry
	w.watching = true
	w.cancelCh = cancelCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.watching = false
		w.cancelCh = nil
		w.mu.Unlock()
	}()

	poll := w.clock.NewTicker(w.pollInterval)
	defer poll.Stop()
	tick := w.clock.NewTicker(w.countdownTick)
	defer tick.Stop()

	var lastSeen api.PaymentRequest

	for {
		select {
		case <-ctx.Done():
			return WaitOutcome{Kind: WaitCancelled, Request: lastSeen}

		case <-cancelCh:
			return WaitOutcome{Kind: WaitCancelled, Request: lastSeen}

		case <-tick.C():
			w.mu.Lock()
			w.remaining = RemainingUntil(w.expiresAt, w.clock.Now())
			remaining := w.remaining
			w.mu.Unlock()
			if remaining <= 0 {
				w.logger.Info("payment request expired", "request_id", requestID)
				return WaitOutcome{Kind: WaitExpired, Request: lastSeen}
			}

		case <-poll.C():
			requests, err := w.client.ListPaymentRequests(ctx)
			if w.cancelled() {
				// Cancelled while the fetch was in flight; whatever it
				// returned is stale.
				return WaitOutcome{Kind: WaitCancelled, Request: lastSeen}
			}
			if err != nil {
				w.logger.Warn("payment request poll failed", "error", err)
				continue
			}

			request, found := findRequest(requests, requestID)
			if !found {
				// May not have propagated yet; keep polling.
				continue
			}
			lastSeen = request

			if !request.ExpiresAt.IsZero() {
				w.mu.Lock()
				w.expiresAt = request.ExpiresAt
				w.mu.Unlock()
			}

			switch request.Status {
			case api.StatusCompleted:
				return WaitOutcome{Kind: WaitCompleted, Request: request}
			case api.StatusFailed, api.StatusDeclined, api.StatusCancelled:
				return WaitOutcome{Kind: WaitFailed, Request: request}
			}
		}
	}
}

func findRequest(requests []api.PaymentRequest, requestID string) (api.PaymentRequest, bool) {
	for _, request := range requests {
		if request.RequestID == requestID {
			return request, true
		}
	}
	return api.PaymentRequest{}, false
}
