package notify

import (
	"context"
	"log/slog"
)

// Notice kinds surfaced on the terminal display.
const (
	KindPaymentSuccess = "payment_success"
	KindPaymentFailed  = "payment_failed"
	KindPaymentExpired = "payment_expired"
	KindCancelled      = "cancelled"
	KindError          = "error"
)

// Notice is one user-visible message with exactly one acknowledgement action.
type Notice struct {
	Kind    string
	Message string
}

// Notifier delivers notices to the terminal display.
type Notifier interface {
	Send(ctx context.Context, notice Notice) error
}

// LoggerNotifier writes notices to the structured logger, the display
// integration used headless and in tests.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the notice to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, notice Notice) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notice", "kind", notice.Kind, "message", notice.Message)
	return nil
}
