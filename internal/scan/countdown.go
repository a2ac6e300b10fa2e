package scan

import (
	"fmt"
	"time"
)

// RemainingUntil computes the time left before expiry, clamped at zero.
func RemainingUntil(expiry, now time.Time) time.Duration {
	remaining := expiry.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatCountdown renders a duration as "m:ss" for the waiting screen.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
