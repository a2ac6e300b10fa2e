package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced clock for tests. Advance moves time forward and
// fires any tickers or timers whose deadline has passed, in deadline order.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	ch       chan time.Time
	deadline time.Time
	interval time.Duration // zero for one-shot timers
	stopped  bool
}

// NewFake creates a fake clock starting at the provided instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Ticker channels carry a deep buffer so a consumer that is busy when a
	// tick fires still sees every tick, keeping test poll counts exact.
	w := &fakeWaiter{ch: make(chan time.Time, 64), deadline: f.now.Add(d), interval: d}
	f.waiters = append(f.waiters, w)
	return &fakeTicker{clock: f, w: w}
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWaiter{ch: make(chan time.Time, 1), deadline: f.now.Add(d)}
	f.waiters = append(f.waiters, w)
	return w.ch
}

// Advance moves the fake clock forward by d, delivering due ticks one
// deadline at a time so interleaved tickers fire in order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		next := f.earliestDeadlineLocked(target)
		if next.IsZero() {
			break
		}
		f.now = next
		f.fireDueLocked()
		// Yield so goroutines blocked on a delivered tick can run before
		// the next deadline fires.
		f.mu.Unlock()
		time.Sleep(time.Millisecond)
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

func (f *Fake) earliestDeadlineLocked(limit time.Time) time.Time {
	var next time.Time
	for _, w := range f.waiters {
		if w.stopped || w.deadline.After(limit) {
			continue
		}
		if next.IsZero() || w.deadline.Before(next) {
			next = w.deadline
		}
	}
	return next
}

func (f *Fake) fireDueLocked() {
	for _, w := range f.waiters {
		if w.stopped || w.deadline.After(f.now) {
			continue
		}
		select {
		case w.ch <- f.now:
		default:
		}
		if w.interval > 0 {
			w.deadline = w.deadline.Add(w.interval)
		} else {
			w.stopped = true
		}
	}
}

type fakeTicker struct {
	clock *Fake
	w     *fakeWaiter
}

func (t *fakeTicker) C() <-chan time.Time { return t.w.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	t.w.stopped = true
	t.clock.mu.Unlock()
}
