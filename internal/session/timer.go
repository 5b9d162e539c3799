package session

import (
	"sync"
	"time"
)

// LowTimeThreshold is the remaining-time boundary under which clients show
// the low-time warning. Exposed per-second so the presentation layer can
// cross it exactly.
const LowTimeThreshold = 5 * time.Minute

// AttemptTimer is the countdown clock of one attempt. Remaining time is
// derived from the attempt's start timestamp and the quiz duration, so a
// resumed attempt continues from where the wall clock says it should
// rather than restarting the full duration.
//
// The timer ticks once per second while running; on reaching zero it stops
// and fires onExpire exactly once.
type AttemptTimer struct {
	clock    Clock
	onTick   func(remainingSeconds int)
	onExpire func()

	mu        sync.Mutex
	remaining int
	ticker    Ticker
	stopCh    chan struct{}
	started   bool
	stopped   bool
	expired   bool
}

// NewAttemptTimer derives the initial remaining seconds from
// startedAt + duration − now, clamped at zero. Either callback may be nil.
func NewAttemptTimer(clock Clock, startedAt time.Time, duration time.Duration, onTick func(int), onExpire func()) *AttemptTimer {
	remaining := int(duration.Seconds()) - int(clock.Now().Sub(startedAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &AttemptTimer{
		clock:     clock,
		onTick:    onTick,
		onExpire:  onExpire,
		remaining: remaining,
		stopCh:    make(chan struct{}),
	}
}

// Start begins ticking in a background goroutine. An already-expired timer
// (resumed past its deadline) fires onExpire immediately from that
// goroutine. Start is a no-op when called twice.
func (t *AttemptTimer) Start() {
	t.mu.Lock()
	if t.started || t.stopped {
		t.mu.Unlock()
		return
	}
	t.started = true
	if t.remaining <= 0 {
		t.mu.Unlock()
		go t.expire()
		return
	}
	t.ticker = t.clock.NewTicker(time.Second)
	ticker := t.ticker
	t.mu.Unlock()

	go t.run(ticker)
}

func (t *AttemptTimer) run(ticker Ticker) {
	for {
		select {
		case <-ticker.C():
			if t.tick() {
				t.expire()
				return
			}
		case <-t.stopCh:
			return
		}
	}
}

// tick decrements the countdown and reports whether it just hit zero.
func (t *AttemptTimer) tick() bool {
	t.mu.Lock()
	if t.stopped || t.remaining <= 0 {
		t.mu.Unlock()
		return false
	}
	t.remaining--
	remaining := t.remaining
	onTick := t.onTick
	t.mu.Unlock()

	if onTick != nil {
		onTick(remaining)
	}
	return remaining == 0
}

func (t *AttemptTimer) expire() {
	t.mu.Lock()
	if t.stopped || t.expired {
		t.mu.Unlock()
		return
	}
	t.expired = true
	if t.ticker != nil {
		t.ticker.Stop()
	}
	onExpire := t.onExpire
	t.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
}

// Stop halts ticking permanently. Safe to call multiple times and
// concurrently with expiry.
func (t *AttemptTimer) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	if t.ticker != nil {
		t.ticker.Stop()
	}
	close(t.stopCh)
	t.mu.Unlock()
}

// Remaining returns the current remaining seconds.
func (t *AttemptTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// LowTime reports whether the countdown is under the low-time threshold.
func (t *AttemptTimer) LowTime() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining < int(LowTimeThreshold.Seconds())
}
