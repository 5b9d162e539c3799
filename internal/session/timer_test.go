package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitInt(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for expiry")
	}
}

func TestAttemptTimerDerivesRemainingFromWallClock(t *testing.T) {
	clock := newFakeClock()
	startedAt := clock.Now().Add(-2 * time.Minute)

	timer := NewAttemptTimer(clock, startedAt, 10*time.Minute, nil, nil)

	assert.Equal(t, 480, timer.Remaining())
}

func TestAttemptTimerClampsNegativeRemaining(t *testing.T) {
	clock := newFakeClock()
	startedAt := clock.Now().Add(-time.Hour)

	timer := NewAttemptTimer(clock, startedAt, 10*time.Minute, nil, nil)

	assert.Equal(t, 0, timer.Remaining())
}

func TestAttemptTimerTicksDown(t *testing.T) {
	clock := newFakeClock()
	ticks := make(chan int, 16)
	timer := NewAttemptTimer(clock, clock.Now(), 10*time.Minute, func(r int) { ticks <- r }, nil)

	timer.Start()
	defer timer.Stop()
	ticker := clock.lastTicker()
	require.NotNil(t, ticker)

	ticker.tick()
	assert.Equal(t, 599, waitInt(t, ticks))
	ticker.tick()
	assert.Equal(t, 598, waitInt(t, ticks))
}

func TestAttemptTimerExpiresExactlyOnce(t *testing.T) {
	clock := newFakeClock()
	ticks := make(chan int, 16)
	expired := make(chan struct{}, 2)
	timer := NewAttemptTimer(clock, clock.Now(), 2*time.Second,
		func(r int) { ticks <- r },
		func() { expired <- struct{}{} })

	timer.Start()
	ticker := clock.lastTicker()
	require.NotNil(t, ticker)

	ticker.tick()
	assert.Equal(t, 1, waitInt(t, ticks))
	ticker.tick()
	assert.Equal(t, 0, waitInt(t, ticks))
	waitSignal(t, expired)

	select {
	case <-expired:
		t.Fatal("expiry fired more than once")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, timer.Remaining())
}

func TestAttemptTimerAlreadyExpiredFiresOnStart(t *testing.T) {
	clock := newFakeClock()
	expired := make(chan struct{}, 1)
	timer := NewAttemptTimer(clock, clock.Now().Add(-time.Hour), 10*time.Minute,
		nil,
		func() { expired <- struct{}{} })

	timer.Start()
	waitSignal(t, expired)
}

func TestAttemptTimerStopPreventsExpiry(t *testing.T) {
	clock := newFakeClock()
	expired := make(chan struct{}, 1)
	timer := NewAttemptTimer(clock, clock.Now(), time.Second,
		nil,
		func() { expired <- struct{}{} })

	timer.Start()
	timer.Stop()
	timer.Stop() // idempotent

	select {
	case <-expired:
		t.Fatal("expiry fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAttemptTimerStartIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	timer := NewAttemptTimer(clock, clock.Now(), 10*time.Minute, nil, nil)

	timer.Start()
	timer.Start()
	defer timer.Stop()

	assert.Len(t, clock.tickers, 1)
}

func TestAttemptTimerLowTime(t *testing.T) {
	clock := newFakeClock()

	high := NewAttemptTimer(clock, clock.Now(), 10*time.Minute, nil, nil)
	assert.False(t, high.LowTime())

	low := NewAttemptTimer(clock, clock.Now(), 4*time.Minute, nil, nil)
	assert.True(t, low.LowTime())
}
