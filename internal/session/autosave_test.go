package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveRecorder struct {
	mu    sync.Mutex
	calls []savedValue
	err   error
}

type savedValue struct {
	questionID uuid.UUID
	value      model.AnswerValue
}

func (r *saveRecorder) save(_ context.Context, questionID uuid.UUID, value model.AnswerValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, savedValue{questionID: questionID, value: value})
	return r.err
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *saveRecorder) last() savedValue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func textValue(s string) model.AnswerValue {
	return model.AnswerValue{Text: s}
}

func TestAutosaveDebouncesToLatestValue(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{}
	a := NewAutosave(clock, time.Second, rec.save, nil)
	questionID := uuid.New()
	ctx := context.Background()

	a.Schedule(ctx, questionID, textValue("v1"))
	clock.advance(500 * time.Millisecond)
	a.Schedule(ctx, questionID, textValue("v2"))
	clock.advance(999 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "save fired before the debounce window closed")

	clock.advance(1 * time.Millisecond)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "v2", rec.last().value.Text)
	assert.False(t, a.Pending(questionID))
}

func TestAutosaveIndependentPerQuestion(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{}
	a := NewAutosave(clock, time.Second, rec.save, nil)
	q1 := uuid.New()
	q2 := uuid.New()
	ctx := context.Background()

	a.Schedule(ctx, q1, textValue("one"))
	clock.advance(600 * time.Millisecond)
	a.Schedule(ctx, q2, textValue("two"))

	// q1's window closes first; rescheduling q2 must not delay it.
	clock.advance(400 * time.Millisecond)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, q1, rec.last().questionID)

	clock.advance(600 * time.Millisecond)
	require.Equal(t, 2, rec.count())
	assert.Equal(t, q2, rec.last().questionID)
}

func TestAutosaveFlushDispatchesImmediately(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{}
	a := NewAutosave(clock, time.Second, rec.save, nil)
	questionID := uuid.New()
	ctx := context.Background()

	a.Schedule(ctx, questionID, textValue("final"))
	require.NoError(t, a.Flush(ctx, questionID))

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "final", rec.last().value.Text)

	// The cancelled debounce timer must not fire a second save.
	clock.advance(2 * time.Second)
	assert.Equal(t, 1, rec.count())
}

func TestAutosaveFlushAllFlushesEveryPending(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{}
	a := NewAutosave(clock, time.Second, rec.save, nil)
	ctx := context.Background()

	a.Schedule(ctx, uuid.New(), textValue("a"))
	a.Schedule(ctx, uuid.New(), textValue("b"))
	a.Schedule(ctx, uuid.New(), textValue("c"))

	require.NoError(t, a.FlushAll(ctx))
	assert.Equal(t, 3, rec.count())
}

func TestAutosaveFlushAllReturnsFirstError(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{err: errors.New("redis down")}
	a := NewAutosave(clock, time.Second, rec.save, nil)
	ctx := context.Background()

	a.Schedule(ctx, uuid.New(), textValue("a"))
	a.Schedule(ctx, uuid.New(), textValue("b"))

	err := a.FlushAll(ctx)
	require.Error(t, err)
	// All flushes are still attempted.
	assert.Equal(t, 2, rec.count())
}

func TestAutosaveQueuesLatestBehindInFlight(t *testing.T) {
	clock := newFakeClock()
	questionID := uuid.New()
	ctx := context.Background()

	var a *Autosave
	var mu sync.Mutex
	var saved []string
	save := func(_ context.Context, _ uuid.UUID, value model.AnswerValue) error {
		mu.Lock()
		saved = append(saved, value.Text)
		first := len(saved) == 1
		mu.Unlock()
		if first {
			// An edit lands while this save is still in flight: it must be
			// queued, not dispatched concurrently.
			a.Schedule(ctx, questionID, textValue("v2"))
			clock.advance(time.Second)
		}
		return nil
	}
	a = NewAutosave(clock, time.Second, save, nil)

	a.Schedule(ctx, questionID, textValue("v1"))
	clock.advance(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"v1", "v2"}, saved)
}

func TestAutosaveStatusTransitions(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{}
	var mu sync.Mutex
	var statuses []SaveStatus
	onStatus := func(_ uuid.UUID, status SaveStatus) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}
	a := NewAutosave(clock, time.Second, rec.save, onStatus)

	a.Schedule(context.Background(), uuid.New(), textValue("v"))
	clock.advance(time.Second)

	mu.Lock()
	assert.Equal(t, []SaveStatus{SaveStatusSaving, SaveStatusSaved}, statuses)
	mu.Unlock()

	// After the display window the status reverts to idle.
	clock.advance(2 * time.Second)
	mu.Lock()
	assert.Equal(t, SaveStatusIdle, statuses[len(statuses)-1])
	mu.Unlock()
}

func TestAutosaveErrorStatusAndNoRetry(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{err: errors.New("boom")}
	var mu sync.Mutex
	var statuses []SaveStatus
	onStatus := func(_ uuid.UUID, status SaveStatus) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}
	a := NewAutosave(clock, time.Second, rec.save, onStatus)

	a.Schedule(context.Background(), uuid.New(), textValue("v"))
	clock.advance(time.Second)

	mu.Lock()
	assert.Equal(t, []SaveStatus{SaveStatusSaving, SaveStatusError}, statuses)
	mu.Unlock()

	// Failed saves are not retried on their own.
	clock.advance(time.Minute)
	assert.Equal(t, 1, rec.count())
}

func TestAutosaveCloseCancelsPending(t *testing.T) {
	clock := newFakeClock()
	rec := &saveRecorder{}
	a := NewAutosave(clock, time.Second, rec.save, nil)
	ctx := context.Background()

	a.Schedule(ctx, uuid.New(), textValue("doomed"))
	a.Close()

	clock.advance(10 * time.Second)
	assert.Equal(t, 0, rec.count())
	require.NoError(t, a.Flush(ctx, uuid.New()))
	assert.Equal(t, 0, rec.count())
}

func TestAutosaveDefaultDebounce(t *testing.T) {
	a := NewAutosave(newFakeClock(), 0, (&saveRecorder{}).save, nil)
	assert.Equal(t, DefaultDebounce, a.debounce)
}
