package session

import (
	"context"
	"sync"
	"time"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
)

// SaveStatus is the transient per-question persistence indicator.
type SaveStatus string

const (
	SaveStatusIdle   SaveStatus = "idle"
	SaveStatusSaving SaveStatus = "saving"
	SaveStatusSaved  SaveStatus = "saved"
	SaveStatusError  SaveStatus = "error"
)

const (
	// DefaultDebounce is the trailing-edge window between the last edit of
	// a question and its save dispatch.
	DefaultDebounce = time.Second
	// statusDisplayWindow is how long a saved/error status is shown before
	// reverting to idle.
	statusDisplayWindow = 2 * time.Second
)

// SaveFunc persists the latest value of one question's answer.
type SaveFunc func(ctx context.Context, questionID uuid.UUID, value model.AnswerValue) error

// StatusFunc observes per-question save status transitions.
type StatusFunc func(questionID uuid.UUID, status SaveStatus)

// Autosave debounces and dispatches per-question answer persistence.
//
// Each mutation schedules a save after the debounce window; a newer
// mutation for the same question cancels and reschedules it. At most one
// save per question is in flight at a time: a value arriving while a save
// is in flight replaces any previously queued value and fires immediately
// after the in-flight save resolves. Failed saves are not retried; the
// next edit supersedes the stale value.
type Autosave struct {
	clock    Clock
	debounce time.Duration
	save     SaveFunc
	onStatus StatusFunc

	mu      sync.Mutex
	entries map[uuid.UUID]*saveEntry
	closed  bool
}

type saveEntry struct {
	debounceTimer Timer
	pending       *model.AnswerValue
	inFlight      bool
	queued        *model.AnswerValue
	statusTimer   Timer
}

// NewAutosave builds a coordinator. A non-positive debounce falls back to
// DefaultDebounce; onStatus may be nil.
func NewAutosave(clock Clock, debounce time.Duration, save SaveFunc, onStatus StatusFunc) *Autosave {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Autosave{
		clock:    clock,
		debounce: debounce,
		save:     save,
		onStatus: onStatus,
		entries:  make(map[uuid.UUID]*saveEntry),
	}
}

// Schedule records the latest value for a question and (re)starts its
// trailing-edge debounce window.
func (a *Autosave) Schedule(ctx context.Context, questionID uuid.UUID, value model.AnswerValue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	e := a.entry(questionID)
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
	}
	e.pending = &value
	e.debounceTimer = a.clock.AfterFunc(a.debounce, func() {
		a.fire(ctx, questionID)
	})
}

// Flush cancels the pending debounce for a question and dispatches its
// value synchronously. Used right before submission so the final edit is
// never silently lost. The returned error is best-effort information;
// submission proceeds regardless.
func (a *Autosave) Flush(ctx context.Context, questionID uuid.UUID) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	e, ok := a.entries[questionID]
	if !ok {
		a.mu.Unlock()
		return nil
	}
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
	value := e.pending
	e.pending = nil
	if value == nil {
		a.mu.Unlock()
		return nil
	}
	if e.inFlight {
		// The in-flight dispatch will pick this up as the queued value.
		e.queued = value
		a.mu.Unlock()
		return nil
	}
	e.inFlight = true
	a.mu.Unlock()

	return a.dispatch(ctx, questionID, *value)
}

// FlushAll flushes every question with a pending save. Returns the first
// error encountered but always attempts all flushes.
func (a *Autosave) FlushAll(ctx context.Context) error {
	a.mu.Lock()
	ids := make([]uuid.UUID, 0, len(a.entries))
	for id, e := range a.entries {
		if e.pending != nil {
			ids = append(ids, id)
		}
	}
	a.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := a.Flush(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pending reports whether a save is scheduled but not yet dispatched.
func (a *Autosave) Pending(questionID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[questionID]
	return ok && e.pending != nil
}

// Close cancels every pending debounce and status timer. No saves are
// dispatched after Close returns.
func (a *Autosave) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for _, e := range a.entries {
		if e.debounceTimer != nil {
			e.debounceTimer.Stop()
		}
		if e.statusTimer != nil {
			e.statusTimer.Stop()
		}
		e.pending = nil
		e.queued = nil
	}
}

func (a *Autosave) entry(questionID uuid.UUID) *saveEntry {
	e, ok := a.entries[questionID]
	if !ok {
		e = &saveEntry{}
		a.entries[questionID] = e
	}
	return e
}

// fire runs at debounce expiry: it moves the pending value into dispatch,
// or queues it behind an in-flight save for the same question.
func (a *Autosave) fire(ctx context.Context, questionID uuid.UUID) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	e := a.entry(questionID)
	e.debounceTimer = nil
	value := e.pending
	e.pending = nil
	if value == nil {
		a.mu.Unlock()
		return
	}
	if e.inFlight {
		e.queued = value
		a.mu.Unlock()
		return
	}
	e.inFlight = true
	a.mu.Unlock()

	_ = a.dispatch(ctx, questionID, *value)
}

// dispatch performs the save call (and any value queued behind it) while
// holding the per-question in-flight slot. Returns the last save error.
func (a *Autosave) dispatch(ctx context.Context, questionID uuid.UUID, value model.AnswerValue) error {
	var lastErr error
	for {
		a.setStatus(questionID, SaveStatusSaving)
		err := a.save(ctx, questionID, value)
		if err != nil {
			lastErr = err
			a.settleStatus(questionID, SaveStatusError)
		} else {
			a.settleStatus(questionID, SaveStatusSaved)
		}

		a.mu.Lock()
		e := a.entry(questionID)
		if e.queued == nil || a.closed {
			e.inFlight = false
			a.mu.Unlock()
			return lastErr
		}
		value = *e.queued
		e.queued = nil
		a.mu.Unlock()
	}
}

func (a *Autosave) setStatus(questionID uuid.UUID, status SaveStatus) {
	if a.onStatus != nil {
		a.onStatus(questionID, status)
	}
}

// settleStatus reports a terminal save outcome and schedules its revert to
// idle after the display window.
func (a *Autosave) settleStatus(questionID uuid.UUID, status SaveStatus) {
	a.setStatus(questionID, status)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	e := a.entry(questionID)
	if e.statusTimer != nil {
		e.statusTimer.Stop()
	}
	e.statusTimer = a.clock.AfterFunc(statusDisplayWindow, func() {
		a.setStatus(questionID, SaveStatusIdle)
	})
	a.mu.Unlock()
}
