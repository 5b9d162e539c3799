package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records calls in order so tests can assert the
// flush-before-complete sequencing.
type fakeBackend struct {
	mu      sync.Mutex
	quiz    *model.Quiz
	attempt *model.Attempt

	fetchErr    error
	startErr    error
	saveErr     error
	completeErr error
	// completeRaced is returned alongside completeErr, mimicking a
	// backend whose already-completed error carries the finished record.
	completeRaced *model.Attempt

	events     []string
	completeCh chan struct{} // when set, CompleteAttempt blocks until closed
}

func (b *fakeBackend) FetchQuiz(_ context.Context, _ uuid.UUID) (*model.Quiz, error) {
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return b.quiz, nil
}

func (b *fakeBackend) StartAttempt(_ context.Context, _ uuid.UUID, _ int) (*model.Attempt, error) {
	if b.startErr != nil {
		return nil, b.startErr
	}
	return b.attempt, nil
}

func (b *fakeBackend) SaveAnswer(_ context.Context, _, questionID uuid.UUID, _ model.AnswerValue) error {
	b.record("save:" + questionID.String())
	return b.saveErr
}

func (b *fakeBackend) CompleteAttempt(_ context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	if b.completeCh != nil {
		<-b.completeCh
	}
	b.record("complete")
	if b.completeErr != nil {
		return b.completeRaced, b.completeErr
	}
	done := *b.attempt
	done.ID = attemptID
	done.Status = model.AttemptStatusCompleted
	done.Score = 7
	done.Percentage = 70
	return &done, nil
}

func (b *fakeBackend) record(event string) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

func (b *fakeBackend) eventLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	copy(out, b.events)
	return out
}

// testQuiz builds a three-question quiz: single choice, multiple select,
// essay, in that order.
func testQuiz() *model.Quiz {
	single := model.Question{
		ID:     uuid.New(),
		Text:   "capital of France",
		Type:   model.QuestionTypeSingleChoice,
		Points: 2,
		Options: []model.Option{
			{ID: uuid.New(), Text: "Paris", IsCorrect: true},
			{ID: uuid.New(), Text: "Lyon"},
		},
		OrderNum: 1,
	}
	multi := model.Question{
		ID:     uuid.New(),
		Text:   "prime numbers",
		Type:   model.QuestionTypeMultipleSelect,
		Points: 3,
		Options: []model.Option{
			{ID: uuid.New(), Text: "2", IsCorrect: true},
			{ID: uuid.New(), Text: "3", IsCorrect: true},
			{ID: uuid.New(), Text: "4"},
		},
		OrderNum: 2,
	}
	essay := model.Question{
		ID:       uuid.New(),
		Text:     "explain recursion",
		Type:     model.QuestionTypeEssay,
		Points:   5,
		OrderNum: 3,
	}
	return &model.Quiz{
		ID:              uuid.New(),
		Title:           "midterm",
		DurationMinutes: 10,
		TotalPoints:     10,
		Status:          model.QuizStatusPublished,
		Questions:       []model.Question{single, multi, essay},
	}
}

func newTestSession(t *testing.T, backend *fakeBackend, clock *fakeClock, hooks Hooks) *Session {
	t.Helper()
	if backend.quiz == nil {
		backend.quiz = testQuiz()
	}
	if backend.attempt == nil {
		backend.attempt = &model.Attempt{
			ID:        uuid.New(),
			QuizID:    backend.quiz.ID,
			StudentID: 42,
			StartedAt: clock.Now(),
			Status:    model.AttemptStatusInProgress,
		}
	}
	return New(backend, clock, zerolog.Nop(), hooks, time.Second)
}

func startSession(t *testing.T, backend *fakeBackend, clock *fakeClock, hooks Hooks) *Session {
	t.Helper()
	s := newTestSession(t, backend, clock, hooks)
	require.NoError(t, s.Start(context.Background(), backend.quiz.ID, 42))
	t.Cleanup(s.Close)
	return s
}

func TestSessionStartTransitionsToInProgress(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	s := startSession(t, backend, clock, Hooks{})

	assert.Equal(t, StateInProgress, s.State())
	assert.Equal(t, 600, s.RemainingSeconds())
	require.Len(t, s.Questions(), 3)
	assert.Equal(t, model.QuestionTypeSingleChoice, s.Questions()[0].Type)
}

func TestSessionStartAppliesStoredQuestionOrder(t *testing.T) {
	clock := newFakeClock()
	quiz := testQuiz()
	backend := &fakeBackend{
		quiz: quiz,
		attempt: &model.Attempt{
			ID:        uuid.New(),
			QuizID:    quiz.ID,
			StudentID: 42,
			StartedAt: clock.Now(),
			Status:    model.AttemptStatusInProgress,
			QuestionOrder: []uuid.UUID{
				quiz.Questions[2].ID,
				quiz.Questions[0].ID,
				quiz.Questions[1].ID,
			},
		},
	}
	s := startSession(t, backend, clock, Hooks{})

	got := s.Questions()
	require.Len(t, got, 3)
	assert.Equal(t, quiz.Questions[2].ID, got[0].ID)
	assert.Equal(t, quiz.Questions[0].ID, got[1].ID)
	assert.Equal(t, quiz.Questions[1].ID, got[2].ID)
}

func TestSessionStartFailureIsTerminal(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{fetchErr: errors.New("quiz gone")}
	s := newTestSession(t, backend, clock, Hooks{})

	err := s.Start(context.Background(), uuid.New(), 42)
	require.Error(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
	assert.Equal(t, StateFailed, s.State())

	// No retry transition out of failed.
	assert.ErrorIs(t, s.Start(context.Background(), uuid.New(), 42), ErrNotActive)
}

func TestSessionResumeSeedsAnswersAndRemainingTime(t *testing.T) {
	clock := newFakeClock()
	quiz := testQuiz()
	essayID := quiz.Questions[2].ID
	backend := &fakeBackend{
		quiz: quiz,
		attempt: &model.Attempt{
			ID:        uuid.New(),
			QuizID:    quiz.ID,
			StudentID: 42,
			StartedAt: clock.Now().Add(-4 * time.Minute),
			Status:    model.AttemptStatusInProgress,
			Answers:   []model.Answer{model.NewTextAnswer(essayID, "draft")},
		},
	}
	s := startSession(t, backend, clock, Hooks{})

	// The countdown continues from the wall clock, not the full duration.
	assert.Equal(t, 360, s.RemainingSeconds())
	answers := s.Answers()
	require.Len(t, answers, 1)
	assert.Equal(t, "draft", answers[0].Text)
}

func TestSessionNavigationBounds(t *testing.T) {
	clock := newFakeClock()
	s := startSession(t, &fakeBackend{}, clock, Hooks{})

	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 0, s.Previous())
	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.JumpTo(2))
	assert.Equal(t, 2, s.Next(), "next past the last question is a no-op")
	assert.Equal(t, 2, s.JumpTo(99))
	assert.Equal(t, 2, s.JumpTo(-1))
	assert.Equal(t, 0, s.JumpTo(0))
}

func TestSessionAnswerValidation(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	s := startSession(t, backend, clock, Hooks{})
	quiz := backend.quiz
	single := quiz.Questions[0]
	multi := quiz.Questions[1]
	essay := quiz.Questions[2]

	assert.ErrorIs(t, s.SelectOption(uuid.New(), uuid.New()), ErrUnknownQuestion)
	assert.ErrorIs(t, s.SelectOption(single.ID, uuid.New()), ErrUnknownQuestion)
	assert.ErrorIs(t, s.SelectOption(essay.ID, uuid.New()), ErrWrongAnswerShape)
	assert.ErrorIs(t, s.SetMultiSelect(single.ID, nil), ErrWrongAnswerShape)
	assert.ErrorIs(t, s.SetMultiSelect(multi.ID, []uuid.UUID{uuid.New()}), ErrUnknownQuestion)
	assert.ErrorIs(t, s.SetText(single.ID, "nope"), ErrWrongAnswerShape)
	assert.Empty(t, s.Answers())
}

func TestSessionAnswerSchedulesAutosave(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	s := startSession(t, backend, clock, Hooks{})
	single := backend.quiz.Questions[0]

	require.NoError(t, s.SelectOption(single.ID, single.Options[0].ID))
	assert.Empty(t, backend.eventLog(), "save dispatched before the debounce window")

	clock.advance(time.Second)
	assert.Equal(t, []string{"save:" + single.ID.String()}, backend.eventLog())

	answers := s.Answers()
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].SelectedOptionID)
	assert.Equal(t, single.Options[0].ID, *answers[0].SelectedOptionID)
}

func TestSessionSubmitFlushesBeforeCompleting(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	s := startSession(t, backend, clock, Hooks{})
	essay := backend.quiz.Questions[2]

	require.NoError(t, s.SetText(essay.ID, "final answer"))

	attempt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusCompleted, attempt.Status)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, []string{"save:" + essay.ID.String(), "complete"}, backend.eventLog())
}

func TestSessionSubmitFailureReverts(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{completeErr: errors.New("db down")}
	s := startSession(t, backend, clock, Hooks{})

	_, err := s.Submit(context.Background())
	require.Error(t, err)
	var submitErr *SubmitError
	assert.ErrorAs(t, err, &submitErr)
	assert.Equal(t, StateInProgress, s.State())

	// Retry succeeds once the backend recovers.
	backend.completeErr = nil
	attempt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusCompleted, attempt.Status)
}

func TestSessionDoubleSubmit(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	s := startSession(t, backend, clock, Hooks{})

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, []string{"complete"}, backend.eventLog(), "completion issued twice")
}

func TestSessionSubmitWhileInFlight(t *testing.T) {
	clock := newFakeClock()
	gate := make(chan struct{})
	backend := &fakeBackend{completeCh: gate}
	s := startSession(t, backend, clock, Hooks{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return s.State() == StateSubmitting
	}, 2*time.Second, 5*time.Millisecond)

	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSessionMutationAfterSubmit(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	s := startSession(t, backend, clock, Hooks{})
	single := backend.quiz.Questions[0]

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.SelectOption(single.ID, single.Options[0].ID), ErrNotActive)
	assert.Equal(t, 0, s.JumpTo(1), "navigation frozen after submission")
}

func TestSessionSubmitAfterRacingCompletion(t *testing.T) {
	clock := newFakeClock()
	raced := &model.Attempt{
		ID:         uuid.New(),
		Status:     model.AttemptStatusCompleted,
		Score:      7,
		Percentage: 70,
	}
	backend := &fakeBackend{
		completeErr:   errors.New("answers were already submitted for this quiz"),
		completeRaced: raced,
	}
	s := startSession(t, backend, clock, Hooks{})

	// Another path (REST complete, a second connection) already finished
	// the attempt; the session lands on submitted instead of retrying.
	attempt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Same(t, raced, attempt)
	assert.Equal(t, StateSubmitted, s.State())

	_, err = s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSessionExpiryFlushesPendingEdit(t *testing.T) {
	clock := newFakeClock()
	submitted := make(chan *model.Attempt, 1)
	quiz := testQuiz()
	backend := &fakeBackend{
		quiz: quiz,
		attempt: &model.Attempt{
			ID:        uuid.New(),
			QuizID:    quiz.ID,
			StudentID: 42,
			// Two seconds left on the countdown.
			StartedAt: clock.Now().Add(-10*time.Minute + 2*time.Second),
			Status:    model.AttemptStatusInProgress,
		},
	}
	s := startSession(t, backend, clock, Hooks{
		OnSubmitted: func(a *model.Attempt) { submitted <- a },
	})
	essayID := quiz.Questions[2].ID

	// Edit inside the debounce window. The clock never advances, so only
	// the expiry flush can dispatch it.
	require.NoError(t, s.SetText(essayID, "last-second thoughts"))
	require.Empty(t, backend.eventLog())

	ticker := clock.lastTicker()
	require.NotNil(t, ticker)
	ticker.tick()
	ticker.tick()

	select {
	case <-submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auto-submission")
	}
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, []string{"save:" + essayID.String(), "complete"}, backend.eventLog())
}

func TestSessionAutoSubmitOnExpiry(t *testing.T) {
	clock := newFakeClock()
	submitted := make(chan *model.Attempt, 1)
	quiz := testQuiz()
	backend := &fakeBackend{
		quiz: quiz,
		attempt: &model.Attempt{
			ID:        uuid.New(),
			QuizID:    quiz.ID,
			StudentID: 42,
			// Resumed past its deadline: the timer expires immediately.
			StartedAt: clock.Now().Add(-time.Hour),
			Status:    model.AttemptStatusInProgress,
		},
	}
	s := startSession(t, backend, clock, Hooks{
		OnSubmitted: func(a *model.Attempt) { submitted <- a },
	})

	select {
	case attempt := <-submitted:
		assert.Equal(t, model.AttemptStatusCompleted, attempt.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auto-submission")
	}
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSessionOnSubmittedHook(t *testing.T) {
	clock := newFakeClock()
	backend := &fakeBackend{}
	var got *model.Attempt
	s := startSession(t, backend, clock, Hooks{
		OnSubmitted: func(a *model.Attempt) { got = a },
	})

	attempt, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Same(t, attempt, got)
}
