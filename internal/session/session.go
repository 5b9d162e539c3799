// Package session implements the interactive quiz-attempt session: answer
// store, debounced autosave, countdown timer, and the state machine tying
// them to the backing attempt operations.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a session.
type State string

const (
	StateLoading    State = "loading"
	StateInProgress State = "in_progress"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	// StateFailed is the dead-end reached when loading fails. There is no
	// retry transition; the caller navigates away.
	StateFailed State = "failed"
)

// Backend is the narrow view of the attempt operations the session
// consumes. Implementations translate their own failures before returning;
// the session never inspects transport details.
type Backend interface {
	FetchQuiz(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error)
	StartAttempt(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error)
	SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, value model.AnswerValue) error
	CompleteAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error)
}

// Hooks are optional observer callbacks. They are invoked outside the
// session lock and must not call back into the session synchronously.
type Hooks struct {
	OnTick       func(remainingSeconds int)
	OnSaveStatus func(questionID uuid.UUID, status SaveStatus)
	OnSubmitted  func(attempt *model.Attempt)
	// OnError receives failures with no caller to return to, such as a
	// failed auto-submission at timer expiry.
	OnError func(err error)
}

// Session orchestrates one student's attempt: navigation over the question
// list, answer mutations flowing through the autosave coordinator, the
// countdown timer, and the submission transitions.
type Session struct {
	backend  Backend
	clock    Clock
	hooks    Hooks
	log      zerolog.Logger
	debounce time.Duration

	mu        sync.Mutex
	state     State
	quiz      *model.Quiz
	attempt   *model.Attempt
	questions []model.Question
	index     int
	store     *AnswerStore
	autosave  *Autosave
	timer     *AttemptTimer

	// ctx is the session-scoped context captured at Start; debounce-fired
	// saves outlive the originating request, so they run on this one.
	ctx context.Context
}

// New creates a session in the loading state.
func New(backend Backend, clock Clock, log zerolog.Logger, hooks Hooks, debounce time.Duration) *Session {
	return &Session{
		backend:  backend,
		clock:    clock,
		hooks:    hooks,
		log:      log.With().Str("component", "attempt_session").Logger(),
		debounce: debounce,
		state:    StateLoading,
	}
}

// Start fetches the quiz, starts (or resumes) the attempt, seeds the
// answer store, and begins the countdown. A fetch or start failure leaves
// the session in the terminal failed state.
func (s *Session) Start(ctx context.Context, quizID uuid.UUID, studentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return ErrNotActive
	}

	quiz, err := s.backend.FetchQuiz(ctx, quizID)
	if err != nil {
		s.state = StateFailed
		return &LoadError{Err: err}
	}

	attempt, err := s.backend.StartAttempt(ctx, quizID, studentID)
	if err != nil {
		s.state = StateFailed
		return &LoadError{Err: err}
	}

	s.ctx = ctx
	s.quiz = quiz
	s.attempt = attempt
	s.questions = orderQuestions(quiz.Questions, attempt.QuestionOrder)
	s.index = 0
	s.store = NewAnswerStore(attempt.Answers)
	s.autosave = NewAutosave(s.clock, s.debounce, s.saveAnswer, s.hooks.OnSaveStatus)
	s.timer = NewAttemptTimer(
		s.clock,
		attempt.StartedAt,
		time.Duration(quiz.DurationMinutes)*time.Minute,
		s.hooks.OnTick,
		s.autoSubmit,
	)

	s.state = StateInProgress
	s.timer.Start()

	s.log.Info().
		Str("quiz_id", quizID.String()).
		Str("attempt_id", attempt.ID.String()).
		Int("student_id", studentID).
		Int("remaining_seconds", s.timer.Remaining()).
		Msg("Session started")
	return nil
}

func (s *Session) saveAnswer(ctx context.Context, questionID uuid.UUID, value model.AnswerValue) error {
	s.mu.Lock()
	attempt := s.attempt
	s.mu.Unlock()
	if attempt == nil {
		return ErrNotActive
	}
	return s.backend.SaveAnswer(ctx, attempt.ID, questionID, value)
}

// ─── Navigation ────────────────────────────────────────────────────

// Next advances to the following question; a no-op at the last index.
func (s *Session) Next() int { return s.JumpTo(s.CurrentIndex() + 1) }

// Previous moves to the preceding question; a no-op at index zero.
func (s *Session) Previous() int { return s.JumpTo(s.CurrentIndex() - 1) }

// JumpTo moves to the given question index. Out-of-bounds targets are
// ignored. Navigation never resets the timer or touches answers.
func (s *Session) JumpTo(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return s.index
	}
	if index >= 0 && index < len(s.questions) {
		s.index = index
	}
	return s.index
}

// CurrentIndex returns the displayed question index.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentQuestion returns the displayed question, or nil before loading
// completes or for an empty quiz.
func (s *Session) CurrentQuestion() *model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 || s.index >= len(s.questions) {
		return nil
	}
	q := s.questions[s.index]
	return &q
}

// ─── Answer mutations ──────────────────────────────────────────────

// SelectOption records the selection for a single-choice or true/false
// question and schedules its autosave.
func (s *Session) SelectOption(questionID, optionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.mutableQuestion(questionID)
	if err != nil {
		return err
	}
	if q.Type != model.QuestionTypeSingleChoice && q.Type != model.QuestionTypeTrueFalse {
		return ErrWrongAnswerShape
	}
	if !q.HasOption(optionID) {
		return ErrUnknownQuestion
	}
	ans := s.store.SetOption(questionID, optionID)
	s.autosave.Schedule(s.ctx, questionID, ans.AnswerValue)
	return nil
}

// SetMultiSelect replaces the full selected set for a multiple-select
// question and schedules its autosave.
func (s *Session) SetMultiSelect(questionID uuid.UUID, optionIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.mutableQuestion(questionID)
	if err != nil {
		return err
	}
	if q.Type != model.QuestionTypeMultipleSelect {
		return ErrWrongAnswerShape
	}
	for _, id := range optionIDs {
		if !q.HasOption(id) {
			return ErrUnknownQuestion
		}
	}
	ans := s.store.SetMultiSelect(questionID, optionIDs)
	s.autosave.Schedule(s.ctx, questionID, ans.AnswerValue)
	return nil
}

// SetText replaces the free-text value for a short-answer or essay
// question and schedules its autosave.
func (s *Session) SetText(questionID uuid.UUID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.mutableQuestion(questionID)
	if err != nil {
		return err
	}
	if q.Type != model.QuestionTypeShortAnswer && q.Type != model.QuestionTypeEssay {
		return ErrWrongAnswerShape
	}
	ans := s.store.SetText(questionID, text)
	s.autosave.Schedule(s.ctx, questionID, ans.AnswerValue)
	return nil
}

// mutableQuestion validates that answers may currently be mutated and that
// the question belongs to the quiz. Callers hold s.mu.
func (s *Session) mutableQuestion(questionID uuid.UUID) (*model.Question, error) {
	if s.state != StateInProgress {
		return nil, ErrNotActive
	}
	q := s.quiz.QuestionByID(questionID)
	if q == nil {
		return nil, ErrUnknownQuestion
	}
	return q, nil
}

// ─── Submission ────────────────────────────────────────────────────

// Submit runs the explicit submission path: flush pending autosaves, then
// the completion call. A second Submit while one is in flight returns
// ErrSubmitInFlight and is never issued concurrently.
func (s *Session) Submit(ctx context.Context) (*model.Attempt, error) {
	return s.submit(ctx)
}

// autoSubmit is the timer-expiry path. It shares the flush-then-complete
// sequence with Submit; there is no confirmation step.
func (s *Session) autoSubmit() {
	s.log.Info().Msg("Time expired, auto-submitting")
	if _, err := s.submit(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Auto-submission failed")
		if s.hooks.OnError != nil {
			s.hooks.OnError(err)
		}
	}
}

func (s *Session) submit(ctx context.Context) (*model.Attempt, error) {
	s.mu.Lock()
	switch s.state {
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	case StateSubmitted:
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	case StateInProgress:
	default:
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	s.state = StateSubmitting
	attemptID := s.attempt.ID
	autosave := s.autosave
	s.mu.Unlock()

	// Best-effort flush of the final edits. A flush failure is reported
	// but never blocks submission.
	if err := autosave.FlushAll(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Autosave flush failed before submission")
	}

	attempt, err := s.backend.CompleteAttempt(ctx, attemptID)

	s.mu.Lock()
	if err != nil {
		// A completion that lost a race (REST complete, a second
		// connection) still ended the attempt. A finished record
		// returned alongside the error is terminal, not retryable.
		if attempt == nil || !attempt.IsFinished() {
			s.state = StateInProgress
			s.mu.Unlock()
			return nil, &SubmitError{Err: err}
		}
	}

	s.state = StateSubmitted
	s.attempt = attempt
	s.timer.Stop()
	s.autosave.Close()
	s.mu.Unlock()

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("score", attempt.Score).
		Float64("percentage", attempt.Percentage).
		Msg("Attempt submitted")

	if s.hooks.OnSubmitted != nil {
		s.hooks.OnSubmitted(attempt)
	}
	return attempt, nil
}

// ─── Accessors / teardown ──────────────────────────────────────────

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Quiz returns the loaded quiz, or nil while loading.
func (s *Session) Quiz() *model.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Questions returns the question list in the student's display order.
func (s *Session) Questions() []model.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Attempt returns the current attempt record.
func (s *Session) Attempt() *model.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Answers returns a snapshot of the current answers.
func (s *Session) Answers() []model.Answer {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store == nil {
		return nil
	}
	return store.Snapshot()
}

// RemainingSeconds returns the countdown value, or zero before start.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer == nil {
		return 0
	}
	return timer.Remaining()
}

// Close tears the session down: pending timers and debounces are
// cancelled so nothing mutates state after disposal. A non-submitted
// attempt simply remains resumable server-side.
func (s *Session) Close() {
	s.mu.Lock()
	timer := s.timer
	autosave := s.autosave
	s.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	if autosave != nil {
		autosave.Close()
	}
}

// orderQuestions sorts by order number, then applies the attempt's stored
// per-student shuffle when present.
func orderQuestions(questions []model.Question, order []uuid.UUID) []model.Question {
	out := make([]model.Question, len(questions))
	copy(out, questions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderNum < out[j].OrderNum })

	if len(order) == 0 {
		return out
	}

	byID := make(map[uuid.UUID]model.Question, len(out))
	for _, q := range out {
		byID[q.ID] = q
	}
	shuffled := make([]model.Question, 0, len(out))
	for _, id := range order {
		if q, ok := byID[id]; ok {
			shuffled = append(shuffled, q)
			delete(byID, id)
		}
	}
	// Questions missing from the stored order (added later) keep their
	// relative position at the end.
	for _, q := range out {
		if _, ok := byID[q.ID]; ok {
			shuffled = append(shuffled, q)
		}
	}
	return shuffled
}
