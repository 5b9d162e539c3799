package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/edulane/quizdesk-backend/internal/config"
	"github.com/edulane/quizdesk-backend/internal/grading"
	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/edulane/quizdesk-backend/internal/repository"
	"github.com/edulane/quizdesk-backend/internal/response"
	"github.com/edulane/quizdesk-backend/internal/worker"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptService handles the quiz attempt lifecycle: starting, buffering
// answers in Redis, completing with the objective grading pass, and the
// manual grading pass. The hot save path is Redis-only; PostgreSQL is
// written by the background workers.
type AttemptService struct {
	quizSvc     *QuizService
	quizRepo    *repository.QuizRepository
	attemptRepo *repository.AttemptRepository
	answerRepo  *repository.AnswerRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	quizSvc *QuizService,
	quizRepo *repository.QuizRepository,
	attemptRepo *repository.AttemptRepository,
	answerRepo *repository.AnswerRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		quizSvc:     quizSvc,
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		answerRepo:  answerRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// LobbyQuiz represents a quiz as displayed in the student lobby, with the
// student's attempt status overlaid.
type LobbyQuiz struct {
	model.Quiz
	AttemptStatus *model.AttemptStatus `json:"attempt_status,omitempty"`
	Score         *int                 `json:"score,omitempty"`
	Percentage    *float64             `json:"percentage,omitempty"`
}

// GetLobby returns the published quizzes visible to a student, with their
// own attempt state overlaid. Scores are only exposed when the quiz shows
// results.
func (s *AttemptService) GetLobby(ctx context.Context, studentID int) ([]LobbyQuiz, error) {
	quizzes, err := s.quizRepo.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published quizzes: %w", err)
	}

	attempts, err := s.attemptRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attemptMap := make(map[uuid.UUID]*model.Attempt, len(attempts))
	for i := range attempts {
		attemptMap[attempts[i].QuizID] = &attempts[i]
	}

	lobby := make([]LobbyQuiz, 0, len(quizzes))
	for i := range quizzes {
		entry := LobbyQuiz{Quiz: quizzes[i]}
		if att, ok := attemptMap[quizzes[i].ID]; ok {
			entry.AttemptStatus = &att.Status
			if att.IsFinished() && quizzes[i].ShowResults {
				entry.Score = &att.Score
				entry.Percentage = &att.Percentage
			}
		}
		lobby = append(lobby, entry)
	}
	return lobby, nil
}

// FetchQuiz loads a published quiz with its questions for a live attempt.
func (s *AttemptService) FetchQuiz(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizSvc.GetWithQuestions(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotAvailable
	}
	return quiz, nil
}

// StartAttempt creates an attempt, or resumes the existing one. Starting
// is idempotent per (quiz, student): refreshing the page or reconnecting
// never creates a second attempt or resets the clock.
func (s *AttemptService) StartAttempt(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	now := time.Now()

	// An existing attempt resumes even after the window closed; only new
	// attempts require an open window.
	attempt, created, err := s.attemptRepo.Create(ctx, quizID, studentID, now)
	if err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	if created && !quiz.IsOpenAt(now) {
		return nil, ErrQuizNotAvailable
	}
	if !created && attempt.IsFinished() {
		return nil, ErrAttemptAlreadyCompleted
	}

	startKey := config.CacheKey.AttemptStartKey(quizID.String(), studentID)
	if err := s.rdb.Set(ctx, startKey, attempt.StartedAt.Unix(), 0).Err(); err != nil {
		// The PostgreSQL fallback in GetAttemptState covers a lost cache.
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to cache start time")
	}

	if created && quiz.RandomizeOrder {
		order, err := s.assignQuestionOrder(ctx, quiz, attempt, studentID)
		if err != nil {
			return nil, err
		}
		attempt.QuestionOrder = order
	} else if !created && quiz.RandomizeOrder && len(attempt.QuestionOrder) == 0 {
		// The order worker may not have flushed yet; recover from Redis.
		attempt.QuestionOrder = s.cachedQuestionOrder(ctx, quizID, studentID)
	}

	if !created {
		// A resumed attempt carries its saved answers so the student sees
		// exactly what they left.
		answers, err := s.collectAnswers(ctx, attempt)
		if err != nil {
			return nil, err
		}
		attempt.Answers = answers
	}

	return attempt, nil
}

// assignQuestionOrder shuffles the quiz's question ids for one student,
// caches the order in Redis, and queues the PostgreSQL write.
func (s *AttemptService) assignQuestionOrder(ctx context.Context, quiz *model.Quiz, attempt *model.Attempt, studentID int) ([]uuid.UUID, error) {
	paper, err := s.quizSvc.GetPaper(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	order := make([]uuid.UUID, len(paper.Questions))
	for i, q := range paper.Questions {
		order[i] = q.ID
	}
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	orderJSON, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	orderKey := config.CacheKey.StudentQuestionOrderKey(quiz.ID.String(), studentID)
	if err := s.rdb.Set(ctx, orderKey, orderJSON, 0).Err(); err != nil {
		return nil, fmt.Errorf("cache order: %w", err)
	}

	payload, _ := json.Marshal(worker.OrderPayload{
		AttemptID: attempt.ID.String(),
		Order:     order,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistQuestionOrderQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to queue order persist")
	}

	return order, nil
}

func (s *AttemptService) cachedQuestionOrder(ctx context.Context, quizID uuid.UUID, studentID int) []uuid.UUID {
	raw, err := s.rdb.Get(ctx, config.CacheKey.StudentQuestionOrderKey(quizID.String(), studentID)).Bytes()
	if err != nil {
		return nil
	}
	var order []uuid.UUID
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil
	}
	return order
}

// SaveAnswer buffers one answer in Redis and queues the PostgreSQL upsert.
// Saves against a completed attempt are rejected so a straggling autosave
// can never land after submission.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID, questionID uuid.UUID, value model.AnswerValue) error {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if attempt.IsFinished() {
		return ErrAttemptCompleted
	}

	// Fast-path guard: the completed flag is set before the row update so
	// a buffered save racing the submit still loses.
	completedKey := config.CacheKey.AttemptCompletedKey(attempt.QuizID.String(), attempt.StudentID)
	if flag, err := s.rdb.Exists(ctx, completedKey).Result(); err == nil && flag > 0 {
		return ErrAttemptCompleted
	}

	if err := s.validateAnswerShape(ctx, attempt.QuizID, questionID, value); err != nil {
		return err
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	answersKey := config.CacheKey.StudentAnswersKey(attempt.QuizID.String(), attempt.StudentID)
	if err := s.rdb.HSet(ctx, answersKey, questionID.String(), valueJSON).Err(); err != nil {
		return fmt.Errorf("buffer answer: %w", err)
	}

	payload, _ := json.Marshal(worker.AnswerPayload{
		AttemptID:  attemptID.String(),
		QuestionID: questionID.String(),
		Value:      valueJSON,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		// Fall back to a synchronous upsert rather than losing the row.
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to queue answer persist, upserting inline")
		if err := s.answerRepo.Upsert(ctx, attemptID, questionID, value); err != nil {
			return fmt.Errorf("persist answer: %w", err)
		}
	}

	return nil
}

// validateAnswerShape checks the question belongs to the quiz, the value
// matches the question type, and any selected options exist.
func (s *AttemptService) validateAnswerShape(ctx context.Context, quizID, questionID uuid.UUID, value model.AnswerValue) error {
	paper, err := s.quizSvc.GetPaper(ctx, quizID)
	if err != nil {
		return err
	}

	var question *model.QuestionForStudent
	for i := range paper.Questions {
		if paper.Questions[i].ID == questionID {
			question = &paper.Questions[i]
			break
		}
	}
	if question == nil {
		return ErrUnknownQuestion
	}

	hasOption := func(id uuid.UUID) bool {
		for _, o := range question.Options {
			if o.ID == id {
				return true
			}
		}
		return false
	}

	switch question.Type {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalse:
		if value.SelectedOptionID == nil || len(value.SelectedOptionIDs) > 0 || value.Text != "" {
			return ErrWrongAnswerShape
		}
		if !hasOption(*value.SelectedOptionID) {
			return ErrWrongAnswerShape
		}
	case model.QuestionTypeMultipleSelect:
		if value.SelectedOptionID != nil || value.Text != "" {
			return ErrWrongAnswerShape
		}
		for _, id := range value.SelectedOptionIDs {
			if !hasOption(id) {
				return ErrWrongAnswerShape
			}
		}
	case model.QuestionTypeShortAnswer, model.QuestionTypeEssay:
		if value.SelectedOptionID != nil || len(value.SelectedOptionIDs) > 0 {
			return ErrWrongAnswerShape
		}
	default:
		return ErrWrongAnswerShape
	}
	return nil
}

// CompleteAttempt runs the objective grading pass in memory and queues
// the result persist. Completing twice returns the already-final attempt
// state as an error so handlers can answer idempotently.
func (s *AttemptService) CompleteAttempt(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.IsFinished() {
		return attempt, ErrAttemptAlreadyCompleted
	}

	quiz, err := s.quizSvc.GetWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	answers, err := s.collectAnswers(ctx, attempt)
	if err != nil {
		return nil, err
	}

	graded, summary := grading.ObjectivePass(quiz, answers)

	now := time.Now()
	attempt.Status = model.AttemptStatusCompleted
	attempt.CompletedAt = &now
	attempt.Score = summary.Score
	attempt.Percentage = summary.Percentage
	attempt.Passed = summary.Passed
	attempt.Answers = graded

	// The completed flag blocks further saves immediately, before the
	// asynchronous row update lands.
	completedKey := config.CacheKey.AttemptCompletedKey(attempt.QuizID.String(), attempt.StudentID)
	if err := s.rdb.Set(ctx, completedKey, now.Unix(), 0).Err(); err != nil {
		return nil, fmt.Errorf("set completed flag: %w", err)
	}

	payload, _ := json.Marshal(worker.ResultPayload{
		AttemptID:   attemptID.String(),
		QuizID:      attempt.QuizID.String(),
		StudentID:   attempt.StudentID,
		Score:       summary.Score,
		Percentage:  summary.Percentage,
		Passed:      summary.Passed,
		CompletedAt: now,
		Answers:     graded,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		// Fall back to a synchronous persist rather than losing the result.
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Failed to queue result, persisting inline")
		if err := s.persistResultInline(ctx, attempt, graded); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("score", summary.Score).
		Bool("passed", summary.Passed).
		Msg("Attempt completed")
	return attempt, nil
}

func (s *AttemptService) persistResultInline(ctx context.Context, attempt *model.Attempt, graded []model.Answer) error {
	if err := s.answerRepo.InsertMissing(ctx, attempt.ID, graded); err != nil {
		return fmt.Errorf("persist answers: %w", err)
	}
	if err := s.attemptRepo.Complete(ctx, attempt.ID, *attempt.CompletedAt, attempt.Score, attempt.Percentage, attempt.Passed); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	return nil
}

// collectAnswers merges the Redis answer buffer over the persisted rows.
// A buffered value is always at least as new as its row.
func (s *AttemptService) collectAnswers(ctx context.Context, attempt *model.Attempt) ([]model.Answer, error) {
	persisted, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	byQuestion := make(map[uuid.UUID]model.Answer, len(persisted))
	for _, a := range persisted {
		byQuestion[a.QuestionID] = a
	}

	answersKey := config.CacheKey.StudentAnswersKey(attempt.QuizID.String(), attempt.StudentID)
	buffered, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get buffered answers: %w", err)
	}
	for field, raw := range buffered {
		questionID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		var value model.AnswerValue
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			s.log.Warn().Str("question_id", field).Msg("Skipping malformed buffered answer")
			continue
		}
		byQuestion[questionID] = model.Answer{QuestionID: questionID, AnswerValue: value}
	}

	answers := make([]model.Answer, 0, len(byQuestion))
	for _, a := range byQuestion {
		answers = append(answers, a)
	}
	return answers, nil
}

// GetAttemptState returns the resume payload: buffered answers plus the
// remaining seconds derived from the attempt start time. The start time
// comes from Redis with a PostgreSQL fallback and self-heal.
func (s *AttemptService) GetAttemptState(ctx context.Context, quizID uuid.UUID, studentID int) (*model.AttemptState, error) {
	answersKey := config.CacheKey.StudentAnswersKey(quizID.String(), studentID)
	rawAnswers, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("get buffered answers: %w", err)
	}

	buffered := make(map[string]model.AnswerValue, len(rawAnswers))
	for field, raw := range rawAnswers {
		var value model.AnswerValue
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			continue
		}
		buffered[field] = value
	}

	durationMinutes, err := s.quizDuration(ctx, quizID)
	if err != nil {
		return nil, err
	}

	var attemptID uuid.UUID
	var startUnix int64
	startKey := config.CacheKey.AttemptStartKey(quizID.String(), studentID)
	val, err := s.rdb.Get(ctx, startKey).Result()

	attempt, dbErr := s.attemptRepo.GetByQuizAndStudent(ctx, quizID, studentID)
	if dbErr == nil {
		attemptID = attempt.ID
	}

	switch {
	case errors.Is(err, redis.Nil):
		// Cache miss. PostgreSQL is the source of truth; self-heal Redis
		// so the next request is fast.
		if dbErr != nil {
			return nil, fmt.Errorf("attempt not found in cache or db: %w", dbErr)
		}
		startUnix = attempt.StartedAt.Unix()
		_ = s.rdb.Set(ctx, startKey, startUnix, 0)
	case err != nil:
		return nil, fmt.Errorf("get start time: %w", err)
	default:
		startUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid start time in cache: %w", err)
		}
	}

	endTime := time.Unix(startUnix, 0).Add(time.Duration(durationMinutes) * time.Minute)
	remaining := time.Until(endTime)
	if remaining < 0 {
		remaining = 0
	}

	return &model.AttemptState{
		QuizID:           quizID,
		AttemptID:        attemptID,
		StudentID:        studentID,
		BufferedAnswers:  buffered,
		RemainingSeconds: int(remaining.Seconds()),
	}, nil
}

func (s *AttemptService) quizDuration(ctx context.Context, quizID uuid.UUID) (int, error) {
	val, err := s.rdb.Get(ctx, config.CacheKey.QuizDurationKey(quizID.String())).Result()
	if err == nil {
		minutes, convErr := strconv.Atoi(val)
		if convErr == nil {
			return minutes, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("get duration: %w", err)
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return 0, fmt.Errorf("get quiz: %w", err)
	}
	_ = s.rdb.Set(ctx, config.CacheKey.QuizDurationKey(quizID.String()), strconv.Itoa(quiz.DurationMinutes), 0)
	return quiz.DurationMinutes, nil
}

// GradeAttempt applies a manual grading pass over a completed attempt and
// recomputes the totals. Partial grading is allowed; the attempt moves to
// GRADED on the first pass and stays there.
func (s *AttemptService) GradeAttempt(ctx context.Context, attemptID uuid.UUID, actor *model.User, req *model.GradeAttemptRequest) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if !attempt.IsFinished() {
		return nil, ErrAttemptNotCompleted
	}

	quiz, err := s.quizSvc.GetWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return nil, ErrForbidden
	}

	for _, g := range req.Grades {
		if quiz.QuestionByID(g.QuestionID) == nil {
			return nil, ErrUnknownQuestion
		}
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	graded, summary := grading.ApplyManualGrades(quiz, answers, req.Grades)

	// Existing rows get their scores replaced in one bulk UPDATE; rows
	// the grader scored without a student answer are created.
	existing := make(map[uuid.UUID]bool, len(answers))
	for _, a := range answers {
		existing[a.QuestionID] = true
	}
	var rescored, created []model.Answer
	for _, a := range graded {
		if existing[a.QuestionID] {
			rescored = append(rescored, a)
		} else {
			created = append(created, a)
		}
	}
	if err := s.answerRepo.ReplaceScores(ctx, attemptID, rescored); err != nil {
		return nil, fmt.Errorf("persist grades: %w", err)
	}
	if err := s.answerRepo.InsertMissing(ctx, attemptID, created); err != nil {
		return nil, fmt.Errorf("persist grades: %w", err)
	}

	feedback := req.OverallFeedback
	if feedback == "" {
		feedback = attempt.OverallFeedback
	}
	if err := s.attemptRepo.UpdateGrading(ctx, attemptID, summary.Score, summary.Percentage, summary.Passed, feedback); err != nil {
		return nil, fmt.Errorf("update attempt: %w", err)
	}

	attempt.Status = model.AttemptStatusGraded
	attempt.Score = summary.Score
	attempt.Percentage = summary.Percentage
	attempt.Passed = summary.Passed
	attempt.OverallFeedback = feedback
	attempt.Answers = graded

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Int("grader_id", actor.ID).
		Int("score", summary.Score).
		Msg("Attempt graded")
	return attempt, nil
}

// GetAttemptDetail loads an attempt with its answers and the quiz's full
// question set for the grading screen.
func (s *AttemptService) GetAttemptDetail(ctx context.Context, attemptID uuid.UUID, actor *model.User) (*model.Attempt, *model.Quiz, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}

	quiz, err := s.quizSvc.GetWithQuestions(ctx, attempt.QuizID)
	if err != nil {
		return nil, nil, fmt.Errorf("get quiz: %w", err)
	}
	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return nil, nil, ErrForbidden
	}

	answers, err := s.answerRepo.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, nil, fmt.Errorf("list answers: %w", err)
	}
	attempt.Answers = answers
	return attempt, quiz, nil
}

// ListAttempts returns the attempts on a quiz for the grading screen.
func (s *AttemptService) ListAttempts(ctx context.Context, quizID uuid.UUID, actor *model.User, page, perPage int) ([]model.Attempt, *response.Pagination, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get quiz: %w", err)
	}
	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return nil, nil, ErrForbidden
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	attempts, total, err := s.attemptRepo.ListByQuizPaginated(ctx, quizID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return attempts, pagination, nil
}

// ResultView is the student-facing result payload. Answer detail is only
// included when the quiz allows review.
type ResultView struct {
	AttemptID       uuid.UUID           `json:"attempt_id"`
	QuizID          uuid.UUID           `json:"quiz_id"`
	QuizTitle       string              `json:"quiz_title"`
	Status          model.AttemptStatus `json:"status"`
	Score           int                 `json:"score"`
	TotalPoints     int                 `json:"total_points"`
	Percentage      float64             `json:"percentage"`
	Passed          bool                `json:"passed"`
	OverallFeedback string              `json:"overall_feedback,omitempty"`
	CompletedAt     *time.Time          `json:"completed_at,omitempty"`
	Answers         []ReviewAnswer      `json:"answers,omitempty"`
}

// ReviewAnswer pairs a question with the student's answer for review.
type ReviewAnswer struct {
	Question model.Question `json:"question"`
	Answer   *model.Answer  `json:"answer,omitempty"`
}

// GetResult returns a student's own result for a quiz. Requires the quiz
// to show results; review detail additionally requires allow_review.
func (s *AttemptService) GetResult(ctx context.Context, quizID uuid.UUID, studentID int) (*ResultView, error) {
	attempt, err := s.attemptRepo.GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if !attempt.IsFinished() {
		return nil, ErrAttemptNotCompleted
	}

	quiz, err := s.quizSvc.GetWithQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if !quiz.ShowResults {
		return nil, ErrResultsHidden
	}

	view := &ResultView{
		AttemptID:       attempt.ID,
		QuizID:          quizID,
		QuizTitle:       quiz.Title,
		Status:          attempt.Status,
		Score:           attempt.Score,
		TotalPoints:     quiz.TotalPoints,
		Percentage:      attempt.Percentage,
		Passed:          attempt.Passed,
		OverallFeedback: attempt.OverallFeedback,
		CompletedAt:     attempt.CompletedAt,
	}

	if quiz.AllowReview {
		answers, err := s.answerRepo.ListByAttempt(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		attempt.Answers = answers
		for i := range quiz.Questions {
			view.Answers = append(view.Answers, ReviewAnswer{
				Question: quiz.Questions[i],
				Answer:   attempt.AnswerByQuestion(quiz.Questions[i].ID),
			})
		}
	}

	return view, nil
}
