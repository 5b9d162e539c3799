package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/edulane/quizdesk-backend/internal/config"
	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/edulane/quizdesk-backend/internal/repository"
	"github.com/edulane/quizdesk-backend/internal/response"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// QuizService handles quiz authoring, publishing, and Redis paper caching.
type QuizService struct {
	quizRepo     *repository.QuizRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *QuizService {
	return &QuizService{
		quizRepo:     quizRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "quiz_service").Logger(),
	}
}

// GetByID retrieves a quiz by its UUID, without questions.
func (s *QuizService) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return s.quizRepo.GetByID(ctx, id)
}

// GetWithQuestions retrieves a quiz with its full question set, correct
// answers included. Staff only.
func (s *QuizService) GetWithQuestions(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionRepo.ListByQuiz(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	quiz.Questions = questions
	return quiz, nil
}

// List retrieves quizzes with pagination, filtered by author for faculty.
// Management passes authorID=0 to list everything.
func (s *QuizService) List(ctx context.Context, authorID, page, perPage int) ([]model.Quiz, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	quizzes, total, err := s.quizRepo.ListByAuthorPaginated(ctx, authorID, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if quizzes == nil {
		quizzes = []model.Quiz{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return quizzes, pagination, nil
}

// Create inserts a new quiz as DRAFT.
func (s *QuizService) Create(ctx context.Context, authorID int, req *model.CreateQuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{
		Title:           req.Title,
		Description:     req.Description,
		AuthorID:        authorID,
		DurationMinutes: req.DurationMinutes,
		PassingScore:    req.PassingScore,
		AllowReview:     req.AllowReview,
		ShowResults:     req.ShowResults,
		RandomizeOrder:  req.RandomizeOrder,
		OpensAt:         req.OpensAt,
		ClosesAt:        req.ClosesAt,
		Status:          model.QuizStatusDraft,
	}
	if err := s.quizRepo.Create(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Update modifies a quiz's settings. Only the author (or management) of a
// quiz without attempts may edit it.
func (s *QuizService) Update(ctx context.Context, quizID uuid.UUID, actor *model.User, req *model.UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.authorizeEdit(ctx, quizID, actor)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != "" {
		quiz.Description = req.Description
	}
	if req.DurationMinutes > 0 {
		quiz.DurationMinutes = req.DurationMinutes
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.AllowReview != nil {
		quiz.AllowReview = *req.AllowReview
	}
	if req.ShowResults != nil {
		quiz.ShowResults = *req.ShowResults
	}
	if req.RandomizeOrder != nil {
		quiz.RandomizeOrder = *req.RandomizeOrder
	}
	if req.OpensAt != nil {
		quiz.OpensAt = req.OpensAt
	}
	if req.ClosesAt != nil {
		quiz.ClosesAt = req.ClosesAt
	}

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// Delete removes a quiz that has no attempts.
func (s *QuizService) Delete(ctx context.Context, quizID uuid.UUID, actor *model.User) error {
	if _, err := s.authorizeEdit(ctx, quizID, actor); err != nil {
		return err
	}
	if err := s.quizRepo.Delete(ctx, quizID); err != nil {
		return err
	}
	s.dropPaperCache(ctx, quizID)
	return nil
}

// ReplaceQuestions swaps a quiz's question set. Each question is validated
// against its type's structural rules before anything is written.
func (s *QuizService) ReplaceQuestions(ctx context.Context, quizID uuid.UUID, actor *model.User, questions []model.Question) error {
	if _, err := s.authorizeEdit(ctx, quizID, actor); err != nil {
		return err
	}

	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, i+1, err)
		}
	}

	return s.questionRepo.ReplaceAll(ctx, quizID, questions)
}

// Publish changes quiz status to PUBLISHED and caches the student paper
// and duration in Redis. The critical read path never touches PostgreSQL.
func (s *QuizService) Publish(ctx context.Context, quizID uuid.UUID, actor *model.User) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}

	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return ErrForbidden
	}
	if quiz.Status != model.QuizStatusDraft {
		return ErrQuizNotDraft
	}

	questions, err := s.questionRepo.ListByQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, i+1, err)
		}
	}

	quiz.Questions = questions
	if err := s.quizRepo.UpdateTotalPoints(ctx, quizID); err != nil {
		return fmt.Errorf("update total points: %w", err)
	}
	quiz.TotalPoints = quiz.SumPoints()

	if err := s.WarmPaperCache(ctx, quiz); err != nil {
		return err
	}

	if err := s.quizRepo.UpdateStatus(ctx, quizID, model.QuizStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz published")
	return nil
}

// Archive moves a published quiz out of the lobby. Existing attempts and
// results remain readable.
func (s *QuizService) Archive(ctx context.Context, quizID uuid.UUID, actor *model.User) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}
	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return ErrForbidden
	}
	if quiz.Status != model.QuizStatusPublished {
		return ErrQuizNotPublished
	}
	if err := s.quizRepo.UpdateStatus(ctx, quizID, model.QuizStatusArchived); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	s.dropPaperCache(ctx, quizID)
	s.log.Info().Str("quiz_id", quizID.String()).Msg("Quiz archived")
	return nil
}

// RefreshCache re-caches the paper for a published quiz.
func (s *QuizService) RefreshCache(ctx context.Context, quizID uuid.UUID, actor *model.User) error {
	quiz, err := s.GetWithQuestions(ctx, quizID)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}
	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return ErrForbidden
	}
	if quiz.Status != model.QuizStatusPublished {
		return ErrQuizNotPublished
	}
	if err := s.WarmPaperCache(ctx, quiz); err != nil {
		return err
	}
	s.log.Info().Str("quiz_id", quizID.String()).Msg("Cache refreshed")
	return nil
}

// WarmPaperCache loads a quiz's student paper and duration from PostgreSQL
// into Redis. Used by Publish, RefreshCache, and PrewarmAllCaches.
func (s *QuizService) WarmPaperCache(ctx context.Context, quiz *model.Quiz) error {
	questions := quiz.Questions
	if len(questions) == 0 {
		var err error
		questions, err = s.questionRepo.ListByQuiz(ctx, quiz.ID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	paper := buildPaper(quiz, questions)

	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.QuizPaperKey(quiz.ID.String()), paperJSON, 0)
	pipe.Set(ctx, config.CacheKey.QuizDurationKey(quiz.ID.String()), strconv.Itoa(quiz.DurationMinutes), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(questions)).
		Msg("Paper cache warmed")
	return nil
}

// PrewarmAllCaches loads every published quiz into Redis on application
// startup so the first students never hit a cold cache.
func (s *QuizService) PrewarmAllCaches(ctx context.Context) error {
	quizzes, err := s.quizRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published quizzes: %w", err)
	}

	if len(quizzes) == 0 {
		s.log.Info().Msg("No published quizzes to prewarm")
		return nil
	}

	warmed := 0
	for i := range quizzes {
		if err := s.WarmPaperCache(ctx, &quizzes[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("quiz_id", quizzes[i].ID.String()).
				Msg("Failed to warm quiz, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(quizzes)).
		Msg("Prewarming complete")
	return nil
}

// GetPaper retrieves the cached student paper from Redis, falling back to
// PostgreSQL with a self-heal write when the cache was evicted.
func (s *QuizService) GetPaper(ctx context.Context, quizID uuid.UUID) (*model.QuizPaper, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuizPaperKey(quizID.String())).Bytes()
	if err == nil {
		var paper model.QuizPaper
		if err := json.Unmarshal(data, &paper); err != nil {
			return nil, fmt.Errorf("unmarshal paper: %w", err)
		}
		return &paper, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	quiz, dbErr := s.GetWithQuestions(ctx, quizID)
	if dbErr != nil {
		return nil, ErrQuizNotAvailable
	}
	if quiz.Status != model.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}
	if warmErr := s.WarmPaperCache(ctx, quiz); warmErr != nil {
		s.log.Warn().Err(warmErr).Str("quiz_id", quizID.String()).Msg("Self-heal cache write failed")
	}
	return buildPaper(quiz, quiz.Questions), nil
}

// buildPaper strips correct answers and explanations from a quiz's
// questions to produce the student-facing paper.
func buildPaper(quiz *model.Quiz, questions []model.Question) *model.QuizPaper {
	paper := &model.QuizPaper{
		QuizID:          quiz.ID,
		Title:           quiz.Title,
		Description:     quiz.Description,
		DurationMinutes: quiz.DurationMinutes,
		TotalPoints:     quiz.TotalPoints,
		Questions:       make([]model.QuestionForStudent, len(questions)),
	}
	for i, q := range questions {
		sq := model.QuestionForStudent{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Points:   q.Points,
			OrderNum: q.OrderNum,
		}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, model.OptionForStudent{ID: o.ID, Text: o.Text})
		}
		paper.Questions[i] = sq
	}
	return paper
}

// ListPublished retrieves all published quizzes for the student lobby.
func (s *QuizService) ListPublished(ctx context.Context) ([]model.Quiz, error) {
	return s.quizRepo.ListPublished(ctx)
}

// authorizeEdit loads a quiz and verifies the actor may modify it. Quizzes
// with attempts are immutable regardless of role.
func (s *QuizService) authorizeEdit(ctx context.Context, quizID uuid.UUID, actor *model.User) (*model.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if actor.Role != model.RoleManagement && quiz.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	attempts, err := s.quizRepo.CountAttempts(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	if attempts > 0 {
		return nil, ErrQuizHasAttempts
	}
	return quiz, nil
}

func (s *QuizService) dropPaperCache(ctx context.Context, quizID uuid.UUID) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.QuizPaperKey(quizID.String()))
	pipe.Del(ctx, config.CacheKey.QuizDurationKey(quizID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Failed to drop paper cache")
	}
}
