package repository

import (
	"context"
	"fmt"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository handles quiz data access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, title, description, author_id, duration_minutes, passing_score,
	        total_points, allow_review, show_results, randomize_order,
	        opens_at, closes_at, status, created_at, updated_at`

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.Title, &q.Description, &q.AuthorID, &q.DurationMinutes,
		&q.PassingScore, &q.TotalPoints, &q.AllowReview, &q.ShowResults,
		&q.RandomizeOrder, &q.OpensAt, &q.ClosesAt, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a quiz by its UUID, without questions.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	return scanQuiz(r.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
}

// Create inserts a new quiz in draft status.
func (r *QuizRepository) Create(ctx context.Context, q *model.Quiz) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, author_id, duration_minutes, passing_score,
		                      allow_review, show_results, randomize_order, opens_at, closes_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Description, q.AuthorID, q.DurationMinutes, q.PassingScore,
		q.AllowReview, q.ShowResults, q.RandomizeOrder, q.OpensAt, q.ClosesAt, q.Status,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// Update rewrites a quiz's mutable fields.
func (r *QuizRepository) Update(ctx context.Context, q *model.Quiz) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET title = $1, description = $2, duration_minutes = $3, passing_score = $4,
		     allow_review = $5, show_results = $6, randomize_order = $7,
		     opens_at = $8, closes_at = $9, total_points = $10, updated_at = NOW()
		 WHERE id = $11`,
		q.Title, q.Description, q.DurationMinutes, q.PassingScore,
		q.AllowReview, q.ShowResults, q.RandomizeOrder, q.OpensAt, q.ClosesAt,
		q.TotalPoints, q.ID)
	return err
}

// UpdateStatus moves a quiz to a new status.
func (r *QuizRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QuizStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// UpdateTotalPoints recomputes the stored point total from the questions table.
func (r *QuizRepository) UpdateTotalPoints(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quizzes
		 SET total_points = COALESCE((SELECT SUM(points) FROM questions WHERE quiz_id = $1), 0),
		     updated_at = NOW()
		 WHERE id = $1`, id)
	return err
}

// Delete removes a quiz and its dependent rows (cascade).
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	return err
}

// CountAttempts returns the number of attempts recorded against a quiz.
// A quiz with any attempt is immutable.
func (r *QuizRepository) CountAttempts(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id = $1`, id).Scan(&n)
	return n, err
}

// ListByAuthorPaginated retrieves quizzes filtered by author with pagination.
// Pass authorID=0 to list all quizzes (management).
func (r *QuizRepository) ListByAuthorPaginated(ctx context.Context, authorID, limit, offset int) ([]model.Quiz, int, error) {
	countQuery := `SELECT COUNT(*) FROM quizzes`
	var countArgs []interface{}
	if authorID > 0 {
		countQuery += ` WHERE author_id = $1`
		countArgs = append(countArgs, authorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + quizColumns + ` FROM quizzes`
	var args []interface{}
	argIdx := 1
	if authorID > 0 {
		query += ` WHERE author_id = $1`
		args = append(args, authorID)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, 0, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, total, rows.Err()
}

// ListPublished retrieves every published quiz, for lobby listing and
// startup cache prewarming.
func (r *QuizRepository) ListPublished(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE status = $1 ORDER BY created_at DESC`,
		model.QuizStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, rows.Err()
}
