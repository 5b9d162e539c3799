package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles attempt data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, quiz_id, student_id, status, started_at, completed_at,
	        score, percentage, passed, overall_feedback, question_order`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	var orderJSON []byte
	err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.StartedAt,
		&a.CompletedAt, &a.Score, &a.Percentage, &a.Passed, &a.OverallFeedback,
		&orderJSON)
	if err != nil {
		return nil, err
	}
	if len(orderJSON) > 0 {
		if err := json.Unmarshal(orderJSON, &a.QuestionOrder); err != nil {
			return nil, fmt.Errorf("unmarshal question order: %w", err)
		}
	}
	return a, nil
}

// Create inserts an in-progress attempt. The (quiz_id, student_id) unique
// constraint makes starting a second attempt a no-op: when the insert
// conflicts the existing row is returned instead, and created reports
// whether a new row was written.
func (r *AttemptRepository) Create(ctx context.Context, quizID uuid.UUID, studentID int, startedAt time.Time) (attempt *model.Attempt, created bool, err error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO attempts (quiz_id, student_id, status, started_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (quiz_id, student_id) DO NOTHING
		 RETURNING `+attemptColumns,
		quizID, studentID, model.AttemptStatusInProgress, startedAt)

	attempt, err = scanAttempt(row)
	if err == nil {
		return attempt, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	attempt, err = r.GetByQuizAndStudent(ctx, quizID, studentID)
	return attempt, false, err
}

// GetByID retrieves an attempt by its UUID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// GetByQuizAndStudent retrieves a student's attempt on a quiz.
func (r *AttemptRepository) GetByQuizAndStudent(ctx context.Context, quizID uuid.UUID, studentID int) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE quiz_id = $1 AND student_id = $2`,
		quizID, studentID))
}

// SetQuestionOrder persists the per-student shuffled question order.
func (r *AttemptRepository) SetQuestionOrder(ctx context.Context, id uuid.UUID, order []uuid.UUID) error {
	orderJSON, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal question order: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE attempts SET question_order = $1 WHERE id = $2`, orderJSON, id)
	return err
}

// Complete finalises an attempt with its objective-pass results. The
// status guard keeps a replayed completion from overwriting a graded row.
func (r *AttemptRepository) Complete(ctx context.Context, id uuid.UUID, completedAt time.Time, score int, percentage float64, passed bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, completed_at = $2, score = $3, percentage = $4, passed = $5
		 WHERE id = $6 AND status = $7`,
		model.AttemptStatusCompleted, completedAt, score, percentage, passed,
		id, model.AttemptStatusInProgress)
	return err
}

// UpdateGrading applies the recomputed totals after a manual grading pass.
func (r *AttemptRepository) UpdateGrading(ctx context.Context, id uuid.UUID, score int, percentage float64, passed bool, overallFeedback string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts
		 SET status = $1, score = $2, percentage = $3, passed = $4, overall_feedback = $5
		 WHERE id = $6`,
		model.AttemptStatusGraded, score, percentage, passed, overallFeedback, id)
	return err
}

// ListByQuizPaginated retrieves attempts of a quiz for the grading screen,
// newest completions first.
func (r *AttemptRepository) ListByQuizPaginated(ctx context.Context, quizID uuid.UUID, limit, offset int) ([]model.Attempt, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempts WHERE quiz_id = $1`, quizID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts WHERE quiz_id = $1
		 ORDER BY completed_at DESC NULLS LAST, started_at DESC
		 LIMIT $2 OFFSET $3`, quizID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, total, rows.Err()
}

// ListByStudent retrieves every attempt of a student, for the lobby and
// result history.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts WHERE student_id = $1 ORDER BY started_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}
