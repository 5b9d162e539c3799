package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository handles persisted answer rows. The answer value is a
// jsonb column holding the tagged union (option id, option id set, or text).
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert writes the latest value for one question of an attempt.
func (r *AnswerRepository) Upsert(ctx context.Context, attemptID, questionID uuid.UUID, value model.AnswerValue) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal answer value: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO answers (attempt_id, question_id, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (attempt_id, question_id)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		attemptID, questionID, valueJSON)
	return err
}

// ListByAttempt retrieves every answer of an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_id, value, is_correct, points_earned, feedback
		 FROM answers WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		var valueJSON []byte
		if err := rows.Scan(&a.QuestionID, &valueJSON, &a.IsCorrect, &a.PointsEarned, &a.Feedback); err != nil {
			return nil, err
		}
		if len(valueJSON) > 0 {
			if err := json.Unmarshal(valueJSON, &a.AnswerValue); err != nil {
				return nil, fmt.Errorf("unmarshal answer value: %w", err)
			}
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ReplaceScores writes the grading outcome of an attempt's answers in one
// bulk UPDATE. Used after the objective pass and after manual grading.
func (r *AnswerRepository) ReplaceScores(ctx context.Context, attemptID uuid.UUID, answers []model.Answer) error {
	n := len(answers)
	if n == 0 {
		return nil
	}

	questionIDs := make([]uuid.UUID, 0, n)
	corrects := make([]*bool, 0, n)
	points := make([]int, 0, n)
	feedbacks := make([]string, 0, n)
	for _, a := range answers {
		questionIDs = append(questionIDs, a.QuestionID)
		corrects = append(corrects, a.IsCorrect)
		points = append(points, a.PointsEarned)
		feedbacks = append(feedbacks, a.Feedback)
	}

	query := `
		UPDATE answers AS a
		SET is_correct = t.is_correct,
		    points_earned = t.points_earned,
		    feedback = t.feedback
		FROM (
			SELECT
				u.question_id,
				u.is_correct,
				u.points_earned,
				u.feedback
			FROM UNNEST(
				$2::uuid[],
				$3::bool[],
				$4::int[],
				$5::text[]
			) AS u (question_id, is_correct, points_earned, feedback)
		) AS t
		WHERE a.attempt_id = $1
		  AND a.question_id = t.question_id
	`

	_, err := r.pool.Exec(ctx, query, attemptID, questionIDs, corrects, points, feedbacks)
	return err
}

// InsertMissing creates empty graded rows for questions the grader scored
// even though the student never answered them.
func (r *AnswerRepository) InsertMissing(ctx context.Context, attemptID uuid.UUID, answers []model.Answer) error {
	for _, a := range answers {
		valueJSON, err := json.Marshal(a.AnswerValue)
		if err != nil {
			return fmt.Errorf("marshal answer value: %w", err)
		}
		_, err = r.pool.Exec(ctx,
			`INSERT INTO answers (attempt_id, question_id, value, is_correct, points_earned, feedback, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 ON CONFLICT (attempt_id, question_id)
			 DO UPDATE SET is_correct = EXCLUDED.is_correct,
			               points_earned = EXCLUDED.points_earned,
			               feedback = EXCLUDED.feedback,
			               updated_at = NOW()`,
			attemptID, a.QuestionID, valueJSON, a.IsCorrect, a.PointsEarned, a.Feedback)
		if err != nil {
			return err
		}
	}
	return nil
}
