package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. Options are stored as
// a jsonb column on the question row.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByQuiz retrieves all questions of a quiz ordered by their position.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, question_text, question_type, points, options, explanation, order_num
		 FROM questions WHERE quiz_id = $1 ORDER BY order_num ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT id, quiz_id, question_text, question_type, points, options, explanation, order_num
		 FROM questions WHERE id = $1`, id))
}

// Create inserts a question at the end of the quiz's order.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, question_text, question_type, points, options, explanation, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6,
		         COALESCE((SELECT MAX(order_num) + 1 FROM questions WHERE quiz_id = $1), 1))
		 RETURNING id, order_num`,
		q.QuizID, q.Text, q.Type, q.Points, optionsJSON, q.Explanation,
	).Scan(&q.ID, &q.OrderNum)
}

// Update rewrites a question in place.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	optionsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, question_type = $2, points = $3, options = $4,
		     explanation = $5, order_num = $6
		 WHERE id = $7`,
		q.Text, q.Type, q.Points, optionsJSON, q.Explanation, q.OrderNum, q.ID)
	return err
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

// ReplaceAll swaps a quiz's entire question set inside one transaction.
// Used by the bulk editor save.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, quizID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (quiz_id, question_text, question_type, points, options, explanation, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			quizID, q.Text, q.Type, q.Points, optionsJSON, q.Explanation, i+1,
		).Scan(&q.ID)
		if err != nil {
			return err
		}
		q.QuizID = quizID
		q.OrderNum = i + 1
	}

	if _, err := tx.Exec(ctx,
		`UPDATE quizzes
		 SET total_points = COALESCE((SELECT SUM(points) FROM questions WHERE quiz_id = $1), 0),
		     updated_at = NOW()
		 WHERE id = $1`, quizID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	var optionsJSON []byte
	err := row.Scan(&q.ID, &q.QuizID, &q.Text, &q.Type, &q.Points, &optionsJSON,
		&q.Explanation, &q.OrderNum)
	if err != nil {
		return nil, err
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	return q, nil
}
