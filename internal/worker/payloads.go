package worker

import (
	"encoding/json"
	"time"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
)

// AnswerPayload is one buffered answer queued for PostgreSQL upsert.
type AnswerPayload struct {
	AttemptID  string          `json:"attempt_id"`
	QuestionID string          `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

// ResultPayload is one completed attempt queued for persistence: the
// attempt totals plus every answer with its objective score.
type ResultPayload struct {
	AttemptID   string         `json:"attempt_id"`
	QuizID      string         `json:"quiz_id"`
	StudentID   int            `json:"student_id"`
	Score       int            `json:"score"`
	Percentage  float64        `json:"percentage"`
	Passed      bool           `json:"passed"`
	CompletedAt time.Time      `json:"completed_at"`
	Answers     []model.Answer `json:"answers"`
}

// OrderPayload is one shuffled question order queued for persistence.
type OrderPayload struct {
	AttemptID string      `json:"attempt_id"`
	Order     []uuid.UUID `json:"order"`
}
