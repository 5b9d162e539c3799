package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates attempt states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusGraded     AttemptStatus = "GRADED"
)

// Attempt represents a student's single pass at a quiz, from start to
// (optionally) manual grading. Answers are ordered by question order.
type Attempt struct {
	ID              uuid.UUID     `json:"id"`
	QuizID          uuid.UUID     `json:"quiz_id"`
	StudentID       int           `json:"student_id"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	Status          AttemptStatus `json:"status"`
	Answers         []Answer      `json:"answers,omitempty"`
	Score           int           `json:"score"`
	Percentage      float64       `json:"percentage"`
	Passed          bool          `json:"passed"`
	OverallFeedback string        `json:"overall_feedback,omitempty"`
	QuestionOrder   []uuid.UUID   `json:"question_order,omitempty"`
}

// IsFinished reports whether the attempt no longer accepts answers.
func (a *Attempt) IsFinished() bool {
	return a.Status == AttemptStatusCompleted || a.Status == AttemptStatusGraded
}

// AnswerByQuestion finds the attempt's answer for a question, or nil.
func (a *Attempt) AnswerByQuestion(questionID uuid.UUID) *Answer {
	for i := range a.Answers {
		if a.Answers[i].QuestionID == questionID {
			return &a.Answers[i]
		}
	}
	return nil
}

// AttemptState is the reload/resume payload: buffered answers plus the
// remaining seconds derived from the attempt start time.
type AttemptState struct {
	QuizID           uuid.UUID              `json:"quiz_id"`
	AttemptID        uuid.UUID              `json:"attempt_id"`
	StudentID        int                    `json:"student_id"`
	BufferedAnswers  map[string]AnswerValue `json:"buffered_answers"`
	RemainingSeconds int                    `json:"remaining_seconds"`
}

// QuestionGrade is one manually assigned per-question score with feedback.
// Scores outside [0, question.points] are clamped, not rejected.
type QuestionGrade struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Score      int       `json:"score"`
	Comment    string    `json:"comment" binding:"omitempty,max=2000"`
}

// GradeAttemptRequest is the payload for the manual grading pass.
type GradeAttemptRequest struct {
	Grades          []QuestionGrade `json:"grades" binding:"required,min=1,dive"`
	OverallFeedback string          `json:"overall_feedback" binding:"omitempty,max=4000"`
}
