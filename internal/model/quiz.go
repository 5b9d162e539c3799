package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizStatus enumerates the possible states of a quiz.
type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "DRAFT"
	QuizStatusPublished QuizStatus = "PUBLISHED"
	QuizStatusArchived  QuizStatus = "ARCHIVED"
)

// Quiz represents a quiz entity. Once any attempt exists the quiz is
// treated as immutable by the service layer.
type Quiz struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	AuthorID        int        `json:"author_id"`
	DurationMinutes int        `json:"duration_minutes"`
	PassingScore    float64    `json:"passing_score"`
	TotalPoints     int        `json:"total_points"`
	AllowReview     bool       `json:"allow_review"`
	ShowResults     bool       `json:"show_results"`
	RandomizeOrder  bool       `json:"randomize_order"`
	OpensAt         *time.Time `json:"opens_at,omitempty"`
	ClosesAt        *time.Time `json:"closes_at,omitempty"`
	Status          QuizStatus `json:"status"`
	Questions       []Question `json:"questions,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsOpenAt reports whether the quiz accepts new attempts at the given time.
func (q *Quiz) IsOpenAt(t time.Time) bool {
	if q.Status != QuizStatusPublished {
		return false
	}
	if q.OpensAt != nil && t.Before(*q.OpensAt) {
		return false
	}
	if q.ClosesAt != nil && t.After(*q.ClosesAt) {
		return false
	}
	return true
}

// SumPoints returns the sum of point values across the quiz's questions.
func (q *Quiz) SumPoints() int {
	total := 0
	for i := range q.Questions {
		total += q.Questions[i].Points
	}
	return total
}

// QuestionByID finds a question by id, or nil when absent.
func (q *Quiz) QuestionByID(id uuid.UUID) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

// CreateQuizRequest is the payload for creating a new quiz.
type CreateQuizRequest struct {
	Title           string     `json:"title" binding:"required,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	PassingScore    float64    `json:"passing_score" binding:"min=0,max=100"`
	AllowReview     bool       `json:"allow_review"`
	ShowResults     bool       `json:"show_results"`
	RandomizeOrder  bool       `json:"randomize_order"`
	OpensAt         *time.Time `json:"opens_at" binding:"omitempty"`
	ClosesAt        *time.Time `json:"closes_at" binding:"omitempty,gtfield=OpensAt"`
}

// UpdateQuizRequest is the payload for updating an existing draft quiz.
type UpdateQuizRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassingScore    *float64   `json:"passing_score" binding:"omitempty,min=0,max=100"`
	AllowReview     *bool      `json:"allow_review" binding:"omitempty"`
	ShowResults     *bool      `json:"show_results" binding:"omitempty"`
	RandomizeOrder  *bool      `json:"randomize_order" binding:"omitempty"`
	OpensAt         *time.Time `json:"opens_at" binding:"omitempty"`
	ClosesAt        *time.Time `json:"closes_at" binding:"omitempty,gtfield=OpensAt"`
}

// QuizPaper is the Redis-cached payload sent to students (no correct answers).
type QuizPaper struct {
	QuizID          uuid.UUID            `json:"quiz_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description,omitempty"`
	DurationMinutes int                  `json:"duration_minutes"`
	TotalPoints     int                  `json:"total_points"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question stripped of correctness flags and
// explanations, safe to send to an in-progress student.
type QuestionForStudent struct {
	ID       uuid.UUID          `json:"id"`
	Text     string             `json:"text"`
	Type     QuestionType       `json:"type"`
	Points   int                `json:"points"`
	Options  []OptionForStudent `json:"options,omitempty"`
	OrderNum int                `json:"order_num"`
}

// OptionForStudent is an option without its is-correct flag.
type OptionForStudent struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}
