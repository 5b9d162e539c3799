package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// QuestionType enumerates the supported question variants.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleSelect QuestionType = "MULTIPLE_SELECT"
	QuestionTypeTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionTypeShortAnswer    QuestionType = "SHORT_ANSWER"
	QuestionTypeEssay          QuestionType = "ESSAY"
)

// IsChoice reports whether the type carries selectable options.
func (t QuestionType) IsChoice() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleSelect, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// Option is a single selectable answer option of a choice question.
type Option struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
}

// Question represents a single quiz question.
type Question struct {
	ID          uuid.UUID    `json:"id"`
	QuizID      uuid.UUID    `json:"quiz_id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Points      int          `json:"points"`
	Options     []Option     `json:"options,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	OrderNum    int          `json:"order_num"`
}

// CorrectOptionIDs returns the ids of all options flagged correct.
func (q *Question) CorrectOptionIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// HasOption reports whether the question carries the given option id.
func (q *Question) HasOption(id uuid.UUID) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Validate enforces the structural invariants of a question:
// positive point value, and for choice types at least two options with at
// least one correct; single-valued types carry exactly one correct option.
func (q *Question) Validate() error {
	if q.Points <= 0 {
		return errors.New("question points must be positive")
	}

	if !q.Type.IsChoice() {
		if len(q.Options) > 0 {
			return fmt.Errorf("%s question must not carry options", q.Type)
		}
		return nil
	}

	if len(q.Options) < 2 {
		return errors.New("choice question needs at least two options")
	}

	correct := len(q.CorrectOptionIDs())
	if correct == 0 {
		return errors.New("choice question needs at least one correct option")
	}

	switch q.Type {
	case QuestionTypeSingleChoice, QuestionTypeTrueFalse:
		if correct != 1 {
			return fmt.Errorf("%s question must have exactly one correct option", q.Type)
		}
	}

	if q.Type == QuestionTypeTrueFalse && len(q.Options) != 2 {
		return errors.New("true/false question must have exactly two options")
	}

	return nil
}

// AddQuestionRequest is the payload for adding a question to a quiz.
type AddQuestionRequest struct {
	Text        string              `json:"text" binding:"required,min=1,max=2000"`
	Type        string              `json:"type" binding:"required,oneof=SINGLE_CHOICE MULTIPLE_SELECT TRUE_FALSE SHORT_ANSWER ESSAY"`
	Points      int                 `json:"points" binding:"required,min=1,max=100"`
	Options     []AddOptionRequest  `json:"options" binding:"omitempty,dive"`
	Explanation string              `json:"explanation" binding:"omitempty,max=2000"`
	OrderNum    int                 `json:"order_num" binding:"min=0"`
}

// AddOptionRequest is a single option within AddQuestionRequest.
type AddOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing a quiz's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}

// ToQuestions converts the request into domain questions, assigning fresh
// option ids. Position in the request is the question order.
func (r *ReplaceQuestionsRequest) ToQuestions() []Question {
	questions := make([]Question, len(r.Questions))
	for i, rq := range r.Questions {
		q := Question{
			Text:        rq.Text,
			Type:        QuestionType(rq.Type),
			Points:      rq.Points,
			Explanation: rq.Explanation,
			OrderNum:    i + 1,
		}
		for _, ro := range rq.Options {
			q.Options = append(q.Options, Option{
				ID:        uuid.New(),
				Text:      ro.Text,
				IsCorrect: ro.IsCorrect,
			})
		}
		questions[i] = q
	}
	return questions
}
