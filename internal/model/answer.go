package model

import (
	"github.com/google/uuid"
)

// AnswerValue is the tagged value of an answer. Exactly one of the three
// shapes is populated, keyed by the question's type:
// single option (single-choice, true/false), option set (multiple-select),
// or free text (short-answer, essay).
type AnswerValue struct {
	SelectedOptionID  *uuid.UUID  `json:"selected_option_id,omitempty"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids,omitempty"`
	Text              string      `json:"text,omitempty"`
}

// Equal reports whether two values carry the same selection/text.
// Option-set comparison is order-insensitive.
func (v AnswerValue) Equal(o AnswerValue) bool {
	switch {
	case v.SelectedOptionID != nil || o.SelectedOptionID != nil:
		return v.SelectedOptionID != nil && o.SelectedOptionID != nil &&
			*v.SelectedOptionID == *o.SelectedOptionID
	case v.SelectedOptionIDs != nil || o.SelectedOptionIDs != nil:
		if len(v.SelectedOptionIDs) != len(o.SelectedOptionIDs) {
			return false
		}
		set := make(map[uuid.UUID]struct{}, len(v.SelectedOptionIDs))
		for _, id := range v.SelectedOptionIDs {
			set[id] = struct{}{}
		}
		for _, id := range o.SelectedOptionIDs {
			if _, ok := set[id]; !ok {
				return false
			}
		}
		return true
	default:
		return v.Text == o.Text
	}
}

// Answer is a student's current answer to one question, including the
// grading outcome once the attempt has been scored.
type Answer struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerValue
	IsCorrect    *bool  `json:"is_correct,omitempty"`
	PointsEarned int    `json:"points_earned"`
	Feedback     string `json:"feedback,omitempty"`
}

// NewOptionAnswer builds a single-valued option answer.
func NewOptionAnswer(questionID, optionID uuid.UUID) Answer {
	return Answer{
		QuestionID:  questionID,
		AnswerValue: AnswerValue{SelectedOptionID: &optionID},
	}
}

// NewMultiSelectAnswer builds an option-set answer. The slice replaces any
// previous selection wholesale.
func NewMultiSelectAnswer(questionID uuid.UUID, optionIDs []uuid.UUID) Answer {
	ids := make([]uuid.UUID, len(optionIDs))
	copy(ids, optionIDs)
	return Answer{
		QuestionID:  questionID,
		AnswerValue: AnswerValue{SelectedOptionIDs: ids},
	}
}

// NewTextAnswer builds a free-text answer.
func NewTextAnswer(questionID uuid.UUID, text string) Answer {
	return Answer{
		QuestionID:  questionID,
		AnswerValue: AnswerValue{Text: text},
	}
}

// SaveAnswerRequest is the payload for saving one answer over REST.
type SaveAnswerRequest struct {
	QuestionID        uuid.UUID   `json:"question_id" binding:"required"`
	SelectedOptionID  *uuid.UUID  `json:"selected_option_id" binding:"omitempty"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids" binding:"omitempty,max=32"`
	Text              string      `json:"text" binding:"omitempty,max=20000"`
}

// Value converts the request into an AnswerValue.
func (r *SaveAnswerRequest) Value() AnswerValue {
	return AnswerValue{
		SelectedOptionID:  r.SelectedOptionID,
		SelectedOptionIDs: r.SelectedOptionIDs,
		Text:              r.Text,
	}
}
