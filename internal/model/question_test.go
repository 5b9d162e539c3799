package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func option(correct bool) Option {
	return Option{ID: uuid.New(), Text: "opt", IsCorrect: correct}
}

func TestQuestionValidate(t *testing.T) {
	cases := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{
			name: "valid single choice",
			q:    Question{Type: QuestionTypeSingleChoice, Points: 2, Options: []Option{option(true), option(false)}},
		},
		{
			name:    "zero points",
			q:       Question{Type: QuestionTypeSingleChoice, Points: 0, Options: []Option{option(true), option(false)}},
			wantErr: true,
		},
		{
			name:    "single choice with two correct options",
			q:       Question{Type: QuestionTypeSingleChoice, Points: 1, Options: []Option{option(true), option(true)}},
			wantErr: true,
		},
		{
			name:    "choice with one option",
			q:       Question{Type: QuestionTypeSingleChoice, Points: 1, Options: []Option{option(true)}},
			wantErr: true,
		},
		{
			name:    "choice with no correct option",
			q:       Question{Type: QuestionTypeMultipleSelect, Points: 1, Options: []Option{option(false), option(false)}},
			wantErr: true,
		},
		{
			name: "multiple select with several correct",
			q:    Question{Type: QuestionTypeMultipleSelect, Points: 3, Options: []Option{option(true), option(true), option(false)}},
		},
		{
			name: "valid true false",
			q:    Question{Type: QuestionTypeTrueFalse, Points: 1, Options: []Option{option(true), option(false)}},
		},
		{
			name:    "true false with three options",
			q:       Question{Type: QuestionTypeTrueFalse, Points: 1, Options: []Option{option(true), option(false), option(false)}},
			wantErr: true,
		},
		{
			name: "valid essay",
			q:    Question{Type: QuestionTypeEssay, Points: 5},
		},
		{
			name:    "essay carrying options",
			q:       Question{Type: QuestionTypeEssay, Points: 5, Options: []Option{option(true), option(false)}},
			wantErr: true,
		},
		{
			name: "valid short answer",
			q:    Question{Type: QuestionTypeShortAnswer, Points: 2},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReplaceQuestionsRequestToQuestions(t *testing.T) {
	req := ReplaceQuestionsRequest{
		Questions: []AddQuestionRequest{
			{Text: "first", Type: "SINGLE_CHOICE", Points: 2, Options: []AddOptionRequest{
				{Text: "yes", IsCorrect: true},
				{Text: "no"},
			}},
			{Text: "second", Type: "ESSAY", Points: 5},
		},
	}

	questions := req.ToQuestions()

	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].OrderNum)
	assert.Equal(t, 2, questions[1].OrderNum)
	assert.Equal(t, QuestionTypeSingleChoice, questions[0].Type)
	require.Len(t, questions[0].Options, 2)
	assert.NotEqual(t, uuid.Nil, questions[0].Options[0].ID)
	assert.NotEqual(t, questions[0].Options[0].ID, questions[0].Options[1].ID)
	assert.True(t, questions[0].Options[0].IsCorrect)
	assert.Empty(t, questions[1].Options)
}

func TestAnswerValueEqual(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.True(t, AnswerValue{SelectedOptionID: &a}.Equal(AnswerValue{SelectedOptionID: &a}))
	assert.False(t, AnswerValue{SelectedOptionID: &a}.Equal(AnswerValue{SelectedOptionID: &b}))
	assert.False(t, AnswerValue{SelectedOptionID: &a}.Equal(AnswerValue{}))

	assert.True(t, AnswerValue{SelectedOptionIDs: []uuid.UUID{a, b}}.
		Equal(AnswerValue{SelectedOptionIDs: []uuid.UUID{b, a}}), "option sets compare order-insensitively")
	assert.False(t, AnswerValue{SelectedOptionIDs: []uuid.UUID{a}}.
		Equal(AnswerValue{SelectedOptionIDs: []uuid.UUID{a, b}}))

	assert.True(t, AnswerValue{Text: "same"}.Equal(AnswerValue{Text: "same"}))
	assert.False(t, AnswerValue{Text: "same"}.Equal(AnswerValue{Text: "different"}))
	assert.True(t, AnswerValue{}.Equal(AnswerValue{}))
}

func TestQuizIsOpenAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	published := Quiz{Status: QuizStatusPublished}
	assert.True(t, published.IsOpenAt(now), "no window means always open")

	windowed := Quiz{Status: QuizStatusPublished, OpensAt: &earlier, ClosesAt: &later}
	assert.True(t, windowed.IsOpenAt(now))

	notYet := Quiz{Status: QuizStatusPublished, OpensAt: &later}
	assert.False(t, notYet.IsOpenAt(now))

	closed := Quiz{Status: QuizStatusPublished, ClosesAt: &earlier}
	assert.False(t, closed.IsOpenAt(now))

	draft := Quiz{Status: QuizStatusDraft}
	assert.False(t, draft.IsOpenAt(now))
}
