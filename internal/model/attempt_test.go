package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptIsFinished(t *testing.T) {
	assert.False(t, (&Attempt{Status: AttemptStatusInProgress}).IsFinished())
	assert.True(t, (&Attempt{Status: AttemptStatusCompleted}).IsFinished())
	assert.True(t, (&Attempt{Status: AttemptStatusGraded}).IsFinished())
}

func TestAttemptAnswerByQuestion(t *testing.T) {
	q1 := uuid.New()
	q2 := uuid.New()
	attempt := &Attempt{
		Answers: []Answer{
			NewTextAnswer(q1, "first"),
			NewTextAnswer(q2, "second"),
		},
	}

	got := attempt.AnswerByQuestion(q2)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Text)

	// The returned pointer aliases the attempt's slice entry.
	got.Feedback = "noted"
	assert.Equal(t, "noted", attempt.Answers[1].Feedback)

	assert.Nil(t, attempt.AnswerByQuestion(uuid.New()))
	assert.Nil(t, (&Attempt{}).AnswerByQuestion(q1))
}
