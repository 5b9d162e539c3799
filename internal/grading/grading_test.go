package grading

import (
	"testing"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleChoiceQuestion(points int) model.Question {
	return model.Question{
		ID:     uuid.New(),
		Type:   model.QuestionTypeSingleChoice,
		Points: points,
		Options: []model.Option{
			{ID: uuid.New(), Text: "right", IsCorrect: true},
			{ID: uuid.New(), Text: "wrong"},
		},
	}
}

func multiSelectQuestion(points int) model.Question {
	return model.Question{
		ID:     uuid.New(),
		Type:   model.QuestionTypeMultipleSelect,
		Points: points,
		Options: []model.Option{
			{ID: uuid.New(), Text: "a", IsCorrect: true},
			{ID: uuid.New(), Text: "b", IsCorrect: true},
			{ID: uuid.New(), Text: "c"},
		},
	}
}

func correctIDs(q model.Question) []uuid.UUID {
	return q.CorrectOptionIDs()
}

func TestIsObjective(t *testing.T) {
	assert.True(t, IsObjective(model.QuestionTypeSingleChoice))
	assert.True(t, IsObjective(model.QuestionTypeMultipleSelect))
	assert.True(t, IsObjective(model.QuestionTypeTrueFalse))
	assert.False(t, IsObjective(model.QuestionTypeShortAnswer))
	assert.False(t, IsObjective(model.QuestionTypeEssay))
}

func TestScoreAnswerSingleChoice(t *testing.T) {
	q := singleChoiceQuestion(4)
	correct := q.Options[0].ID
	wrong := q.Options[1].ID

	isCorrect, points, err := ScoreAnswer(&q, &model.Answer{
		QuestionID:  q.ID,
		AnswerValue: model.AnswerValue{SelectedOptionID: &correct},
	})
	require.NoError(t, err)
	assert.True(t, isCorrect)
	assert.Equal(t, 4, points)

	isCorrect, points, err = ScoreAnswer(&q, &model.Answer{
		QuestionID:  q.ID,
		AnswerValue: model.AnswerValue{SelectedOptionID: &wrong},
	})
	require.NoError(t, err)
	assert.False(t, isCorrect)
	assert.Equal(t, 0, points)

	// Nothing selected scores zero rather than erroring.
	isCorrect, points, err = ScoreAnswer(&q, &model.Answer{QuestionID: q.ID})
	require.NoError(t, err)
	assert.False(t, isCorrect)
	assert.Equal(t, 0, points)
}

func TestScoreAnswerTrueFalse(t *testing.T) {
	q := model.Question{
		ID:     uuid.New(),
		Type:   model.QuestionTypeTrueFalse,
		Points: 1,
		Options: []model.Option{
			{ID: uuid.New(), Text: "True", IsCorrect: true},
			{ID: uuid.New(), Text: "False"},
		},
	}
	selected := q.Options[0].ID

	isCorrect, points, err := ScoreAnswer(&q, &model.Answer{
		QuestionID:  q.ID,
		AnswerValue: model.AnswerValue{SelectedOptionID: &selected},
	})
	require.NoError(t, err)
	assert.True(t, isCorrect)
	assert.Equal(t, 1, points)
}

func TestScoreAnswerMultiSelectExactSet(t *testing.T) {
	q := multiSelectQuestion(3)
	correct := correctIDs(q)
	distractor := q.Options[2].ID

	cases := []struct {
		name     string
		selected []uuid.UUID
		want     bool
	}{
		{"exact match", correct, true},
		{"exact match reordered", []uuid.UUID{correct[1], correct[0]}, true},
		{"subset", correct[:1], false},
		{"superset", append(append([]uuid.UUID{}, correct...), distractor), false},
		{"disjoint", []uuid.UUID{distractor}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isCorrect, points, err := ScoreAnswer(&q, &model.Answer{
				QuestionID:  q.ID,
				AnswerValue: model.AnswerValue{SelectedOptionIDs: tc.selected},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, isCorrect)
			if tc.want {
				assert.Equal(t, 3, points)
			} else {
				assert.Equal(t, 0, points)
			}
		})
	}
}

func TestScoreAnswerRejectsSubjective(t *testing.T) {
	q := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 5}

	_, _, err := ScoreAnswer(&q, &model.Answer{QuestionID: q.ID})
	assert.ErrorIs(t, err, ErrNotObjective)
}

func TestObjectivePassSkipsSubjective(t *testing.T) {
	single := singleChoiceQuestion(2)
	essay := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 8}
	quiz := &model.Quiz{
		ID:           uuid.New(),
		PassingScore: 50,
		Questions:    []model.Question{single, essay},
		TotalPoints:  10,
	}
	correct := single.Options[0].ID
	answers := []model.Answer{
		{QuestionID: single.ID, AnswerValue: model.AnswerValue{SelectedOptionID: &correct}},
		{QuestionID: essay.ID, AnswerValue: model.AnswerValue{Text: "long answer"}},
	}

	scored, summary := ObjectivePass(quiz, answers)

	require.Len(t, scored, 2)
	require.NotNil(t, scored[0].IsCorrect)
	assert.True(t, *scored[0].IsCorrect)
	assert.Equal(t, 2, scored[0].PointsEarned)
	assert.Nil(t, scored[1].IsCorrect, "subjective questions stay ungraded")
	assert.Equal(t, 0, scored[1].PointsEarned)

	assert.Equal(t, 2, summary.Score)
	assert.Equal(t, 10, summary.TotalPoints)
	assert.InDelta(t, 20.0, summary.Percentage, 0.001)
	assert.False(t, summary.Passed)

	// Input slice is untouched.
	assert.Nil(t, answers[0].IsCorrect)
}

func TestApplyManualGradesClampsScores(t *testing.T) {
	essay := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	quiz := &model.Quiz{ID: uuid.New(), Questions: []model.Question{essay}, TotalPoints: 10}
	answers := []model.Answer{{QuestionID: essay.ID, AnswerValue: model.AnswerValue{Text: "x"}}}

	graded, summary := ApplyManualGrades(quiz, answers, []model.QuestionGrade{
		{QuestionID: essay.ID, Score: 25, Comment: "capped"},
	})
	assert.Equal(t, 10, graded[0].PointsEarned)
	assert.Equal(t, "capped", graded[0].Feedback)
	assert.Equal(t, 10, summary.Score)

	graded, _ = ApplyManualGrades(quiz, answers, []model.QuestionGrade{
		{QuestionID: essay.ID, Score: -3},
	})
	assert.Equal(t, 0, graded[0].PointsEarned)
}

func TestApplyManualGradesCreatesMissingAnswer(t *testing.T) {
	essay := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	quiz := &model.Quiz{ID: uuid.New(), Questions: []model.Question{essay}, TotalPoints: 10}

	graded, summary := ApplyManualGrades(quiz, nil, []model.QuestionGrade{
		{QuestionID: essay.ID, Score: 4, Comment: "never answered, graded anyway"},
	})

	require.Len(t, graded, 1)
	assert.Equal(t, essay.ID, graded[0].QuestionID)
	assert.Equal(t, 4, graded[0].PointsEarned)
	assert.Equal(t, 4, summary.Score)
}

func TestApplyManualGradesOverridesObjective(t *testing.T) {
	single := singleChoiceQuestion(2)
	quiz := &model.Quiz{ID: uuid.New(), Questions: []model.Question{single}, TotalPoints: 2, PassingScore: 100}
	wrong := single.Options[1].ID
	answers, _ := ObjectivePass(quiz, []model.Answer{
		{QuestionID: single.ID, AnswerValue: model.AnswerValue{SelectedOptionID: &wrong}},
	})
	require.False(t, *answers[0].IsCorrect)

	graded, summary := ApplyManualGrades(quiz, answers, []model.QuestionGrade{
		{QuestionID: single.ID, Score: 2},
	})

	require.NotNil(t, graded[0].IsCorrect)
	assert.True(t, *graded[0].IsCorrect, "full manual score marks an objective question correct")
	assert.True(t, summary.Passed)
}

func TestApplyManualGradesIgnoresUnknownQuestion(t *testing.T) {
	essay := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	quiz := &model.Quiz{ID: uuid.New(), Questions: []model.Question{essay}, TotalPoints: 10}

	graded, summary := ApplyManualGrades(quiz, nil, []model.QuestionGrade{
		{QuestionID: uuid.New(), Score: 5},
	})

	assert.Empty(t, graded)
	assert.Equal(t, 0, summary.Score)
}

func TestApplyManualGradesKeepsFeedbackWhenCommentEmpty(t *testing.T) {
	essay := model.Question{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 10}
	quiz := &model.Quiz{ID: uuid.New(), Questions: []model.Question{essay}, TotalPoints: 10}
	answers := []model.Answer{{QuestionID: essay.ID, Feedback: "first pass note"}}

	graded, _ := ApplyManualGrades(quiz, answers, []model.QuestionGrade{
		{QuestionID: essay.ID, Score: 6},
	})

	assert.Equal(t, "first pass note", graded[0].Feedback)
}

func TestRecomputePassBoundary(t *testing.T) {
	quiz := &model.Quiz{TotalPoints: 10, PassingScore: 60}

	exact := Recompute(quiz, []model.Answer{{PointsEarned: 6}})
	assert.InDelta(t, 60.0, exact.Percentage, 0.001)
	assert.True(t, exact.Passed, "percentage equal to the passing score passes")

	below := Recompute(quiz, []model.Answer{{PointsEarned: 5}})
	assert.False(t, below.Passed)
}

func TestRecomputeZeroTotalPoints(t *testing.T) {
	quiz := &model.Quiz{PassingScore: 50}

	summary := Recompute(quiz, nil)
	assert.Equal(t, 0, summary.Score)
	assert.Equal(t, 0.0, summary.Percentage)
	assert.False(t, summary.Passed)
}

func TestRecomputeFallsBackToQuestionSum(t *testing.T) {
	quiz := &model.Quiz{
		PassingScore: 50,
		Questions: []model.Question{
			{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 4},
			{ID: uuid.New(), Type: model.QuestionTypeEssay, Points: 6},
		},
	}

	summary := Recompute(quiz, []model.Answer{{PointsEarned: 5}})
	assert.Equal(t, 10, summary.TotalPoints)
	assert.InDelta(t, 50.0, summary.Percentage, 0.001)
	assert.True(t, summary.Passed)
}
