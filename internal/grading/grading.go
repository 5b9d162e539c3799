// Package grading implements the two-phase scoring model: an automatic
// objective pass at attempt completion, and a later manual pass merging
// instructor-assigned scores and feedback into the same aggregate.
package grading

import (
	"errors"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
)

// ErrNotObjective is returned when ScoreAnswer is asked to grade a
// free-text question. Those are always a manual grading step.
var ErrNotObjective = errors.New("question type is not auto-scorable")

// IsObjective reports whether a question type is mechanically scorable
// from its stored correct-answer data.
func IsObjective(t model.QuestionType) bool {
	switch t {
	case model.QuestionTypeSingleChoice, model.QuestionTypeMultipleSelect, model.QuestionTypeTrueFalse:
		return true
	}
	return false
}

// ScoreAnswer scores a single objective answer. It is a pure function:
// the same (question, answer) pair always yields the same result.
//
// Scoring rules, all full-points-or-zero with no partial credit:
//   - single-choice / true-false: the selected option must equal the one
//     correct option.
//   - multiple-select: the selected set must equal the correct set exactly;
//     subsets and supersets score zero.
func ScoreAnswer(q *model.Question, a *model.Answer) (isCorrect bool, pointsEarned int, err error) {
	if !IsObjective(q.Type) {
		return false, 0, ErrNotObjective
	}

	switch q.Type {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalse:
		correct := q.CorrectOptionIDs()
		if len(correct) == 1 && a.SelectedOptionID != nil && *a.SelectedOptionID == correct[0] {
			return true, q.Points, nil
		}
		return false, 0, nil

	case model.QuestionTypeMultipleSelect:
		if sameOptionSet(a.SelectedOptionIDs, q.CorrectOptionIDs()) {
			return true, q.Points, nil
		}
		return false, 0, nil
	}

	return false, 0, ErrNotObjective
}

func sameOptionSet(selected, correct []uuid.UUID) bool {
	if len(selected) == 0 || len(selected) != len(correct) {
		return false
	}
	set := make(map[uuid.UUID]struct{}, len(correct))
	for _, id := range correct {
		set[id] = struct{}{}
	}
	for _, id := range selected {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// Summary is the aggregate outcome of a grading pass.
type Summary struct {
	Score       int     `json:"score"`
	TotalPoints int     `json:"total_points"`
	Percentage  float64 `json:"percentage"`
	Passed      bool    `json:"passed"`
}

// ObjectivePass runs the automatic first grading phase over all answers:
// every objective question gets IsCorrect and PointsEarned filled in,
// subjective questions contribute zero until graded manually. The input
// slice is not modified; scored copies are returned.
func ObjectivePass(quiz *model.Quiz, answers []model.Answer) ([]model.Answer, Summary) {
	scored := make([]model.Answer, len(answers))
	copy(scored, answers)

	for i := range scored {
		q := quiz.QuestionByID(scored[i].QuestionID)
		if q == nil || !IsObjective(q.Type) {
			continue
		}
		correct, points, err := ScoreAnswer(q, &scored[i])
		if err != nil {
			continue
		}
		scored[i].IsCorrect = &correct
		scored[i].PointsEarned = points
	}

	return scored, Recompute(quiz, scored)
}

// ApplyManualGrades merges instructor-assigned scores into the answers.
// Manual scores may target subjective questions or override objective ones;
// each score is clamped to [0, question.points] rather than rejected, so a
// malformed grade never blocks the grading workflow. Grading a question the
// student never answered creates a zero-value answer entry so the feedback
// and score still attach to the attempt.
func ApplyManualGrades(quiz *model.Quiz, answers []model.Answer, grades []model.QuestionGrade) ([]model.Answer, Summary) {
	merged := make([]model.Answer, len(answers))
	copy(merged, answers)

	for _, g := range grades {
		q := quiz.QuestionByID(g.QuestionID)
		if q == nil {
			continue
		}
		score := clamp(g.Score, 0, q.Points)

		idx := -1
		for i := range merged {
			if merged[i].QuestionID == g.QuestionID {
				idx = i
				break
			}
		}
		if idx == -1 {
			merged = append(merged, model.Answer{QuestionID: g.QuestionID})
			idx = len(merged) - 1
		}

		merged[idx].PointsEarned = score
		if g.Comment != "" {
			merged[idx].Feedback = g.Comment
		}
		if IsObjective(q.Type) {
			correct := score == q.Points
			merged[idx].IsCorrect = &correct
		}
	}

	return merged, Recompute(quiz, merged)
}

// Recompute derives the aggregate from the current per-question points:
// score is the sum of PointsEarned across all answers, percentage is
// score/totalPoints*100, and pass/fail is percentage >= passing score.
func Recompute(quiz *model.Quiz, answers []model.Answer) Summary {
	total := quiz.TotalPoints
	if total == 0 {
		total = quiz.SumPoints()
	}

	score := 0
	for i := range answers {
		score += answers[i].PointsEarned
	}

	var pct float64
	if total > 0 {
		pct = float64(score) / float64(total) * 100
	}

	return Summary{
		Score:       score,
		TotalPoints: total,
		Percentage:  pct,
		Passed:      pct >= quiz.PassingScore,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
