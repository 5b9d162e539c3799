package session

import (
	"sort"
	"sync"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
)

// AnswerStore holds the student's current answer per question. Mutations
// are synchronous, replace the previous value wholesale, and never touch
// another question's entry. An unanswered question has no entry.
type AnswerStore struct {
	mu      sync.RWMutex
	answers map[uuid.UUID]model.Answer
}

// NewAnswerStore builds a store seeded from a server-provided attempt
// (empty slice for a fresh attempt).
func NewAnswerStore(seed []model.Answer) *AnswerStore {
	answers := make(map[uuid.UUID]model.Answer, len(seed))
	for _, a := range seed {
		answers[a.QuestionID] = a
	}
	return &AnswerStore{answers: answers}
}

// SetOption replaces the selection of a single-valued question
// (single-choice, true/false) and returns the updated answer.
func (s *AnswerStore) SetOption(questionID, optionID uuid.UUID) model.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	ans := model.NewOptionAnswer(questionID, optionID)
	s.answers[questionID] = ans
	return ans
}

// SetMultiSelect replaces the full selected option set of a
// multiple-select question and returns the updated answer.
func (s *AnswerStore) SetMultiSelect(questionID uuid.UUID, optionIDs []uuid.UUID) model.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	ans := model.NewMultiSelectAnswer(questionID, optionIDs)
	s.answers[questionID] = ans
	return ans
}

// SetText replaces the free-text value of a short-answer or essay question
// and returns the updated answer.
func (s *AnswerStore) SetText(questionID uuid.UUID, text string) model.Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	ans := model.NewTextAnswer(questionID, text)
	s.answers[questionID] = ans
	return ans
}

// Get returns the current answer for a question, if any.
func (s *AnswerStore) Get(questionID uuid.UUID) (model.Answer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[questionID]
	return a, ok
}

// Len returns the number of answered questions.
func (s *AnswerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// Snapshot returns all answers ordered by question id.
func (s *AnswerStore) Snapshot() []model.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Answer, 0, len(s.answers))
	for _, a := range s.answers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionID.String() < out[j].QuestionID.String()
	})
	return out
}
