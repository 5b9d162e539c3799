package session

import (
	"testing"

	"github.com/edulane/quizdesk-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerStoreSeedsFromAttempt(t *testing.T) {
	q1 := uuid.New()
	q2 := uuid.New()
	seed := []model.Answer{
		model.NewTextAnswer(q1, "draft essay"),
		model.NewOptionAnswer(q2, uuid.New()),
	}

	store := NewAnswerStore(seed)

	assert.Equal(t, 2, store.Len())
	got, ok := store.Get(q1)
	require.True(t, ok)
	assert.Equal(t, "draft essay", got.Text)
}

func TestAnswerStoreReplacesWholesale(t *testing.T) {
	questionID := uuid.New()
	first := uuid.New()
	second := uuid.New()
	store := NewAnswerStore(nil)

	store.SetOption(questionID, first)
	store.SetOption(questionID, second)

	got, ok := store.Get(questionID)
	require.True(t, ok)
	require.NotNil(t, got.SelectedOptionID)
	assert.Equal(t, second, *got.SelectedOptionID)
	assert.Equal(t, 1, store.Len())
}

func TestAnswerStoreMultiSelectCopiesSlice(t *testing.T) {
	questionID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	store := NewAnswerStore(nil)

	store.SetMultiSelect(questionID, ids)
	ids[0] = uuid.New() // mutate caller's slice after the fact

	got, _ := store.Get(questionID)
	assert.NotEqual(t, ids[0], got.SelectedOptionIDs[0])
}

func TestAnswerStoreIsolatesQuestions(t *testing.T) {
	q1 := uuid.New()
	q2 := uuid.New()
	store := NewAnswerStore(nil)

	store.SetText(q1, "alpha")
	store.SetText(q2, "beta")
	store.SetText(q1, "gamma")

	a1, _ := store.Get(q1)
	a2, _ := store.Get(q2)
	assert.Equal(t, "gamma", a1.Text)
	assert.Equal(t, "beta", a2.Text)
}

func TestAnswerStoreUnansweredHasNoEntry(t *testing.T) {
	store := NewAnswerStore(nil)

	_, ok := store.Get(uuid.New())
	assert.False(t, ok)
	assert.Empty(t, store.Snapshot())
}

func TestAnswerStoreSnapshotIsStable(t *testing.T) {
	store := NewAnswerStore(nil)
	for i := 0; i < 5; i++ {
		store.SetText(uuid.New(), "x")
	}

	first := store.Snapshot()
	second := store.Snapshot()
	require.Len(t, first, 5)
	assert.Equal(t, first, second)
}
