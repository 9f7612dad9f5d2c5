package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
)

func completedSession(t *testing.T, store *memStore, grades []models.Grade) *Session {
	t.Helper()
	builder := NewQueueBuilder(store, fixedClock(sessionNow))
	queue, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)
	require.Equal(t, len(grades), queue.Len())

	session, err := StartSession(queue, store, spaced_repetition.NewSM2(), fixedClock(sessionNow))
	require.NoError(t, err)
	for i, it := range queue.Items {
		require.NoError(t, session.Grade(context.Background(), it.TopicID, grades[i]))
	}
	require.Equal(t, StateCompleted, session.State())
	return session
}

func TestAggregatorComplete(t *testing.T) {
	store, _ := threeItemFixture(t)
	session := completedSession(t, store, []models.Grade{models.GradeGood, models.GradeAgain, models.GradeEasy})

	results := newMemResults()
	notifier := &memNotifier{}
	agg := NewAggregator(store, results, notifier, spaced_repetition.NewSM2(), fixedClock(sessionNow.Add(time.Minute)))

	summary, err := agg.Complete(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, session.ID, summary.SessionID)
	assert.Equal(t, "learner-1", summary.LearnerID)
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, 2, summary.CorrectCount) // good and easy
	assert.InDelta(t, 66.67, summary.Percentage, 0.01)
	assert.Equal(t, 1, summary.Lapses)

	// Summary was recorded and the streak collaborator was told.
	assert.Contains(t, results.summaries, session.ID)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, session.ID, notifier.calls[0].SessionID)
}

func TestAggregatorCompleteIsIdempotent(t *testing.T) {
	store, _ := threeItemFixture(t)
	session := completedSession(t, store, []models.Grade{models.GradeGood, models.GradeGood, models.GradeGood})

	agg := NewAggregator(store, newMemResults(), nil, spaced_repetition.NewSM2(), fixedClock(sessionNow.Add(time.Minute)))

	first, err := agg.Complete(context.Background(), session)
	require.NoError(t, err)
	stateAfterFirst := make(map[string]models.ReviewItem)
	for _, it := range session.Queue().Items {
		item, err := store.Get(context.Background(), "learner-1", it.TopicID)
		require.NoError(t, err)
		stateAfterFirst[it.TopicID] = *item
	}

	second, err := agg.Complete(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	for topicID, want := range stateAfterFirst {
		item, err := store.Get(context.Background(), "learner-1", topicID)
		require.NoError(t, err)
		assert.Equal(t, want, *item, "re-applying the session must not change topic %s", topicID)
	}
}

func TestAggregatorCompleteRetryAfterStoreFailure(t *testing.T) {
	store, _ := threeItemFixture(t)
	session := completedSession(t, store, []models.Grade{models.GradeGood, models.GradeGood, models.GradeGood})

	results := newMemResults()
	notifier := &memNotifier{}
	agg := NewAggregator(store, results, notifier, spaced_repetition.NewSM2(), fixedClock(sessionNow.Add(time.Minute)))

	store.failing = true
	_, err := agg.Complete(context.Background(), session)
	require.Error(t, err)
	assert.Empty(t, results.summaries, "a failed completion must not record a summary")
	assert.Empty(t, notifier.calls)

	// The session stays completed, so the caller can retry the save.
	assert.Equal(t, StateCompleted, session.State())
	store.failing = false
	summary, err := agg.Complete(context.Background(), session)
	require.NoError(t, err)
	assert.Contains(t, results.summaries, session.ID)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, summary.SessionID, notifier.calls[0].SessionID)
}

func TestAggregatorRejectsUnfinishedSession(t *testing.T) {
	store, queue := threeItemFixture(t)
	session, err := StartSession(queue, store, spaced_repetition.NewSM2(), fixedClock(sessionNow))
	require.NoError(t, err)
	require.NoError(t, session.Grade(context.Background(), "topic-a", models.GradeGood))

	agg := NewAggregator(store, newMemResults(), nil, spaced_repetition.NewSM2(), fixedClock(sessionNow))
	_, err = agg.Complete(context.Background(), session)
	assert.ErrorIs(t, err, ErrSessionIncomplete)
}

func TestAggregatorApply(t *testing.T) {
	store, _ := threeItemFixture(t)
	agg := NewAggregator(store, newMemResults(), nil, spaced_repetition.NewSM2(), fixedClock(sessionNow.Add(time.Minute)))

	outcomes := []models.ReviewOutcome{
		{TopicID: "topic-a", Grade: models.GradeGood, Timestamp: sessionNow},
		{TopicID: "topic-b", Grade: models.GradeAgain, Timestamp: sessionNow},
	}

	summary, err := agg.Apply(context.Background(), "learner-1", outcomes)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	assert.Equal(t, 1, summary.CorrectCount)
	assert.Equal(t, 1, summary.Lapses)

	item, err := store.Get(context.Background(), "learner-1", "topic-a")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Repetitions)

	lapsed, err := store.Get(context.Background(), "learner-1", "topic-b")
	require.NoError(t, err)
	assert.Equal(t, 1, lapsed.Lapses)
}

func TestAggregatorApplyReplayIsHarmless(t *testing.T) {
	store, _ := threeItemFixture(t)
	agg := NewAggregator(store, newMemResults(), nil, spaced_repetition.NewSM2(), fixedClock(sessionNow.Add(time.Minute)))

	outcomes := []models.ReviewOutcome{
		{TopicID: "topic-a", Grade: models.GradeGood, Timestamp: sessionNow},
	}

	_, err := agg.Apply(context.Background(), "learner-1", outcomes)
	require.NoError(t, err)
	want, err := store.Get(context.Background(), "learner-1", "topic-a")
	require.NoError(t, err)

	// The same payload again: the outcome is not newer than the item's last
	// review, so the item is left alone.
	_, err = agg.Apply(context.Background(), "learner-1", outcomes)
	require.NoError(t, err)
	got, err := store.Get(context.Background(), "learner-1", "topic-a")
	require.NoError(t, err)
	assert.Equal(t, *want, *got)
}

func TestAggregatorApplyReplayDoesNotReemit(t *testing.T) {
	store, _ := threeItemFixture(t)
	results := newMemResults()
	notifier := &memNotifier{}
	agg := NewAggregator(store, results, notifier, spaced_repetition.NewSM2(), fixedClock(sessionNow.Add(time.Minute)))

	outcomes := []models.ReviewOutcome{
		{TopicID: "topic-a", Grade: models.GradeGood, Timestamp: sessionNow},
		{TopicID: "topic-b", Grade: models.GradeEasy, Timestamp: sessionNow},
	}

	_, err := agg.Apply(context.Background(), "learner-1", outcomes)
	require.NoError(t, err)
	require.Len(t, results.summaries, 1)
	require.Len(t, notifier.calls, 1)

	// The same payload again applies nothing, so streaks and session totals
	// must not be counted twice.
	summary, err := agg.Apply(context.Background(), "learner-1", outcomes)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
	assert.Len(t, results.summaries, 1, "replay must not record another summary")
	assert.Len(t, notifier.calls, 1, "replay must not notify the streak service again")
}

func TestAggregatorApplyInvalidGrade(t *testing.T) {
	store, _ := threeItemFixture(t)
	agg := NewAggregator(store, newMemResults(), nil, spaced_repetition.NewSM2(), fixedClock(sessionNow))

	outcomes := []models.ReviewOutcome{
		{TopicID: "topic-a", Grade: models.Grade(42), Timestamp: sessionNow},
	}
	_, err := agg.Apply(context.Background(), "learner-1", outcomes)
	assert.ErrorIs(t, err, spaced_repetition.ErrInvalidGrade)

	// Validation happens before any write.
	item, err := store.Get(context.Background(), "learner-1", "topic-a")
	require.NoError(t, err)
	assert.Equal(t, 0, item.Repetitions)
}
