package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

var queueNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func seedItem(store *memStore, topicID string, dueAt time.Time) {
	store.put(models.ReviewItem{
		LearnerID:    "learner-1",
		TopicID:      topicID,
		DueAt:        dueAt,
		IntervalDays: 1,
		EaseFactor:   2.5,
	})
}

func TestBuildOrdersByDueDateThenTopic(t *testing.T) {
	store := newMemStore()
	seedItem(store, "topic-c", queueNow.Add(-1*time.Hour))
	seedItem(store, "topic-a", queueNow.Add(-48*time.Hour))
	seedItem(store, "topic-b", queueNow.Add(-48*time.Hour))
	seedItem(store, "topic-d", queueNow.Add(24*time.Hour)) // not due

	builder := NewQueueBuilder(store, fixedClock(queueNow))
	queue, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)

	require.Equal(t, 3, queue.Len())
	assert.Equal(t, "topic-a", queue.Items[0].TopicID)
	assert.Equal(t, "topic-b", queue.Items[1].TopicID)
	assert.Equal(t, "topic-c", queue.Items[2].TopicID)

	for _, it := range queue.Items {
		assert.False(t, it.DueAt.After(queueNow), "every queued item must be due")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	store := newMemStore()
	seedItem(store, "topic-b", queueNow.Add(-time.Hour))
	seedItem(store, "topic-a", queueNow.Add(-time.Hour))
	seedItem(store, "topic-c", queueNow.Add(-2*time.Hour))

	builder := NewQueueBuilder(store, fixedClock(queueNow))

	first, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)
	second, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
}

func TestBuildBuckets(t *testing.T) {
	store := newMemStore()
	seedItem(store, "topic-overdue", queueNow.AddDate(0, 0, -3))
	seedItem(store, "topic-today", queueNow.Add(-time.Hour))

	builder := NewQueueBuilder(store, fixedClock(queueNow))
	queue, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)

	require.Equal(t, 2, queue.Len())
	assert.Equal(t, models.BucketOverdue, queue.Items[0].Bucket)
	assert.Equal(t, models.BucketToday, queue.Items[1].Bucket)
	assert.Equal(t, 1, queue.OverdueCount())
	assert.Equal(t, 1, queue.TodayCount())
}

func TestBuildEmptyQueueIsValid(t *testing.T) {
	store := newMemStore()
	seedItem(store, "topic-future", queueNow.AddDate(0, 0, 5))

	builder := NewQueueBuilder(store, fixedClock(queueNow))
	queue, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 0, queue.Len())
}

func TestPreviewBucketsUpcomingItems(t *testing.T) {
	store := newMemStore()
	seedItem(store, "topic-overdue", queueNow.AddDate(0, 0, -2))
	seedItem(store, "topic-today", queueNow.Add(-time.Hour))
	seedItem(store, "topic-soon", queueNow.AddDate(0, 0, 3))
	seedItem(store, "topic-far", queueNow.AddDate(0, 0, 10)) // beyond the window

	builder := NewQueueBuilder(store, fixedClock(queueNow))
	queue, err := builder.Preview(context.Background(), "learner-1", 7)
	require.NoError(t, err)

	require.Equal(t, 3, queue.Len())
	assert.Equal(t, models.BucketOverdue, queue.Items[0].Bucket)
	assert.Equal(t, models.BucketToday, queue.Items[1].Bucket)
	assert.Equal(t, models.BucketFuture, queue.Items[2].Bucket)
	assert.Equal(t, 2, queue.DueCount())
	assert.Equal(t, 1, queue.FutureCount())

	// Sessions are started from Build, which must never see future items.
	sessionQueue, err := builder.Build(context.Background(), "learner-1")
	require.NoError(t, err)
	require.Equal(t, 2, sessionQueue.Len())
	for _, it := range sessionQueue.Items {
		assert.NotEqual(t, models.BucketFuture, it.Bucket)
	}
}

func TestBuildAtOverridesClock(t *testing.T) {
	store := newMemStore()
	seedItem(store, "topic-a", queueNow.AddDate(0, 0, 5))

	builder := NewQueueBuilder(store, fixedClock(queueNow))
	queue, err := builder.BuildAt(context.Background(), "learner-1", queueNow.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, queue.Len())
}
