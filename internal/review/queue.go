package review

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// QueueBuilder produces the ordered queue of due topics for a learner.
// Building is read-only; the queue is rebuilt fresh for every session.
type QueueBuilder struct {
	store Store
	clock Clock
}

// NewQueueBuilder creates a builder backed by the given store.
func NewQueueBuilder(store Store, clock Clock) *QueueBuilder {
	if clock == nil {
		clock = UTCNow
	}
	return &QueueBuilder{store: store, clock: clock}
}

// Build selects every item due at or before now and orders it for review:
// ascending due date, ties broken by ascending topic id. An empty queue is a
// valid result meaning the learner is all caught up.
func (b *QueueBuilder) Build(ctx context.Context, learnerID string) (*models.ReviewQueue, error) {
	return b.BuildAt(ctx, learnerID, b.clock())
}

// BuildAt is Build with an explicit "now", used by the HTTP API's at= query
// parameter and by tests.
func (b *QueueBuilder) BuildAt(ctx context.Context, learnerID string, now time.Time) (*models.ReviewQueue, error) {
	due, err := b.store.GetDueBefore(ctx, learnerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load due items: %w", err)
	}

	// The store already orders results, but the ordering is a contract of
	// the queue, so enforce it here as well.
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].DueAt.Before(due[j].DueAt)
		}
		return due[i].TopicID < due[j].TopicID
	})

	return bucketed(learnerID, now, due), nil
}

// Preview is Build plus a look-ahead window: items due within the next days
// land in the future bucket. Previews are for display only; sessions are
// always started from Build, which never includes future items.
func (b *QueueBuilder) Preview(ctx context.Context, learnerID string, days int) (*models.ReviewQueue, error) {
	return b.PreviewAt(ctx, learnerID, b.clock(), days)
}

// PreviewAt is Preview with an explicit "now".
func (b *QueueBuilder) PreviewAt(ctx context.Context, learnerID string, now time.Time, days int) (*models.ReviewQueue, error) {
	if days < 0 {
		days = 0
	}
	horizon := now.AddDate(0, 0, days)
	upcoming, err := b.store.GetDueBefore(ctx, learnerID, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming items: %w", err)
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		if !upcoming[i].DueAt.Equal(upcoming[j].DueAt) {
			return upcoming[i].DueAt.Before(upcoming[j].DueAt)
		}
		return upcoming[i].TopicID < upcoming[j].TopicID
	})

	return bucketed(learnerID, now, upcoming), nil
}

func bucketed(learnerID string, now time.Time, items []models.ReviewItem) *models.ReviewQueue {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)

	queue := &models.ReviewQueue{
		LearnerID: learnerID,
		BuiltAt:   now,
		Items:     make([]models.QueueItem, 0, len(items)),
	}
	for _, item := range items {
		var bucket models.QueueBucket
		switch {
		case item.DueAt.Before(startOfToday):
			bucket = models.BucketOverdue
		case item.DueAt.Before(startOfTomorrow):
			bucket = models.BucketToday
		default:
			bucket = models.BucketFuture
		}
		queue.Items = append(queue.Items, models.QueueItem{
			TopicID: item.TopicID,
			DueAt:   item.DueAt,
			Bucket:  bucket,
		})
	}
	return queue
}
