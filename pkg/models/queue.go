package models

import "time"

// QueueBucket groups due items by calendar day for display.
type QueueBucket string

const (
	// BucketOverdue holds items that were due before the start of today.
	BucketOverdue QueueBucket = "overdue"
	// BucketToday holds items due today.
	BucketToday QueueBucket = "today"
	// BucketFuture holds upcoming items shown in previews. They are never
	// part of a review session.
	BucketFuture QueueBucket = "future"
)

// QueueItem is one due topic in a review queue.
type QueueItem struct {
	TopicID string      `json:"topic_id"`
	DueAt   time.Time   `json:"due_at"`
	Bucket  QueueBucket `json:"bucket"`
}

// ReviewQueue is the ordered set of topics due for a learner at build time.
// It is built fresh for every session and never persisted.
type ReviewQueue struct {
	LearnerID string      `json:"learner_id"`
	BuiltAt   time.Time   `json:"built_at"`
	Items     []QueueItem `json:"items"`
}

// Len returns the number of due items.
func (q *ReviewQueue) Len() int {
	return len(q.Items)
}

// OverdueCount returns how many items were due before today.
func (q *ReviewQueue) OverdueCount() int {
	n := 0
	for _, it := range q.Items {
		if it.Bucket == BucketOverdue {
			n++
		}
	}
	return n
}

// TodayCount returns how many items are due today.
func (q *ReviewQueue) TodayCount() int {
	n := 0
	for _, it := range q.Items {
		if it.Bucket == BucketToday {
			n++
		}
	}
	return n
}

// FutureCount returns how many upcoming items a preview holds.
func (q *ReviewQueue) FutureCount() int {
	n := 0
	for _, it := range q.Items {
		if it.Bucket == BucketFuture {
			n++
		}
	}
	return n
}

// DueCount returns how many items are actually due (overdue or today).
func (q *ReviewQueue) DueCount() int {
	return q.OverdueCount() + q.TodayCount()
}
