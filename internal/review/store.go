package review

import (
	"context"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// Store is the durable home of review items. Implementations must make
// Upsert idempotent, keyed by (learner_id, topic_id) with last-write-wins.
type Store interface {
	// Get returns the item for a learner/topic pair, or nil if the learner
	// has not started the topic yet.
	Get(ctx context.Context, learnerID, topicID string) (*models.ReviewItem, error)
	// GetDueBefore returns every item with due_at <= now, ordered by due_at
	// ascending with ties broken by topic_id ascending.
	GetDueBefore(ctx context.Context, learnerID string, now time.Time) ([]models.ReviewItem, error)
	// Upsert creates or replaces the item for its learner/topic pair.
	Upsert(ctx context.Context, item *models.ReviewItem) error
}

// ResultRecorder persists completed session summaries.
type ResultRecorder interface {
	Record(ctx context.Context, summary *models.SessionSummary) error
}

// StreakNotifier is told about each completed session so it can update
// streak and badge bookkeeping. Thresholds are its business, not ours.
type StreakNotifier interface {
	SessionCompleted(ctx context.Context, summary *models.SessionSummary) error
}

// Clock supplies the current time. Production uses UTCNow; tests inject
// fixed instants.
type Clock func() time.Time

// UTCNow is the production clock.
func UTCNow() time.Time {
	return time.Now().UTC()
}
