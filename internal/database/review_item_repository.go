package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// ErrCorruptState is returned when a stored review item violates the
// scheduling invariants (interval < 1 day or ease factor below the floor).
// Corrupt rows are never "healed"; due-queue reads skip them so the item is
// simply treated as not due until an operator intervenes.
var ErrCorruptState = errors.New("corrupt review item state")

// ReviewItemRepository handles database operations for review items.
// It implements review.Store.
type ReviewItemRepository struct{}

// NewReviewItemRepository creates a new repository instance
func NewReviewItemRepository() *ReviewItemRepository {
	return &ReviewItemRepository{}
}

// Get returns the review item for a learner/topic pair, or nil if the
// learner has not started the topic.
func (r *ReviewItemRepository) Get(ctx context.Context, learnerID, topicID string) (*models.ReviewItem, error) {
	var item models.ReviewItem
	err := DB.GetContext(ctx, &item,
		"SELECT * FROM review_items WHERE learner_id = $1 AND topic_id = $2",
		learnerID, topicID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %v", err)
	}
	if err := validate(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetDueBefore returns every item due at or before now, ordered by due date
// ascending with ties broken by topic id. Corrupt rows are logged and
// skipped, which defers them rather than guessing at a repair.
func (r *ReviewItemRepository) GetDueBefore(ctx context.Context, learnerID string, now time.Time) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	query := `
		SELECT * FROM review_items
		WHERE learner_id = $1 AND due_at <= $2
		ORDER BY due_at ASC, topic_id ASC
	`
	if err := DB.SelectContext(ctx, &items, query, learnerID, now); err != nil {
		return nil, fmt.Errorf("failed to get due items: %v", err)
	}

	valid := items[:0]
	for i := range items {
		if err := validate(&items[i]); err != nil {
			log.Printf("skipping review item %s/%s: %v", items[i].LearnerID, items[i].TopicID, err)
			continue
		}
		valid = append(valid, items[i])
	}
	return valid, nil
}

// Upsert creates or replaces the item for its learner/topic pair.
// Last write wins; replaying the same item is a no-op.
func (r *ReviewItemRepository) Upsert(ctx context.Context, item *models.ReviewItem) error {
	if err := validate(item); err != nil {
		return err
	}
	query := `
		INSERT INTO review_items (
			learner_id, topic_id, due_at, interval_days, ease_factor,
			repetitions, lapses, last_reviewed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		ON CONFLICT (learner_id, topic_id) DO UPDATE SET
			due_at = EXCLUDED.due_at,
			interval_days = EXCLUDED.interval_days,
			ease_factor = EXCLUDED.ease_factor,
			repetitions = EXCLUDED.repetitions,
			lapses = EXCLUDED.lapses,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := DB.ExecContext(ctx, query,
		item.LearnerID,
		item.TopicID,
		item.DueAt,
		item.IntervalDays,
		item.EaseFactor,
		item.Repetitions,
		item.Lapses,
		item.LastReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review item: %v", err)
	}
	return nil
}

// SeedForLearner creates an initial review item for every topic the learner
// does not have one for yet. New items are due immediately.
func (r *ReviewItemRepository) SeedForLearner(ctx context.Context, learnerID string, now time.Time) (int, error) {
	query := `
		SELECT t.id FROM topics t
		WHERE NOT EXISTS (
			SELECT 1 FROM review_items ri
			WHERE ri.learner_id = $1 AND ri.topic_id = t.id
		)
	`
	var topicIDs []string
	if err := DB.SelectContext(ctx, &topicIDs, query, learnerID); err != nil {
		return 0, fmt.Errorf("failed to find unseeded topics: %v", err)
	}

	for _, topicID := range topicIDs {
		if err := r.Upsert(ctx, models.NewReviewItem(learnerID, topicID, now)); err != nil {
			return 0, err
		}
	}
	return len(topicIDs), nil
}

// CountDue returns how many items are due for a learner at the given instant.
func (r *ReviewItemRepository) CountDue(ctx context.Context, learnerID string, now time.Time) (int, error) {
	var count int
	err := DB.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM review_items WHERE learner_id = $1 AND due_at <= $2",
		learnerID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to count due items: %v", err)
	}
	return count, nil
}

func validate(item *models.ReviewItem) error {
	if item.IntervalDays < 1 {
		return fmt.Errorf("%w: interval %d days", ErrCorruptState, item.IntervalDays)
	}
	if item.EaseFactor < models.MinEaseFactor {
		return fmt.Errorf("%w: ease factor %.2f", ErrCorruptState, item.EaseFactor)
	}
	if item.Repetitions < 0 || item.Lapses < 0 {
		return fmt.Errorf("%w: negative counters", ErrCorruptState)
	}
	return nil
}
