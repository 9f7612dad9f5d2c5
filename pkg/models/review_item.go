package models

import "time"

// Scheduling defaults for newly created review items.
const (
	InitialEaseFactor   = 2.5
	MinEaseFactor       = 1.3
	InitialIntervalDays = 1
)

// ReviewItem tracks the spaced-repetition state for one (learner, topic) pair.
// DueAt is always derived from the review time plus the interval; callers
// never set it directly.
type ReviewItem struct {
	LearnerID      string     `json:"learner_id" db:"learner_id"`
	TopicID        string     `json:"topic_id" db:"topic_id"`
	DueAt          time.Time  `json:"due_at" db:"due_at"`
	IntervalDays   int        `json:"interval_days" db:"interval_days"`     // Current interval in days, always >= 1
	EaseFactor     float64    `json:"ease_factor" db:"ease_factor"`         // SM-2 EF parameter, floored at 1.3
	Repetitions    int        `json:"repetitions" db:"repetitions"`         // Consecutive successful reviews
	Lapses         int        `json:"lapses" db:"lapses"`                   // Failed reviews, kept for analytics
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewReviewItem creates the initial scheduling state for a topic a learner
// has just started. The item is due immediately.
func NewReviewItem(learnerID, topicID string, now time.Time) *ReviewItem {
	return &ReviewItem{
		LearnerID:    learnerID,
		TopicID:      topicID,
		DueAt:        now,
		IntervalDays: InitialIntervalDays,
		EaseFactor:   InitialEaseFactor,
	}
}

// IsDue reports whether the item should be reviewed at the given instant.
func (r *ReviewItem) IsDue(now time.Time) bool {
	return !r.DueAt.After(now)
}
