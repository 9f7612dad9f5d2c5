package models

import "time"

// Learner represents a person reviewing topics.
type Learner struct {
	ID                  string    `json:"id" db:"id"`
	TelegramChatID      int64     `json:"telegram_chat_id" db:"telegram_chat_id"`
	Username            string    `json:"username" db:"username"`
	NotificationEnabled bool      `json:"notification_enabled" db:"notification_enabled"`
	NotificationHour    int       `json:"notification_hour" db:"notification_hour"` // Hour of day for reminders (0-23)
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// LearnerStats holds streak and badge bookkeeping updated after each
// completed session.
type LearnerStats struct {
	LearnerID         string     `json:"learner_id" db:"learner_id"`
	Streak            int        `json:"streak" db:"streak"`
	LongestStreak     int        `json:"longest_streak" db:"longest_streak"`
	LastReviewDay     *time.Time `json:"last_review_day" db:"last_review_day"` // Start of the UTC day of the last completed session
	SessionsCompleted int        `json:"sessions_completed" db:"sessions_completed"`
	ItemsReviewed     int        `json:"items_reviewed" db:"items_reviewed"`
	TotalLapses       int        `json:"total_lapses" db:"total_lapses"`
	Badges            []string   `json:"badges" db:"-"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}
