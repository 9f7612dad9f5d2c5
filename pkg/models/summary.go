package models

import "time"

// SessionSummary is the result of one completed review session.
type SessionSummary struct {
	SessionID    string    `json:"session_id" db:"session_id"`
	LearnerID    string    `json:"learner_id" db:"learner_id"`
	TotalItems   int       `json:"total_items" db:"total_items"`
	CorrectCount int       `json:"correct_count" db:"correct_count"`
	Percentage   float64   `json:"percentage" db:"percentage"`
	Lapses       int       `json:"lapses" db:"lapses"`
	CompletedAt  time.Time `json:"completed_at" db:"completed_at"`
}
