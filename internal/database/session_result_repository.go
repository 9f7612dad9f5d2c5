package database

import (
	"context"
	"fmt"

	"github.com/example/recallbot/pkg/models"
)

// SessionResultRepository handles database operations for session summaries
type SessionResultRepository struct{}

// NewSessionResultRepository creates a new repository instance
func NewSessionResultRepository() *SessionResultRepository {
	return &SessionResultRepository{}
}

// Record stores a completed session summary. Keyed by session id, so
// replaying the same completion is a no-op update.
func (r *SessionResultRepository) Record(ctx context.Context, summary *models.SessionSummary) error {
	query := `
		INSERT INTO session_results (
			session_id, learner_id, total_items, correct_count, percentage, lapses, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			total_items = EXCLUDED.total_items,
			correct_count = EXCLUDED.correct_count,
			percentage = EXCLUDED.percentage,
			lapses = EXCLUDED.lapses,
			completed_at = EXCLUDED.completed_at
	`
	_, err := DB.ExecContext(ctx, query,
		summary.SessionID,
		summary.LearnerID,
		summary.TotalItems,
		summary.CorrectCount,
		summary.Percentage,
		summary.Lapses,
		summary.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record session result: %v", err)
	}
	return nil
}

// GetRecent returns the most recent session summaries for a learner.
func (r *SessionResultRepository) GetRecent(ctx context.Context, learnerID string, limit int) ([]models.SessionSummary, error) {
	var results []models.SessionSummary
	query := `
		SELECT * FROM session_results
		WHERE learner_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	if err := DB.SelectContext(ctx, &results, query, learnerID, limit); err != nil {
		return nil, fmt.Errorf("failed to get session results: %v", err)
	}
	return results, nil
}
