package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/recallbot/pkg/models"
)

// LearnerStatsRepository handles database operations for streak and badge
// bookkeeping
type LearnerStatsRepository struct{}

// NewLearnerStatsRepository creates a new repository instance
func NewLearnerStatsRepository() *LearnerStatsRepository {
	return &LearnerStatsRepository{}
}

// Get returns a learner's stats, or a zeroed record when none exist yet.
func (r *LearnerStatsRepository) Get(ctx context.Context, learnerID string) (*models.LearnerStats, error) {
	var stats models.LearnerStats
	err := DB.GetContext(ctx, &stats, "SELECT * FROM learner_stats WHERE learner_id = $1", learnerID)
	if err == sql.ErrNoRows {
		return &models.LearnerStats{LearnerID: learnerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner stats: %v", err)
	}

	badges, err := r.getBadges(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	stats.Badges = badges
	return &stats, nil
}

// Upsert stores a learner's stats and any newly awarded badges.
func (r *LearnerStatsRepository) Upsert(ctx context.Context, stats *models.LearnerStats) error {
	query := `
		INSERT INTO learner_stats (
			learner_id, streak, longest_streak, last_review_day,
			sessions_completed, items_reviewed, total_lapses, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		ON CONFLICT (learner_id) DO UPDATE SET
			streak = EXCLUDED.streak,
			longest_streak = EXCLUDED.longest_streak,
			last_review_day = EXCLUDED.last_review_day,
			sessions_completed = EXCLUDED.sessions_completed,
			items_reviewed = EXCLUDED.items_reviewed,
			total_lapses = EXCLUDED.total_lapses,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := DB.ExecContext(ctx, query,
		stats.LearnerID,
		stats.Streak,
		stats.LongestStreak,
		stats.LastReviewDay,
		stats.SessionsCompleted,
		stats.ItemsReviewed,
		stats.TotalLapses,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert learner stats: %v", err)
	}

	for _, badge := range stats.Badges {
		if err := r.awardBadge(ctx, stats.LearnerID, badge); err != nil {
			return err
		}
	}
	return nil
}

func (r *LearnerStatsRepository) awardBadge(ctx context.Context, learnerID, badge string) error {
	query := `
		INSERT INTO learner_badges (learner_id, badge) VALUES ($1, $2)
		ON CONFLICT (learner_id, badge) DO NOTHING
	`
	if _, err := DB.ExecContext(ctx, query, learnerID, badge); err != nil {
		return fmt.Errorf("failed to award badge: %v", err)
	}
	return nil
}

func (r *LearnerStatsRepository) getBadges(ctx context.Context, learnerID string) ([]string, error) {
	var badges []string
	err := DB.SelectContext(ctx, &badges,
		"SELECT badge FROM learner_badges WHERE learner_id = $1 ORDER BY awarded_at ASC", learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %v", err)
	}
	return badges, nil
}
