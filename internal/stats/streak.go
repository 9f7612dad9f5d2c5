package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// Badge names awarded by the service.
const (
	BadgeFirstSession   = "first_session"
	BadgeWeekStreak     = "week_streak"
	BadgeMonthStreak    = "month_streak"
	BadgeCenturyReviews = "century_reviews"
	BadgePerfectSession = "perfect_session"
)

// StatsStore persists streak and badge state.
type StatsStore interface {
	Get(ctx context.Context, learnerID string) (*models.LearnerStats, error)
	Upsert(ctx context.Context, stats *models.LearnerStats) error
}

// Service maintains daily streaks and awards badges from session summaries.
// The review core only supplies summaries; every threshold lives here.
type Service struct {
	store StatsStore
	now   func() time.Time
}

// New creates a stats service. now may be nil in production.
func New(store StatsStore, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{store: store, now: now}
}

// SessionCompleted updates the learner's streak and totals for one completed
// session. It implements review.StreakNotifier.
func (s *Service) SessionCompleted(ctx context.Context, summary *models.SessionSummary) error {
	stats, err := s.store.Get(ctx, summary.LearnerID)
	if err != nil {
		return fmt.Errorf("failed to load learner stats: %w", err)
	}

	today := startOfDay(summary.CompletedAt.UTC())
	stats.Streak = nextStreak(stats.Streak, stats.LastReviewDay, today)
	if stats.Streak > stats.LongestStreak {
		stats.LongestStreak = stats.Streak
	}
	stats.LastReviewDay = &today
	stats.SessionsCompleted++
	stats.ItemsReviewed += summary.TotalItems
	stats.TotalLapses += summary.Lapses
	stats.Badges = appendMissing(stats.Badges, earnedBadges(stats, summary)...)

	if err := s.store.Upsert(ctx, stats); err != nil {
		return fmt.Errorf("failed to save learner stats: %w", err)
	}
	return nil
}

// Get returns the learner's current stats.
func (s *Service) Get(ctx context.Context, learnerID string) (*models.LearnerStats, error) {
	return s.store.Get(ctx, learnerID)
}

// nextStreak extends the streak when the previous session day was yesterday,
// keeps it for a second session the same day, and resets it otherwise.
func nextStreak(current int, lastDay *time.Time, today time.Time) int {
	if lastDay == nil {
		return 1
	}
	switch int(today.Sub(startOfDay(lastDay.UTC())).Hours() / 24) {
	case 0:
		if current == 0 {
			return 1
		}
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

func earnedBadges(stats *models.LearnerStats, summary *models.SessionSummary) []string {
	var earned []string
	if stats.SessionsCompleted >= 1 {
		earned = append(earned, BadgeFirstSession)
	}
	if stats.Streak >= 7 {
		earned = append(earned, BadgeWeekStreak)
	}
	if stats.Streak >= 30 {
		earned = append(earned, BadgeMonthStreak)
	}
	if stats.ItemsReviewed >= 100 {
		earned = append(earned, BadgeCenturyReviews)
	}
	if summary.TotalItems > 0 && summary.CorrectCount == summary.TotalItems {
		earned = append(earned, BadgePerfectSession)
	}
	return earned
}

func appendMissing(badges []string, earned ...string) []string {
	have := make(map[string]bool, len(badges))
	for _, b := range badges {
		have[b] = true
	}
	for _, b := range earned {
		if !have[b] {
			badges = append(badges, b)
			have[b] = true
		}
	}
	return badges
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
