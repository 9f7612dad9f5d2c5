package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/recallbot/internal/database"
	"github.com/go-co-op/gocron"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Scheduler manages scheduled reminder tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	learners  *database.LearnerRepository
	items     *database.ReviewItemRepository
}

// Notifier interface for sending due-review reminders
type Notifier interface {
	SendReminder(chatID int64, dueCount int) error
}

// New creates a new scheduler instance
func New(notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		learners:  database.NewLearnerRepository(),
		items:     database.NewReviewItemRepository(),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Schedule hourly check for learners who need reminders
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders finds learners whose reminder hour is now and tells
// them how many topics are waiting for review.
func (s *Scheduler) checkAndSendReminders() {
	now := time.Now().UTC()
	currentHour := now.Hour()

	startHour := envHour("NOTIFICATION_START_HOUR", DefaultNotificationStartHour)
	endHour := envHour("NOTIFICATION_END_HOUR", DefaultNotificationEndHour)

	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	ctx := context.Background()
	learners, err := s.learners.GetLearnersForNotification(ctx, currentHour)
	if err != nil {
		log.Printf("Error getting learners for notification: %v", err)
		return
	}

	for _, learner := range learners {
		dueCount, err := s.items.CountDue(ctx, learner.ID, now)
		if err != nil {
			log.Printf("Error counting due items for learner %s: %v", learner.ID, err)
			continue
		}

		if dueCount == 0 {
			continue
		}

		if err := s.notifier.SendReminder(learner.TelegramChatID, dueCount); err != nil {
			log.Printf("Error sending reminder to learner %s: %v", learner.ID, err)
		}
	}
}

// RunManualCheck forces a reminder check for a specific learner
func (s *Scheduler) RunManualCheck(ctx context.Context, learnerID string) error {
	learner, err := s.learners.GetByID(ctx, learnerID)
	if err != nil {
		return err
	}
	if learner == nil {
		return nil
	}

	dueCount, err := s.items.CountDue(ctx, learnerID, time.Now().UTC())
	if err != nil {
		return err
	}

	if dueCount > 0 {
		return s.notifier.SendReminder(learner.TelegramChatID, dueCount)
	}
	return nil
}

func envHour(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			return h
		}
	}
	return fallback
}
