package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/recallbot/pkg/models"
	"github.com/google/uuid"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct{}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository() *LearnerRepository {
	return &LearnerRepository{}
}

// GetByID returns a learner by id.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*models.Learner, error) {
	var learner models.Learner
	err := DB.GetContext(ctx, &learner, "SELECT * FROM learners WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %v", err)
	}
	return &learner, nil
}

// GetAll returns every registered learner.
func (r *LearnerRepository) GetAll(ctx context.Context) ([]models.Learner, error) {
	var learners []models.Learner
	if err := DB.SelectContext(ctx, &learners, "SELECT * FROM learners"); err != nil {
		return nil, fmt.Errorf("failed to get learners: %v", err)
	}
	return learners, nil
}

// GetByTelegramChatID returns the learner bound to a Telegram chat.
func (r *LearnerRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*models.Learner, error) {
	var learner models.Learner
	err := DB.GetContext(ctx, &learner, "SELECT * FROM learners WHERE telegram_chat_id = $1", chatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %v", err)
	}
	return &learner, nil
}

// Create inserts a new learner and fills in its generated id.
func (r *LearnerRepository) Create(ctx context.Context, learner *models.Learner) error {
	if learner.ID == "" {
		learner.ID = uuid.NewString()
	}
	_, err := DB.ExecContext(ctx, `
		INSERT INTO learners (id, telegram_chat_id, username, notification_enabled, notification_hour)
		VALUES ($1, $2, $3, $4, $5)`,
		learner.ID,
		learner.TelegramChatID,
		learner.Username,
		learner.NotificationEnabled,
		learner.NotificationHour,
	)
	if err != nil {
		return fmt.Errorf("failed to create learner: %v", err)
	}
	return nil
}

// UpdateNotificationSettings changes when and whether reminders are sent.
func (r *LearnerRepository) UpdateNotificationSettings(ctx context.Context, learnerID string, enabled bool, hour int) error {
	result, err := DB.ExecContext(ctx, `
		UPDATE learners SET
			notification_enabled = $1,
			notification_hour = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3`,
		enabled, hour, learnerID)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %v", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if rows == 0 {
		return fmt.Errorf("learner %s not found", learnerID)
	}
	return nil
}

// GetLearnersForNotification returns learners whose reminder hour matches
// the given hour and who have notifications enabled.
func (r *LearnerRepository) GetLearnersForNotification(ctx context.Context, hour int) ([]models.Learner, error) {
	var learners []models.Learner
	err := DB.SelectContext(ctx, &learners, `
		SELECT * FROM learners
		WHERE notification_enabled = true AND notification_hour = $1`,
		hour)
	if err != nil {
		return nil, fmt.Errorf("failed to get learners for notification: %v", err)
	}
	return learners, nil
}
