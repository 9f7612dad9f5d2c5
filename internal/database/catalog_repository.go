package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/recallbot/pkg/models"
	"github.com/google/uuid"
)

// CatalogRepository handles database operations for the subject/lesson/topic
// catalog. Content itself (text, video, quizzes) lives in the external
// content service; only the hierarchy needed for scheduling is stored here.
type CatalogRepository struct{}

// NewCatalogRepository creates a new repository instance
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

// GetSubjects returns all subjects ordered by title.
func (r *CatalogRepository) GetSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	err := DB.SelectContext(ctx, &subjects, "SELECT * FROM subjects ORDER BY title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects: %v", err)
	}
	return subjects, nil
}

// GetSubjectByTitle returns a subject by its unique title.
func (r *CatalogRepository) GetSubjectByTitle(ctx context.Context, title string) (*models.Subject, error) {
	var subject models.Subject
	err := DB.GetContext(ctx, &subject, "SELECT * FROM subjects WHERE title = $1", title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %v", err)
	}
	return &subject, nil
}

// CreateSubject inserts a new subject and returns its generated id.
func (r *CatalogRepository) CreateSubject(ctx context.Context, title, description string) (string, error) {
	id := uuid.NewString()
	_, err := DB.ExecContext(ctx,
		"INSERT INTO subjects (id, title, description) VALUES ($1, $2, $3)",
		id, title, description)
	if err != nil {
		return "", fmt.Errorf("failed to create subject: %v", err)
	}
	return id, nil
}

// GetLessonsBySubject returns a subject's lessons in position order.
func (r *CatalogRepository) GetLessonsBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := DB.SelectContext(ctx, &lessons,
		"SELECT * FROM lessons WHERE subject_id = $1 ORDER BY position ASC, title ASC", subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lessons: %v", err)
	}
	return lessons, nil
}

// GetLessonByTitle returns a lesson inside a subject by title.
func (r *CatalogRepository) GetLessonByTitle(ctx context.Context, subjectID, title string) (*models.Lesson, error) {
	var lesson models.Lesson
	err := DB.GetContext(ctx, &lesson,
		"SELECT * FROM lessons WHERE subject_id = $1 AND title = $2", subjectID, title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson: %v", err)
	}
	return &lesson, nil
}

// CreateLesson inserts a new lesson and returns its generated id.
func (r *CatalogRepository) CreateLesson(ctx context.Context, subjectID, title, description string, position int) (string, error) {
	id := uuid.NewString()
	_, err := DB.ExecContext(ctx,
		"INSERT INTO lessons (id, subject_id, title, description, position) VALUES ($1, $2, $3, $4, $5)",
		id, subjectID, title, description, position)
	if err != nil {
		return "", fmt.Errorf("failed to create lesson: %v", err)
	}
	return id, nil
}

// GetTopicsByLesson returns a lesson's topics ordered by title.
func (r *CatalogRepository) GetTopicsByLesson(ctx context.Context, lessonID string) ([]models.Topic, error) {
	var topics []models.Topic
	err := DB.SelectContext(ctx, &topics,
		"SELECT * FROM topics WHERE lesson_id = $1 ORDER BY title ASC", lessonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %v", err)
	}
	return topics, nil
}

// GetTopic returns a topic by id, or nil when it does not exist.
func (r *CatalogRepository) GetTopic(ctx context.Context, topicID string) (*models.Topic, error) {
	var topic models.Topic
	err := DB.GetContext(ctx, &topic, "SELECT * FROM topics WHERE id = $1", topicID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %v", err)
	}
	return &topic, nil
}

// GetTopicByTitle returns a topic inside a lesson by title.
func (r *CatalogRepository) GetTopicByTitle(ctx context.Context, lessonID, title string) (*models.Topic, error) {
	var topic models.Topic
	err := DB.GetContext(ctx, &topic,
		"SELECT * FROM topics WHERE lesson_id = $1 AND title = $2", lessonID, title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %v", err)
	}
	return &topic, nil
}

// CreateTopic inserts a new topic and returns its generated id.
func (r *CatalogRepository) CreateTopic(ctx context.Context, lessonID, title, description string) (string, error) {
	id := uuid.NewString()
	_, err := DB.ExecContext(ctx,
		"INSERT INTO topics (id, lesson_id, title, description) VALUES ($1, $2, $3, $4)",
		id, lessonID, title, description)
	if err != nil {
		return "", fmt.Errorf("failed to create topic: %v", err)
	}
	return id, nil
}

// GetTopicTitles returns a topic-id to title mapping for presentation.
func (r *CatalogRepository) GetTopicTitles(ctx context.Context, topicIDs []string) (map[string]string, error) {
	titles := make(map[string]string, len(topicIDs))
	for _, id := range topicIDs {
		topic, err := r.GetTopic(ctx, id)
		if err != nil {
			return nil, err
		}
		if topic != nil {
			titles[id] = topic.Title
		}
	}
	return titles, nil
}
