package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// memStore is an in-memory Store used by the tests in this package.
type memStore struct {
	mu      sync.Mutex
	items   map[string]models.ReviewItem // learnerID + "/" + topicID
	failing bool                         // when set, Upsert fails
	upserts int
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]models.ReviewItem)}
}

func (m *memStore) key(learnerID, topicID string) string {
	return learnerID + "/" + topicID
}

func (m *memStore) put(item models.ReviewItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[m.key(item.LearnerID, item.TopicID)] = item
}

func (m *memStore) Get(ctx context.Context, learnerID, topicID string) (*models.ReviewItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[m.key(learnerID, topicID)]
	if !ok {
		return nil, nil
	}
	copied := item
	return &copied, nil
}

func (m *memStore) GetDueBefore(ctx context.Context, learnerID string, now time.Time) ([]models.ReviewItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.ReviewItem
	for _, item := range m.items {
		if item.LearnerID == learnerID && !item.DueAt.After(now) {
			due = append(due, item)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].DueAt.Before(due[j].DueAt)
		}
		return due[i].TopicID < due[j].TopicID
	})
	return due, nil
}

func (m *memStore) Upsert(ctx context.Context, item *models.ReviewItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errors.New("store unavailable")
	}
	m.upserts++
	m.items[m.key(item.LearnerID, item.TopicID)] = *item
	return nil
}

// memResults records summaries in memory, keyed by session id.
type memResults struct {
	mu        sync.Mutex
	summaries map[string]models.SessionSummary
}

func newMemResults() *memResults {
	return &memResults{summaries: make(map[string]models.SessionSummary)}
}

func (m *memResults) Record(ctx context.Context, summary *models.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[summary.SessionID] = *summary
	return nil
}

// memNotifier counts streak notifications.
type memNotifier struct {
	mu    sync.Mutex
	calls []models.SessionSummary
}

func (m *memNotifier) SessionCompleted(ctx context.Context, summary *models.SessionSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, *summary)
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
