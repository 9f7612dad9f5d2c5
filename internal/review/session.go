package review

import (
	"context"
	"fmt"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
	"github.com/google/uuid"
)

// SessionState is the lifecycle state of a review session.
type SessionState string

const (
	// StateInProgress means the session still has items to grade.
	StateInProgress SessionState = "in_progress"
	// StateCompleted means every queued item has been graded.
	StateCompleted SessionState = "completed"
	// StateAbandoned means the learner walked away before finishing.
	StateAbandoned SessionState = "abandoned"
)

// gradedItem pairs a recorded outcome with the scheduler-computed next state
// so that re-applying the session later writes identical rows.
type gradedItem struct {
	outcome models.ReviewOutcome
	next    models.ReviewItem
}

// Session drives one pass over a review queue. It owns its queue, cursor and
// outcomes exclusively and is discarded after completion or abandonment.
//
// Each grade is persisted immediately, so abandoning mid-session keeps the
// updates for items already graded and leaves the rest untouched.
type Session struct {
	ID        string
	LearnerID string

	queue  *models.ReviewQueue
	cursor int
	graded map[string]gradedItem
	state  SessionState
	sm2    *spaced_repetition.SM2
	store  Store
	clock  Clock
}

// StartSession begins a session over a non-empty queue.
func StartSession(queue *models.ReviewQueue, store Store, sm2 *spaced_repetition.SM2, clock Clock) (*Session, error) {
	if queue == nil || queue.Len() == 0 {
		return nil, ErrEmptyQueue
	}
	if clock == nil {
		clock = UTCNow
	}
	return &Session{
		ID:        uuid.NewString(),
		LearnerID: queue.LearnerID,
		queue:     queue,
		graded:    make(map[string]gradedItem, queue.Len()),
		state:     StateInProgress,
		sm2:       sm2,
		store:     store,
		clock:     clock,
	}, nil
}

// State returns the session's lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Queue returns the queue the session was started with.
func (s *Session) Queue() *models.ReviewQueue {
	return s.queue
}

// Current returns the item the learner should review next.
func (s *Session) Current() (models.QueueItem, error) {
	if s.state != StateInProgress {
		return models.QueueItem{}, ErrSessionClosed
	}
	return s.queue.Items[s.cursor], nil
}

// Remaining returns how many items are still ungraded.
func (s *Session) Remaining() int {
	return s.queue.Len() - s.cursor
}

// Grade records the learner's grade for the topic at the cursor, persists
// the scheduler-computed next state and advances. Submitting any other topic
// fails with ErrOutOfOrderGrading and mutates nothing. A store failure also
// mutates nothing: the cursor stays put so the caller can retry.
func (s *Session) Grade(ctx context.Context, topicID string, grade models.Grade) error {
	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	current := s.queue.Items[s.cursor]
	if topicID != current.TopicID {
		return fmt.Errorf("%w: got %q, expected %q", ErrOutOfOrderGrading, topicID, current.TopicID)
	}

	item, err := s.store.Get(ctx, s.LearnerID, topicID)
	if err != nil {
		return fmt.Errorf("failed to load review item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("review item %s/%s not found", s.LearnerID, topicID)
	}

	now := s.clock()
	next, err := s.sm2.Next(*item, grade, now)
	if err != nil {
		return err
	}

	if err := s.store.Upsert(ctx, &next); err != nil {
		return fmt.Errorf("failed to persist review item: %w", err)
	}

	s.graded[topicID] = gradedItem{
		outcome: models.ReviewOutcome{TopicID: topicID, Grade: grade, Timestamp: now},
		next:    next,
	}
	s.cursor++
	if s.cursor == s.queue.Len() {
		s.state = StateCompleted
	}
	return nil
}

// Abandon ends the session early. Items graded so far keep their persisted
// updates; ungraded items are left exactly as they were.
func (s *Session) Abandon() error {
	if s.state != StateInProgress {
		return ErrSessionClosed
	}
	s.state = StateAbandoned
	return nil
}

// Outcomes returns the recorded outcomes in queue order.
func (s *Session) Outcomes() []models.ReviewOutcome {
	outcomes := make([]models.ReviewOutcome, 0, len(s.graded))
	for _, it := range s.queue.Items {
		if g, ok := s.graded[it.TopicID]; ok {
			outcomes = append(outcomes, g.outcome)
		}
	}
	return outcomes
}
