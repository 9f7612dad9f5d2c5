package review

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
	"github.com/google/uuid"
)

// Aggregator reduces a completed session into a SessionSummary, re-applies
// every outcome to the store (idempotently: the writes repeat the exact rows
// the session already persisted) and fans the summary out to the result log
// and the streak collaborator.
type Aggregator struct {
	store    Store
	results  ResultRecorder
	notifier StreakNotifier
	sm2      *spaced_repetition.SM2
	clock    Clock
}

// NewAggregator creates an aggregator. results and notifier may be nil when
// no persistence or streak bookkeeping is wanted (tests, CLI tools).
func NewAggregator(store Store, results ResultRecorder, notifier StreakNotifier, sm2 *spaced_repetition.SM2, clock Clock) *Aggregator {
	if clock == nil {
		clock = UTCNow
	}
	return &Aggregator{store: store, results: results, notifier: notifier, sm2: sm2, clock: clock}
}

// Complete summarizes a COMPLETED session. Applying the same completed
// session twice yields the same store state: each write repeats the
// scheduler-computed row already keyed by (learner, topic).
func (a *Aggregator) Complete(ctx context.Context, session *Session) (*models.SessionSummary, error) {
	if session.State() != StateCompleted {
		return nil, ErrSessionIncomplete
	}

	for _, it := range session.queue.Items {
		g, ok := session.graded[it.TopicID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSessionIncomplete, it.TopicID)
		}
		next := g.next
		if err := a.store.Upsert(ctx, &next); err != nil {
			return nil, fmt.Errorf("failed to apply outcome for topic %s: %w", it.TopicID, err)
		}
	}

	summary := summarize(session.ID, session.LearnerID, session.Outcomes(), a.clock())
	if err := a.emit(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Apply replays a batch of outcomes reported by an external client (the
// mobile app runs its sessions locally and posts them on completion).
// Outcomes not newer than the item's last review are counted in the summary
// but not re-applied, which makes replaying the same payload harmless.
func (a *Aggregator) Apply(ctx context.Context, learnerID string, outcomes []models.ReviewOutcome) (*models.SessionSummary, error) {
	for _, outcome := range outcomes {
		if !outcome.Grade.Valid() {
			return nil, fmt.Errorf("%w: %d", spaced_repetition.ErrInvalidGrade, int(outcome.Grade))
		}
	}

	applied := 0
	for _, outcome := range outcomes {
		item, err := a.store.Get(ctx, learnerID, outcome.TopicID)
		if err != nil {
			return nil, fmt.Errorf("failed to load review item: %w", err)
		}
		if item == nil {
			log.Printf("skipping outcome for unknown topic %s/%s", learnerID, outcome.TopicID)
			continue
		}
		if item.LastReviewedAt != nil && !outcome.Timestamp.After(*item.LastReviewedAt) {
			// Already applied by an earlier submission.
			continue
		}
		next, err := a.sm2.Next(*item, outcome.Grade, outcome.Timestamp)
		if err != nil {
			return nil, err
		}
		if err := a.store.Upsert(ctx, &next); err != nil {
			return nil, fmt.Errorf("failed to persist review item: %w", err)
		}
		applied++
	}

	summary := summarize(uuid.NewString(), learnerID, outcomes, a.clock())
	if applied == 0 {
		// Pure replay: answer with the summary but do not record it again,
		// or streaks and session totals would double-count.
		return summary, nil
	}
	if err := a.emit(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (a *Aggregator) emit(ctx context.Context, summary *models.SessionSummary) error {
	if a.results != nil {
		if err := a.results.Record(ctx, summary); err != nil {
			return fmt.Errorf("failed to record session result: %w", err)
		}
	}
	if a.notifier != nil {
		if err := a.notifier.SessionCompleted(ctx, summary); err != nil {
			// Streak bookkeeping must not block the summary.
			log.Printf("streak update failed for learner %s: %v", summary.LearnerID, err)
		}
	}
	return nil
}

// summarize is a pure reduction over the outcomes of one session.
func summarize(sessionID, learnerID string, outcomes []models.ReviewOutcome, completedAt time.Time) *models.SessionSummary {
	summary := &models.SessionSummary{
		SessionID:   sessionID,
		LearnerID:   learnerID,
		TotalItems:  len(outcomes),
		CompletedAt: completedAt,
	}
	for _, outcome := range outcomes {
		if outcome.Grade.Correct() {
			summary.CorrectCount++
		}
		if outcome.Grade == models.GradeAgain {
			summary.Lapses++
		}
	}
	if summary.TotalItems > 0 {
		summary.Percentage = float64(summary.CorrectCount) / float64(summary.TotalItems) * 100
	}
	return summary
}
