package review

import "errors"

// Contract-violation errors. These indicate a bug in the caller (double
// submission, grading a closed session, starting with nothing due) and must
// never be retried.
var (
	// ErrEmptyQueue is returned by StartSession when the queue has no items.
	// Callers must check the queue before starting; an empty queue is the
	// "all caught up" display state, not a session.
	ErrEmptyQueue = errors.New("review queue is empty")

	// ErrOutOfOrderGrading is returned when a grade is submitted for a topic
	// other than the one at the session cursor.
	ErrOutOfOrderGrading = errors.New("grade does not match current queue item")

	// ErrSessionClosed is returned when a completed or abandoned session is
	// used again.
	ErrSessionClosed = errors.New("session is no longer in progress")

	// ErrSessionIncomplete is returned when aggregation is requested for a
	// session that has not graded every item.
	ErrSessionIncomplete = errors.New("session has ungraded items")
)
