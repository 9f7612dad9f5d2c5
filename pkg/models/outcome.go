package models

import "time"

// Grade is the learner's self-reported recall quality for one review.
type Grade int

const (
	// GradeAgain means the learner failed to recall the topic.
	GradeAgain Grade = iota
	// GradeHard means recall succeeded with significant effort.
	GradeHard
	// GradeGood means recall succeeded after some hesitation.
	GradeGood
	// GradeEasy means perfect recall with no hesitation.
	GradeEasy
)

// Valid reports whether the grade is one of the four defined values.
func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

// Correct reports whether the grade counts as a successful recall.
func (g Grade) Correct() bool {
	return g >= GradeGood
}

func (g Grade) String() string {
	switch g {
	case GradeAgain:
		return "again"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	default:
		return "unknown"
	}
}

// ParseGrade converts a wire-format grade name to a Grade.
func ParseGrade(s string) (Grade, bool) {
	switch s {
	case "again":
		return GradeAgain, true
	case "hard":
		return GradeHard, true
	case "good":
		return GradeGood, true
	case "easy":
		return GradeEasy, true
	}
	return 0, false
}

// ReviewOutcome records the grade a learner gave one topic during a session.
type ReviewOutcome struct {
	TopicID   string    `json:"topic_id" db:"topic_id"`
	Grade     Grade     `json:"grade" db:"grade"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
