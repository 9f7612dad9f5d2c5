package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallbot/pkg/models"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newItem() models.ReviewItem {
	return models.ReviewItem{
		LearnerID:    "learner-1",
		TopicID:      "topic-1",
		DueAt:        testNow,
		IntervalDays: 1,
		EaseFactor:   2.5,
	}
}

func TestNextFirstGoodReview(t *testing.T) {
	sm := NewSM2()

	next, err := sm.Next(newItem(), models.GradeGood, testNow)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Repetitions)
	assert.Equal(t, 1, next.IntervalDays)
	assert.Equal(t, testNow.AddDate(0, 0, 1), next.DueAt)
	assert.InDelta(t, 2.5, next.EaseFactor, 1e-9)
	require.NotNil(t, next.LastReviewedAt)
	assert.Equal(t, testNow, *next.LastReviewedAt)
}

func TestNextSecondGoodReview(t *testing.T) {
	sm := NewSM2()

	first, err := sm.Next(newItem(), models.GradeGood, testNow)
	require.NoError(t, err)

	second, err := sm.Next(first, models.GradeGood, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, 2, second.Repetitions)
	assert.Equal(t, 6, second.IntervalDays)
	assert.Equal(t, testNow.AddDate(0, 0, 7), second.DueAt)
}

func TestNextLapse(t *testing.T) {
	sm := NewSM2()

	item := newItem()
	item.Repetitions = 2
	item.IntervalDays = 6

	next, err := sm.Next(item, models.GradeAgain, testNow)
	require.NoError(t, err)

	assert.Equal(t, 0, next.Repetitions)
	assert.Equal(t, 1, next.IntervalDays)
	assert.InDelta(t, 2.3, next.EaseFactor, 1e-9)
	assert.Equal(t, 1, next.Lapses)
	assert.Equal(t, testNow.AddDate(0, 0, 1), next.DueAt)
}

func TestNextInvalidGrade(t *testing.T) {
	sm := NewSM2()

	_, err := sm.Next(newItem(), models.Grade(7), testNow)
	assert.ErrorIs(t, err, ErrInvalidGrade)

	_, err = sm.Next(newItem(), models.Grade(-1), testNow)
	assert.ErrorIs(t, err, ErrInvalidGrade)
}

func TestRepeatedLapsesFloorEaseFactor(t *testing.T) {
	sm := NewSM2()

	item := newItem()
	prevEase := item.EaseFactor
	now := testNow
	for i := 0; i < 10; i++ {
		next, err := sm.Next(item, models.GradeAgain, now)
		require.NoError(t, err)

		assert.Equal(t, 0, next.Repetitions)
		assert.Equal(t, 1, next.IntervalDays)
		assert.LessOrEqual(t, next.EaseFactor, prevEase, "ease factor must be non-increasing on lapses")
		assert.GreaterOrEqual(t, next.EaseFactor, models.MinEaseFactor)

		prevEase = next.EaseFactor
		item = next
		now = now.AddDate(0, 0, 1)
	}
	assert.InDelta(t, models.MinEaseFactor, item.EaseFactor, 1e-9)
	assert.Equal(t, 10, item.Lapses)
}

func TestGoodRunGrowsIntervals(t *testing.T) {
	sm := NewSM2()

	item := newItem()
	now := testNow
	prevInterval := 0
	prevDue := item.DueAt
	for i := 0; i < 8; i++ {
		next, err := sm.Next(item, models.GradeGood, now)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, next.IntervalDays, prevInterval, "interval must be non-decreasing on a good run")
		assert.True(t, next.DueAt.After(prevDue), "due date must strictly increase")

		prevInterval = next.IntervalDays
		prevDue = next.DueAt
		item = next
		now = next.DueAt
	}
	assert.Equal(t, 8, item.Repetitions)
}

func TestEaseDeltaMonotonicInGrade(t *testing.T) {
	hard := easeDelta(models.GradeHard)
	good := easeDelta(models.GradeGood)
	easy := easeDelta(models.GradeEasy)

	assert.Less(t, hard, good)
	assert.Less(t, good, easy)
	assert.InDelta(t, 0.0, good, 1e-9, "good should leave the ease factor unchanged")
}

func TestMaxIntervalCap(t *testing.T) {
	sm := NewSM2()

	item := newItem()
	item.Repetitions = 10
	item.IntervalDays = 350
	item.EaseFactor = 2.5

	next, err := sm.Next(item, models.GradeEasy, testNow)
	require.NoError(t, err)
	assert.Equal(t, sm.MaxInterval, next.IntervalDays)
}

func TestIsMastered(t *testing.T) {
	sm := NewSM2()

	tests := []struct {
		reps     int
		interval int
		want     bool
	}{
		{0, 1, false},
		{5, 10, false},
		{4, 40, false},
		{5, 30, true},
		{9, 120, true},
	}
	for _, tt := range tests {
		item := newItem()
		item.Repetitions = tt.reps
		item.IntervalDays = tt.interval
		assert.Equal(t, tt.want, sm.IsMastered(&item), "reps=%d interval=%d", tt.reps, tt.interval)
	}
}
