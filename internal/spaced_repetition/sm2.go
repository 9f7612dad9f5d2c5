package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// ErrInvalidGrade is returned when a grade outside again..easy is submitted.
var ErrInvalidGrade = errors.New("invalid review grade")

// SM2 implements the SuperMemo-2 algorithm for spaced repetition.
// Next is a pure function: it never reads the wall clock or touches storage.
type SM2 struct {
	// Минимальное значение фактора легкости
	MinEaseFactor float64
	// Penalty applied to the ease factor on a lapse
	LapsePenalty float64
	// Максимальный интервал повторения в днях
	MaxInterval int
	// Interval after the first and second successful review
	FirstInterval  int
	SecondInterval int
}

// NewSM2 создает новый экземпляр SM2 с настройками по умолчанию
func NewSM2() *SM2 {
	return &SM2{
		MinEaseFactor:  models.MinEaseFactor,
		LapsePenalty:   0.2,
		MaxInterval:    365, // Максимальный интервал - 1 год
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// Next computes the scheduling state of an item after one graded review.
// The input item is not modified; the returned copy carries the new interval,
// ease factor, repetition count and due date. now is injected by the caller
// so the computation stays deterministic.
func (sm *SM2) Next(item models.ReviewItem, grade models.Grade, now time.Time) (models.ReviewItem, error) {
	if !grade.Valid() {
		return models.ReviewItem{}, fmt.Errorf("%w: %d", ErrInvalidGrade, int(grade))
	}

	next := item
	reviewed := now
	next.LastReviewedAt = &reviewed

	if grade == models.GradeAgain {
		// Lapse: reset progress and review again tomorrow.
		next.Repetitions = 0
		next.Lapses++
		next.IntervalDays = 1
		next.EaseFactor = sm.clampEase(item.EaseFactor - sm.LapsePenalty)
	} else {
		next.Repetitions = item.Repetitions + 1
		next.EaseFactor = sm.clampEase(item.EaseFactor + easeDelta(grade))

		switch next.Repetitions {
		case 1:
			next.IntervalDays = sm.FirstInterval
		case 2:
			next.IntervalDays = sm.SecondInterval
		default:
			next.IntervalDays = int(math.Round(float64(item.IntervalDays) * next.EaseFactor))
		}

		if next.IntervalDays < 1 {
			next.IntervalDays = 1
		}
		if next.IntervalDays > sm.MaxInterval {
			next.IntervalDays = sm.MaxInterval
		}
	}

	next.DueAt = now.AddDate(0, 0, next.IntervalDays)
	return next, nil
}

// easeDelta is the classic SM-2 ease adjustment mapped onto the four-grade
// scale: easy raises the ease factor, good leaves it unchanged, hard lowers
// it. Strictly monotonic in the grade.
func easeDelta(grade models.Grade) float64 {
	q := float64(models.GradeEasy - grade)
	return 0.1 - q*(0.08+q*0.02)
}

func (sm *SM2) clampEase(ef float64) float64 {
	if ef < sm.MinEaseFactor {
		return sm.MinEaseFactor // Не опускаем ниже 1.3
	}
	return ef
}

// IsMastered determines if a topic is considered "mastered".
func (sm *SM2) IsMastered(item *models.ReviewItem) bool {
	// A topic is considered mastered if:
	// 1. It has been reviewed successfully at least 5 times in a row
	// 2. The interval has grown to at least 30 days
	return item.Repetitions >= 5 && item.IntervalDays >= 30
}
