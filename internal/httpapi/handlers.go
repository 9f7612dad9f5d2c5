package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/pkg/models"
)

// getDueQueue handles GET /review/due?learner_id=&at=&upcoming_days=
// With upcoming_days set, the queue also carries future-bucket items for the
// client's preview list.
func (s *Server) getDueQueue(c echo.Context) error {
	learnerID := c.QueryParam("learner_id")
	if learnerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "learner_id is required")
	}

	at := s.clock()
	if raw := c.QueryParam("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "at must be RFC 3339")
		}
		at = parsed
	}

	days := 0
	if raw := c.QueryParam("upcoming_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "upcoming_days must be a non-negative integer")
		}
		days = parsed
	}

	ctx := c.Request().Context()
	var queue *models.ReviewQueue
	var err error
	if days > 0 {
		queue, err = s.builder.PreviewAt(ctx, learnerID, at, days)
	} else {
		queue, err = s.builder.BuildAt(ctx, learnerID, at)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, queue)
}

type gradeRequest struct {
	LearnerID string `json:"learner_id"`
	TopicID   string `json:"topic_id"`
	Grade     string `json:"grade"`
}

// postGrade handles POST /review/grade: a single standalone grade outside a
// session, returning the rescheduled item.
func (s *Server) postGrade(c echo.Context) error {
	var req gradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.LearnerID == "" || req.TopicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "learner_id and topic_id are required")
	}
	grade, ok := models.ParseGrade(req.Grade)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "grade must be one of again, hard, good, easy")
	}

	ctx := c.Request().Context()
	item, err := s.itemRepo.Get(ctx, req.LearnerID, req.TopicID)
	if err != nil {
		return storeError(err)
	}
	if item == nil {
		return echo.NewHTTPError(http.StatusNotFound, "review item not found")
	}

	next, err := s.sm2.Next(*item, grade, s.clock())
	if err != nil {
		if errors.Is(err, spaced_repetition.ErrInvalidGrade) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := s.itemRepo.Upsert(ctx, &next); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, next)
}

type completeRequest struct {
	LearnerID string           `json:"learner_id"`
	Outcomes  []outcomePayload `json:"outcomes"`
}

type outcomePayload struct {
	TopicID   string    `json:"topic_id"`
	Grade     string    `json:"grade"`
	Timestamp time.Time `json:"timestamp"`
}

// postSessionComplete handles POST /review/session/complete: the client ran
// a session locally and reports all outcomes at once.
func (s *Server) postSessionComplete(c echo.Context) error {
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.LearnerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "learner_id is required")
	}
	if len(req.Outcomes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "outcomes must not be empty")
	}

	now := s.clock()
	outcomes := make([]models.ReviewOutcome, 0, len(req.Outcomes))
	for _, p := range req.Outcomes {
		grade, ok := models.ParseGrade(p.Grade)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "grade must be one of again, hard, good, easy")
		}
		ts := p.Timestamp
		if ts.IsZero() {
			ts = now
		}
		outcomes = append(outcomes, models.ReviewOutcome{TopicID: p.TopicID, Grade: grade, Timestamp: ts})
	}

	summary, err := s.aggregator.Apply(c.Request().Context(), req.LearnerID, outcomes)
	if err != nil {
		if errors.Is(err, spaced_repetition.ErrInvalidGrade) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return storeError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// getSubjects handles GET /subjects
func (s *Server) getSubjects(c echo.Context) error {
	subjects, err := s.catalogRepo.GetSubjects(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, subjects)
}

// getLessons handles GET /subjects/:id/lessons
func (s *Server) getLessons(c echo.Context) error {
	lessons, err := s.catalogRepo.GetLessonsBySubject(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, lessons)
}

// getTopics handles GET /lessons/:id/topics
func (s *Server) getTopics(c echo.Context) error {
	topics, err := s.catalogRepo.GetTopicsByLesson(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, topics)
}

// getLearnerStats handles GET /learners/:id/stats
func (s *Server) getLearnerStats(c echo.Context) error {
	st, err := s.statsSvc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}

// storeError maps store failures: corrupt rows are a server-side data
// problem, everything else is a retryable I/O error.
func storeError(err error) error {
	if errors.Is(err, database.ErrCorruptState) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
