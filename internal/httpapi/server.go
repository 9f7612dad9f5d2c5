package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/recallbot/internal/database"
	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/internal/spaced_repetition"
	"github.com/example/recallbot/internal/stats"
)

// Server exposes the review core over HTTP for the mobile client.
type Server struct {
	echoServer *echo.Echo

	itemRepo    *database.ReviewItemRepository
	catalogRepo *database.CatalogRepository
	builder     *review.QueueBuilder
	sm2         *spaced_repetition.SM2
	aggregator  *review.Aggregator
	statsSvc    *stats.Service
	clock       review.Clock
}

// New creates the HTTP server and registers all routes.
func New(clock review.Clock) *Server {
	if clock == nil {
		clock = review.UTCNow
	}

	itemRepo := database.NewReviewItemRepository()
	sm2 := spaced_repetition.NewSM2()
	statsSvc := stats.New(database.NewLearnerStatsRepository(), nil)

	s := &Server{
		echoServer:  echo.New(),
		itemRepo:    itemRepo,
		catalogRepo: database.NewCatalogRepository(),
		builder:     review.NewQueueBuilder(itemRepo, clock),
		sm2:         sm2,
		aggregator:  review.NewAggregator(itemRepo, database.NewSessionResultRepository(), statsSvc, sm2, clock),
		statsSvc:    statsSvc,
		clock:       clock,
	}

	e := s.echoServer
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/review/due", s.getDueQueue)
	e.POST("/review/grade", s.postGrade)
	e.POST("/review/session/complete", s.postSessionComplete)

	e.GET("/subjects", s.getSubjects)
	e.GET("/subjects/:id/lessons", s.getLessons)
	e.GET("/lessons/:id/topics", s.getTopics)

	e.GET("/learners/:id/stats", s.getLearnerStats)

	return s
}

// Start serves HTTP on the given address until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echoServer.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echoServer.Shutdown(ctx)
}
