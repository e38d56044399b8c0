// Package api provides the HTTP surface for MentorMind (spec §6): learner
// evaluation submission and feedback polling, snapshot CRUD, and the coach
// chat SSE stream.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/mentormind/mentormind/ent"
	"github.com/mentormind/mentormind/pkg/chat"
	"github.com/mentormind/mentormind/pkg/config"
	"github.com/mentormind/mentormind/pkg/database"
	"github.com/mentormind/mentormind/pkg/queue"
	"github.com/mentormind/mentormind/pkg/snapshot"
	"github.com/mentormind/mentormind/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg      *config.Config
	dbClient *database.Client
	client   *ent.Client

	chatEngine      *chat.Engine
	snapshotService *snapshot.Service
	workerPool      *queue.WorkerPool
}

// NewServer creates a new API server with Echo v5, wired to the evaluation,
// snapshot, and chat dependencies built bottom-up in cmd/mentormind/main.go.
func NewServer(
	cfg *config.Config,
	dbClient *database.Client,
	chatEngine *chat.Engine,
	snapshotService *snapshot.Service,
	workerPool *queue.WorkerPool,
) *Server {
	e := echo.New()

	s := &Server{
		echo:            e,
		cfg:             cfg,
		dbClient:        dbClient,
		client:          dbClient.Client,
		chatEngine:      chatEngine,
		snapshotService: snapshotService,
		workerPool:      workerPool,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes (spec §6).
func (s *Server) setupRoutes() {
	// Server-wide body size limit; generous enough for a learner evaluation
	// submission's eight reasoning strings plus a long chat message.
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)

	s.echo.POST("/evaluations/submit", s.submitEvaluationHandler)
	s.echo.GET("/evaluations/:id/feedback", s.getFeedbackHandler)
	s.echo.POST("/evaluations/:id/retry", s.retryEvaluationHandler)

	s.echo.GET("/snapshots/", s.listSnapshotsHandler)
	s.echo.GET("/snapshots/:id", s.getSnapshotHandler)
	s.echo.DELETE("/snapshots/:id", s.deleteSnapshotHandler)
	s.echo.GET("/snapshots/:id/messages", s.listMessagesHandler)
	s.echo.POST("/snapshots/:id/chat", s.chatHandler)

	s.echo.GET("/metrics/overview", s.metricsOverviewHandler)
}

// Start starts the HTTP server on the given address and blocks until the
// server stops; callers run it in its own goroutine.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener, used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status:   "unhealthy",
			Version:  version.Full(),
			Database: dbHealth,
		})
	}

	resp := &HealthResponse{
		Status:   "healthy",
		Version:  version.Full(),
		Database: dbHealth,
	}
	if s.workerPool != nil {
		ph := s.workerPool.Health()
		resp.Queue = &queueHealthView{
			IsHealthy:     ph.IsHealthy,
			ActiveWorkers: ph.ActiveWorkers,
			TotalWorkers:  ph.TotalWorkers,
			QueueDepth:    ph.QueueDepth,
		}
		if !ph.IsHealthy {
			resp.Status = "degraded"
		}
	}
	return c.JSON(http.StatusOK, resp)
}
