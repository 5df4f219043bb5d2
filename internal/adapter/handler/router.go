package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/johnquangdev/meeting-taskflow/docs"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
)

// HealthChecker reports whether the storage backend is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	auth           middleware.TokenValidator
	health         HealthChecker
	meetingHandler *Meeting
	syncHandler    *Sync
	logger         *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, auth middleware.TokenValidator, health HealthChecker, meetingHandler *Meeting, syncHandler *Sync, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:            cfg,
		auth:           auth,
		health:         health,
		meetingHandler: meetingHandler,
		syncHandler:    syncHandler,
		logger:         logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler(rt.logger, e.DefaultHTTPErrorHandler)

	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupMeetingRoutes(v1)
	rt.setupSyncRoutes(v1)
}

// setupMeetingRoutes configures transcript processing and assignment routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings", middleware.EchoAuth(rt.auth))
	meetings.POST("/process", rt.meetingHandler.Process)
	meetings.POST("/:id/tasks/:taskId/assign", rt.meetingHandler.AssignTask)
}

// setupSyncRoutes configures snapshot, update and live stream routes.
// EventSource cannot set headers, so only the stream takes a query token.
func (rt *Router) setupSyncRoutes(g *echo.Group) {
	sync := g.Group("/sync")
	auth := middleware.EchoAuth(rt.auth)
	sync.GET("/snapshot", rt.syncHandler.Snapshot, auth)
	sync.POST("/updates", rt.syncHandler.QueueUpdate, auth)
	sync.GET("/stream", rt.syncHandler.Stream, middleware.EchoAuth(rt.auth, middleware.AllowQueryToken()))
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	status := http.StatusOK
	body := map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
		"storage":     rt.cfg.Storage.Driver,
		"time":        time.Now().UTC().Format(time.RFC3339),
	}

	if rt.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := rt.health.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["error"] = err.Error()
		}
	}

	return c.JSON(status, body)
}
