package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/johnquangdev/meeting-taskflow/internal/adapter/handler"
	"github.com/johnquangdev/meeting-taskflow/internal/adapter/repository"
	"github.com/johnquangdev/meeting-taskflow/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-taskflow/internal/usecase/datasync"
	meetinguse "github.com/johnquangdev/meeting-taskflow/internal/usecase/meeting"
	pkgai "github.com/johnquangdev/meeting-taskflow/pkg/ai"
	"github.com/johnquangdev/meeting-taskflow/pkg/config"
	"github.com/johnquangdev/meeting-taskflow/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-taskflow/pkg/validator"
)

// @title           Meeting Taskflow API
// @version         1.0
// @description     Turns meeting transcripts into team-assigned action items and keeps clients in sync
// @BasePath        /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURIPath:   true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http.request",
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	// Storage backend
	store, err := repository.Open(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer store.Close()

	// Summarizer and optional transcript archive
	groqClient := pkgai.NewGroqClient(&cfg.Groq, logger.Named("groq"))

	meetingOpts := []meetinguse.Option{}
	if cfg.Archive.Enabled {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		minioClient, err := storage.NewMinIOClient(initCtx, &cfg.Archive)
		cancel()
		if err != nil {
			logger.Fatal("failed to initialize transcript archive", zap.Error(err))
		}
		meetingOpts = append(meetingOpts, meetinguse.WithArchiver(minioClient))
		logger.Info("transcript archive enabled", zap.String("bucket", cfg.Archive.BucketName))
	}

	meetingService := meetinguse.NewMeetingService(store, store, store, groqClient, logger.Named("meeting"), meetingOpts...)

	// Live sync
	sessions := datasync.NewSessions(
		store,
		datasync.NewStoreApplier(store, store),
		logger.Named("sync"),
		datasync.WithMaxQueuedUpdates(cfg.Sync.MaxQueuedUpdates),
		datasync.WithOpenTimeout(cfg.Sync.OpenTimeout),
	)
	defer sessions.CloseAll()

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	watcher := datasync.NewConnectivityWatcher(store, sessions, cfg.Sync.ConnectivityCheck, logger.Named("connectivity"))
	go watcher.Run(watchCtx)

	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	syncHandler := handler.NewSync(sessions, store, logger)
	e.Server.RegisterOnShutdown(syncHandler.Close)

	router := handler.NewRouter(
		cfg,
		jwtManager,
		store,
		handler.NewMeeting(meetingService, logger),
		syncHandler,
		logger,
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Server.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
