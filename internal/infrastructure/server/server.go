package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/remindly/core/docs"
	httpHandlers "github.com/remindly/core/internal/adapters/http"
	"github.com/remindly/core/internal/adapters/repository"
	"github.com/remindly/core/internal/application/services"
	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/infrastructure/config"
	"github.com/remindly/core/internal/infrastructure/database"
	"github.com/remindly/core/internal/infrastructure/logger"
	"github.com/remindly/core/internal/infrastructure/metrics"
	"github.com/remindly/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// CustomValidator runs struct tag validation and reports failures as *entities.ValidationError
type CustomValidator struct{}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return entities.Validate(i)
}

// New creates a new server instance with every repository, service and handler wired
func New(cfg *config.Config, db *database.DB, blobs ports.BlobStore, appLogger *logger.Logger) (*Server, error) {
	if cfg == nil || db == nil || blobs == nil || appLogger == nil {
		return nil, errors.New("server: config, database, blob store and logger are required")
	}

	e := echo.New()
	e.Validator = &CustomValidator{}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	taskListRepo := repository.NewTaskListRepository(db.DB)

	// Initialize services
	authService := services.NewAuthService(userRepo, cfg.JWT, appLogger)
	taskListService := services.NewTaskListService(taskListRepo, blobs, appMetrics, appLogger)
	profileService := services.NewProfileService(userRepo, blobs, cfg.Storage.MaxAvatarBytes, appMetrics, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	taskListHandler := httpHandlers.NewTaskListHandler(taskListService, cfg.App.Location(), appLogger)
	profileHandler := httpHandlers.NewProfileHandler(profileService, appLogger)
	uploadsHandler := httpHandlers.NewUploadsHandler(blobs)

	server := &Server{
		echo:     e,
		config:   cfg,
		logger:   appLogger,
		db:       db,
		registry: registry,
		metrics:  appMetrics,
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	server.setupRoutes(authHandler, taskListHandler, profileHandler, uploadsHandler, authService)

	return server, nil
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	authHandler *httpHandlers.AuthHandler,
	taskListHandler *httpHandlers.TaskListHandler,
	profileHandler *httpHandlers.ProfileHandler,
	uploadsHandler *httpHandlers.UploadsHandler,
	verifier ports.TokenVerifier,
) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Stored avatars and item images
	s.echo.GET(ports.BlobPublicPrefix+"/*", uploadsHandler.Serve)

	api := s.echo.Group("/api")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/check-username", authHandler.CheckUsername)
	authGroup.POST("/check-email", authHandler.CheckEmail)

	// Task list routes (authenticated)
	taskListGroup := api.Group("/tasklists", s.authMiddleware(verifier))
	taskListGroup.POST("", taskListHandler.CreateTaskList)
	taskListGroup.GET("", taskListHandler.ListTaskLists)
	taskListGroup.GET("/:id", taskListHandler.GetTaskList)
	taskListGroup.PUT("/:id", taskListHandler.UpdateTaskList)
	taskListGroup.DELETE("/:id", taskListHandler.DeleteTaskList)

	// Profile routes (authenticated)
	profileGroup := api.Group("/profile", s.authMiddleware(verifier))
	profileGroup.GET("", profileHandler.GetProfile)
	profileGroup.PUT("/username", profileHandler.UpdateUsername)
	profileGroup.PUT("/uploads/avatars", profileHandler.UploadAvatar)
}

// setupMetrics records per-route request metrics and exposes the registry
func (s *Server) setupMetrics() {
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s.echo.Use(s.metrics.Middleware())

	metricsHandler := promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	checks["storage"] = map[string]interface{}{
		"status": "ok",
		"driver": s.config.Storage.Driver,
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		s.logger.Warnw("Readiness check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout
	s.echo.Server.IdleTimeout = s.config.Server.IdleTimeout

	s.logger.Infow("Starting server", "address", address)
	err := s.echo.Start(address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler renders every error as {"message", "details"} and logs server-side failures
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		he := httpHandlers.MapError(err)
		code := he.Code

		if code >= http.StatusInternalServerError {
			reqLogger := logger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID))
			if userID, uerr := httpHandlers.UserID(c); uerr == nil {
				reqLogger = reqLogger.WithUserID(userID.String())
			}
			reqLogger.WithError(err).Errorw("Internal server error",
				"internal", he.Internal,
				"path", c.Request().URL.Path,
			)
		}

		if c.Response().Committed {
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, httpHandlers.ErrorBody(he))
		}
		if err != nil {
			logger.Errorw("Error sending response", "error", err)
		}
	}
}
