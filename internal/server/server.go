// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "cinelog/docs" // swagger docs
	"cinelog/internal/bootstrap"
	"cinelog/internal/config"
	"cinelog/internal/database"
	"cinelog/internal/featureflags"
	"cinelog/internal/middleware"
	"cinelog/internal/models"
	"cinelog/internal/notifications"
	"cinelog/internal/repository"
	"cinelog/internal/service"
	"cinelog/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Version is reported by the service info endpoint.
const Version = "1.0.0"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	userRepo       repository.UserRepository
	movieRepo      repository.MovieRepository
	reviewRepo     repository.ReviewRepository
	commentRepo    repository.CommentRepository
	tokens         *middleware.TokenManager
	store          *storage.LocalStorage
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	authService    *service.AuthService
	movieService   *service.MovieService
	reviewService  *service.ReviewService
	userService    *service.UserService
	uploadService  *service.UploadService
}

// NewServer connects to the database and Redis and builds the server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; rate limits, token revocation and the activity
// stream then fall back to process-local state.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	store, err := storage.NewLocalStorage(uploadDir, service.UploadKindProfile, service.UploadKindReview)
	if err != nil {
		return nil, fmt.Errorf("upload storage: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("cinelog-api"),
		userRepo:       repository.NewUserRepository(db),
		movieRepo:      repository.NewMovieRepository(db),
		reviewRepo:     repository.NewReviewRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn, redisClient),
		store:          store,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}
	server.notifier.AttachLocal(server.hub)

	server.uploadService = service.NewUploadService(store, server.featureFlags, cfg)
	server.authService = service.NewAuthService(server.userRepo, server.tokens, server.uploadService)
	server.movieService = service.NewMovieService(server.movieRepo, server.reviewRepo, server.uploadService)
	server.reviewService = service.NewReviewService(server.reviewRepo, server.movieRepo, server.userRepo, server.commentRepo, server.uploadService)
	server.userService = service.NewUserService(server.userRepo, server.reviewRepo)

	return server, nil
}

// NewApp builds the Fiber application with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Cinelog API",
		BodyLimit: int(s.uploadService.MaxBytes())*models.MaxReviewImages + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				if fe.Code >= fiber.StatusInternalServerError {
					return models.RespondWithError(c, fe.Code, models.NewInternalError(err))
				}
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err, "path", c.Path())
			return models.RespondWithError(c, models.StatusForError(err), err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images are displayed cross-origin by the front end.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so throttled responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = s.config.FrontendURL
	}
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Path() == "/metrics"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError())
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	required := s.tokens.Required(s.userRepo)
	optional := s.tokens.Optional(s.userRepo)
	adminOnly := middleware.AdminRequired()

	app.Get("/", s.Info)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Static(storage.PublicPrefix, s.store.BasePath(), fiber.Static{
		MaxAge: 86400,
	})

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Cinelog API Metrics",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Get("/me", required, s.Me)
	auth.Put("/profile", required, s.UpdateProfile)
	auth.Put("/password", required, s.ChangePassword)
	auth.Post("/logout", required, s.Logout)

	movies := api.Group("/movies")
	movies.Get("/", s.ListMovies)
	movies.Get("/:id", optional, s.GetMovie)
	movies.Post("/", required, adminOnly, s.CreateMovie)
	movies.Put("/:id", required, adminOnly, s.UpdateMovie)
	movies.Delete("/:id", required, adminOnly, s.DeleteMovie)

	reviews := api.Group("/reviews")
	reviews.Get("/", optional, s.ListReviews)
	// Specific paths before the generic /:id routes.
	reviews.Get("/movie/:movieId", optional, s.ListMovieReviews)
	reviews.Post("/", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_review"), s.CreateReview)
	reviews.Post("/:id/like", required, s.ToggleLike)
	reviews.Post("/:id/comments", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	reviews.Delete("/:reviewId/comments/:commentId", required, s.DeleteComment)
	reviews.Get("/:id", optional, s.GetReview)
	reviews.Put("/:id", required, s.UpdateReview)
	reviews.Delete("/:id", required, s.DeleteReview)

	users := api.Group("/users")
	users.Get("/me/liked-reviews", required, s.GetLikedReviews)
	users.Get("/:id/reviews", optional, s.GetUserReviews)
	users.Get("/:id/stats", s.GetUserStats)
	users.Get("/:id", optional, s.GetUserProfile)

	api.Get("/ws", required, s.WebsocketHandler())

	admin := api.Group("/admin", required, adminOnly)
	admin.Get("/feature-flags", s.GetFeatureFlags)

	app.Use(s.NotFound)
}

// Info describes the API.
func (s *Server) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Cinelog movie review API",
		"version": Version,
		"endpoints": fiber.Map{
			"auth":    "/api/auth",
			"movies":  "/api/movies",
			"reviews": "/api/reviews",
			"users":   "/api/users",
			"docs":    "/api/swagger/index.html",
		},
	})
}

// NotFound answers requests that matched no route.
func (s *Server) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Message: "Route not found",
		Code:    models.CodeNotFound,
	})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis reachability. Redis is optional;
// only a failing database makes the instance unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overall,
		"version": Version,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	go func() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start notification wiring", "error", err)
		}
	}()

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down websocket hub", "error", err)
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
