// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"strings"
	"time"

	_ "picfeed/docs" // swagger docs
	"picfeed/internal/bootstrap"
	"picfeed/internal/cache"
	"picfeed/internal/config"
	"picfeed/internal/featureflags"
	"picfeed/internal/mailer"
	"picfeed/internal/media"
	"picfeed/internal/middleware"
	"picfeed/internal/models"
	"picfeed/internal/notifications"
	"picfeed/internal/repository"
	"picfeed/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	media        *media.Store
	featureFlags *featureflags.Manager
	notifier     *notifications.Notifier
	hub          *notifications.Hub
	wsTickets    *cache.WSTickets

	authService    *service.AuthService
	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	likeService    *service.LikeService
	commentService *service.CommentService
	feedService    *service.FeedService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and the bootstrap layer use it directly. redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	viewRepo := repository.NewPostViewRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("picfeed-api"),
		media:          media.NewStore(cfg.MediaRoot, cfg.MediaBaseURL, cfg.MaxUploadBytes(), cfg.MediaTranscodeWebP),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		wsTickets:      cache.NewWSTickets(redisClient),
	}

	// Notifications are published through redis when it is available and
	// delivered to the local hub otherwise.
	var notifier service.Notifier
	if s.featureFlags.On(featureflags.RealtimeNotifications) {
		s.hub = notifications.NewHub()
		s.notifier = notifications.NewNotifier(redisClient, s.hub)
		notifier = s.notifier
	}

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cache.NewTokenBlacklist(redisClient))
	codes := cache.NewVerificationStore(redisClient, cfg.VerificationCodeTTL)

	s.authService = service.NewAuthService(userRepo, codes, mailer.New(cfg), tokens)
	s.userService = service.NewUserService(userRepo, followRepo, s.media, cfg.SuggestedUsersLimit)
	s.followService = service.NewFollowService(userRepo, followRepo, notifier)
	s.postService = service.NewPostService(postRepo, viewRepo, s.media, s.featureFlags, s.userService.IsAdmin)
	s.likeService = service.NewLikeService(postRepo, likeRepo, notifier)
	s.commentService = service.NewCommentService(postRepo, commentRepo, notifier, s.userService.IsAdmin)
	s.feedService = service.NewFeedService(postRepo, cfg.TopPostsWindow)

	return s, nil
}

// NewApp builds a Fiber app with the server's middleware and routes, without listening.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "picfeed API",
		// Leave room for multipart overhead around the largest allowed image.
		BodyLimit:    int(s.config.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Images are embedded cross-origin by the web client.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// After requestid and context middleware so log records carry both.
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewBusinessError(models.CodeRateLimited, "Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if strings.HasPrefix(s.config.MediaBaseURL, "/") {
		app.Static(s.config.MediaBaseURL, s.config.MediaRoot, fiber.Static{
			MaxAge: 86400,
		})
	}

	api := app.Group("/api")

	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "picfeed Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	// Credential endpoints refuse service rather than run unlimited when redis is down.
	auth.Post("/register", middleware.RateLimitWithPolicy(s.redis, 5, 10*time.Minute, middleware.FailClosed, "register"), s.Register)
	auth.Post("/verify-code", middleware.RateLimitWithPolicy(s.redis, 10, 10*time.Minute, middleware.FailClosed, "verify_code"), s.VerifyCode)
	auth.Post("/login", middleware.RateLimitWithPolicy(s.redis, 10, 5*time.Minute, middleware.FailClosed, "login"), s.Login)
	auth.Post("/token/refresh", s.RefreshToken)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// The websocket accepts single-use tickets, so it is registered ahead of
	// the bearer-only protected group.
	api.Get("/ws", s.AuthRequired(), s.ActiveUser(), s.WebsocketUpgrade(), s.WebsocketHandler())

	protected := api.Group("", s.AuthRequired(), s.ActiveUser())

	me := protected.Group("/user")
	me.Get("/me", s.GetMe)
	me.Patch("/me", s.UpdateMe)
	me.Delete("/me", s.DeleteMe)
	me.Patch("/me/language", s.SetLanguage)

	users := protected.Group("/users")
	users.Get("/", s.SearchUsers)
	users.Get("/suggested", s.SuggestedUsers)
	// Specific /:username/:resource routes before the generic /:username
	users.Get("/:username/posts", s.GetUserPosts)
	users.Post("/:username/follow", middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.Follow)
	users.Post("/:username/unfollow", s.Unfollow)
	users.Get("/:username/followers", s.GetFollowers)
	users.Get("/:username/following", s.GetFollowing)
	users.Get("/:username", s.GetProfile)

	posts := protected.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/feed", s.GetFeed)
	posts.Get("/mine", s.GetMyPosts)
	posts.Post("/:id/like", s.LikePost)
	posts.Post("/:id/unlike", s.UnlikePost)
	posts.Get("/:id/likes", s.GetLikes)
	posts.Get("/:id/comments", s.GetComments)
	commentLimit := middleware.RateLimit(s.redis, 20, time.Minute, "create_comment")
	posts.Post("/:id/comments", commentLimit, s.CreateComment)
	posts.Post("/:id/comments/create", commentLimit, s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	protected.Delete("/comments/:id", s.DeleteComment)
	protected.Get("/home/feed", s.GetTopPosts)
	protected.Post("/ws/ticket", s.IssueWSTicket)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and redis answer. Redis being
// absent is reported but does not fail readiness.
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
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app, wires the notification hub and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.hub != nil && s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring", "hub", s.hub.Name(), "error", err)
			}
		}()
	}

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

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", "hub", s.hub.Name(), "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
