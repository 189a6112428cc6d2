// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	_ "sudonet/docs" // swagger docs
	"sudonet/internal/cache"
	"sudonet/internal/composer"
	"sudonet/internal/config"
	"sudonet/internal/database"
	"sudonet/internal/middleware"
	"sudonet/internal/models"
	"sudonet/internal/notifications"
	"sudonet/internal/repository"
	"sudonet/internal/service"
	"sudonet/internal/session"
	"sudonet/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const composerSweepInterval = time.Minute

// wireableHub is implemented by every WebSocket hub that can be wired to
// the notifier and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.Limiter
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo       repository.UserRepository
	profileRepo    repository.UserInfoRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	streetCredRepo repository.StreetCredRepository

	store     *storage.Store
	notifier  *notifications.Notifier
	feedHub   *notifications.FeedHub
	hubs      []wireableHub
	composers *composer.Registry

	credentialService *service.CredentialService
	postService       *service.PostService
	commentService    *service.CommentService
	streetCredService *service.StreetCredService
	feedService       *service.FeedService
	profileService    *service.ProfileService
	fingerprinter     *service.Fingerprinter
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	// A missing DATABASE_URL yields a nil db and the not-configured mode.
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests and the seed tool use it with their own DB and Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	backend := database.Backend(cfg, db)
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("sudonet-api"),
		limiter:        middleware.NewLimiter(redisClient, cfg.Env),
		userRepo:       repository.NewUserRepository(backend),
		profileRepo:    repository.NewUserInfoRepository(backend),
		postRepo:       repository.NewPostRepository(backend),
		commentRepo:    repository.NewCommentRepository(backend),
		streetCredRepo: repository.NewStreetCredRepository(backend),
		store:          storage.New(cfg),
		notifier:       notifications.NewNotifier(redisClient),
		feedHub:        notifications.NewFeedHub(),
	}
	s.hubs = []wireableHub{s.feedHub}

	s.credentialService = service.NewCredentialService(s.userRepo, s.profileRepo, redisClient, cfg.JWTSecret)
	s.postService = service.NewPostService(s.postRepo, s.notifier)
	s.commentService = service.NewCommentService(s.commentRepo, s.notifier)
	s.streetCredService = service.NewStreetCredService(s.streetCredRepo, s.notifier)
	s.feedService = service.NewFeedService(s.postRepo, s.profileRepo, s.userRepo)
	s.profileService = service.NewProfileService(s.profileRepo, s.userRepo, s.store)
	s.fingerprinter = service.NewFingerprinter(cfg.FingerprintSecret)
	s.composers = composer.NewRegistry(func() *composer.Composer {
		return composer.New(s.postService, s.store, composer.WithOrigin(service.OriginComposer))
	}, composer.DefaultIdleTimeout)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Propagates request ID and trace ID into the user context for the logger.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Stored images are embedded by the web client from another origin.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Client-Fingerprint, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
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

	// Uploaded objects
	app.Get("/storage/:bucket/*", s.ServeObject)

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", s.limiter.Handler(middleware.SignupRule), s.Signup)
	auth.Post("/login", s.limiter.Handler(middleware.LoginRule), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	feed := api.Group("/feed")
	feed.Get("/trending", s.GetTrending)
	feed.Get("/recent", s.GetRecent)
	feed.Get("/search", s.SearchFeed)
	feed.Get("/devs", s.GetDevs)

	posts := api.Group("/posts")
	posts.Get("/", s.GetTrending)
	posts.Post("/", s.limiter.Handler(middleware.PostRule), s.CreatePost)
	posts.Get("/:id", s.GetPost)
	posts.Post("/:id/view", s.TrackView)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.limiter.Handler(middleware.CommentRule), s.CreateComment)
	posts.Get("/:id/creds", s.GetStreetCredStatus)
	posts.Post("/:id/creds", s.limiter.Handler(middleware.StreetCredRule), s.ToggleStreetCred)

	api.Get("/archetypes", s.GetArchetypes)

	profiles := api.Group("/profiles")
	profiles.Get("/:handle", s.GetProfile)
	profiles.Get("/:handle/edit", s.AuthRequired(), s.GetProfileEdit)
	profiles.Put("/:handle", s.AuthRequired(), s.UpdateProfile)

	composers := api.Group("/composer")
	composers.Post("/", s.OpenComposer)
	composers.Get("/:id", s.GetComposer)
	composers.Post("/:id/input", s.ComposerInput)
	composers.Post("/:id/image", s.ComposerImage)
	composers.Delete("/:id", s.CloseComposer)

	api.Post("/images", s.limiter.Handler(middleware.ImageRule), s.UploadImage)

	ws := api.Group("/ws")
	ws.Use(s.requireUpgrade)
	ws.Get("/feed", s.WebSocketFeedHandler())
}

// LivenessCheck handles GET /health/live
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles GET /health/ready. An unconfigured backend is
// reported but still ready: reads degrade to empty results.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "not_configured"
	if s.db != nil {
		dbStatus = "healthy"
		sqlDB, err := s.db.DB()
		if err != nil {
			dbStatus = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			dbStatus = "unhealthy"
		}
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":     overallStatus,
		"configured": s.config.Configured() && s.db != nil,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"storage":  s.store.Configured(),
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		id, err := s.credentialService.VerifyToken(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		s.attachIdentity(c, id)
		return c.Next()
	}
}

// optionalUser resolves the caller from the Authorization header but does not enforce it.
func (s *Server) optionalUser(c *fiber.Ctx) *session.Identity {
	if id, ok := c.Locals("identity").(*session.Identity); ok {
		return id
	}
	tokenString := bearerToken(c)
	if tokenString == "" {
		return nil
	}
	id, err := s.credentialService.VerifyToken(c.UserContext(), tokenString)
	if err != nil {
		return nil
	}
	s.attachIdentity(c, id)
	return id
}

func (s *Server) attachIdentity(c *fiber.Ctx, id *session.Identity) {
	c.Locals("identity", id)
	c.Locals("userID", id.UserID)
	// Sync to UserContext for logging and downstream services
	ctx := middleware.WithUserID(c.UserContext(), id.UserID)
	c.SetUserContext(session.WithIdentity(ctx, id))
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// App builds the Fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "sudonet API",
		BodyLimit: int(s.store.MaxBytes(storage.BucketPostImages)) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	for _, h := range s.hubs {
		h := h
		go func() {
			if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", h.Name(), err)
			}
		}()
	}
	go s.composers.Run(s.shutdownCtx, composerSweepInterval)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	// Let pending street cred reconciliations publish before Redis closes.
	s.streetCredService.Wait()

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				log.Printf("error closing sql DB: %v", cerr)
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
