// Package server contains the HTTP handlers for the messenger API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "messenger/docs" // swagger docs
	"messenger/internal/auth"
	"messenger/internal/cache"
	"messenger/internal/config"
	"messenger/internal/middleware"
	"messenger/internal/models"
	"messenger/internal/observability"
	"messenger/internal/repository"
	"messenger/internal/service"
	"messenger/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	images         storage.ImageStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.Tokens

	friendService  *service.FriendService
	roomService    *service.RoomService
	messageService *service.MessageService
	userService    *service.UserService
}

// NewServer creates a Server over already-initialized dependencies. redisClient
// may be nil, in which case caching, revocation and rate limiting are off.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images storage.ImageStore) *Server {
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL())
	avatars := service.NewAvatarService(images, cfg.AvatarSize, cfg.MaxUploadBytes())

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		images:         images,
		promMiddleware: middleware.InitMetrics("messenger-api"),
		tokens:         tokens,
		friendService:  service.NewFriendService(friendRepo, userRepo),
		roomService:    service.NewRoomService(roomRepo, userRepo),
		messageService: service.NewMessageService(messageRepo, roomRepo),
		userService:    service.NewUserService(userRepo, tokens, avatars, auth.HashPassword, auth.PasswordMatches),
	}
}

// App builds the fiber application with middleware and routes. It is
// built once and reused.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := int(s.config.MaxUploadBytes()) + 1024*1024
	app := fiber.New(fiber.Config{
		AppName:      "Messenger API",
		BodyLimit:    bodyLimit,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// errorHandler renders anything a handler returned as the standard error body.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.RespondWithError(c, fe.Code, &models.AppError{Code: codeForStatus(fe.Code), Message: fe.Message})
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return respondError(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusTooManyRequests:
		return middleware.CodeRateLimited
	}
	if status < 500 {
		return models.CodeValidation
	}
	return models.CodeInternal
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// after requestid and tracing so both ids reach the context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		middleware.MountMetrics(app, s.promMiddleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// fiber rejects credentials with a wildcard origin
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	if s.config.RateLimitPerMinute > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        s.config.RateLimitPerMinute,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
					Error: "Too many requests, please try again later.",
					Code:  middleware.CodeRateLimited,
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if disk, ok := s.images.(*storage.DiskStore); ok && isLocalPath(s.config.ImageBaseURL) {
		app.Static(s.config.ImageBaseURL, disk.Dir())
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Messenger API Metrics Dashboard",
	}))

	api.Post("/signup", middleware.RateLimit(s.redis, 5, 10*time.Minute, "signup"), s.Signup)
	api.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/re-login", s.Relogin)
	protected.Post("/logout", s.Logout)

	requests := protected.Group("/friend-requests")
	requests.Post("/", middleware.RateLimit(s.redis, 20, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	requests.Get("/received", s.ListReceivedRequests)
	requests.Get("/sent", s.ListSentRequests)
	requests.Post("/:id/accept", s.AcceptFriendRequest)
	requests.Delete("/:id", s.DeleteFriendRequest)

	friends := protected.Group("/friends")
	friends.Get("/", s.ListFriends)
	friends.Delete("/:id", s.RemoveFriend)

	rooms := protected.Group("/message-rooms")
	rooms.Post("/", s.CreateRoom)
	rooms.Get("/", s.ListRooms)
	// specific /:id/... routes before the generic /:id
	rooms.Post("/:id/members", s.AddRoomMembers)
	rooms.Delete("/:id/members/me", s.LeaveRoom)
	rooms.Put("/:id/name", s.RenameRoom)
	rooms.Get("/:id", s.GetRoom)

	messages := protected.Group("/messages")
	messages.Post("/:roomId", middleware.RateLimit(s.redis, 60, time.Minute, "post_message"), s.PostMessage)
	messages.Get("/:roomId", s.ListMessages)

	user := protected.Group("/user")
	user.Get("/", s.GetAccount)
	user.Put("/username", s.ChangeUsername)
	user.Put("/email", s.ChangeEmail)
	user.Put("/password", s.ChangePassword)
	user.Put("/profile-img", middleware.RateLimit(s.redis, 10, 10*time.Minute, "avatar"), s.ChangeAvatar)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional; when it
// is not configured it does not affect readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
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
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired verifies the bearer token and stores the caller in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := auth.BearerToken(c.Get("Authorization"))
		if !ok {
			return respondError(c, models.NewUnauthenticatedError(false))
		}

		claims, err := s.tokens.Verify(raw)
		if err != nil {
			observability.AuthEvents.WithLabelValues("verify", "failure").Inc()
			return respondError(c, models.NewUnauthenticatedError(errors.Is(err, auth.ErrTokenMissing)))
		}

		// A cache outage must not lock everyone out, so revocation fails open.
		revoked, err := cache.IsRevoked(c.UserContext(), claims.TokenID)
		if err != nil {
			observability.Logger.WarnContext(c.UserContext(), "revocation check failed", slog.String("error", err.Error()))
		}
		if revoked {
			return respondError(c, models.NewUnauthenticatedError(false))
		}

		c.Locals("userID", claims.UserID)
		c.Locals("claims", claims)
		c.SetUserContext(observability.WithUserID(c.UserContext(), claims.UserID))
		return c.Next()
	}
}

// Start listens on the configured port until the app is shut down.
func (s *Server) Start() error {
	app := s.App()
	observability.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and closes the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if err := cache.Close(); err != nil {
		observability.Logger.Error("error closing redis", slog.String("error", err.Error()))
	}

	observability.Logger.Info("Server shutdown complete")
	return nil
}
