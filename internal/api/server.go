package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/illegalcall/storefront-mailer/internal/config"
	"github.com/illegalcall/storefront-mailer/internal/email"
	"github.com/illegalcall/storefront-mailer/internal/models"
	"github.com/illegalcall/storefront-mailer/internal/subscriber"
)

type Server struct {
	app        *fiber.App
	cfg        *config.Config
	dispatcher *email.Dispatcher
	store      subscriber.Store
	recorder   subscriber.Recorder
	logger     *slog.Logger
}

// NewServer wires the HTTP surface. store may be nil when subscriber
// storage is disabled; recorder must not be nil.
func NewServer(cfg *config.Config, dispatcher *email.Dispatcher, store subscriber.Store, recorder subscriber.Recorder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:      "storefront-mailer",
		ErrorHandler: errorHandler(log),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	}))

	server := &Server{
		app:        app,
		cfg:        cfg,
		dispatcher: dispatcher,
		store:      store,
		recorder:   recorder,
		logger:     log,
	}

	// Routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	api := s.app.Group("/api")

	// Public routes
	api.Get("/health", s.handleHealth)
	api.Get("/email", s.handleEmailCheck)
	api.Post("/email", s.handleSendEmail)
	api.Post("/newsletter/unsubscribe", s.handleUnsubscribe)

	// Protected routes
	admin := api.Group("/admin", s.requireAdmin())
	admin.Get("/subscribers", s.handleListSubscribers)
}

func (s *Server) Start() error {
	s.logger.Info("🚀 Starting HTTP server", "port", s.cfg.Server.Port)
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:    "OK",
		Message:   s.cfg.Brand.Name + " mailer is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error("Unhandled request error", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
