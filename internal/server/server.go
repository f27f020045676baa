package server

import (
	"log"

	"dashboard-summarizer/internal/bootstrap"
	"dashboard-summarizer/internal/config"
	"dashboard-summarizer/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.SummarizerContainer
}

func New(cfg *config.Config, container *bootstrap.SummarizerContainer) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ErrorHandler: serverutils.ErrorHandler,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Summarizer is listening on :%s (websocket at /api/ws)", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

// Shutdown stops accepting connections and closes the live websocket sessions.
func (s *Server) Shutdown() error {
	s.container.WebSocketHub.Stop()
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.SummarizerContainer) {
	api := app.Group("/api")

	c.SummaryHandler.RegisterRoutes(api)
}
