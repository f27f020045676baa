package handler

import (
	"time"

	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/internal/pkg/serverutils"
	"dashboard-summarizer/internal/service"
	internalWS "dashboard-summarizer/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type SummaryHandler struct {
	service   service.ISummaryService
	hub       *internalWS.Hub
	jwtSecret string
	startedAt time.Time
	logger    logger.ILogger
}

// NewSummaryHandler serves the summarization websocket. An empty jwtSecret
// disables the handshake token check.
func NewSummaryHandler(svc service.ISummaryService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *SummaryHandler {
	return &SummaryHandler{
		service:   svc,
		hub:       hub,
		jwtSecret: jwtSecret,
		startedAt: time.Now(),
		logger:    log,
	}
}

func (h *SummaryHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", h.Health)
	r.Get("/ws", h.ServeWs)
}

func (h *SummaryHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"connections": h.hub.Count(),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// ServeWs authenticates the handshake and hands the upgraded connection to the hub.
func (h *SummaryHandler) ServeWs(c *fiber.Ctx) error {
	var subject string
	if h.jwtSecret != "" {
		tokenStr := serverutils.BearerToken(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
		}

		claims, err := serverutils.ParseStreamToken(h.jwtSecret, tokenStr)
		if err != nil {
			h.logger.Warn("SummaryHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		subject = claims.Subject
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("SummaryHandler", "Starting WebSocket session", map[string]interface{}{"subject": subject})
		internalWS.ServeWs(h.hub, conn, subject, h.service)
		h.logger.Info("SummaryHandler", "WebSocket session ended", map[string]interface{}{"subject": subject})
	})(c)
}
