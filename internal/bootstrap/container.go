package bootstrap

import (
	"context"
	"fmt"
	"log"

	"dashboard-summarizer/internal/config"
	"dashboard-summarizer/internal/controller"
	"dashboard-summarizer/internal/handler"
	"dashboard-summarizer/internal/pkg/logger"
	"dashboard-summarizer/internal/pkg/serverutils"
	"dashboard-summarizer/internal/repository/contract"
	"dashboard-summarizer/internal/repository/implementation"
	"dashboard-summarizer/internal/repository/memory"
	"dashboard-summarizer/internal/service"
	"dashboard-summarizer/internal/session"
	"dashboard-summarizer/internal/websocket"
	"dashboard-summarizer/pkg/database"
	"dashboard-summarizer/pkg/exporter"
	"dashboard-summarizer/pkg/llm/factory"
	"dashboard-summarizer/pkg/looker"
	pktNats "dashboard-summarizer/pkg/nats"

	"github.com/redis/go-redis/v9"
)

// SummarizerContainer wires the summarization backend.
type SummarizerContainer struct {
	SummaryHandler *handler.SummaryHandler
	WebSocketHub   *websocket.Hub
	Logger         logger.ILogger
}

func NewSummarizerContainer(cfg *config.Config) *SummarizerContainer {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	summaryService := service.NewSummaryService(llmProvider, sysLogger)
	if cfg.Stream.JWTSecret == "" {
		log.Printf("[WARN] STREAM_JWT_SECRET is empty, websocket handshakes are not authenticated")
	}

	return &SummarizerContainer{
		SummaryHandler: handler.NewSummaryHandler(summaryService, wsHub, cfg.Stream.JWTSecret, wsLogger),
		WebSocketHub:   wsHub,
		Logger:         sysLogger,
	}
}

// SessionContainer wires one client session against a dashboard.
type SessionContainer struct {
	Controller *controller.SessionController
	Cache      service.IMetadataCache
	Feed       service.ISessionFeed
	Logger     logger.ILogger

	closers []func()
}

// NewSessionContainer builds the client side. Logs go to the file only so
// the terminal is left to the session feed.
func NewSessionContainer(ctx context.Context, cfg *config.Config) (*SessionContainer, error) {
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	c := &SessionContainer{Logger: sysLogger}

	store, closeStore, err := NewKeyValueStore(ctx, cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeStore)
	c.Cache = service.NewMetadataCache(store, sysLogger)

	lookerClient := looker.NewClient(ctx, cfg.Looker.BaseURL, cfg.Looker.ClientID, cfg.Looker.ClientSecret)
	metadataService := service.NewMetadataService(lookerClient, sysLogger)

	token := ""
	if cfg.Stream.JWTSecret != "" {
		token, err = serverutils.MintStreamToken(cfg.Stream.JWTSecret, "dashsum-cli", cfg.Stream.TokenTTL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("mint stream token: %w", err)
		}
	}
	transport := session.NewWebSocketTransport(cfg.Stream.URL, token, cfg.Stream.WriteTimeout)
	stream := session.NewStreamSession(transport, sysLogger)

	c.Feed = service.NewSessionFeed(sysLogger)
	c.closers = append(c.closers, func() { _ = c.Feed.Close() })

	exports := service.NewExportService(c.newExportRouter(cfg), sysLogger)

	c.Controller = controller.NewSessionController(controller.Options{
		Metadata:     metadataService,
		Cache:        c.Cache,
		Stream:       stream,
		Exports:      exports,
		Feed:         c.Feed,
		DismissDelay: cfg.Status.DismissDelay,
		Logger:       sysLogger,
	})
	return c, nil
}

func (c *SessionContainer) newExportRouter(cfg *config.Config) *exporter.Router {
	router := exporter.NewRouter()

	if cfg.Export.SlackBotToken != "" && cfg.Export.SlackChannelID != "" {
		router.Handle(exporter.Slack, exporter.NewSlackExporter(cfg.Export.SlackBotToken, cfg.Export.SlackChannelID))
	}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			c.Logger.Warn("Bootstrap", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
			return router
		}
		c.closers = append(c.closers, natsPub.Close)
		natsExporter := exporter.NewNatsExporter(natsPub)
		router.Handle(exporter.GoogleChat, natsExporter).Handle(exporter.Sheets, natsExporter)
	}
	return router
}

// Close releases everything the container opened, last opened first.
func (c *SessionContainer) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	_ = c.Logger.Sync()
}

// NewKeyValueStore opens the Cache Store backend selected by CACHE_DRIVER.
func NewKeyValueStore(ctx context.Context, cfg *config.Config, log logger.ILogger) (contract.KeyValueRepository, func(), error) {
	switch cfg.Cache.Driver {
	case "", "memory":
		return memory.NewKeyValueRepository(), func() {}, nil

	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return implementation.NewRedisKeyValueRepository(rdb, cfg.Cache.KeyPrefix), func() { _ = rdb.Close() }, nil

	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate cache table: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return implementation.NewGormKeyValueRepository(db), closeDB, nil
	}
	return nil, nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.Cache.Driver)
}
