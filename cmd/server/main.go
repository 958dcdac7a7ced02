package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/keywordpulse/backend/internal/api/handlers"
	"github.com/keywordpulse/backend/internal/cache/redis"
	"github.com/keywordpulse/backend/internal/export"
	"github.com/keywordpulse/backend/internal/metrics"
	"github.com/keywordpulse/backend/internal/middleware/ratelimit"
	"github.com/keywordpulse/backend/internal/middleware/validation"
	"github.com/keywordpulse/backend/internal/scan"
	"github.com/keywordpulse/backend/internal/scoring"
	"github.com/keywordpulse/backend/internal/source/reddit"
	"github.com/keywordpulse/backend/pkg/config"
	appLogger "github.com/keywordpulse/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting KeywordPulse API Server")

	metrics.Init()

	var pageCache *redis.Client
	if cfg.Cache.Enabled {
		pageCache, err = redis.NewClient(
			cfg.Cache.Host,
			cfg.Cache.Port,
			cfg.Cache.Password,
			cfg.Cache.DB,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer pageCache.Close()
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Source.TimeoutSec) * time.Second,
	}
	sourceClient := reddit.NewClient(httpClient, cfg.Source.BaseURL, cfg.Source.UserAgent, pageCache)

	engine := scoring.NewDefaultEngine(scoring.Config{
		NeutralBand:         cfg.Scoring.NeutralBand,
		DecayConstant:       cfg.Scoring.DecayConstant,
		RelevanceSaturation: cfg.Scoring.RelevanceSaturation,
		TitleWeight:         cfg.Scoring.TitleWeight,
		SpamMediumThreshold: cfg.Scoring.SpamMediumThreshold,
		SpamHighThreshold:   cfg.Scoring.SpamHighThreshold,
	})

	service := scan.NewService(sourceClient, cfg.Source.RequestsPerSecond, engine, scan.Limits{
		MaxResultsCap:  cfg.Scan.MaxResultsCap,
		DefaultResults: cfg.Scan.DefaultResults,
		PageSize:       cfg.Source.PageSize,
		EmptyPageLimit: cfg.Scan.EmptyPageLimit,
		MaxRetries:     cfg.Source.MaxRetries,
		Concurrency:    cfg.Scan.Concurrency,
		DeadlineSec:    cfg.Scan.DeadlineSec,
	}, appLogger.Named("scan"))

	if err := os.MkdirAll(cfg.Export.Dir, 0o755); err != nil {
		appLogger.Fatal("Failed to create export directory", zap.Error(err))
	}
	exportManager := export.NewManager(cfg.Export.Dir, appLogger.Named("export"),
		export.NewExcelExporter(),
		export.NewSQLiteExporter(),
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RequestsPerMinute,
		Logger:               appLogger.Log,
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxBodySize: cfg.Server.BodyLimit,
		Logger:      appLogger.Log,
	}))

	searchHandler := handlers.NewSearchHandler(service, exportManager)
	wsHandler := handlers.NewWebSocketHandler(service)

	api := app.Group("/api/v1")

	api.Post("/search", searchHandler.HandleSearch)
	api.Get("/search/formats", searchHandler.HandleFormats)

	api.Use("/search/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/search/stream", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
