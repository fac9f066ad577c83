package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/tubefetch/api/internal/config"
	"github.com/tubefetch/api/internal/extractor"
	"github.com/tubefetch/api/internal/handler"
	"github.com/tubefetch/api/internal/middleware"
	"github.com/tubefetch/api/internal/reaper"
	"github.com/tubefetch/api/internal/registry"
	"github.com/tubefetch/api/internal/runner"
	"github.com/tubefetch/api/internal/sandbox"
	"github.com/tubefetch/api/internal/transcoder"
	ws "github.com/tubefetch/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Scratch directory for all artifacts
	sb, err := sandbox.New(cfg.Download.Dir)
	if err != nil {
		log.Fatalf("Failed to create sandbox: %v", err)
	}
	log.Printf("Created temp download directory at: %s", sb.Root())

	// Initialize Redis client (rate-limit counters only)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis not available, rate limiting disabled: %v", err)
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Job registry and runner
	reg := registry.New()
	run := runner.New(
		reg,
		sb,
		extractor.NewYTDLP(cfg.Download.YTDLPPath),
		transcoder.NewFFmpeg(cfg.Download.FFmpegPath),
		hub,
		runner.Limits{
			MaxFileSize:         cfg.Download.MaxFileSizeMB * 1024 * 1024,
			SocketTimeout:       time.Duration(cfg.Download.SocketTimeoutSec) * time.Second,
			Retries:             cfg.Download.Retries,
			FragmentConcurrency: cfg.Download.FragmentConcurrency,
		},
	)

	// Handlers and middleware
	downloadHandler := handler.NewDownloadHandler(reg, sb, run, validate)
	rateLimiter := middleware.NewRateLimiter(redisClient, cfg.RateLimit)

	log.Printf("Rate Limiting Configured:")
	log.Printf("  Default: %d per minute", cfg.RateLimit.DefaultPerMin)
	log.Printf("  /start_download: %d per minute", cfg.RateLimit.StartPerMin)
	log.Printf("  /download_file: %d per minute", cfg.RateLimit.DownloadFilePerMin)

	// Background reaper for aged sandbox files
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	sweep := reaper.New(
		sb,
		time.Duration(cfg.Reaper.RetentionMin)*time.Minute,
		time.Duration(cfg.Reaper.IntervalMin)*time.Minute,
		time.Duration(cfg.Reaper.ErrorBackoffSec)*time.Second,
	)
	go sweep.Run(reaperCtx)
	log.Println("Started temp folder cleanup loop")

	// Initialize Fiber app
	isProduction := strings.EqualFold(cfg.Server.Env, "production")
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: isProduction,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	app.Get("/", handler.Index)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/start_download", rateLimiter.StartLimit(cfg.RateLimit.StartPerMin), downloadHandler.Start)
	app.Get("/download_status/:id", rateLimiter.DefaultLimit(cfg.RateLimit.DefaultPerMin), downloadHandler.Status)
	app.Get("/download_file/:id", rateLimiter.FileLimit(cfg.RateLimit.DownloadFilePerMin), downloadHandler.File)
	app.Get("/cancel_download/:id", rateLimiter.DefaultLimit(cfg.RateLimit.DefaultPerMin), downloadHandler.Cancel)

	// WebSocket progress channel
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/progress/:id", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("id"))
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		stopReaper()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	mode := "development"
	if isProduction {
		mode = "production"
	}
	log.Printf("Starting %s server on %s", mode, addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
	})
}
