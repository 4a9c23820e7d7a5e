package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/gofiber/swagger"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/blogcaster/api/docs"
	"github.com/blogcaster/api/internal/client"
	"github.com/blogcaster/api/internal/config"
	"github.com/blogcaster/api/internal/content"
	"github.com/blogcaster/api/internal/handler"
	"github.com/blogcaster/api/internal/metrics"
	"github.com/blogcaster/api/internal/middleware"
	applog "github.com/blogcaster/api/internal/platform/logger"
	"github.com/blogcaster/api/internal/repository"
	"github.com/blogcaster/api/internal/service"
	"github.com/blogcaster/api/internal/storage"
	ws "github.com/blogcaster/api/internal/websocket"
	"github.com/blogcaster/api/internal/worker"
)

// @title          Blogcaster API
// @version        1.0
// @description    Turns blog posts into short spoken podcasts.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Type "Bearer" followed by a space and the JWT token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := applog.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	slog.SetDefault(log)

	creds := cfg.Credentials()
	if warning := creds.Warning(); warning != "" {
		log.Warn(warning, "missing", creds.Missing())
	}

	// Configure Swagger host/scheme based on environment
	if cfg.Server.APIDomain != "" {
		docs.SwaggerInfo.Host = cfg.Server.APIDomain
		docs.SwaggerInfo.Schemes = []string{"https"}
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
		docs.SwaggerInfo.Schemes = []string{"http"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis not available", "error", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	// Initialize external clients
	firecrawl := client.NewFirecrawlClient(&cfg.Firecrawl)
	gemini := client.NewGeminiClient(&cfg.Gemini)
	elevenLabs := client.NewElevenLabsClient(&cfg.ElevenLabs)

	podcastMetrics := metrics.New()
	opts := []service.PodcastOption{
		service.WithLogger(log),
		service.WithMetrics(podcastMetrics),
	}

	// R2 mirror (optional - local files are authoritative)
	var r2 *client.R2Mirror
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2, err = client.NewR2Mirror(ctx, &cfg.R2)
		if err != nil {
			log.Warn("R2 mirror not initialized", "error", err)
		} else {
			opts = append(opts, service.WithMirror(r2))
		}
	} else {
		log.Info("R2 storage not configured, keeping podcasts on local disk only")
	}

	// Episode catalog (optional)
	var episodes handler.EpisodeLister
	var dbPinger handler.Pinger
	if cfg.Database.URL != "" {
		repo, err := repository.NewEpisodeRepository(ctx, repository.PostgresConfig{
			DSN:          cfg.Database.URL,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			ConnMaxLife:  30 * time.Minute,
		})
		if err != nil {
			log.Warn("episode catalog not initialized", "error", err)
		} else {
			defer repo.Close()
			opts = append(opts, service.WithCatalog(repo))
			episodes = repo
			dbPinger = repo
		}
	}

	// Initialize services
	extractor := content.NewExtractor(firecrawl)
	scriptService := service.NewScriptService(gemini, &cfg.Pipeline)
	store := storage.NewOSFileStore(cfg.Pipeline.OutputDir)
	podcastService := service.NewPodcastService(creds, &cfg.Pipeline, extractor, scriptService, elevenLabs, store, opts...)
	jobService := service.NewJobService(redisClient, asynqClient)

	// Initialize handlers
	podcastHandler := handler.NewPodcastHandler(podcastService, jobService, store, episodes, creds, validate)
	healthHandler := handler.NewHealthHandler(
		creds,
		handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		dbPinger,
		r2 != nil,
		cfg.Auth.Enabled,
	)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.Enabled, cfg.Auth.JWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024,
		// Synchronous generation waits on three providers
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Pipeline.ExtractTimeout + 2*cfg.Pipeline.GenerateTimeout + 30*time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(podcastMetrics.Handler()))
	app.Get("/swagger/*", fiberSwagger.HandlerDefault)

	// Audio elements cannot send bearer tokens, so files are public
	app.Get("/api/podcasts/files/:name", podcastHandler.File)

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	podcasts := api.Group("/podcasts")
	podcasts.Post("/", rateLimiter.PodcastLimit(cfg.RateLimit.PodcastsPerHour), podcastHandler.Start)
	podcasts.Post("/generate", rateLimiter.PodcastLimit(cfg.RateLimit.PodcastsPerHour), podcastHandler.Generate)
	podcasts.Get("/status/:jobId", podcastHandler.Status)
	podcasts.Get("/result/:jobId", podcastHandler.Result)
	podcasts.Get("/episodes", podcastHandler.Episodes)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		snapCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		snapshot := handler.JobSnapshot(snapCtx, jobService, jobID)
		cancel()
		hub.HandleConnection(c, jobID, snapshot)
	}))

	// Start Asynq worker server
	podcastWorker := worker.NewPodcastWorker(podcastService, jobService, hub, log, worker.WithArtifactRemover(store))
	workerServer := startWorkerServer(cfg, redisOpt, podcastWorker, log)

	go func() {
		<-ctx.Done()
		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Info("server starting", "addr", addr, "credentials", creds.Loaded())
	if err := app.Listen(addr); err != nil {
		log.Error("server error", "error", err)
	}

	if workerServer != nil {
		workerServer.Shutdown()
	}
}

func startWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt, podcastWorker *worker.PodcastWorker, log *slog.Logger) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Queues: map[string]int{
			service.QueuePodcast: 1,
		},
		LogLevel: asynqLogLevel,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypePodcast, podcastWorker.ProcessTask)

	if err := srv.Start(mux); err != nil {
		log.Error("asynq worker error", "error", err)
		return nil
	}
	return srv
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
