package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postsync/configs"
	"github.com/maheshrc27/postsync/internal/api/handlers"
	"github.com/maheshrc27/postsync/internal/api/middleware"
	job "github.com/maheshrc27/postsync/internal/jobs"
	"github.com/maheshrc27/postsync/internal/queue"
	"github.com/maheshrc27/postsync/internal/repository"
	"github.com/maheshrc27/postsync/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	if cfg.AutoMigrate {
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("Database schema is up to date")
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postResultRepo := repository.NewPostResultRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	gatewayService := service.NewGatewayService(*cfg)
	recorderService := service.NewRecorderService(socialAccountRepo, postResultRepo)
	publisherService := service.NewPublisherService(gatewayService, recorderService, postRepo)
	analyticsService := service.NewAnalyticsService(gatewayService, postRepo, analyticsRepo, cfg.Analytics.CaptureWindow)
	postService := service.NewPostService(db, postRepo, taskRepo, postResultRepo, cfg.Dispatch.MaxAttempts)
	mediaService := service.NewMediaService(service.NewR2Service(*cfg))

	schedulerJob := job.NewPostSchedulerJob(taskRepo, postRepo, publisherService, cfg.Dispatch.BatchSize, cfg.Dispatch.StaleTaskTimeout)
	analyticsJob := job.NewAnalyticsSyncJob(postRepo, analyticsService, cfg.Analytics.DaysBack, cfg.Analytics.Limit)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	cronHandler := handlers.NewCronHandler(schedulerJob, analyticsJob, cfg.Dispatch.BatchSize)
	internal := app.Group("/internal/cron", authMiddleware.CronAuth())
	internal.Post("/post-scheduler", cronHandler.PostScheduler)
	internal.Post("/analytics-sync", cronHandler.AnalyticsSync)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, analyticsService, client, cfg.Analytics.DaysBack, cfg.Analytics.Limit)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Get("/posts/:id/results", post.Results)
	api.Get("/posts/:id/analytics", post.Analytics)
	api.Post("/posts/:id/analytics/sync", post.SyncPostAnalytics)
	api.Post("/analytics/sync", post.SyncAllAnalytics)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.Upload)

	// cron jobs
	c := cron.New()
	if cfg.Dispatch.InternalCron {
		if err := c.AddFunc(fmt.Sprintf("@every %s", cfg.Dispatch.Interval), schedulerJob.Run); err != nil {
			log.Fatalf("Invalid dispatch interval: %v", err)
		}
		if err := c.AddFunc(fmt.Sprintf("@every %s", cfg.Analytics.Interval), analyticsJob.Run); err != nil {
			log.Fatalf("Invalid analytics interval: %v", err)
		}
		c.Start()
		log.Printf("Internal cron enabled: dispatch every %s, analytics every %s", cfg.Dispatch.Interval, cfg.Analytics.Interval)
	}

	//queue
	queueW := queue.NewQueue(schedulerJob, analyticsService, cfg.Dispatch.BatchSize)

	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
	})
	go func() {
		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeDrain, queueW.HandleDrainTask)
		mux.HandleFunc(queue.TaskTypeAnalyticsSync, queueW.HandleAnalyticsSyncTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(app, server, c, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()
	server.Shutdown()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
