package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adboard/docs/swagger"
	"adboard/internal/api"
	"adboard/internal/config"
	"adboard/internal/db"
	"adboard/internal/handlers"
	"adboard/internal/models"
	"adboard/internal/services"
	"adboard/internal/tasks"
	"adboard/internal/tasks/rate"
	"adboard/internal/utils/logger"

	"github.com/joho/godotenv"
)

// @title Adboard API
// @version 1.0
// @description Recruitment ad management API
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {

	logger := logger.New("adboard")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Fatalf("Failed to close database connection: %v", err)
		}
	}()

	db_instance := db.GetDB()

	// Outbound mail, with log fallback when SMTP is not configured
	mailer := services.NewSMTPMailer(cfg.SMTP)

	notifier := services.NewNotifier(db_instance, mailer, cfg)
	notifier.Register()

	// Initialize task client for the manual digest trigger
	taskClient := tasks.NewTaskClient(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	defer taskClient.Close()

	// Cap digest mail throughput per provider limits
	mailLimiter := rate.NewQueueRateLimiter(taskClient.GetRedis(), rate.QueueConfig{
		Name: "mail",
		RateLimit: rate.RateLimit{
			Window:  time.Minute,
			MaxJobs: 60,
		},
	})

	// Initialize task handlers
	taskHandler := tasks.NewTaskHandler(db_instance, mailer, mailLimiter)

	// Initialize task server
	taskServer := tasks.NewServer(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		taskHandler,
		logger,
	)

	// Create a context for task server
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	// Start task server
	go func() {
		if err := taskServer.Start(serverCtx); err != nil {
			logger.Error("Task server error", err)
		}
	}()

	// Initialize task scheduler
	taskScheduler := tasks.NewScheduler(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Digest.Schedule,
		logger,
	)

	// Start task scheduler
	go func() {
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler error", err)
		}
	}()

	// Initialize API server
	apiServer := api.NewServer(cfg, db_instance, mailer, taskClient)
	go func() {

		// Avatar storage is optional; without it uploads are rejected
		if cfg.Storage.S3.BucketName != "" {
			s3Service, err := services.NewS3Service(
				cfg.Storage.S3.BucketName,
				cfg.Storage.S3.Endpoint,
				cfg.Storage.S3.Region,
				cfg.Storage.S3.AccessKey,
				cfg.Storage.S3.SecretKey,
			)
			if err != nil {
				log.Fatalf("Failed to initialize S3 service: %v", err)
			}

			// Register the URL generator
			models.RegisterFileURLGenerator(s3Service)
			handlers.RegisterStorageHandler(s3Service)
		} else {
			logger.Warn("S3 not configured, avatar uploads disabled")
		}

		logger.Success("API server started")

		// Swagger documentation
		swagger.SwaggerInfo.Title = "Adboard API Documentation"
		swagger.SwaggerInfo.Description = "Recruitment ad management API"
		swagger.SwaggerInfo.Version = "1.0"
		swagger.SwaggerInfo.Host = cfg.Server.PublicURL
		swagger.SwaggerInfo.Schemes = []string{"http", "https"}

		if err := apiServer.Start(); err != nil {
			logger.Error("API server error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop task scheduler
	taskScheduler.Stop()

	// Stop task server
	serverCancel()
	taskServer.Shutdown()

	// Shutdown API server
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}

	logger.Info("Servers shutdown gracefully")
}
