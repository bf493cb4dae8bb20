package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/routers"
	"lms/storage"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	if err := logger.Init(cfg.AppEnv); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()

	database.ConnectDb()

	store, err := storage.NewFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize media storage", "driver", cfg.MediaDriver, "error", err)
	}
	storage.Media = store
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	utils.InitMailer(cfg)

	scheduler, err := utils.InitializeMediaCleanupScheduler()
	if err != nil {
		logger.Log.Fatal("Failed to start media cleanup scheduler", "error", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    (cfg.MediaMaxUploadMB + 1) << 20,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Origins(), ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders:     "Content-Type,Authorization,X-Device-Id",
		AllowCredentials: true,
	}))

	// Access log goes through zap
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${ip} ${method} ${path} ${status} ${latency}\n",
		Output: logger.Log,
	}))

	// Uploaded files are served locally when media lives on disk
	if disk, ok := store.(*storage.DiskStore); ok && strings.HasPrefix(cfg.MediaPublicBaseURL, "/") {
		app.Static(cfg.MediaPublicBaseURL, disk.Dir())
	}

	routers.Setup(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		logger.Log.Info("Shutting down")
		<-scheduler.Stop().Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("Error during shutdown", "error", err)
		}
	}()

	logger.Log.Info("Server is running", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server stopped", "error", err)
	}
}
