package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	database "github.com/FACorreiaa/go-parisian-doors/app/db"
	appLogger "github.com/FACorreiaa/go-parisian-doors/app/logger"
	appMiddleware "github.com/FACorreiaa/go-parisian-doors/app/middleware"
	"github.com/FACorreiaa/go-parisian-doors/app/tracer"
	"github.com/FACorreiaa/go-parisian-doors/config"
	"github.com/FACorreiaa/go-parisian-doors/internal/container"
	api "github.com/FACorreiaa/go-parisian-doors/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := appLogger.Setup(os.Getenv("APP_ENV"), os.Stdout)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers, err := tracer.InitTracingAndMetrics()
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.Any("error", err))
		os.Exit(1)
	}

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}
	// Migrations run before the main pool is opened.
	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	c, err := container.NewContainer(&cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	waitCtx, waitCancel := context.WithTimeout(ctx, dbConfig.MaxConnWait+5*time.Second)
	ready := c.WaitForDB(waitCtx)
	waitCancel()
	if !ready {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	go c.Warmup(ctx)

	router := api.SetupRouter(&api.Config{
		Logger:                 logger,
		LocationHandler:        c.LocationHandler,
		GeocodingHandler:       c.GeocodingHandler,
		DoorHandler:            c.DoorHandler,
		AuthenticateMiddleware: appMiddleware.Authenticate([]byte(cfg.Auth.JWTSecret)),
		MetricsHandler:         providers.Handler(),
		Timeout:                cfg.Server.Timeout,
		AdminTimeout:           cfg.Server.AdminTimeout,
	})

	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:        serverAddress,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		// The admin batches stream nothing until the summary is ready.
		WriteTimeout: cfg.Server.AdminTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Telemetry shutdown failed", slog.Any("error", err))
	}
	logger.Info("Application shut down complete.")
}
