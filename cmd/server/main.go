package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"handbook-rag/internal/adapter/handbook_http"
	"handbook-rag/internal/di"
	"handbook-rag/internal/infra"
	"handbook-rag/internal/infra/config"
	"handbook-rag/internal/infra/logger"
	"handbook-rag/internal/infra/telemetry"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Telemetry
	shutdownTelemetry, err := telemetry.InitProvider(context.Background(), telemetry.Config{
		ServiceName:    "handbook-rag",
		ServiceVersion: os.Getenv("SERVICE_VERSION"),
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
	})
	if err != nil {
		slog.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			slog.Error("failed to shutdown telemetry", "error", err)
		}
	}()

	// 3. Initialize Logger
	log := logger.NewWithOTel(cfg.OTel.Enabled)
	slog.SetDefault(log)

	// 4. Initialize DB
	dbPool, err := infra.NewPostgresDB(context.Background(), cfg.DB.DSN())
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// 5. Wire components
	components := di.NewApplicationComponents(cfg, dbPool, log)

	// 6. Start Worker
	components.Worker.Start()
	defer func() {
		log.Info("Stopping worker...")
		components.Worker.Stop()
	}()

	// 7. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request_completed",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// 8. Register Handlers
	handler := handbook_http.NewHandler(
		components.RetrieveUsecase,
		components.AnswerUsecase,
		components.JobRepo,
	)
	handler.RegisterRoutes(e)

	// 9. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if err := dbPool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db down", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 10. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
