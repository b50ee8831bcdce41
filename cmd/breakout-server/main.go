// Package main runs the session HTTP API. Each session owns one
// orchestrator; clients drive it with form edits and actions and poll the
// resulting view state.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"breakout-desk/config"
	"breakout-desk/internal/api"
	"breakout-desk/internal/app"
	"breakout-desk/observability"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadFile(os.Getenv("BREAKOUT_CONFIG"))
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Logging.Level))
	observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.NewFromConfig(cfg)
	application.Startup(context.Background())

	handler := api.NewHandler(application, cfg)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		observability.Info("starting session API",
			"addr", cfg.HTTP.Addr,
			"strategy_service", cfg.StrategyAPI.BaseURL,
			"circuit_breaker", cfg.Breaker.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	observability.Info("shutting down session API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("session API stopped")
}
