// Package main provides a standalone HTTP server for E2E testing.
// It serves the session API wired to an in-process fake of the strategy
// service, so browser or script driven tests need no network access.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"breakout-desk/config"
	"breakout-desk/e2e/mocks"
	"breakout-desk/internal/api"
	"breakout-desk/internal/app"
	"breakout-desk/observability"
)

func main() {
	// Initialize logger in development mode for tests
	observability.InitLogger(false)
	observability.InitMetrics()

	port := os.Getenv("E2E_SERVER_PORT")
	if port == "" {
		port = "9090"
	}
	mockPort := os.Getenv("E2E_MOCK_PORT")
	if mockPort == "" {
		mockPort = "9091"
	}

	mock := mocks.NewMockHandler()
	seedFixtures(mock)

	mockServer := &http.Server{
		Addr:              ":" + mockPort,
		Handler:           mock,
		ReadHeaderTimeout: 10 * time.Second,
	}

	cfg := config.NewTestConfig()
	cfg.StrategyAPI.BaseURL = fmt.Sprintf("http://localhost:%s", mockPort)
	cfg.Breaker.Enabled = os.Getenv("E2E_BREAKER") == "true"

	ctx := context.Background()

	application := app.NewFromConfig(cfg)
	application.Startup(ctx)

	handler := api.NewHandler(application, cfg)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(handler, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		observability.Info("starting mock strategy service", "port", mockPort)
		if err := mockServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("mock server error", "error", err)
		}
	}()

	go func() {
		observability.Info("starting E2E test server", "port", port, "url", fmt.Sprintf("http://localhost:%s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down E2E test server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("server forced to shutdown", "error", err)
	}

	// Release held requests so in-flight actions can finish
	mock.Close()
	application.Shutdown(shutdownCtx)

	if err := mockServer.Shutdown(shutdownCtx); err != nil {
		observability.Error("mock server forced to shutdown", "error", err)
	}
	observability.Info("E2E test server stopped")
}
