// Package main runs the terminal front end against the strategy service.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"breakout-desk/config"
	"breakout-desk/internal/app"
	"breakout-desk/internal/tui"
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

	// The screen belongs to the UI, so logs go to a file or nowhere
	var logOut io.Writer = io.Discard
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	observability.InitLoggerTo(logOut, cfg.IsProduction(), observability.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	application := app.NewFromConfig(cfg)
	application.Startup(ctx)
	observability.Info("terminal UI starting", "strategy_service", cfg.StrategyAPI.BaseURL)

	if err := tui.Run(ctx, application.NewOrchestrator()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
