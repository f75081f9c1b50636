package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FeedbackAnalyzer/internal/app"
	"FeedbackAnalyzer/internal/config"
	"FeedbackAnalyzer/internal/logging"
	"FeedbackAnalyzer/pkg/logger"
)

func main() {
	startupLog := logger.New("startup")

	cfg := config.Load()
	slogger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, slogger)
	if err != nil {
		startupLog.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		slogger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
