package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/slotswap_bot/internal/app"
	"github.com/Freeeeeet/slotswap_bot/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting slotswap bot",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("timezone", cfg.Timezone.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
