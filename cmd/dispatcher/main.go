package main

import (
	"os"
	"os/signal"
	"syscall"

	"saggita/internal/config"
	"saggita/internal/dispatcher"
	"saggita/internal/logger"
)

func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = "saggita-dispatcher"

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()
	log.Info("Starting dispatcher...")

	d, err := dispatcher.New(cfg)
	if err != nil {
		logger.Fatal("Failed to create dispatcher", "error", err)
	}

	if err := d.Start(); err != nil {
		logger.Fatal("Failed to start dispatcher", "error", err)
	}
	log.Info("Dispatcher started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down dispatcher...")
	if err := d.Shutdown(); err != nil {
		log.Error("Error during shutdown", "error", err)
	}
	log.Info("Dispatcher stopped")
}
