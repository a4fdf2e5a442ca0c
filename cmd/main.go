package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recycle-guide/config"
	"recycle-guide/internal/container"
	"recycle-guide/internal/infrastructure/camera"
	"recycle-guide/internal/infrastructure/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Открытие камеры — это и есть сигнал разрешения
	device, camErr := camera.Open(cfg.CameraDevice)
	if camErr != nil {
		logger.WithError(camErr).Error("No access to camera")
		device = &camera.Device{}
	} else {
		defer device.Close()
	}

	appContainer, err := container.New(cfg, camera.NewSource(device), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := appContainer.Web.Listen(cfg.HTTPAddr); err != nil {
			logger.WithError(err).Error("Status server error")
			stop()
		}
	}()

	if appContainer.Bot != nil {
		go func() {
			if err := appContainer.Bot.Run(ctx); err != nil {
				logger.WithError(err).Error("Telegram bot error")
			}
		}()
	}

	appContainer.Loop.SetPermission(camErr == nil)

	logger.Info("Guide is running...")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := appContainer.Loop.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Loop did not stop in time")
	}
	if err := appContainer.Web.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Status server shutdown error")
	}
}
