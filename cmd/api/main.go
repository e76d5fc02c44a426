package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/openhuddle/matchwatch/internal/app"
	"github.com/openhuddle/matchwatch/internal/config"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
)

func main() {
	bootstrapLog := logging.NewJSON(logging.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		bootstrapLog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		application.Logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			application.Logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	if err := application.Shutdown(context.Background()); err != nil {
		application.Logger.Error("shutdown finished with error", "error", err)
		os.Exit(1)
	}
}
