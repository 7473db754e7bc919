package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/app"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/config"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/jobs"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/logging"
	"github.com/joho/godotenv"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to start")
	}
	defer a.Close()

	if _, err := jobs.ScheduleTokenSweep(ctx, cfg.TokenSweepSchedule, a.Tokens); err != nil {
		logger.WithError(err).Fatal("failed to schedule token sweep")
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: a.Router(version),
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
