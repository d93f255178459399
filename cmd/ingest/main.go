package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/footycharts/footycharts/internal/app"
	"github.com/footycharts/footycharts/internal/config"
	"github.com/footycharts/footycharts/internal/infrastructure/repository/postgres"
	"github.com/footycharts/footycharts/internal/observability"
	"github.com/footycharts/footycharts/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("shutdown uptrace", "error", err)
		}
	}()

	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := stopProfiling(); err != nil {
			logger.Error("stop pyroscope", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
			logger.Error("stop pprof server", "error", err)
		}
	}()

	db, err := app.ConnectDB(ctx, cfg)
	if err != nil {
		logger.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := postgres.BootstrapSeed(ctx, db); err != nil {
		logger.Error("bootstrap seed", "error", err)
		os.Exit(1)
	}

	services := app.NewServices(cfg, db, logger)
	if err := services.Scheduler.Bootstrap(ctx); err != nil {
		logger.Error("bootstrap scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("live ingestion starting",
		"poll_interval", cfg.PollInterval.String(),
		"inactive_probe_divisor", cfg.InactiveProbeDivisor,
		"inactive_hour_start", cfg.InactiveHourStart,
		"timezone", cfg.Timezone.String(),
	)

	// a plain ticker drops ticks while a slow cycle runs, so cycles never
	// overlap
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("live ingestion stopped")
			return
		case <-ticker.C:
			services.Scheduler.Tick(ctx)
		}
	}
}
