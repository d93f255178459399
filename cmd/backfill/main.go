package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/footycharts/footycharts/internal/app"
	"github.com/footycharts/footycharts/internal/config"
	"github.com/footycharts/footycharts/internal/infrastructure/repository/postgres"
	"github.com/footycharts/footycharts/internal/observability"
	"github.com/footycharts/footycharts/internal/platform/logging"
	"github.com/footycharts/footycharts/internal/usecase"
)

// Replays historical feed documents season by season. With no arguments every
// season in BACKFILL_SEASON_ID_RANGES runs in ascending order; otherwise each
// argument names one season to run.
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

	seasons, err := resolveSeasons(cfg, os.Args[1:])
	if err != nil {
		logger.Error("resolve seasons", "error", err)
		os.Exit(1)
	}
	if len(seasons) == 0 {
		logger.Error("no seasons to backfill; set BACKFILL_SEASON_ID_RANGES")
		os.Exit(1)
	}

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

	for _, season := range seasons {
		idRange := cfg.BackfillSeasonIDRanges[season]
		result, err := services.Backfill.BackfillSeason(ctx, usecase.BackfillSeasonInput{
			Season:  season,
			StartID: idRange.Start,
			EndID:   idRange.End,
			Workers: cfg.BackfillWorkers,
		})
		if err != nil {
			logger.Error("backfill season", "season", season, "error", err)
			os.Exit(1)
		}
		logger.Info("season done",
			"season", result.Season,
			"ingested", result.Ingested,
			"missing", result.Missing,
			"failed", result.Failed,
		)
	}
}

func resolveSeasons(cfg config.Config, args []string) ([]int, error) {
	if len(args) == 0 {
		seasons := make([]int, 0, len(cfg.BackfillSeasonIDRanges))
		for season := range cfg.BackfillSeasonIDRanges {
			seasons = append(seasons, season)
		}
		sort.Ints(seasons)
		return seasons, nil
	}

	seasons := make([]int, 0, len(args))
	for _, arg := range args {
		season, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid season %q: %w", arg, err)
		}
		if _, ok := cfg.BackfillSeasonIDRanges[season]; !ok {
			return nil, fmt.Errorf("season %d has no id range in BACKFILL_SEASON_ID_RANGES", season)
		}
		seasons = append(seasons, season)
	}
	return seasons, nil
}
