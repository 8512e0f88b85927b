package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gme-rota-api/internal/dto"
	"github.com/noah-isme/gme-rota-api/internal/engine"
	"github.com/noah-isme/gme-rota-api/pkg/cache"
	"github.com/noah-isme/gme-rota-api/pkg/config"
	"github.com/noah-isme/gme-rota-api/pkg/database"
	"github.com/noah-isme/gme-rota-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		if redisClient, err = cache.NewRedis(cfg.Redis); err != nil {
			sugar.Warnw("redis unavailable, running without result cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := engine.New(ctx, cfg, db, redisClient, logr)
	if err != nil {
		sugar.Fatalw("failed to assemble engine", "error", err)
	}
	eng.Start(ctx)
	defer eng.Stop()

	// Keep the block calendar materialised one academic year ahead so
	// generation requests never land on an empty range.
	if cfg.Calendar.AcademicYearStart != "" {
		if yearStart, err := time.Parse("2006-01-02", cfg.Calendar.AcademicYearStart); err != nil {
			sugar.Warnw("unparseable academic year start, skipping calendar bootstrap", "value", cfg.Calendar.AcademicYearStart)
		} else {
			resp, err := eng.Calendar.GenerateBlocks(ctx, dto.GenerateBlocksRequest{
				RangeStart:        yearStart,
				RangeEnd:          yearStart.AddDate(1, 0, -1),
				AcademicYearStart: yearStart,
			})
			if err != nil {
				sugar.Warnw("calendar bootstrap failed", "error", err)
			} else if resp.Created > 0 {
				sugar.Infow("calendar bootstrap complete", "created", resp.Created, "skipped", resp.Skipped)
			}
		}
	}

	sugar.Infow("engine started",
		"env", cfg.Env,
		"solver_workers", cfg.Solver.Workers,
		"redis_enabled", cfg.Redis.Enabled)

	<-ctx.Done()
	sugar.Infow("engine shutting down")
}
