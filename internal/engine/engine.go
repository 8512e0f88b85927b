// Package engine assembles the scheduling services into a single facade.
// The worker daemon and embedding callers both construct an Engine and use
// its services directly; there is no transport layer in this module.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/gme-rota-api/internal/repository"
	"github.com/noah-isme/gme-rota-api/internal/service"
	"github.com/noah-isme/gme-rota-api/pkg/config"
	"github.com/noah-isme/gme-rota-api/pkg/jobs"
	"github.com/noah-isme/gme-rota-api/pkg/metrics"
)

// runRetention is how long finished run records are kept before the nightly
// sweep prunes them.
const runRetention = 90 * 24 * time.Hour

// Engine bundles the scheduling services plus their background machinery.
type Engine struct {
	Registry   *service.ConstraintRegistryService
	Calendar   *service.CalendarService
	Solver     *service.SolverService
	Swaps      *service.SwapService
	Compliance *service.ComplianceService
	Metrics    *metrics.Metrics

	queue     *jobs.Queue
	scheduler *cron.Cron
	runs      *repository.ScheduleRunRepository
	swapRepo  *repository.SwapRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// New wires repositories and services. The redis client is optional; pass
// nil to run without the result cache.
func New(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	blockRepo := repository.NewBlockRepository(db)
	personRepo := repository.NewPersonRepository(db)
	rotationRepo := repository.NewRotationRepository(db)
	absenceRepo := repository.NewAbsenceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	runRepo := repository.NewScheduleRunRepository(db)
	swapRepo := repository.NewSwapRepository(db)

	catalog := service.DefaultCatalog()
	if stored, err := constraintRepo.Load(ctx); err != nil {
		logger.Warn("failed to load stored constraints, using catalog defaults", zap.Error(err))
	} else if len(stored) > 0 {
		catalog = service.MergeCatalog(catalog, stored)
	}

	registry, err := service.NewConstraintRegistryService(catalog, constraintRepo, logger)
	if err != nil {
		return nil, fmt.Errorf("build constraint registry: %w", err)
	}

	m := metrics.New()
	validate := validator.New()
	compliance := service.NewComplianceService(cfg.Compliance, logger)

	solverSvc := service.NewSolverService(cfg.Solver, blockRepo, personRepo, rotationRepo, absenceRepo, assignmentRepo, runRepo, registry, compliance, redisClient, m, validate, logger)
	swapSvc := service.NewSwapService(cfg.Swaps, assignmentRepo, swapRepo, blockRepo, personRepo, rotationRepo, absenceRepo, registry, compliance, m, validate, logger)
	calendarSvc := service.NewCalendarService(cfg.Calendar, blockRepo, assignmentRepo, validate, logger)

	queue := jobs.NewQueue("schedule-generation", solverSvc.HandleGenerateJob, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logger,
	})
	solverSvc.AttachQueue(queue)

	e := &Engine{
		Registry:   registry,
		Calendar:   calendarSvc,
		Solver:     solverSvc,
		Swaps:      swapSvc,
		Compliance: compliance,
		Metrics:    m,
		queue:      queue,
		runs:       runRepo,
		swapRepo:   swapRepo,
		cfg:        cfg,
		logger:     logger,
	}
	if err := e.scheduleSweeps(); err != nil {
		return nil, err
	}
	return e, nil
}

// Start launches the async generation workers and the maintenance sweeps.
func (e *Engine) Start(ctx context.Context) {
	e.queue.Start(ctx)
	e.scheduler.Start()
}

// Stop drains background work. Safe to call after a cancelled context.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.queue.Stop()
}

func (e *Engine) scheduleSweeps() error {
	e.scheduler = cron.New()

	if _, err := e.scheduler.AddFunc("15 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if pruned, err := e.runs.PruneOlderThan(ctx, time.Now().UTC().Add(-runRetention)); err != nil {
			e.logger.Warn("run prune sweep failed", zap.Error(err))
		} else if pruned > 0 {
			e.logger.Info("pruned finished schedule runs", zap.Int64("count", pruned))
		}
	}); err != nil {
		return fmt.Errorf("schedule run prune sweep: %w", err)
	}

	if _, err := e.scheduler.AddFunc("45 2 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if expired, err := e.swapRepo.ExpireStale(ctx, time.Now().UTC().Add(-e.cfg.Swaps.RollbackWindow)); err != nil {
			e.logger.Warn("swap expiry sweep failed", zap.Error(err))
		} else if expired > 0 {
			e.logger.Info("expired stale validated swaps", zap.Int64("count", expired))
		}
	}); err != nil {
		return fmt.Errorf("schedule swap expiry sweep: %w", err)
	}
	return nil
}
