package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/gme-rota-api/internal/dto"
	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/internal/solver"
	"github.com/noah-isme/gme-rota-api/pkg/config"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
	"github.com/noah-isme/gme-rota-api/pkg/jobs"
	"github.com/noah-isme/gme-rota-api/pkg/metrics"
)

type blockReader interface {
	List(ctx context.Context, filter models.BlockFilter) ([]models.Block, error)
	GetByID(ctx context.Context, id string) (*models.Block, error)
}

type personReader interface {
	ListActive(ctx context.Context) ([]models.Person, error)
	ListPreferences(ctx context.Context) (map[string]map[string]float64, error)
}

type rotationReader interface {
	ListActive(ctx context.Context) ([]models.RotationTemplate, error)
}

type absenceReader interface {
	ListApproved(ctx context.Context, rangeStart, rangeEnd time.Time) ([]models.Absence, error)
}

type assignmentWriter interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	BulkCreate(ctx context.Context, assignments []models.Assignment) error
}

type runRepository interface {
	Create(ctx context.Context, run *models.ScheduleRun) error
	Update(ctx context.Context, run *models.ScheduleRun) error
	GetByID(ctx context.Context, id string) (*models.ScheduleRun, error)
	List(ctx context.Context, filter models.RunFilter) ([]models.ScheduleRun, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.ScheduleRun, error)
}

type snapshotProvider interface {
	Snapshot() models.ConstraintSnapshot
}

type complianceValidator interface {
	Validate(assignments []models.Assignment, blocks []models.Block, rotations []models.RotationTemplate, rangeStart, rangeEnd time.Time, snapshot models.ConstraintSnapshot) models.ValidationResult
}

// GenerateJobType labels async generation jobs on the queue.
const GenerateJobType = "schedule.generate"

// GenerateJobPayload carries an async generation request to the worker pool.
type GenerateJobPayload struct {
	RunID   string
	Request dto.GenerateScheduleRequest
}

// rangeLock serialises generations over overlapping date ranges. Disjoint
// ranges may solve concurrently.
type rangeLock struct {
	mu     sync.Mutex
	active [][2]time.Time
}

func (l *rangeLock) acquire(start, end time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.active {
		if !start.After(r[1]) && !end.Before(r[0]) {
			return false
		}
	}
	l.active = append(l.active, [2]time.Time{start, end})
	return true
}

func (l *rangeLock) release(start, end time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, r := range l.active {
		if r[0].Equal(start) && r[1].Equal(end) {
			l.active = append(l.active[:i], l.active[i+1:]...)
			return
		}
	}
}

type idemEntry struct {
	runID   string
	expires time.Time
}

// SolverService orchestrates schedule generation: it assembles the solve
// instance, dispatches the chosen algorithm under a hard deadline, persists
// the result, and validates the combined schedule.
type SolverService struct {
	cfg config.SolverConfig

	blocks      blockReader
	people      personReader
	rotations   rotationReader
	absences    absenceReader
	assignments assignmentWriter
	runs        runRepository
	registry    snapshotProvider
	compliance  complianceValidator

	redis   *redis.Client
	metrics *metrics.Metrics
	queue   *jobs.Queue

	validator *validator.Validate
	logger    *zap.Logger

	locks rangeLock

	idemMu sync.Mutex
	idem   map[string]idemEntry
}

// NewSolverService constructs the orchestrator. The redis client and metrics
// are optional and may be nil.
func NewSolverService(
	cfg config.SolverConfig,
	blocks blockReader,
	people personReader,
	rotations rotationReader,
	absences absenceReader,
	assignments assignmentWriter,
	runs runRepository,
	registry snapshotProvider,
	compliance complianceValidator,
	redisClient *redis.Client,
	m *metrics.Metrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *SolverService {
	if cfg.MinTimeout <= 0 {
		cfg.MinTimeout = 5 * time.Second
	}
	if cfg.MaxTimeout <= 0 {
		cfg.MaxTimeout = 300 * time.Second
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolverService{
		cfg:         cfg,
		blocks:      blocks,
		people:      people,
		rotations:   rotations,
		absences:    absences,
		assignments: assignments,
		runs:        runs,
		registry:    registry,
		compliance:  compliance,
		redis:       redisClient,
		metrics:     m,
		validator:   validate,
		logger:      logger,
		idem:        make(map[string]idemEntry),
	}
}

// AttachQueue wires the async worker pool. The queue must be built with
// HandleGenerateJob as its handler.
func (s *SolverService) AttachQueue(q *jobs.Queue) {
	s.queue = q
}

// Generate runs a schedule generation synchronously and returns the
// finalized run together with the produced assignments and the compliance
// report for the combined schedule.
func (s *SolverService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if resp, ok, err := s.reattach(ctx, req); err != nil {
			return nil, err
		} else if ok {
			return resp, nil
		}
	}

	// Hold the range lock before recording the run so a rejected request
	// leaves no run behind and never claims the idempotency key.
	if !s.locks.acquire(req.RangeStart, req.RangeEnd) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyInProgress, "")
	}
	defer s.locks.release(req.RangeStart, req.RangeEnd)

	run := s.newRun(req)
	run.Status = models.RunStatusRunning
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule run")
	}

	return s.solve(ctx, run, req)
}

// GenerateAsync records a pending run and hands the work to the job queue.
// Callers poll GetRun for the outcome.
func (s *SolverService) GenerateAsync(ctx context.Context, req dto.GenerateScheduleRequest) (*models.ScheduleRun, error) {
	if err := s.checkRequest(req); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "async generation is not enabled")
	}

	if req.IdempotencyKey != "" {
		if existing, err := s.findByKey(ctx, req.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			if !runMatchesRequest(existing, req) {
				return nil, appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("idempotency key %s was already used with different inputs", req.IdempotencyKey))
			}
			return existing, nil
		}
	}

	run := s.newRun(req)
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule run")
	}

	job := jobs.Job{
		ID:      run.ID,
		Type:    GenerateJobType,
		Payload: GenerateJobPayload{RunID: run.ID, Request: req},
	}
	if err := s.queue.Enqueue(job); err != nil {
		run.Status = models.RunStatusFailed
		s.finalize(context.Background(), run, models.SolverStats{Algorithm: req.Algorithm})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation")
	}
	return run, nil
}

// HandleGenerateJob is the queue handler for async generations.
func (s *SolverService) HandleGenerateJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(GenerateJobPayload)
	if !ok {
		s.logger.Error("unexpected generation payload", zap.String("job_id", job.ID))
		return nil
	}
	run, err := s.runs.GetByID(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", payload.RunID, err)
	}
	if run.Status != models.RunStatusPending {
		return nil
	}
	run.Status = models.RunStatusRunning
	if err := s.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	if _, err := s.execute(ctx, run, payload.Request); err != nil {
		// Overlap conflicts are retried by the queue; everything else has
		// already been finalized on the run record.
		if appErrors.Is(err, appErrors.ErrAlreadyInProgress) {
			run.Status = models.RunStatusPending
			_ = s.runs.Update(ctx, run)
			return err
		}
		s.logger.Warn("async generation failed",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
	return nil
}

// GetRun returns a stored schedule run by ID.
func (s *SolverService) GetRun(ctx context.Context, id string) (*models.ScheduleRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("schedule run %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule run")
	}
	return run, nil
}

// ListRuns returns stored runs matching the query, newest first.
func (s *SolverService) ListRuns(ctx context.Context, q dto.RunQuery) ([]models.ScheduleRun, error) {
	filter := models.RunFilter{
		RangeStart: q.RangeStart,
		RangeEnd:   q.RangeEnd,
		Status:     q.Status,
	}
	runs, err := s.runs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule runs")
	}
	return runs, nil
}

// ValidateRange reports compliance for the stored schedule over a range, or
// for an explicit assignment set when the request carries one.
func (s *SolverService) ValidateRange(ctx context.Context, req dto.ValidateRequest) (*models.ValidationResult, error) {
	if req.RangeEnd.Before(req.RangeStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rangeEnd must not precede rangeStart")
	}
	blocks, err := s.blocks.List(ctx, models.BlockFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocks")
	}
	rotations, err := s.rotations.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotations")
	}
	assignments := req.Assignments
	if assignments == nil {
		assignments, err = s.assignments.List(ctx, models.AssignmentFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
	}

	result := s.compliance.Validate(assignments, blocks, rotations, req.RangeStart, req.RangeEnd, s.registry.Snapshot())
	for _, v := range result.Violations {
		s.metrics.ObserveViolation(string(v.Type), string(v.Severity))
	}
	return &result, nil
}

func (s *SolverService) checkRequest(req dto.GenerateScheduleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	if req.RangeEnd.Before(req.RangeStart) {
		return appErrors.Clone(appErrors.ErrValidation, "rangeEnd must not precede rangeStart")
	}
	days := int(req.RangeEnd.Sub(req.RangeStart).Hours()/24) + 1
	if days > s.cfg.MaxRangeDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("range spans %d days, maximum is %d", days, s.cfg.MaxRangeDays))
	}
	if !solver.Known(req.Algorithm) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown algorithm %q", req.Algorithm))
	}
	return nil
}

func (s *SolverService) newRun(req dto.GenerateScheduleRequest) *models.ScheduleRun {
	run := &models.ScheduleRun{
		ID:             uuid.NewString(),
		Algorithm:      req.Algorithm,
		RangeStart:     req.RangeStart,
		RangeEnd:       req.RangeEnd,
		TimeoutSeconds: int(s.clampTimeout(req.TimeoutSeconds).Seconds()),
		Status:         models.RunStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		run.IdempotencyKey = &key
	}
	return run
}

func (s *SolverService) clampTimeout(seconds int) time.Duration {
	d := time.Duration(seconds) * time.Second
	if d < s.cfg.MinTimeout {
		return s.cfg.MinTimeout
	}
	if d > s.cfg.MaxTimeout {
		return s.cfg.MaxTimeout
	}
	return d
}

// execute acquires the range lock and performs the solve for an
// already-created run record. The queue handler relies on the
// AlreadyInProgress error to requeue instead of finalizing the run.
func (s *SolverService) execute(ctx context.Context, run *models.ScheduleRun, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if !s.locks.acquire(run.RangeStart, run.RangeEnd) {
		return nil, appErrors.Clone(appErrors.ErrAlreadyInProgress, "")
	}
	defer s.locks.release(run.RangeStart, run.RangeEnd)

	return s.solve(ctx, run, req)
}

// solve runs the engine and finalizes the run regardless of outcome. The
// caller must hold the range lock.
func (s *SolverService) solve(ctx context.Context, run *models.ScheduleRun, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	started := time.Now()

	inst, err := s.buildInstance(ctx, req)
	if err != nil {
		run.Status = models.RunStatusFailed
		s.finalize(ctx, run, models.SolverStats{Algorithm: req.Algorithm})
		return nil, err
	}

	engine, err := solver.New(req.Algorithm, solver.Options{Workers: s.cfg.Workers, BranchLimit: s.cfg.BranchLimit})
	if err != nil {
		run.Status = models.RunStatusFailed
		s.finalize(ctx, run, models.SolverStats{Algorithm: req.Algorithm})
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	solveCtx, cancel := context.WithTimeout(ctx, time.Duration(run.TimeoutSeconds)*time.Second)
	defer cancel()

	candidate, stats, err := engine.Solve(solveCtx, inst)
	if err != nil || candidate == nil {
		run.Status = models.RunStatusFailed
		s.finalize(ctx, run, stats)
		s.metrics.ObserveRun(req.Algorithm, string(models.RunStatusFailed), time.Since(started), 0)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solver failed")
		}
		return nil, appErrors.Clone(appErrors.ErrInfeasible, "")
	}

	if len(candidate.Assignments) == 0 && len(candidate.Gaps) > 0 {
		run.Status = models.RunStatusFailed
		s.finalize(ctx, run, stats)
		s.metrics.ObserveRun(req.Algorithm, string(models.RunStatusFailed), time.Since(started), 0)
		return nil, appErrors.Clone(appErrors.ErrInfeasible, "no demand slot could be filled")
	}

	if len(candidate.Assignments) > 0 {
		if err := s.assignments.BulkCreate(ctx, candidate.Assignments); err != nil {
			run.Status = models.RunStatusFailed
			s.finalize(ctx, run, stats)
			s.metrics.ObserveRun(req.Algorithm, string(models.RunStatusFailed), time.Since(started), 0)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignments")
		}
	}

	combined := append(append([]models.Assignment{}, inst.Existing...), candidate.Assignments...)
	validation := s.compliance.Validate(combined, inst.Blocks, inst.Rotations, req.RangeStart, req.RangeEnd, inst.Snapshot)
	for _, v := range validation.Violations {
		s.metrics.ObserveViolation(string(v.Type), string(v.Severity))
	}

	switch {
	case len(candidate.Gaps) == 0 && validation.HardViolationCount() == 0:
		run.Status = models.RunStatusSuccess
	default:
		run.Status = models.RunStatusPartial
	}
	s.finalize(ctx, run, stats)
	s.metrics.ObserveRun(req.Algorithm, string(run.Status), time.Since(started), validation.CoverageRate)

	if req.IdempotencyKey != "" {
		s.rememberKey(ctx, req.IdempotencyKey, run.ID)
	}

	resp := &dto.GenerateScheduleResponse{
		Run:         *run,
		Assignments: candidate.Assignments,
		Gaps:        toGaps(candidate.Gaps),
		Validation:  &validation,
		Stats:       stats,
	}
	s.cacheResult(ctx, run.ID, resp)

	s.logger.Info("schedule generation finished",
		zap.String("run_id", run.ID),
		zap.String("algorithm", req.Algorithm),
		zap.String("status", string(run.Status)),
		zap.Int("assignments", len(candidate.Assignments)),
		zap.Int("gaps", len(candidate.Gaps)),
		zap.Duration("elapsed", time.Since(started)))
	return resp, nil
}

func (s *SolverService) buildInstance(ctx context.Context, req dto.GenerateScheduleRequest) (*solver.Instance, error) {
	blocks, err := s.blocks.List(ctx, models.BlockFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocks")
	}
	if len(blocks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no calendar blocks exist in the requested range")
	}
	people, err := s.people.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load people")
	}
	prefs, err := s.people.ListPreferences(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	rotations, err := s.rotations.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotations")
	}
	absences, err := s.absences.ListApproved(ctx, req.RangeStart, req.RangeEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absences")
	}
	existing, err := s.assignments.List(ctx, models.AssignmentFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing assignments")
	}

	return &solver.Instance{
		Blocks:          blocks,
		People:          people,
		Rotations:       rotations,
		Absences:        absences,
		Existing:        existing,
		Preferences:     prefs,
		Snapshot:        s.registry.Snapshot(),
		HoursPerSession: s.cfg.HoursPerSession,
		CreatedBy:       req.CreatedBy,
	}, nil
}

func (s *SolverService) finalize(ctx context.Context, run *models.ScheduleRun, stats models.SolverStats) {
	now := time.Now().UTC()
	run.CompletedAt = &now
	if raw, err := json.Marshal(stats); err == nil {
		run.Stats = raw
	}
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Error("failed to finalize schedule run",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
}

// reattach returns the prior response for a repeated idempotency key, if
// any. A repeated key must carry the same inputs as the run it names.
func (s *SolverService) reattach(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, bool, error) {
	run, err := s.findByKey(ctx, req.IdempotencyKey)
	if err != nil || run == nil {
		return nil, false, err
	}
	if !runMatchesRequest(run, req) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("idempotency key %s was already used with different inputs", req.IdempotencyKey))
	}

	resp := &dto.GenerateScheduleResponse{Run: *run}
	if len(run.Stats) > 0 {
		_ = json.Unmarshal(run.Stats, &resp.Stats)
	}
	if cached := s.cachedResult(ctx, run.ID); cached != nil {
		resp = cached
	}
	return resp, true, nil
}

func (s *SolverService) findByKey(ctx context.Context, key string) (*models.ScheduleRun, error) {
	s.idemMu.Lock()
	entry, hit := s.idem[key]
	if hit && time.Now().After(entry.expires) {
		delete(s.idem, key)
		hit = false
	}
	s.idemMu.Unlock()

	if hit {
		run, err := s.runs.GetByID(ctx, entry.runID)
		if err == nil {
			return run, nil
		}
	}

	run, err := s.runs.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "idempotency lookup failed")
	}
	return run, nil
}

func (s *SolverService) rememberKey(ctx context.Context, key, runID string) {
	s.idemMu.Lock()
	s.idem[key] = idemEntry{runID: runID, expires: time.Now().Add(s.cfg.IdempotencyTTL)}
	s.idemMu.Unlock()

	if s.redis != nil {
		if err := s.redis.Set(ctx, "rota:idem:"+key, runID, s.cfg.IdempotencyTTL).Err(); err != nil {
			s.logger.Debug("idempotency cache write failed", zap.Error(err))
		}
	}
}

func (s *SolverService) cacheResult(ctx context.Context, runID string, resp *dto.GenerateScheduleResponse) {
	if s.redis == nil || s.cfg.ResultCacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, "rota:run-result:"+runID, raw, s.cfg.ResultCacheTTL).Err(); err != nil {
		s.logger.Debug("run result cache write failed", zap.Error(err))
	}
}

func (s *SolverService) cachedResult(ctx context.Context, runID string) *dto.GenerateScheduleResponse {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, "rota:run-result:"+runID).Bytes()
	if err != nil {
		return nil
	}
	var resp dto.GenerateScheduleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	return &resp
}

func runMatchesRequest(run *models.ScheduleRun, req dto.GenerateScheduleRequest) bool {
	return run.Algorithm == req.Algorithm &&
		run.RangeStart.Equal(req.RangeStart) &&
		run.RangeEnd.Equal(req.RangeEnd)
}

func toGaps(slots []solver.Slot) []dto.CoverageGap {
	gaps := make([]dto.CoverageGap, 0, len(slots))
	for _, slot := range slots {
		gaps = append(gaps, dto.CoverageGap{
			BlockID:    slot.Block.ID,
			Date:       slot.Block.Date,
			Session:    slot.Block.Session,
			RotationID: slot.Rotation.ID,
			Role:       slot.Role,
		})
	}
	return gaps
}
