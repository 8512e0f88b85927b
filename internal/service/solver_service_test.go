package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gme-rota-api/internal/dto"
	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/pkg/config"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
	"github.com/noah-isme/gme-rota-api/pkg/jobs"
)

type staticSnapshot struct {
	snap models.ConstraintSnapshot
}

func (s staticSnapshot) Snapshot() models.ConstraintSnapshot { return s.snap }

type solverEnv struct {
	svc         *SolverService
	blocks      *stubBlockRepo
	assignments *stubAssignmentRepo
	runs        *stubRunRepo
	absences    *stubAbsenceRepo
	start       time.Time
	end         time.Time
}

func newSolverEnv(t *testing.T, days int, rotations []models.RotationTemplate) *solverEnv {
	t.Helper()
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, days-1)
	blocks := buildBlocks(start, days)

	blockRepo := &stubBlockRepo{blocks: blocks}
	assignmentRepo := newStubAssignmentRepo(blocks, nil)
	runRepo := newStubRunRepo()
	absenceRepo := &stubAbsenceRepo{}

	svc := NewSolverService(
		testSolverConfig(),
		blockRepo,
		&stubPersonRepo{people: buildPeople()},
		&stubRotationRepo{rotations: rotations},
		absenceRepo,
		assignmentRepo,
		runRepo,
		staticSnapshot{snap: buildSnapshot()},
		newTestCompliance(),
		nil,
		nil,
		nil,
		nil,
	)
	return &solverEnv{
		svc:         svc,
		blocks:      blockRepo,
		assignments: assignmentRepo,
		runs:        runRepo,
		absences:    absenceRepo,
		start:       start,
		end:         end,
	}
}

func testSolverConfig() config.SolverConfig {
	return config.SolverConfig{
		MinTimeout:      time.Second,
		MaxTimeout:      30 * time.Second,
		Workers:         2,
		BranchLimit:     2,
		MaxRangeDays:    366,
		HoursPerSession: 6,
	}
}

func (e *solverEnv) request() dto.GenerateScheduleRequest {
	return dto.GenerateScheduleRequest{
		RangeStart:     e.start,
		RangeEnd:       e.end,
		Algorithm:      "greedy",
		TimeoutSeconds: 10,
	}
}

func TestGenerateProducesSuccessfulRun(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	resp, err := env.svc.Generate(context.Background(), env.request())
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, models.RunStatusSuccess, resp.Run.Status)
	assert.NotNil(t, resp.Run.CompletedAt)
	assert.Empty(t, resp.Gaps)
	// 6 blocks, one supervising plus one primary each.
	assert.Len(t, resp.Assignments, 12)
	assert.Equal(t, 12, env.assignments.count())

	require.NotNil(t, resp.Validation)
	assert.True(t, resp.Validation.Valid)
	assert.InDelta(t, 1.0, resp.Validation.CoverageRate, 0.001)
	assert.Equal(t, 0, resp.Validation.CriticalCount())

	stored, err := env.runs.GetByID(context.Background(), resp.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, stored.Status)
	assert.NotEmpty(t, stored.Stats)
}

func TestGenerateIsIdempotentPerKey(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})
	req := env.request()
	req.IdempotencyKey = "gen-2026-block1"

	first, err := env.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	created := env.assignments.count()

	second, err := env.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Run.ID, second.Run.ID)
	assert.Equal(t, created, env.assignments.count(), "a repeated key must not create new assignments")
}

func TestGenerateRejectsReusedKeyWithDifferentInputs(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})
	req := env.request()
	req.IdempotencyKey = "gen-2026-block1"

	_, err := env.svc.Generate(context.Background(), req)
	require.NoError(t, err)

	algo := req
	algo.Algorithm = "propagation"
	_, err = env.svc.Generate(context.Background(), algo)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	shifted := req
	shifted.RangeStart = env.start.AddDate(0, 0, 1)
	_, err = env.svc.Generate(context.Background(), shifted)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestGenerateRejectsOverlappingRange(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	require.True(t, env.svc.locks.acquire(env.start, env.end))
	defer env.svc.locks.release(env.start, env.end)

	_, err := env.svc.Generate(context.Background(), env.request())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyInProgress))
}

func TestGenerateConflictLeavesNoRunAndRetrySucceeds(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})
	req := env.request()
	req.IdempotencyKey = "retry-after-conflict"

	require.True(t, env.svc.locks.acquire(env.start, env.end))
	_, err := env.svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyInProgress))

	runs, err := env.svc.ListRuns(context.Background(), dto.RunQuery{})
	require.NoError(t, err)
	assert.Empty(t, runs, "a rejected request must not leave a run behind")

	env.svc.locks.release(env.start, env.end)

	resp, err := env.svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, resp.Run.Status)
	assert.Len(t, resp.Assignments, 12)
}

func TestGenerateDisjointRangesDoNotConflict(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	busyStart := env.end.AddDate(0, 0, 10)
	busyEnd := busyStart.AddDate(0, 0, 5)
	require.True(t, env.svc.locks.acquire(busyStart, busyEnd))
	defer env.svc.locks.release(busyStart, busyEnd)

	_, err := env.svc.Generate(context.Background(), env.request())
	require.NoError(t, err)
}

func TestGenerateRequestValidation(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	tests := []struct {
		name   string
		mutate func(*dto.GenerateScheduleRequest)
	}{
		{"unknown algorithm", func(r *dto.GenerateScheduleRequest) { r.Algorithm = "simulated-annealing" }},
		{"reversed range", func(r *dto.GenerateScheduleRequest) { r.RangeStart, r.RangeEnd = r.RangeEnd, r.RangeStart }},
		{"missing timeout", func(r *dto.GenerateScheduleRequest) { r.TimeoutSeconds = 0 }},
		{"oversized range", func(r *dto.GenerateScheduleRequest) { r.RangeEnd = r.RangeStart.AddDate(2, 0, 0) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := env.request()
			tc.mutate(&req)
			_, err := env.svc.Generate(context.Background(), req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
		})
	}
}

func TestGenerateEmptyCalendarFails(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})
	req := env.request()
	req.RangeStart = env.start.AddDate(1, 0, 0)
	req.RangeEnd = req.RangeStart.AddDate(0, 0, 2)

	_, err := env.svc.Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	runs, listErr := env.runs.List(context.Background(), models.RunFilter{})
	require.NoError(t, listErr)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
}

func TestGeneratePartialWhenRotationCannotBeStaffed(t *testing.T) {
	specialty := "orthopedics"
	ortho := models.RotationTemplate{
		ID:                  "rot-ortho",
		Name:                "Orthopedics Clinic",
		ActivityType:        "clinic",
		MaxOccupants:        2,
		RequiresSpecialty:   &specialty,
		SupervisionRequired: true,
		MaxSupervisionRatio: 4,
	}
	env := newSolverEnv(t, 2, []models.RotationTemplate{buildClinic(), ortho})

	resp, err := env.svc.Generate(context.Background(), env.request())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPartial, resp.Run.Status)
	assert.NotEmpty(t, resp.Gaps)
	assert.NotEmpty(t, resp.Assignments)
	for _, gap := range resp.Gaps {
		assert.Equal(t, ortho.ID, gap.RotationID)
	}
}

func TestGeneratePartialWhenRestViolated(t *testing.T) {
	// One unsupervised slot per block over eight days splits between two
	// people, so neither gets a full day off in any seven-day window.
	ward := models.RotationTemplate{
		ID:           "rot-ward",
		Name:         "Inpatient Ward",
		ActivityType: "ward",
		MaxOccupants: 1,
	}
	env := newSolverEnv(t, 8, []models.RotationTemplate{ward})

	resp, err := env.svc.Generate(context.Background(), env.request())
	require.NoError(t, err)

	assert.Empty(t, resp.Gaps)
	require.NotNil(t, resp.Validation)
	assert.Zero(t, resp.Validation.CriticalCount())

	rest := 0
	for _, v := range resp.Validation.Violations {
		if v.Type == models.ViolationRestPeriod {
			rest++
		}
	}
	require.Positive(t, rest)
	assert.Equal(t, models.RunStatusPartial, resp.Run.Status,
		"full coverage with rest violations must not report success")
}

func TestGenerateInfeasibleWhenNobodyEligible(t *testing.T) {
	env := newSolverEnv(t, 2, []models.RotationTemplate{buildClinic()})
	env.absences.absences = []models.Absence{
		{ID: "abs-1", PersonID: "fac-1", StartDate: env.start, EndDate: env.end, Approved: true},
		{ID: "abs-2", PersonID: "res-1", StartDate: env.start, EndDate: env.end, Approved: true},
	}

	_, err := env.svc.Generate(context.Background(), env.request())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInfeasible))
	assert.Equal(t, 0, env.assignments.count())
}

func TestGenerateAsyncCompletesViaQueue(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	queue := jobs.NewQueue("schedule-generation", env.svc.HandleGenerateJob, jobs.QueueConfig{Workers: 1})
	env.svc.AttachQueue(queue)
	queue.Start(context.Background())
	defer queue.Stop()

	run, err := env.svc.GenerateAsync(context.Background(), env.request())
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, run.Status)

	require.Eventually(t, func() bool {
		stored, getErr := env.runs.GetByID(context.Background(), run.ID)
		return getErr == nil && stored.Status == models.RunStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 12, env.assignments.count())
}

func TestGenerateAsyncWithoutQueue(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	_, err := env.svc.GenerateAsync(context.Background(), env.request())
	require.Error(t, err)
}

func TestGetRunUnknown(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	_, err := env.svc.GetRun(context.Background(), "missing-run")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestListRunsFiltersByStatus(t *testing.T) {
	env := newSolverEnv(t, 3, []models.RotationTemplate{buildClinic()})

	_, err := env.svc.Generate(context.Background(), env.request())
	require.NoError(t, err)

	succeeded, err := env.svc.ListRuns(context.Background(), dto.RunQuery{Status: string(models.RunStatusSuccess)})
	require.NoError(t, err)
	assert.Len(t, succeeded, 1)

	failed, err := env.svc.ListRuns(context.Background(), dto.RunQuery{Status: string(models.RunStatusFailed)})
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestValidateRangeUsesStoredAssignments(t *testing.T) {
	env := newSolverEnv(t, 2, []models.RotationTemplate{buildClinic()})
	seed := coveredSchedule(env.blocks.blocks)
	require.NoError(t, env.assignments.BulkCreate(context.Background(), seed))

	result, err := env.svc.ValidateRange(context.Background(), dto.ValidateRequest{
		RangeStart: env.start,
		RangeEnd:   env.end,
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.InDelta(t, 1.0, result.CoverageRate, 0.001)
}

func TestValidateRangeFlagsSuppliedAssignments(t *testing.T) {
	env := newSolverEnv(t, 2, []models.RotationTemplate{buildClinic()})
	block := env.blocks.blocks[0]

	// Two primaries in a supervised rotation with no supervisor present.
	result, err := env.svc.ValidateRange(context.Background(), dto.ValidateRequest{
		RangeStart: env.start,
		RangeEnd:   env.end,
		Assignments: []models.Assignment{
			buildAssignment("a-1", block, "res-1", models.RolePrimary),
			buildAssignment("a-2", block, "res-2", models.RolePrimary),
		},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, violationsOfType(*result, models.ViolationSupervisionRatio))
}
