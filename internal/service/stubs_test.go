package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
)

// In-memory repository stubs shared by the service tests.

type stubBlockRepo struct {
	blocks  []models.Block
	deleted []string
	created []models.Block
}

func (s *stubBlockRepo) List(ctx context.Context, filter models.BlockFilter) ([]models.Block, error) {
	var out []models.Block
	for _, b := range s.blocks {
		if filter.RangeStart != nil && b.Date.Before(*filter.RangeStart) {
			continue
		}
		if filter.RangeEnd != nil && b.Date.After(*filter.RangeEnd) {
			continue
		}
		if filter.AcademicBlockNumber != nil && b.AcademicBlockNumber != *filter.AcademicBlockNumber {
			continue
		}
		if filter.Session != nil && b.Session != *filter.Session {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].Session < out[j].Session
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *stubBlockRepo) GetByID(ctx context.Context, id string) (*models.Block, error) {
	for _, b := range s.blocks {
		if b.ID == id {
			block := b
			return &block, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubBlockRepo) BulkCreate(ctx context.Context, blocks []models.Block) error {
	s.blocks = append(s.blocks, blocks...)
	s.created = append(s.created, blocks...)
	return nil
}

func (s *stubBlockRepo) Delete(ctx context.Context, id string) error {
	for i, b := range s.blocks {
		if b.ID == id {
			s.blocks = append(s.blocks[:i], s.blocks[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return sql.ErrNoRows
}

type stubPersonRepo struct {
	people []models.Person
	prefs  map[string]map[string]float64
}

func (s *stubPersonRepo) ListActive(ctx context.Context) ([]models.Person, error) {
	return append([]models.Person(nil), s.people...), nil
}

func (s *stubPersonRepo) ListPreferences(ctx context.Context) (map[string]map[string]float64, error) {
	return s.prefs, nil
}

type stubRotationRepo struct {
	rotations []models.RotationTemplate
}

func (s *stubRotationRepo) ListActive(ctx context.Context) ([]models.RotationTemplate, error) {
	return append([]models.RotationTemplate(nil), s.rotations...), nil
}

type stubAbsenceRepo struct {
	absences []models.Absence
}

func (s *stubAbsenceRepo) ListApproved(ctx context.Context, rangeStart, rangeEnd time.Time) ([]models.Absence, error) {
	var out []models.Absence
	for _, a := range s.absences {
		if !a.Approved || a.StartDate.After(rangeEnd) || a.EndDate.Before(rangeStart) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type stubAssignmentRepo struct {
	mu       sync.Mutex
	byID     map[string]models.Assignment
	blocks   map[string]models.Block
	bulkErr  error
	applyErr error
}

func newStubAssignmentRepo(blocks []models.Block, seed []models.Assignment) *stubAssignmentRepo {
	s := &stubAssignmentRepo{
		byID:   make(map[string]models.Assignment),
		blocks: make(map[string]models.Block),
	}
	for _, b := range blocks {
		s.blocks[b.ID] = b
	}
	for _, a := range seed {
		s.byID[a.ID] = a
	}
	return s
}

func (s *stubAssignmentRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Assignment
	for _, a := range s.byID {
		block := s.blocks[a.BlockID]
		if filter.RangeStart != nil && block.Date.Before(*filter.RangeStart) {
			continue
		}
		if filter.RangeEnd != nil && block.Date.After(*filter.RangeEnd) {
			continue
		}
		if filter.PersonID != "" && a.PersonID != filter.PersonID {
			continue
		}
		if filter.BlockID != "" && a.BlockID != filter.BlockID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubAssignmentRepo) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byID[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubAssignmentRepo) BulkCreate(ctx context.Context, assignments []models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulkErr != nil {
		return s.bulkErr
	}
	for _, a := range assignments {
		if a.Version < 1 {
			a.Version = 1
		}
		s.byID[a.ID] = a
	}
	return nil
}

func (s *stubAssignmentRepo) ApplyVersioned(ctx context.Context, updates []models.VersionedUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	staged := make(map[string]models.Assignment, len(updates))
	for _, update := range updates {
		current, ok := s.byID[update.Assignment.ID]
		if !ok || current.Version != update.ExpectedVersion {
			return appErrors.Clone(appErrors.ErrOptimisticLock, fmt.Sprintf("assignment %s stale", update.Assignment.ID))
		}
		next := update.Assignment
		next.Version = current.Version + 1
		staged[next.ID] = next
	}
	for id, a := range staged {
		s.byID[id] = a
	}
	return nil
}

func (s *stubAssignmentRepo) CountByBlock(ctx context.Context, blockID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, a := range s.byID {
		if a.BlockID == blockID {
			count++
		}
	}
	return count, nil
}

func (s *stubAssignmentRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type stubRunRepo struct {
	mu   sync.Mutex
	runs map[string]models.ScheduleRun
}

func newStubRunRepo() *stubRunRepo {
	return &stubRunRepo{runs: make(map[string]models.ScheduleRun)}
}

func (s *stubRunRepo) Create(ctx context.Context, run *models.ScheduleRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = *run
	return nil
}

func (s *stubRunRepo) Update(ctx context.Context, run *models.ScheduleRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return sql.ErrNoRows
	}
	s.runs[run.ID] = *run
	return nil
}

func (s *stubRunRepo) GetByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		return &run, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubRunRepo) List(ctx context.Context, filter models.RunFilter) ([]models.ScheduleRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScheduleRun
	for _, run := range s.runs {
		if filter.Status != "" && string(run.Status) != filter.Status {
			continue
		}
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *stubRunRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.ScheduleRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, run := range s.runs {
		if run.IdempotencyKey != nil && *run.IdempotencyKey == key {
			found := run
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubSwapRepo struct {
	mu    sync.Mutex
	swaps map[string]models.SwapRecord
}

func newStubSwapRepo() *stubSwapRepo {
	return &stubSwapRepo{swaps: make(map[string]models.SwapRecord)}
}

func (s *stubSwapRepo) Create(ctx context.Context, record *models.SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps[record.ID] = *record
	return nil
}

func (s *stubSwapRepo) Update(ctx context.Context, record *models.SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.swaps[record.ID]; !ok {
		return sql.ErrNoRows
	}
	s.swaps[record.ID] = *record
	return nil
}

func (s *stubSwapRepo) backdate(id string, committedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.swaps[id]
	record.CommittedAt = &committedAt
	s.swaps[id] = record
}

func (s *stubSwapRepo) GetByID(ctx context.Context, id string) (*models.SwapRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.swaps[id]; ok {
		return &record, nil
	}
	return nil, sql.ErrNoRows
}
