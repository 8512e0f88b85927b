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
)

func newCalendarEnv(t *testing.T, cfg config.CalendarConfig) (*CalendarService, *stubBlockRepo, *stubAssignmentRepo) {
	t.Helper()
	blockRepo := &stubBlockRepo{}
	assignmentRepo := newStubAssignmentRepo(nil, nil)
	svc := NewCalendarService(cfg, blockRepo, assignmentRepo, nil, nil)
	return svc, blockRepo, assignmentRepo
}

func TestGenerateBlocksCreatesTwoPerDay(t *testing.T) {
	svc, blockRepo, _ := newCalendarEnv(t, config.CalendarConfig{})
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	resp, err := svc.GenerateBlocks(context.Background(), dto.GenerateBlocksRequest{
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, 14, resp.Created)
	assert.Equal(t, 0, resp.Skipped)
	assert.Len(t, blockRepo.blocks, 14)

	for _, block := range blockRepo.blocks {
		weekend := block.Date.Weekday() == time.Saturday || block.Date.Weekday() == time.Sunday
		assert.Equal(t, weekend, block.IsWeekend, "block %s", block.Key())
	}
}

func TestGenerateBlocksMarksHolidays(t *testing.T) {
	svc, blockRepo, _ := newCalendarEnv(t, config.CalendarConfig{
		Holidays: map[string]string{"07-04": "Independence Day"},
	})
	start := time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)

	_, err := svc.GenerateBlocks(context.Background(), dto.GenerateBlocksRequest{
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, 2),
	})
	require.NoError(t, err)

	holidays := 0
	for _, block := range blockRepo.blocks {
		if block.IsHoliday {
			holidays++
			require.NotNil(t, block.HolidayName)
			assert.Equal(t, "Independence Day", *block.HolidayName)
			assert.Equal(t, "07-04", block.Date.Format("01-02"))
		}
	}
	// AM and PM of July 4th.
	assert.Equal(t, 2, holidays)
}

func TestGenerateBlocksNumbersAcademicBlocks(t *testing.T) {
	svc, blockRepo, _ := newCalendarEnv(t, config.CalendarConfig{AcademicYearStart: "2026-07-01"})
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.GenerateBlocks(context.Background(), dto.GenerateBlocksRequest{
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, 28),
	})
	require.NoError(t, err)

	byDate := make(map[string]int)
	for _, block := range blockRepo.blocks {
		byDate[block.Date.Format("2006-01-02")] = block.AcademicBlockNumber
	}
	assert.Equal(t, 1, byDate["2026-07-01"])
	assert.Equal(t, 1, byDate["2026-07-28"])
	assert.Equal(t, 2, byDate["2026-07-29"])
}

func TestGenerateBlocksCapsAcademicBlockNumber(t *testing.T) {
	svc, blockRepo, _ := newCalendarEnv(t, config.CalendarConfig{AcademicYearStart: "2026-07-01"})
	// A year and change past the academic year start.
	start := time.Date(2027, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.GenerateBlocks(context.Background(), dto.GenerateBlocksRequest{
		RangeStart: start,
		RangeEnd:   start,
	})
	require.NoError(t, err)
	require.NotEmpty(t, blockRepo.blocks)
	for _, block := range blockRepo.blocks {
		assert.Equal(t, academicBlockMax, block.AcademicBlockNumber)
	}
}

func TestGenerateBlocksIsIdempotent(t *testing.T) {
	svc, _, _ := newCalendarEnv(t, config.CalendarConfig{})
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	req := dto.GenerateBlocksRequest{RangeStart: start, RangeEnd: start.AddDate(0, 0, 2)}

	first, err := svc.GenerateBlocks(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 6, first.Created)

	second, err := svc.GenerateBlocks(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 6, second.Skipped)
}

func TestGenerateBlocksRejectsReversedRange(t *testing.T) {
	svc, _, _ := newCalendarEnv(t, config.CalendarConfig{})
	start := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.GenerateBlocks(context.Background(), dto.GenerateBlocksRequest{
		RangeStart: start,
		RangeEnd:   start.AddDate(0, 0, -3),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestListByAcademicBlockBounds(t *testing.T) {
	svc, _, _ := newCalendarEnv(t, config.CalendarConfig{})

	_, err := svc.ListByAcademicBlock(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.ListByAcademicBlock(context.Background(), academicBlockMax+1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	blocks, err := svc.ListByAcademicBlock(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestDeleteBlockProtectsOccupiedBlocks(t *testing.T) {
	svc, blockRepo, assignmentRepo := newCalendarEnv(t, config.CalendarConfig{})
	blocks := buildBlocks(time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC), 1)
	blockRepo.blocks = blocks
	require.NoError(t, assignmentRepo.BulkCreate(context.Background(), []models.Assignment{
		buildAssignment("a-1", blocks[0], "res-1", models.RolePrimary),
	}))

	err := svc.DeleteBlock(context.Background(), blocks[0].ID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Len(t, blockRepo.blocks, 2)
}

func TestDeleteBlockRemovesEmptyBlock(t *testing.T) {
	svc, blockRepo, _ := newCalendarEnv(t, config.CalendarConfig{})
	blocks := buildBlocks(time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC), 1)
	blockRepo.blocks = blocks

	require.NoError(t, svc.DeleteBlock(context.Background(), blocks[1].ID))
	assert.Len(t, blockRepo.blocks, 1)
	assert.Equal(t, []string{blocks[1].ID}, blockRepo.deleted)
}

func TestDeleteBlockUnknown(t *testing.T) {
	svc, _, _ := newCalendarEnv(t, config.CalendarConfig{})

	err := svc.DeleteBlock(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
