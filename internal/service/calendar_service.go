package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gme-rota-api/internal/dto"
	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/pkg/config"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
)

// academicBlockDays is the length of one academic rotation block. A year
// holds 13 of them; trailing days fold into block 13.
const (
	academicBlockDays = 28
	academicBlockMax  = 13
)

type blockStore interface {
	List(ctx context.Context, filter models.BlockFilter) ([]models.Block, error)
	GetByID(ctx context.Context, id string) (*models.Block, error)
	BulkCreate(ctx context.Context, blocks []models.Block) error
	Delete(ctx context.Context, id string) error
}

type assignmentCounter interface {
	CountByBlock(ctx context.Context, blockID string) (int, error)
}

// CalendarService owns the block calendar: half-day scheduling units with
// weekend, holiday, and academic-block annotations.
type CalendarService struct {
	cfg         config.CalendarConfig
	blocks      blockStore
	assignments assignmentCounter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCalendarService constructs the calendar service.
func NewCalendarService(cfg config.CalendarConfig, blocks blockStore, assignments assignmentCounter, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{cfg: cfg, blocks: blocks, assignments: assignments, validator: validate, logger: logger}
}

// GenerateBlocks materialises AM and PM blocks for every date in the range.
// Existing (date, session) pairs are skipped, so regeneration over an
// overlapping range is idempotent.
func (s *CalendarService) GenerateBlocks(ctx context.Context, req dto.GenerateBlocksRequest) (*dto.GenerateBlocksResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block generation request")
	}
	if req.RangeEnd.Before(req.RangeStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rangeEnd must not precede rangeStart")
	}

	yearStart := s.academicYearStart(req)

	existing, err := s.blocks.List(ctx, models.BlockFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing blocks")
	}
	present := make(map[string]bool, len(existing))
	for _, block := range existing {
		present[block.Key()] = true
	}

	now := time.Now().UTC()
	var created []models.Block
	skipped := 0
	for date := truncateDay(req.RangeStart); !date.After(truncateDay(req.RangeEnd)); date = date.AddDate(0, 0, 1) {
		for _, session := range []models.Session{models.SessionAM, models.SessionPM} {
			block := models.Block{
				ID:                  uuid.NewString(),
				Date:                date,
				Session:             session,
				AcademicBlockNumber: academicBlockNumber(yearStart, date),
				IsWeekend:           date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
				CreatedAt:           now,
			}
			if name, ok := s.cfg.Holidays[date.Format("01-02")]; ok {
				block.IsHoliday = true
				holidayName := name
				block.HolidayName = &holidayName
			}
			if present[block.Key()] {
				skipped++
				continue
			}
			created = append(created, block)
		}
	}

	if len(created) > 0 {
		if err := s.blocks.BulkCreate(ctx, created); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blocks")
		}
	}

	s.logger.Info("calendar blocks generated",
		zap.Int("created", len(created)),
		zap.Int("skipped", skipped),
		zap.Time("range_start", req.RangeStart),
		zap.Time("range_end", req.RangeEnd))
	return &dto.GenerateBlocksResponse{Created: len(created), Skipped: skipped}, nil
}

// ListBlocks returns blocks matching the filter in chronological order.
func (s *CalendarService) ListBlocks(ctx context.Context, filter models.BlockFilter) ([]models.Block, error) {
	blocks, err := s.blocks.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blocks")
	}
	return blocks, nil
}

// ListByAcademicBlock returns all blocks in one academic rotation block.
func (s *CalendarService) ListByAcademicBlock(ctx context.Context, number int) ([]models.Block, error) {
	if number < 1 || number > academicBlockMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("academic block number must be between 1 and %d", academicBlockMax))
	}
	return s.ListBlocks(ctx, models.BlockFilter{AcademicBlockNumber: &number})
}

// DeleteBlock removes an empty block. Blocks holding assignments are
// protected; callers must clear them first.
func (s *CalendarService) DeleteBlock(ctx context.Context, id string) error {
	if _, err := s.blocks.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("block %s not found", id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}

	count, err := s.assignments.CountByBlock(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count block assignments")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("block %s holds %d assignments", id, count))
	}

	if err := s.blocks.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("block %s not found", id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete block")
	}
	return nil
}

func (s *CalendarService) academicYearStart(req dto.GenerateBlocksRequest) time.Time {
	if !req.AcademicYearStart.IsZero() {
		return truncateDay(req.AcademicYearStart)
	}
	if s.cfg.AcademicYearStart != "" {
		if t, err := time.Parse("2006-01-02", s.cfg.AcademicYearStart); err == nil {
			return t
		}
		s.logger.Warn("unparseable academic year start, falling back to range start",
			zap.String("value", s.cfg.AcademicYearStart))
	}
	return truncateDay(req.RangeStart)
}

func academicBlockNumber(yearStart, date time.Time) int {
	days := int(date.Sub(yearStart).Hours() / 24)
	if days < 0 {
		return 1
	}
	number := days/academicBlockDays + 1
	if number > academicBlockMax {
		return academicBlockMax
	}
	return number
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
