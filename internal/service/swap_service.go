package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gme-rota-api/internal/dto"
	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/internal/solver"
	"github.com/noah-isme/gme-rota-api/pkg/config"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
	"github.com/noah-isme/gme-rota-api/pkg/metrics"
)

type assignmentMutator interface {
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	ApplyVersioned(ctx context.Context, updates []models.VersionedUpdate) error
}

type swapRepository interface {
	Create(ctx context.Context, record *models.SwapRecord) error
	Update(ctx context.Context, record *models.SwapRecord) error
	GetByID(ctx context.Context, id string) (*models.SwapRecord, error)
}

// Validation issue codes surfaced by the swap pipeline.
const (
	swapIssueStaleVersion   = "STALE_VERSION"
	swapIssueDoubleBooked   = "DOUBLE_BOOKED"
	swapIssueBackToBackCall = "BACK_TO_BACK_CALL"
	swapIssueAbsent         = "ABSENT"
	swapIssueSupervision    = "SUPERVISION_BROKEN"
)

// SwapService resolves schedule conflicts through validated, reversible
// mutations. Every mutation is optimistic: callers present the assignment
// versions they last saw, and a mismatch rejects the whole swap.
type SwapService struct {
	cfg config.SwapConfig

	assignments assignmentMutator
	swaps       swapRepository
	blocks      blockReader
	people      personReader
	rotations   rotationReader
	absences    absenceReader
	registry    snapshotProvider
	compliance  complianceValidator

	metrics   *metrics.Metrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSwapService constructs the conflict resolver.
func NewSwapService(
	cfg config.SwapConfig,
	assignments assignmentMutator,
	swaps swapRepository,
	blocks blockReader,
	people personReader,
	rotations rotationReader,
	absences absenceReader,
	registry snapshotProvider,
	compliance complianceValidator,
	m *metrics.Metrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *SwapService {
	if cfg.RollbackWindow <= 0 {
		cfg.RollbackWindow = 24 * time.Hour
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		cfg:         cfg,
		assignments: assignments,
		swaps:       swaps,
		blocks:      blocks,
		people:      people,
		rotations:   rotations,
		absences:    absences,
		registry:    registry,
		compliance:  compliance,
		metrics:     m,
		validator:   validate,
		logger:      logger,
	}
}

// ProposeSwap runs the ordered validation pipeline and records the outcome.
// The returned record is VALIDATED when the pipeline passes and REJECTED
// otherwise; the validation report carries the structured findings either
// way.
func (s *SwapService) ProposeSwap(ctx context.Context, req dto.SwapRequest) (*models.SwapRecord, *dto.SwapValidation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap request")
	}
	switch req.Type {
	case models.SwapOneToOne:
		if req.ToAssignmentID == "" || req.ToVersion < 1 {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "ONE_TO_ONE swaps require toAssignmentId and toVersion")
		}
	case models.SwapAbsorb:
		if req.TargetPersonID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "ABSORB swaps require targetPersonId")
		}
	}

	from, err := s.loadAssignment(ctx, req.FromAssignmentID)
	if err != nil {
		return nil, nil, err
	}
	var to *models.Assignment
	if req.Type == models.SwapOneToOne {
		if to, err = s.loadAssignment(ctx, req.ToAssignmentID); err != nil {
			return nil, nil, err
		}
	}

	validation := &dto.SwapValidation{}

	// Version check runs first: nothing else is meaningful against stale
	// state.
	if from.Version != req.FromVersion {
		addIssue(validation, swapIssueStaleVersion, fmt.Sprintf("assignment %s is at version %d, caller saw %d", from.ID, from.Version, req.FromVersion))
	}
	if to != nil && to.Version != req.ToVersion {
		addIssue(validation, swapIssueStaleVersion, fmt.Sprintf("assignment %s is at version %d, caller saw %d", to.ID, to.Version, req.ToVersion))
	}

	if len(validation.Errors) == 0 {
		if err := s.runChecks(ctx, req, from, to, validation); err != nil {
			return nil, nil, err
		}
	}

	validation.Valid = len(validation.Errors) == 0

	record := &models.SwapRecord{
		ID:               uuid.NewString(),
		Type:             req.Type,
		Status:           models.SwapStatusValidated,
		FromAssignmentID: from.ID,
		FromPersonID:     from.PersonID,
		ToPersonID:       s.receiverID(req, to),
		FromVersion:      from.Version,
		CreatedBy:        req.RequestedBy,
		CreatedAt:        time.Now().UTC(),
	}
	if to != nil {
		toID := to.ID
		toVersion := to.Version
		record.ToAssignmentID = &toID
		record.ToVersion = &toVersion
	}
	if !validation.Valid {
		record.Status = models.SwapStatusRejected
	}

	if err := s.swaps.Create(ctx, record); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record swap")
	}
	s.metrics.ObserveSwap(string(req.Type), string(record.Status))
	return record, validation, nil
}

// CommitSwap applies a VALIDATED swap atomically. The pre-swap assignment
// rows are captured as the inverse so the mutation can be rolled back.
func (s *SwapService) CommitSwap(ctx context.Context, swapID string) (*models.SwapRecord, error) {
	record, err := s.loadSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.SwapStatusValidated {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("swap %s is %s, only VALIDATED swaps commit", swapID, record.Status))
	}

	from, err := s.loadAssignment(ctx, record.FromAssignmentID)
	if err != nil {
		return nil, err
	}
	var to *models.Assignment
	if record.ToAssignmentID != nil {
		if to, err = s.loadAssignment(ctx, *record.ToAssignmentID); err != nil {
			return nil, err
		}
	}

	inverse := models.SwapInverse{Assignments: []models.Assignment{*from}}
	if to != nil {
		inverse.Assignments = append(inverse.Assignments, *to)
	}

	// The expected versions are the ones captured when the swap was
	// validated, not the freshly loaded ones. Any mutation that landed
	// between proposal and commit fails the compare-and-set below.
	var updates []models.VersionedUpdate
	switch record.Type {
	case models.SwapOneToOne:
		if record.ToVersion == nil {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("swap %s is missing its validated receiver version", swapID))
		}
		updatedFrom := *from
		updatedFrom.PersonID = to.PersonID
		updatedTo := *to
		updatedTo.PersonID = from.PersonID
		updates = []models.VersionedUpdate{
			{Assignment: updatedFrom, ExpectedVersion: record.FromVersion},
			{Assignment: updatedTo, ExpectedVersion: *record.ToVersion},
		}
	case models.SwapAbsorb:
		updated := *from
		updated.PersonID = record.ToPersonID
		updates = []models.VersionedUpdate{{Assignment: updated, ExpectedVersion: record.FromVersion}}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown swap type %q", record.Type))
	}

	if err := s.assignments.ApplyVersioned(ctx, updates); err != nil {
		if appErrors.Is(err, appErrors.ErrOptimisticLock) {
			s.metrics.ObserveSwap(string(record.Type), "conflict")
			return nil, appErrors.Clone(appErrors.ErrConflict, "assignment changed since validation, re-propose the swap")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply swap")
	}

	now := time.Now().UTC()
	record.Status = models.SwapStatusCommitted
	record.CommittedAt = &now
	if raw, err := json.Marshal(inverse); err == nil {
		record.Inverse = raw
	}
	if err := s.swaps.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize swap record")
	}

	s.metrics.ObserveSwap(string(record.Type), "committed")
	s.logger.Info("swap committed",
		zap.String("swap_id", record.ID),
		zap.String("type", string(record.Type)))
	return record, nil
}

// RollbackSwap replays a committed swap's inverse within the rollback
// window. Versions keep climbing: rollback is a new mutation, not an erase.
func (s *SwapService) RollbackSwap(ctx context.Context, swapID string) (*models.SwapRecord, error) {
	record, err := s.loadSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.SwapStatusCommitted || record.CommittedAt == nil {
		return nil, appErrors.Clone(appErrors.ErrRollbackExpired, fmt.Sprintf("swap %s is %s and cannot be rolled back", swapID, record.Status))
	}
	if time.Since(*record.CommittedAt) > s.cfg.RollbackWindow {
		return nil, appErrors.Clone(appErrors.ErrRollbackExpired, "")
	}

	var inverse models.SwapInverse
	if err := json.Unmarshal(record.Inverse, &inverse); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "swap inverse is unreadable")
	}

	updates := make([]models.VersionedUpdate, 0, len(inverse.Assignments))
	for _, prior := range inverse.Assignments {
		current, err := s.loadAssignment(ctx, prior.ID)
		if err != nil {
			return nil, err
		}
		restored := *current
		restored.PersonID = prior.PersonID
		restored.Role = prior.Role
		restored.RotationTemplateID = prior.RotationTemplateID
		updates = append(updates, models.VersionedUpdate{Assignment: restored, ExpectedVersion: current.Version})
	}

	if err := s.assignments.ApplyVersioned(ctx, updates); err != nil {
		if appErrors.Is(err, appErrors.ErrOptimisticLock) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "assignments changed after the swap, manual resolution required")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to roll back swap")
	}

	now := time.Now().UTC()
	record.Status = models.SwapStatusRolledBack
	record.RolledBackAt = &now
	if err := s.swaps.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize rollback")
	}

	s.metrics.ObserveSwap(string(record.Type), "rolled_back")
	return record, nil
}

// GetSwap returns a stored swap record by ID.
func (s *SwapService) GetSwap(ctx context.Context, id string) (*models.SwapRecord, error) {
	return s.loadSwap(ctx, id)
}

// CoverAbsence finds the best replacement for each of a person's
// assignments over a range, using the same ranking the greedy solver uses.
// With Commit set the replacements are applied; otherwise the report is
// advisory.
func (s *SwapService) CoverAbsence(ctx context.Context, req dto.EmergencyCoverageRequest) (*dto.CoverageReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid coverage request")
	}
	if req.RangeEnd.Before(req.RangeStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rangeEnd must not precede rangeStart")
	}

	blocks, err := s.blocks.List(ctx, models.BlockFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocks")
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
	all, err := s.assignments.List(ctx, models.AssignmentFilter{RangeStart: &req.RangeStart, RangeEnd: &req.RangeEnd})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	// The absent person is hard-unavailable for the whole range regardless
	// of whether the absence record has landed yet.
	absences = append(absences, models.Absence{
		PersonID:  req.PersonID,
		StartDate: req.RangeStart,
		EndDate:   req.RangeEnd,
		Approved:  true,
	})

	blocksByID := make(map[string]models.Block, len(blocks))
	for _, block := range blocks {
		blocksByID[block.ID] = block
	}
	rotationsByID := make(map[string]models.RotationTemplate, len(rotations))
	for _, rotation := range rotations {
		rotationsByID[rotation.ID] = rotation
	}

	var affected []models.Assignment
	remaining := make([]models.Assignment, 0, len(all))
	for _, a := range all {
		if a.PersonID == req.PersonID {
			affected = append(affected, a)
			continue
		}
		remaining = append(remaining, a)
	}
	sort.Slice(affected, func(i, j int) bool {
		bi, bj := blocksByID[affected[i].BlockID], blocksByID[affected[j].BlockID]
		if bi.Date.Equal(bj.Date) {
			return bi.Session < bj.Session
		}
		return bi.Date.Before(bj.Date)
	})

	snapshot := s.registry.Snapshot()
	report := &dto.CoverageReport{Replacements: []dto.CoverageReplacement{}}

	for _, a := range affected {
		block, haveBlock := blocksByID[a.BlockID]
		if !haveBlock || a.RotationTemplateID == nil {
			continue
		}
		rotation, haveRotation := rotationsByID[*a.RotationTemplateID]
		if !haveRotation {
			continue
		}
		slot := solver.Slot{Block: block, Rotation: rotation, Role: a.Role}
		inst := &solver.Instance{
			Blocks:      blocks,
			People:      people,
			Rotations:   rotations,
			Absences:    absences,
			Existing:    remaining,
			Preferences: prefs,
			Snapshot:    snapshot,
			CreatedBy:   req.RequestedBy,
		}

		rankings := solver.Rank(inst, slot)
		if len(rankings) == 0 {
			report.Gaps = append(report.Gaps, dto.CoverageGap{
				BlockID:    block.ID,
				Date:       block.Date,
				Session:    block.Session,
				RotationID: rotation.ID,
				Role:       a.Role,
			})
			continue
		}

		best := rankings[0]
		replacement := dto.CoverageReplacement{
			AssignmentID:  a.ID,
			BlockID:       a.BlockID,
			ReplacementID: best.PersonID,
			Score:         best.Score,
		}
		reassigned := a
		reassigned.PersonID = best.PersonID

		if req.Commit {
			update := models.VersionedUpdate{Assignment: reassigned, ExpectedVersion: a.Version}
			if err := s.assignments.ApplyVersioned(ctx, []models.VersionedUpdate{update}); err != nil {
				if appErrors.Is(err, appErrors.ErrOptimisticLock) {
					report.Gaps = append(report.Gaps, dto.CoverageGap{
						BlockID:    block.ID,
						Date:       block.Date,
						Session:    block.Session,
						RotationID: rotation.ID,
						Role:       a.Role,
					})
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply replacement")
			}
			replacement.Applied = true
			s.metrics.ObserveSwap(string(models.SwapAbsorb), "coverage")
		}

		// Later slots must see the replacement as taken.
		remaining = append(remaining, reassigned)
		report.Replacements = append(report.Replacements, replacement)
	}

	return report, nil
}

// runChecks applies the availability, rest, absence, and supervision checks
// in order, appending findings to the validation report.
func (s *SwapService) runChecks(ctx context.Context, req dto.SwapRequest, from, to *models.Assignment, validation *dto.SwapValidation) error {
	fromBlock, err := s.blockOf(ctx, from.BlockID)
	if err != nil {
		return err
	}
	var toBlock *models.Block
	if to != nil {
		if toBlock, err = s.blockOf(ctx, to.BlockID); err != nil {
			return err
		}
	}

	receiver := s.receiverID(req, to)

	// Availability: the receiving party must not already hold an assignment
	// in the block they are taking over, and vice versa for ONE_TO_ONE.
	if err := s.checkAvailability(ctx, receiver, *fromBlock, from.ID, toIDOf(to), validation); err != nil {
		return err
	}
	if to != nil {
		if err := s.checkAvailability(ctx, from.PersonID, *toBlock, from.ID, to.ID, validation); err != nil {
			return err
		}
	}

	snapshot := s.registry.Snapshot()

	// Back-to-back call is advisory and never blocks a swap, so the
	// warning is emitted regardless of the constraint configuration.
	if err := s.checkBackToBack(ctx, receiver, from, *fromBlock, validation); err != nil {
		return err
	}
	if to != nil {
		if err := s.checkBackToBack(ctx, from.PersonID, to, *toBlock, validation); err != nil {
			return err
		}
	}

	if err := s.checkAbsence(ctx, receiver, *fromBlock, validation); err != nil {
		return err
	}
	if to != nil {
		if err := s.checkAbsence(ctx, from.PersonID, *toBlock, validation); err != nil {
			return err
		}
	}

	return s.checkPostSwapCompliance(ctx, req, from, to, *fromBlock, toBlock, snapshot, validation)
}

func (s *SwapService) checkAvailability(ctx context.Context, personID string, block models.Block, excludeA, excludeB string, validation *dto.SwapValidation) error {
	start := block.Date
	end := block.Date
	others, err := s.assignments.List(ctx, models.AssignmentFilter{PersonID: personID, RangeStart: &start, RangeEnd: &end})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "availability lookup failed")
	}
	for _, other := range others {
		if other.ID == excludeA || other.ID == excludeB {
			continue
		}
		if other.BlockID == block.ID {
			addIssue(validation, swapIssueDoubleBooked, fmt.Sprintf("person %s already holds assignment %s in the target block", personID, other.ID))
			return nil
		}
	}
	return nil
}

// checkBackToBack warns when the receiver would hold call activity on
// consecutive days. It is advisory: call frequency rules are soft in every
// shipped preset.
func (s *SwapService) checkBackToBack(ctx context.Context, personID string, incoming *models.Assignment, block models.Block, validation *dto.SwapValidation) error {
	if incoming.RotationTemplateID == nil {
		return nil
	}
	rotations, err := s.rotations.ListActive(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "rotation lookup failed")
	}
	var incomingType string
	rotationTypes := make(map[string]string, len(rotations))
	for _, r := range rotations {
		rotationTypes[r.ID] = r.ActivityType
		if r.ID == *incoming.RotationTemplateID {
			incomingType = r.ActivityType
		}
	}
	if incomingType != "call" {
		return nil
	}

	start := block.Date.AddDate(0, 0, -1)
	end := block.Date.AddDate(0, 0, 1)
	neighbors, err := s.assignments.List(ctx, models.AssignmentFilter{PersonID: personID, RangeStart: &start, RangeEnd: &end})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "adjacency lookup failed")
	}
	for _, n := range neighbors {
		if n.ID == incoming.ID || n.RotationTemplateID == nil {
			continue
		}
		if rotationTypes[*n.RotationTemplateID] == "call" {
			validation.Warnings = append(validation.Warnings, dto.SwapIssue{
				Code:    swapIssueBackToBackCall,
				Message: fmt.Sprintf("person %s would hold call on consecutive days around %s", personID, block.Date.Format("2006-01-02")),
			})
			return nil
		}
	}
	return nil
}

func (s *SwapService) checkAbsence(ctx context.Context, personID string, block models.Block, validation *dto.SwapValidation) error {
	absences, err := s.absences.ListApproved(ctx, block.Date, block.Date)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "absence lookup failed")
	}
	for _, absence := range absences {
		if absence.PersonID == personID && absence.Covers(block.Date) {
			addIssue(validation, swapIssueAbsent, fmt.Sprintf("person %s has approved leave on %s", personID, block.Date.Format("2006-01-02")))
			return nil
		}
	}
	return nil
}

// checkPostSwapCompliance simulates the swap on the affected blocks and
// rejects it when the simulated schedule breaks supervision or books anyone
// twice.
func (s *SwapService) checkPostSwapCompliance(
	ctx context.Context,
	req dto.SwapRequest,
	from, to *models.Assignment,
	fromBlock models.Block,
	toBlock *models.Block,
	snapshot models.ConstraintSnapshot,
	validation *dto.SwapValidation,
) error {
	start, end := fromBlock.Date, fromBlock.Date
	if toBlock != nil {
		if toBlock.Date.Before(start) {
			start = toBlock.Date
		}
		if toBlock.Date.After(end) {
			end = toBlock.Date
		}
	}

	blocks, err := s.blocks.List(ctx, models.BlockFilter{RangeStart: &start, RangeEnd: &end})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blocks")
	}
	rotations, err := s.rotations.ListActive(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rotations")
	}
	assignments, err := s.assignments.List(ctx, models.AssignmentFilter{RangeStart: &start, RangeEnd: &end})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}

	receiver := s.receiverID(req, to)
	simulated := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		switch {
		case a.ID == from.ID:
			a.PersonID = receiver
		case to != nil && a.ID == to.ID:
			a.PersonID = from.PersonID
		}
		simulated = append(simulated, a)
	}

	result := s.compliance.Validate(simulated, blocks, rotations, start, end, snapshot)
	for _, v := range result.Violations {
		switch v.Type {
		case models.ViolationSupervisionRatio:
			addIssue(validation, swapIssueSupervision, v.Message)
		case models.ViolationDoubleBooking:
			addIssue(validation, swapIssueDoubleBooked, v.Message)
		}
	}
	return nil
}

func (s *SwapService) receiverID(req dto.SwapRequest, to *models.Assignment) string {
	if req.Type == models.SwapAbsorb {
		return req.TargetPersonID
	}
	if to != nil {
		return to.PersonID
	}
	return ""
}

func (s *SwapService) loadAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assignment %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return a, nil
}

func (s *SwapService) loadSwap(ctx context.Context, id string) (*models.SwapRecord, error) {
	record, err := s.swaps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("swap %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap")
	}
	return record, nil
}

func (s *SwapService) blockOf(ctx context.Context, blockID string) (*models.Block, error) {
	block, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("block %s not found", blockID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load block")
	}
	return block, nil
}

func addIssue(v *dto.SwapValidation, code, message string) {
	v.Errors = append(v.Errors, dto.SwapIssue{Code: code, Message: message})
}

func toIDOf(to *models.Assignment) string {
	if to == nil {
		return ""
	}
	return to.ID
}
