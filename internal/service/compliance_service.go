package service

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/internal/solver"
	"github.com/noah-isme/gme-rota-api/pkg/config"
)

// ComplianceService evaluates assignment sets against the regulatory rules.
// Validate is a pure function of its inputs: no clock reads, no hidden
// state, so repeated validation of an unchanged set returns identical
// results.
type ComplianceService struct {
	cfg    config.ComplianceConfig
	logger *zap.Logger
}

// NewComplianceService applies config defaults and returns the validator.
func NewComplianceService(cfg config.ComplianceConfig, logger *zap.Logger) *ComplianceService {
	if cfg.WeeklyHourCeiling <= 0 {
		cfg.WeeklyHourCeiling = 80
	}
	if cfg.RollingWeeks <= 0 {
		cfg.RollingWeeks = 4
	}
	if cfg.RestWindowDays <= 0 {
		cfg.RestWindowDays = 7
	}
	if cfg.HoursPerSession <= 0 {
		cfg.HoursPerSession = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceService{cfg: cfg, logger: logger}
}

// Validate checks the assignment set over the date range under the supplied
// constraint snapshot. Each rule is individually togglable through the
// registry; double-booking is a structural invariant and always checked.
func (s *ComplianceService) Validate(
	assignments []models.Assignment,
	blocks []models.Block,
	rotations []models.RotationTemplate,
	rangeStart, rangeEnd time.Time,
	snapshot models.ConstraintSnapshot,
) models.ValidationResult {
	blocksByID := make(map[string]models.Block, len(blocks))
	for _, block := range blocks {
		blocksByID[block.ID] = block
	}
	rotationsByID := make(map[string]models.RotationTemplate, len(rotations))
	for _, rotation := range rotations {
		rotationsByID[rotation.ID] = rotation
	}

	var violations []models.ComplianceViolation

	sessionsByPersonDay := make(map[string]map[string]int)
	people := make(map[string]bool)
	seenPairs := make(map[string]bool)
	for _, a := range assignments {
		block, ok := blocksByID[a.BlockID]
		if !ok {
			continue
		}
		people[a.PersonID] = true

		pairKey := block.Key() + "|" + a.PersonID
		if seenPairs[pairKey] {
			violations = append(violations, models.ComplianceViolation{
				Type:            models.ViolationDoubleBooking,
				Severity:        models.SeverityCritical,
				SubjectPersonID: a.PersonID,
				Message:         fmt.Sprintf("person %s is assigned twice in the %s session of %s", a.PersonID, block.Session, block.Date.Format("2006-01-02")),
				Details:         map[string]string{"block_id": a.BlockID},
			})
		}
		seenPairs[pairKey] = true

		if sessionsByPersonDay[a.PersonID] == nil {
			sessionsByPersonDay[a.PersonID] = make(map[string]int)
		}
		sessionsByPersonDay[a.PersonID][block.Date.Format("2006-01-02")]++
	}

	if snapshot.Enabled(solver.ConstraintWorkHourLimit) {
		violations = append(violations, s.workHourViolations(sessionsByPersonDay, rangeStart, rangeEnd)...)
	}
	if snapshot.Enabled(solver.ConstraintRestPeriod) {
		violations = append(violations, s.restViolations(sessionsByPersonDay)...)
	}
	if snapshot.Enabled(solver.ConstraintSupervisionRatio) {
		violations = append(violations, s.supervisionViolations(assignments, blocksByID, rotationsByID)...)
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Type != violations[j].Type {
			return violations[i].Type < violations[j].Type
		}
		if violations[i].SubjectPersonID != violations[j].SubjectPersonID {
			return violations[i].SubjectPersonID < violations[j].SubjectPersonID
		}
		return violations[i].Message < violations[j].Message
	})

	result := models.ValidationResult{
		Valid:        len(violations) == 0,
		Violations:   violations,
		CoverageRate: coverageRate(assignments, blocks, rotations),
		Stats: models.ComplianceStats{
			BlocksChecked:      len(blocks),
			AssignmentsChecked: len(assignments),
			PeopleChecked:      len(people),
			SoftPenalty:        s.softPenalty(sessionsByPersonDay, snapshot),
		},
	}
	return result
}

// workHourViolations slides a rolling window of RollingWeeks*7 days over the
// range for every person. Offending windows are deduplicated to the single
// window with the maximum excess per person; ties keep the earliest window.
func (s *ComplianceService) workHourViolations(sessionsByPersonDay map[string]map[string]int, rangeStart, rangeEnd time.Time) []models.ComplianceViolation {
	windowDays := s.cfg.RollingWeeks * 7
	rangeStart = rangeStart.Truncate(24 * time.Hour)
	rangeEnd = rangeEnd.Truncate(24 * time.Hour)

	var out []models.ComplianceViolation
	for personID, perDay := range sessionsByPersonDay {
		var worst *models.ComplianceViolation
		var worstExcess float64
		for start := rangeStart; !start.AddDate(0, 0, windowDays-1).After(rangeEnd); start = start.AddDate(0, 0, 1) {
			var hours float64
			for i := 0; i < windowDays; i++ {
				hours += float64(perDay[start.AddDate(0, 0, i).Format("2006-01-02")]) * s.cfg.HoursPerSession
			}
			avgWeekly := hours / float64(s.cfg.RollingWeeks)
			excess := avgWeekly - s.cfg.WeeklyHourCeiling
			if excess <= 0 || excess <= worstExcess {
				continue
			}
			worstExcess = excess
			end := start.AddDate(0, 0, windowDays-1)
			worst = &models.ComplianceViolation{
				Type:            models.ViolationWorkHourLimit,
				Severity:        models.SeverityCritical,
				SubjectPersonID: personID,
				Message: fmt.Sprintf("person %s averages %.1f weekly hours over the %d-week window starting %s (limit %.0f)",
					personID, avgWeekly, s.cfg.RollingWeeks, start.Format("2006-01-02"), s.cfg.WeeklyHourCeiling),
				Details: map[string]string{
					"window_start":     start.Format("2006-01-02"),
					"window_end":       end.Format("2006-01-02"),
					"avg_weekly_hours": fmt.Sprintf("%.1f", avgWeekly),
				},
			}
		}
		if worst != nil {
			out = append(out, *worst)
		}
	}
	return out
}

// restViolations checks that every person has at least one full day off
// (both sessions free) in every RestWindowDays consecutive days of their
// active span. One violation is reported per person, for the earliest
// offending window.
func (s *ComplianceService) restViolations(sessionsByPersonDay map[string]map[string]int) []models.ComplianceViolation {
	var out []models.ComplianceViolation
	for personID, perDay := range sessionsByPersonDay {
		first, last, ok := activeSpan(perDay)
		if !ok {
			continue
		}
		for start := first; !start.AddDate(0, 0, s.cfg.RestWindowDays-1).After(last); start = start.AddDate(0, 0, 1) {
			rested := false
			for i := 0; i < s.cfg.RestWindowDays; i++ {
				if perDay[start.AddDate(0, 0, i).Format("2006-01-02")] == 0 {
					rested = true
					break
				}
			}
			if rested {
				continue
			}
			out = append(out, models.ComplianceViolation{
				Type:            models.ViolationRestPeriod,
				Severity:        models.SeverityHigh,
				SubjectPersonID: personID,
				Message: fmt.Sprintf("person %s has no full rest day in the %d days starting %s",
					personID, s.cfg.RestWindowDays, start.Format("2006-01-02")),
				Details: map[string]string{
					"window_start": start.Format("2006-01-02"),
					"window_end":   start.AddDate(0, 0, s.cfg.RestWindowDays-1).Format("2006-01-02"),
				},
			})
			break
		}
	}
	return out
}

// supervisionViolations checks each supervised (block, rotation) grouping:
// non-supervising occupants must be covered by enough supervisors at the
// rotation's ratio.
func (s *ComplianceService) supervisionViolations(
	assignments []models.Assignment,
	blocksByID map[string]models.Block,
	rotationsByID map[string]models.RotationTemplate,
) []models.ComplianceViolation {
	type occupancy struct {
		supervisors int
		supervised  int
	}
	groups := make(map[string]*occupancy)
	groupBlock := make(map[string]models.Block)
	groupRotation := make(map[string]models.RotationTemplate)

	for _, a := range assignments {
		if a.RotationTemplateID == nil {
			continue
		}
		rotation, ok := rotationsByID[*a.RotationTemplateID]
		if !ok || !rotation.SupervisionRequired {
			continue
		}
		block, ok := blocksByID[a.BlockID]
		if !ok {
			continue
		}
		key := block.Key() + "|" + rotation.ID
		if groups[key] == nil {
			groups[key] = &occupancy{}
			groupBlock[key] = block
			groupRotation[key] = rotation
		}
		if a.Role == models.RoleSupervising {
			groups[key].supervisors++
		} else {
			groups[key].supervised++
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []models.ComplianceViolation
	for _, key := range keys {
		occ := groups[key]
		if occ.supervised == 0 {
			continue
		}
		rotation := groupRotation[key]
		ratio := rotation.MaxSupervisionRatio
		if ratio <= 0 {
			ratio = 4
		}
		if occ.supervisors > 0 && occ.supervised <= occ.supervisors*ratio {
			continue
		}
		block := groupBlock[key]
		out = append(out, models.ComplianceViolation{
			Type:     models.ViolationSupervisionRatio,
			Severity: models.SeverityCritical,
			Message: fmt.Sprintf("rotation %s on %s %s has %d supervised occupants for %d supervisors (max ratio 1:%d)",
				rotation.Name, block.Date.Format("2006-01-02"), block.Session, occ.supervised, occ.supervisors, ratio),
			Details: map[string]string{
				"block_id":    block.ID,
				"rotation_id": rotation.ID,
				"supervised":  fmt.Sprintf("%d", occ.supervised),
				"supervisors": fmt.Sprintf("%d", occ.supervisors),
			},
		})
	}
	return out
}

// softPenalty reports fairness drift as data in the stats, never as a
// violation.
func (s *ComplianceService) softPenalty(sessionsByPersonDay map[string]map[string]int, snapshot models.ConstraintSnapshot) float64 {
	weight := snapshot.Weight(solver.ConstraintFairnessBalance)
	if weight == 0 || len(sessionsByPersonDay) == 0 {
		return 0
	}
	minHours, maxHours := -1.0, 0.0
	for _, perDay := range sessionsByPersonDay {
		var hours float64
		for _, sessions := range perDay {
			hours += float64(sessions) * s.cfg.HoursPerSession
		}
		if minHours < 0 || hours < minHours {
			minHours = hours
		}
		if hours > maxHours {
			maxHours = hours
		}
	}
	return weight * (maxHours - minHours)
}

func activeSpan(perDay map[string]int) (first, last time.Time, ok bool) {
	for day, sessions := range perDay {
		if sessions == 0 {
			continue
		}
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		if !ok || t.Before(first) {
			first = t
		}
		if !ok || t.After(last) {
			last = t
		}
		ok = true
	}
	return first, last, ok
}

// coverageRate is the share of demand slots covered by the assignment set.
func coverageRate(assignments []models.Assignment, blocks []models.Block, rotations []models.RotationTemplate) float64 {
	demand := solver.DemandSlots(blocks, rotations)
	if len(demand) == 0 {
		return 1
	}
	blocksByID := make(map[string]models.Block, len(blocks))
	for _, block := range blocks {
		blocksByID[block.ID] = block
	}
	covered := make(map[string]int)
	for _, a := range assignments {
		if a.RotationTemplateID == nil {
			continue
		}
		block, ok := blocksByID[a.BlockID]
		if !ok {
			continue
		}
		covered[block.Key()+"|"+*a.RotationTemplateID+"|"+string(a.Role)]++
	}
	filled := 0
	for _, slot := range demand {
		key := slot.Block.Key() + "|" + slot.Rotation.ID + "|" + string(slot.Role)
		if covered[key] > 0 {
			covered[key]--
			filled++
		}
	}
	return float64(filled) / float64(len(demand))
}
