package models

// ViolationType identifies the regulatory rule a violation breaches.
type ViolationType string

const (
	ViolationWorkHourLimit    ViolationType = "WORK_HOUR_LIMIT"
	ViolationRestPeriod       ViolationType = "REST_PERIOD"
	ViolationSupervisionRatio ViolationType = "SUPERVISION_RATIO"
	ViolationDoubleBooking    ViolationType = "DOUBLE_BOOKING"
)

// ViolationSeverity ranks violations for publication decisions.
type ViolationSeverity string

const (
	SeverityCritical ViolationSeverity = "CRITICAL"
	SeverityHigh     ViolationSeverity = "HIGH"
	SeverityMedium   ViolationSeverity = "MEDIUM"
	SeverityLow      ViolationSeverity = "LOW"
)

// ComplianceViolation is ephemeral report data. Violations are recomputed on
// demand and never persisted as ground truth; the assignments are.
type ComplianceViolation struct {
	Type            ViolationType     `json:"type"`
	Severity        ViolationSeverity `json:"severity"`
	SubjectPersonID string            `json:"subject_person_id,omitempty"`
	Message         string            `json:"message"`
	Details         map[string]string `json:"details,omitempty"`
}

// ComplianceStats accompanies every validation result.
type ComplianceStats struct {
	BlocksChecked      int     `json:"blocks_checked"`
	AssignmentsChecked int     `json:"assignments_checked"`
	PeopleChecked      int     `json:"people_checked"`
	SoftPenalty        float64 `json:"soft_penalty"`
}

// ValidationResult is a pure function of the validated assignment set and
// date range; repeated validation of unchanged inputs returns identical
// results.
type ValidationResult struct {
	Valid        bool                  `json:"valid"`
	Violations   []ComplianceViolation `json:"violations"`
	CoverageRate float64               `json:"coverage_rate"`
	Stats        ComplianceStats       `json:"stats"`
}

// CriticalCount returns the number of CRITICAL violations.
func (r ValidationResult) CriticalCount() int {
	count := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			count++
		}
	}
	return count
}

// HardViolationCount returns the number of violations at CRITICAL or HIGH
// severity. Lower severities are advisory and do not gate run status.
func (r ValidationResult) HardViolationCount() int {
	count := 0
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical || v.Severity == SeverityHigh {
			count++
		}
	}
	return count
}
