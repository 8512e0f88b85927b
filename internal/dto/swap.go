package dto

import (
	"time"

	"github.com/noah-isme/gme-rota-api/internal/models"
)

// SwapRequest describes a proposed schedule mutation. Version fields carry
// the last-seen assignment versions for the optimistic-lock check.
type SwapRequest struct {
	Type             models.SwapType `json:"type" validate:"required,oneof=ONE_TO_ONE ABSORB"`
	FromAssignmentID string          `json:"fromAssignmentId" validate:"required"`
	FromVersion      int64           `json:"fromVersion" validate:"required,min=1"`
	ToAssignmentID   string          `json:"toAssignmentId,omitempty"`
	ToVersion        int64           `json:"toVersion,omitempty"`
	// TargetPersonID names the absorbing party for ABSORB swaps.
	TargetPersonID string `json:"targetPersonId,omitempty"`
	RequestedBy    string `json:"requestedBy,omitempty"`
}

// SwapIssue is one structured validation finding.
type SwapIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SwapValidation reports the outcome of the ordered validation pipeline.
type SwapValidation struct {
	Valid    bool        `json:"valid"`
	Errors   []SwapIssue `json:"errors,omitempty"`
	Warnings []SwapIssue `json:"warnings,omitempty"`
}

// EmergencyCoverageRequest asks the resolver to re-cover a person's
// assignments over an absence range.
type EmergencyCoverageRequest struct {
	PersonID   string    `json:"personId" validate:"required"`
	RangeStart time.Time `json:"rangeStart" validate:"required"`
	RangeEnd   time.Time `json:"rangeEnd" validate:"required"`
	// Commit applies the replacements; otherwise the report is advisory.
	Commit      bool   `json:"commit"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

// CoverageReplacement pairs an uncovered assignment with its best candidate.
type CoverageReplacement struct {
	AssignmentID  string  `json:"assignmentId"`
	BlockID       string  `json:"blockId"`
	ReplacementID string  `json:"replacementPersonId"`
	Score         float64 `json:"score"`
	Applied       bool    `json:"applied"`
}

// CoverageReport lists replacements found and gaps needing manual review.
type CoverageReport struct {
	Replacements []CoverageReplacement `json:"replacements"`
	Gaps         []CoverageGap         `json:"gaps,omitempty"`
}
