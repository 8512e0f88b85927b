package service

import (
	"github.com/noah-isme/gme-rota-api/internal/models"
	"github.com/noah-isme/gme-rota-api/internal/solver"
)

// DefaultCatalog returns the built-in constraint set the registry is seeded
// with. Names are the shared contract with the solver and the validator.
func DefaultCatalog() []models.Constraint {
	return []models.Constraint{
		{Name: solver.ConstraintWorkHourLimit, Enabled: true, Priority: 100, Weight: 1, Category: models.CategoryACGME, Hard: true},
		{Name: solver.ConstraintRestPeriod, Enabled: true, Priority: 95, Weight: 1, Category: models.CategoryACGME, Hard: true},
		{Name: solver.ConstraintSupervisionRatio, Enabled: true, Priority: 90, Weight: 1, Category: models.CategoryACGME, Hard: true},
		{Name: solver.ConstraintCoverageMinimum, Enabled: true, Priority: 85, Weight: 1, Category: models.CategoryCoverage, Hard: true},
		{Name: solver.ConstraintCapacityLimit, Enabled: true, Priority: 80, Weight: 1, Category: models.CategoryCapacity, Hard: true},
		{Name: solver.ConstraintSpecialtyMatch, Enabled: true, Priority: 70, Weight: 1, Category: models.CategoryCapacity, Hard: true},
		{Name: solver.ConstraintProcedureCredential, Enabled: true, Priority: 65, Weight: 1, Category: models.CategoryCapacity, Hard: true},
		{Name: solver.ConstraintFairnessBalance, Enabled: true, Priority: 50, Weight: 1, Category: models.CategoryFairness},
		{Name: solver.ConstraintPreferenceMatch, Enabled: true, Priority: 40, Weight: 1, Category: models.CategoryPreference},
		{Name: solver.ConstraintNoBackToBackCall, Enabled: false, Priority: 60, Weight: 1, Category: models.CategoryResilience, Hard: true},
		{Name: "weekend_equity", Enabled: false, Priority: 45, Weight: 1, Category: models.CategoryFairness, Dependencies: []string{solver.ConstraintFairnessBalance}},
		{Name: "holiday_equity", Enabled: false, Priority: 44, Weight: 1, Category: models.CategoryFairness, Dependencies: []string{solver.ConstraintFairnessBalance}},
		{Name: "surge_buffer", Enabled: false, Priority: 35, Weight: 1, Category: models.CategoryResilience, Dependencies: []string{solver.ConstraintCoverageMinimum}},
		{Name: "cross_training_spread", Enabled: false, Priority: 30, Weight: 1, Category: models.CategoryResilience, Dependencies: []string{"surge_buffer"}},
		{Name: "call_frequency_limit", Enabled: false, Priority: 55, Weight: 1, Category: models.CategoryACGME, Hard: true},
		{Name: "sports_event_coverage", Enabled: false, Priority: 20, Weight: 1, Category: models.CategoryExperimental, Dependencies: []string{solver.ConstraintCoverageMinimum}},
	}
}

// presets are versioned full-replacement configurations: every catalog
// constraint is listed as enabled or disabled, never partially touched.
var presets = map[string]map[string]bool{
	"minimal": {
		solver.ConstraintWorkHourLimit:       true,
		solver.ConstraintRestPeriod:          true,
		solver.ConstraintSupervisionRatio:    true,
		solver.ConstraintCoverageMinimum:     true,
		solver.ConstraintCapacityLimit:       true,
		solver.ConstraintSpecialtyMatch:      false,
		solver.ConstraintProcedureCredential: false,
		solver.ConstraintFairnessBalance:     false,
		solver.ConstraintPreferenceMatch:     false,
		solver.ConstraintNoBackToBackCall:    false,
		"weekend_equity":                     false,
		"holiday_equity":                     false,
		"surge_buffer":                       false,
		"cross_training_spread":              false,
		"call_frequency_limit":               false,
		"sports_event_coverage":              false,
	},
	"strict": {
		solver.ConstraintWorkHourLimit:       true,
		solver.ConstraintRestPeriod:          true,
		solver.ConstraintSupervisionRatio:    true,
		solver.ConstraintCoverageMinimum:     true,
		solver.ConstraintCapacityLimit:       true,
		solver.ConstraintSpecialtyMatch:      true,
		solver.ConstraintProcedureCredential: true,
		solver.ConstraintFairnessBalance:     true,
		solver.ConstraintPreferenceMatch:     false,
		solver.ConstraintNoBackToBackCall:    true,
		"weekend_equity":                     true,
		"holiday_equity":                     true,
		"surge_buffer":                       false,
		"cross_training_spread":              false,
		"call_frequency_limit":               true,
		"sports_event_coverage":              false,
	},
	"resilience_tier1": {
		solver.ConstraintWorkHourLimit:       true,
		solver.ConstraintRestPeriod:          true,
		solver.ConstraintSupervisionRatio:    true,
		solver.ConstraintCoverageMinimum:     true,
		solver.ConstraintCapacityLimit:       true,
		solver.ConstraintSpecialtyMatch:      true,
		solver.ConstraintProcedureCredential: true,
		solver.ConstraintFairnessBalance:     true,
		solver.ConstraintPreferenceMatch:     true,
		solver.ConstraintNoBackToBackCall:    false,
		"weekend_equity":                     false,
		"holiday_equity":                     false,
		"surge_buffer":                       true,
		"cross_training_spread":              false,
		"call_frequency_limit":               false,
		"sports_event_coverage":              false,
	},
	"resilience_tier2": {
		solver.ConstraintWorkHourLimit:       true,
		solver.ConstraintRestPeriod:          true,
		solver.ConstraintSupervisionRatio:    true,
		solver.ConstraintCoverageMinimum:     true,
		solver.ConstraintCapacityLimit:       true,
		solver.ConstraintSpecialtyMatch:      true,
		solver.ConstraintProcedureCredential: true,
		solver.ConstraintFairnessBalance:     true,
		solver.ConstraintPreferenceMatch:     true,
		solver.ConstraintNoBackToBackCall:    true,
		"weekend_equity":                     true,
		"holiday_equity":                     true,
		"surge_buffer":                       true,
		"cross_training_spread":              true,
		"call_frequency_limit":               false,
		"sports_event_coverage":              false,
	},
	"call_scheduling": {
		solver.ConstraintWorkHourLimit:       true,
		solver.ConstraintRestPeriod:          true,
		solver.ConstraintSupervisionRatio:    true,
		solver.ConstraintCoverageMinimum:     true,
		solver.ConstraintCapacityLimit:       true,
		solver.ConstraintSpecialtyMatch:      false,
		solver.ConstraintProcedureCredential: false,
		solver.ConstraintFairnessBalance:     true,
		solver.ConstraintPreferenceMatch:     false,
		solver.ConstraintNoBackToBackCall:    true,
		"weekend_equity":                     false,
		"holiday_equity":                     false,
		"surge_buffer":                       false,
		"cross_training_spread":              false,
		"call_frequency_limit":               true,
		"sports_event_coverage":              false,
	},
	"sports_medicine": {
		solver.ConstraintWorkHourLimit:       true,
		solver.ConstraintRestPeriod:          true,
		solver.ConstraintSupervisionRatio:    true,
		solver.ConstraintCoverageMinimum:     true,
		solver.ConstraintCapacityLimit:       true,
		solver.ConstraintSpecialtyMatch:      true,
		solver.ConstraintProcedureCredential: true,
		solver.ConstraintFairnessBalance:     false,
		solver.ConstraintPreferenceMatch:     true,
		solver.ConstraintNoBackToBackCall:    false,
		"weekend_equity":                     false,
		"holiday_equity":                     false,
		"surge_buffer":                       false,
		"cross_training_spread":              false,
		"call_frequency_limit":               false,
		"sports_event_coverage":              true,
	},
}

// PresetNames lists the known presets.
func PresetNames() []string {
	return []string{"minimal", "strict", "resilience_tier1", "resilience_tier2", "call_scheduling", "sports_medicine"}
}

// MergeCatalog overlays persisted registry state onto the built-in catalog.
// Stored names unknown to the catalog are dropped; the catalog defines the
// rule set, storage only remembers toggles and weights.
func MergeCatalog(catalog, stored []models.Constraint) []models.Constraint {
	byName := make(map[string]models.Constraint, len(stored))
	for _, c := range stored {
		byName[c.Name] = c
	}
	merged := make([]models.Constraint, len(catalog))
	for i, c := range catalog {
		if prior, ok := byName[c.Name]; ok {
			c.Enabled = prior.Enabled
			c.Weight = prior.Weight
			c.DisableReason = prior.DisableReason
			c.UpdatedAt = prior.UpdatedAt
		}
		merged[i] = c
	}
	return merged
}
