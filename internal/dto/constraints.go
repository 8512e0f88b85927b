package dto

// SetConstraintEnabledRequest toggles one registry entry.
type SetConstraintEnabledRequest struct {
	Name          string `json:"name" validate:"required"`
	Enabled       bool   `json:"enabled"`
	DisableReason string `json:"disableReason,omitempty"`
}

// SetConstraintEnabledResponse echoes the updated constraint plus soft
// warnings about enabled constraints that depend on a newly disabled one.
type SetConstraintEnabledResponse struct {
	Name     string   `json:"name"`
	Enabled  bool     `json:"enabled"`
	Warnings []string `json:"warnings,omitempty"`
}

// ApplyPresetResponse summarises an atomic preset application.
type ApplyPresetResponse struct {
	Preset   string   `json:"preset"`
	Enabled  []string `json:"enabled"`
	Disabled []string `json:"disabled"`
}
