package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gme-rota-api/internal/dto"
	"github.com/noah-isme/gme-rota-api/internal/models"
	appErrors "github.com/noah-isme/gme-rota-api/pkg/errors"
)

type constraintPersister interface {
	UpsertBatch(ctx context.Context, constraints []models.Constraint) error
}

// ConstraintRegistryService is the catalog of named scheduling rules. It
// hands out immutable snapshots to solver invocations, so an in-flight run
// keeps the configuration it started with regardless of later mutations.
type ConstraintRegistryService struct {
	mu          sync.RWMutex
	constraints map[string]*models.Constraint
	persister   constraintPersister
	logger      *zap.Logger
}

// NewConstraintRegistryService seeds the registry from the given catalog.
// The catalog's dependency graph must be acyclic; a cycle is a programming
// error and is rejected at construction.
func NewConstraintRegistryService(catalog []models.Constraint, persister constraintPersister, logger *zap.Logger) (*ConstraintRegistryService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ConstraintRegistryService{
		constraints: make(map[string]*models.Constraint, len(catalog)),
		persister:   persister,
		logger:      logger,
	}
	for i := range catalog {
		c := catalog[i]
		if _, dup := s.constraints[c.Name]; dup {
			return nil, fmt.Errorf("duplicate constraint %q in catalog", c.Name)
		}
		s.constraints[c.Name] = &c
	}
	for name := range s.constraints {
		if err := s.checkAcyclic(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ConstraintRegistryService) checkAcyclic(name string, visiting map[string]bool) error {
	if visiting[name] {
		return fmt.Errorf("constraint dependency cycle through %q", name)
	}
	c, ok := s.constraints[name]
	if !ok {
		return fmt.Errorf("constraint %q depends on unknown constraint", name)
	}
	visiting[name] = true
	for _, dep := range c.Dependencies {
		if err := s.checkAcyclic(dep, visiting); err != nil {
			return err
		}
	}
	delete(visiting, name)
	return nil
}

// Get returns the named constraint.
func (s *ConstraintRegistryService) Get(name string) (models.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.constraints[name]
	if !ok {
		return models.Constraint{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("constraint %s not found", name))
	}
	return *c, nil
}

// List returns constraints matching the filter, ordered by priority (higher
// first) then name.
func (s *ConstraintRegistryService) List(filter models.ConstraintFilter) []models.Constraint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Constraint
	for _, c := range s.constraints {
		if filter.Category != nil && c.Category != *filter.Category {
			continue
		}
		if filter.Enabled != nil && c.Enabled != *filter.Enabled {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SetEnabled toggles one constraint. Enabling requires every dependency to
// be enabled already. Disabling always succeeds but returns soft warnings
// naming enabled constraints that depend on the disabled one; schedules
// already generated stay valid, so this is advisory only.
func (s *ConstraintRegistryService) SetEnabled(ctx context.Context, req dto.SetConstraintEnabledRequest) (*dto.SetConstraintEnabledResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.constraints[req.Name]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("constraint %s not found", req.Name))
	}

	var warnings []string
	if req.Enabled {
		for _, dep := range c.Dependencies {
			if parent, ok := s.constraints[dep]; !ok || !parent.Enabled {
				return nil, appErrors.Clone(appErrors.ErrDependency,
					fmt.Sprintf("cannot enable %s: dependency %s is disabled", req.Name, dep))
			}
		}
		c.Enabled = true
		c.DisableReason = nil
	} else {
		for _, other := range s.constraints {
			if !other.Enabled {
				continue
			}
			for _, dep := range other.Dependencies {
				if dep == req.Name {
					warnings = append(warnings, fmt.Sprintf("enabled constraint %s depends on %s", other.Name, req.Name))
				}
			}
		}
		c.Enabled = false
		if req.DisableReason != "" {
			reason := req.DisableReason
			c.DisableReason = &reason
		}
	}
	c.UpdatedAt = time.Now().UTC()
	sort.Strings(warnings)

	if len(warnings) > 0 {
		s.logger.Sugar().Warnw("constraint disabled with dependents", "name", req.Name, "warnings", warnings)
	}
	s.persist(ctx, []models.Constraint{*c})

	return &dto.SetConstraintEnabledResponse{Name: c.Name, Enabled: c.Enabled, Warnings: warnings}, nil
}

// ApplyPreset atomically replaces the full enablement configuration with the
// named preset. The target state is verified against the dependency graph
// before any mutation; a bad preset leaves the registry untouched.
func (s *ConstraintRegistryService) ApplyPreset(ctx context.Context, name string) (*dto.ApplyPresetResponse, error) {
	target, ok := presets[name]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown preset %s", name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Verify the target state as a whole: every enabled constraint's
	// dependencies must also be enabled in the target.
	for cname, enabled := range target {
		c, ok := s.constraints[cname]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("preset %s names unknown constraint %s", name, cname))
		}
		if !enabled {
			continue
		}
		for _, dep := range c.Dependencies {
			if !target[dep] {
				return nil, appErrors.Clone(appErrors.ErrDependency,
					fmt.Sprintf("preset %s enables %s but not its dependency %s", name, cname, dep))
			}
		}
	}

	resp := &dto.ApplyPresetResponse{Preset: name}
	now := time.Now().UTC()
	var changed []models.Constraint
	for cname, enabled := range target {
		c := s.constraints[cname]
		if c.Enabled == enabled {
			continue
		}
		c.Enabled = enabled
		c.DisableReason = nil
		c.UpdatedAt = now
		changed = append(changed, *c)
		if enabled {
			resp.Enabled = append(resp.Enabled, cname)
		} else {
			resp.Disabled = append(resp.Disabled, cname)
		}
	}
	sort.Strings(resp.Enabled)
	sort.Strings(resp.Disabled)
	s.persist(ctx, changed)

	s.logger.Sugar().Infow("preset applied", "preset", name, "enabled", len(resp.Enabled), "disabled", len(resp.Disabled))
	return resp, nil
}

// Snapshot returns an immutable copy of the current configuration.
func (s *ConstraintRegistryService) Snapshot() models.ConstraintSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := models.ConstraintSnapshot{
		TakenAt:     time.Now().UTC(),
		Constraints: make(map[string]models.Constraint, len(s.constraints)),
	}
	for name, c := range s.constraints {
		copied := *c
		copied.Dependencies = append([]string(nil), c.Dependencies...)
		snapshot.Constraints[name] = copied
	}
	return snapshot
}

func (s *ConstraintRegistryService) persist(ctx context.Context, changed []models.Constraint) {
	if s.persister == nil || len(changed) == 0 {
		return
	}
	if err := s.persister.UpsertBatch(ctx, changed); err != nil {
		// Registry state is authoritative in memory; persistence is
		// best-effort mirroring for the surrounding system.
		s.logger.Sugar().Errorw("failed to persist constraint changes", "error", err)
	}
}
