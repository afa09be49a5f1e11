// Package planner groups plugin installation into ordered phases and
// executes them sequentially
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/stackforge/internal/manager"
	"github.com/dotcommander/stackforge/internal/registry"
	"github.com/dotcommander/stackforge/internal/resolver"
	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// Phase is one named step of an orchestration plan. Order may be
// fractional so a sub-phase (say 2.5) slots between integer-ordered
// phases without renumbering.
type Phase struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Description string   `json:"description" yaml:"description"`
	Plugins     []string `json:"plugins" yaml:"plugins" validate:"required,min=1"`
	Order       float64  `json:"order" yaml:"order"`
	DependsOn   []string `json:"depends_on" yaml:"depends_on,omitempty"`
}

// Plan is an ordered set of phases
type Plan struct {
	Name   string  `json:"name" yaml:"name"`
	Phases []Phase `json:"phases" yaml:"phases" validate:"required,min=1,dive"`
}

// PhaseStatus is the terminal state of one executed phase
type PhaseStatus string

const (
	StatusCompleted PhaseStatus = "completed"
	StatusFailed    PhaseStatus = "failed"
	StatusSkipped   PhaseStatus = "skipped"
)

// PhaseResult records one phase's execution
type PhaseResult struct {
	Phase    string                `json:"phase"`
	Status   PhaseStatus           `json:"status"`
	Results  []*forge.PluginResult `json:"results,omitempty"`
	Error    string                `json:"error,omitempty"`
	Duration time.Duration         `json:"duration"`
}

// Report is the final outcome of one orchestration run. It always lists
// which phases and plugins succeeded, which failed with reason, and the
// accumulated warnings, even on overall success.
type Report struct {
	PlanName         string              `json:"plan_name"`
	RunID            string              `json:"run_id"`
	Valid            bool                `json:"valid"`
	ValidationErrors []string            `json:"validation_errors,omitempty"`
	Conflicts        []resolver.Conflict `json:"conflicts,omitempty"`
	Phases           []PhaseResult       `json:"phases,omitempty"`
	Succeeded        []string            `json:"succeeded,omitempty"`
	Failed           []string            `json:"failed,omitempty"`
	Warnings         []string            `json:"warnings,omitempty"`
	Duration         time.Duration       `json:"duration"`
}

// Success reports whether every phase completed
func (r *Report) Success() bool {
	return r.Valid && len(r.Failed) == 0
}

// Planner validates and executes orchestration plans
type Planner struct {
	registry *registry.Registry
	resolver *resolver.Resolver
	manager  *manager.Manager
	validate *validator.Validate
	logger   *slog.Logger
}

// New creates a Planner
func New(reg *registry.Registry, res *resolver.Resolver, mgr *manager.Manager, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		registry: reg,
		resolver: res,
		manager:  mgr,
		validate: validator.New(),
		logger:   logger,
	}
}

// LoadPlan reads a plan from a YAML file
func (p *Planner) LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	if err := p.validate.Struct(&plan); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &plan, nil
}

// categoryOrder fixes the default phase sequence when building a plan
// from a resolved request
var categoryOrder = map[forge.Category]float64{
	forge.CategoryDatabase:   1,
	forge.CategoryORM:        1.5,
	forge.CategoryFramework:  2,
	forge.CategoryAuth:       3,
	forge.CategoryUI:         4,
	forge.CategoryPayment:    5,
	forge.CategoryEmail:      5.5,
	forge.CategoryMonitoring: 6,
	forge.CategoryBlockchain: 6.5,
	forge.CategoryTesting:    7,
	forge.CategoryDeployment: 8,
}

// Build turns a requested plugin set into a plan: the resolver orders
// the request, then plugins group into one phase per category. An auth
// phase depends on the database phase when both are present.
func (p *Planner) Build(name string, requested []string) (*Plan, *resolver.Resolution, error) {
	resolution, err := p.resolver.Resolve(requested)
	if err != nil {
		return nil, nil, err
	}

	phasesByCategory := make(map[forge.Category]*Phase)
	var phases []*Phase
	for _, id := range resolution.Order {
		plugin, ok := p.registry.Get(id)
		if !ok {
			continue
		}
		category := plugin.Metadata().Category
		phase, ok := phasesByCategory[category]
		if !ok {
			order, known := categoryOrder[category]
			if !known {
				order = 9
			}
			phase = &Phase{
				Name:        string(category),
				Description: fmt.Sprintf("%s setup", category),
				Order:       order,
			}
			phasesByCategory[category] = phase
			phases = append(phases, phase)
		}
		phase.Plugins = append(phase.Plugins, id)
	}

	if _, hasDB := phasesByCategory[forge.CategoryDatabase]; hasDB {
		if auth, hasAuth := phasesByCategory[forge.CategoryAuth]; hasAuth {
			auth.DependsOn = append(auth.DependsOn, string(forge.CategoryDatabase))
		}
	}

	plan := &Plan{Name: name}
	for _, phase := range phases {
		plan.Phases = append(plan.Phases, *phase)
	}
	sortPhases(plan.Phases)
	return plan, resolution, nil
}

// Validate checks that every phase dependency names a phase ordered
// strictly earlier in the plan, every referenced plugin exists, and the
// full plugin set is conflict-free. Findings are collected, not thrown.
func (p *Planner) Validate(plan *Plan) ([]string, []resolver.Conflict) {
	var findings []string

	phaseOrder := make(map[string]float64, len(plan.Phases))
	for _, phase := range plan.Phases {
		phaseOrder[phase.Name] = phase.Order
	}

	var allPlugins []string
	for _, phase := range plan.Phases {
		for _, dep := range phase.DependsOn {
			depOrder, ok := phaseOrder[dep]
			if !ok {
				findings = append(findings, fmt.Sprintf("%v: phase %s depends on %s", forgeerr.ErrDependencyNotFound, phase.Name, dep))
				continue
			}
			if depOrder >= phase.Order {
				findings = append(findings, fmt.Sprintf("%v: phase %s is ordered before its dependency %s", forgeerr.ErrValidation, phase.Name, dep))
			}
		}
		for _, id := range phase.Plugins {
			if _, ok := p.registry.Get(id); !ok {
				findings = append(findings, fmt.Sprintf("%v: %s (phase %s)", forgeerr.ErrPluginNotFound, id, phase.Name))
				continue
			}
			allPlugins = append(allPlugins, id)
		}
	}

	conflicts := p.resolver.ScanConflicts(allPlugins)
	return findings, conflicts
}

// Execute validates the plan, then runs phases sequentially by
// ascending order. A failed phase is recorded with a warning and
// subsequent phases still run; phase-level failure is non-fatal to the
// overall plan, unlike the manager's fail-fast batch install. No phase
// executes when validation fails.
func (p *Planner) Execute(ctx context.Context, plan *Plan, fctx *forge.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		PlanName: plan.Name,
		RunID:    uuid.New().String(),
		Valid:    true,
	}

	findings, conflicts := p.Validate(plan)
	report.Conflicts = conflicts
	report.ValidationErrors = findings
	for _, c := range conflicts {
		if c.Severity == resolver.SeverityError {
			report.ValidationErrors = append(report.ValidationErrors,
				fmt.Sprintf("%v: %s and %s: %s", forgeerr.ErrConflict, c.PluginA, c.PluginB, c.Reason))
		} else {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("conflict warning: %s and %s: %s", c.PluginA, c.PluginB, c.Reason))
		}
	}

	if len(report.ValidationErrors) > 0 {
		report.Valid = false
		report.Duration = time.Since(start)
		p.logger.Error("plan invalid", "plan", plan.Name, "errors", len(report.ValidationErrors))
		return report, fmt.Errorf("plan %s failed validation", plan.Name)
	}

	ordered := make([]Phase, len(plan.Phases))
	copy(ordered, plan.Phases)
	sortPhases(ordered)

	for _, phase := range ordered {
		p.logger.Info("executing phase", "phase", phase.Name, "plugins", len(phase.Plugins))
		phaseStart := time.Now()

		run, err := p.manager.InstallAll(ctx, phase.Plugins, fctx)
		p.logger.Debug("shared state after phase", "phase", phase.Name, "keys", fctx.Keys())

		phaseResult := PhaseResult{
			Phase:    phase.Name,
			Status:   StatusCompleted,
			Duration: time.Since(phaseStart),
		}
		if run != nil {
			phaseResult.Results = run.Results
			for _, result := range run.Results {
				if result.Success {
					report.Succeeded = append(report.Succeeded, result.PluginID)
				} else {
					report.Failed = append(report.Failed, result.PluginID)
				}
			}
		}
		if err != nil {
			phaseResult.Status = StatusFailed
			phaseResult.Error = err.Error()
			report.Warnings = append(report.Warnings, fmt.Sprintf("phase %s failed: %v", phase.Name, err))
			p.logger.Warn("phase failed, continuing", "phase", phase.Name, "error", err)
		}
		report.Phases = append(report.Phases, phaseResult)
	}

	report.Duration = time.Since(start)
	return report, nil
}

func sortPhases(phases []Phase) {
	sort.SliceStable(phases, func(i, j int) bool {
		return phases[i].Order < phases[j].Order
	})
}
