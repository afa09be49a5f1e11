// Package manager drives single-plugin lifecycles and batch operations
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/stackforge/internal/registry"
	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// InstallRun aggregates one batch operation
type InstallRun struct {
	RunID    string                `json:"run_id"`
	Results  []*forge.PluginResult `json:"results"`
	Duration time.Duration         `json:"duration"`
}

// Manager drives a single plugin's lifecycle: lookup, validate, then
// delegate to the plugin, which applies its blueprints through the
// executor. Per-plugin configuration is recorded keyed by id.
type Manager struct {
	registry *registry.Registry
	executor forge.BlueprintExecutor
	logger   *slog.Logger

	mu      sync.RWMutex
	configs map[string]map[string]any
}

// New creates a Manager
func New(reg *registry.Registry, executor forge.BlueprintExecutor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: reg,
		executor: executor,
		logger:   logger,
		configs:  make(map[string]map[string]any),
	}
}

// Install runs one plugin's validate-then-install lifecycle and records
// its configuration
func (m *Manager) Install(ctx context.Context, id string, fctx *forge.Context) (*forge.PluginResult, error) {
	plugin, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", forgeerr.ErrPluginNotFound, id)
	}

	if fctx.Executor == nil {
		fctx.Executor = m.executor
	}

	start := time.Now()

	validation := plugin.Validate(fctx)
	for _, warning := range validation.Warnings {
		fctx.Logger.Warn(warning, "plugin", id)
	}
	if !validation.Valid {
		result := &forge.PluginResult{
			PluginID: id,
			Errors:   validation.Errors,
			Warnings: validation.Warnings,
			Duration: time.Since(start),
		}
		return result, &forgeerr.ValidationError{PluginID: id, Errors: validation.Errors}
	}

	m.logger.Info("installing plugin", "plugin", id)
	result, err := plugin.Install(fctx)
	if result == nil {
		result = &forge.PluginResult{PluginID: id, Success: err == nil}
	}
	result.Duration = time.Since(start)

	if err != nil {
		m.logger.Error("plugin install failed", "plugin", id, "error", err)
		return result, fmt.Errorf("installing %s: %w", id, err)
	}

	m.setConfig(id, plugin.DefaultConfig())
	fctx.Logger.Success("plugin installed", "plugin", id, "duration", result.Duration)
	return result, nil
}

// Uninstall runs one plugin's uninstall lifecycle and drops its
// recorded configuration
func (m *Manager) Uninstall(ctx context.Context, id string, fctx *forge.Context) (*forge.PluginResult, error) {
	plugin, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", forgeerr.ErrPluginNotFound, id)
	}

	if fctx.Executor == nil {
		fctx.Executor = m.executor
	}

	start := time.Now()
	result, err := plugin.Uninstall(fctx)
	if result == nil {
		result = &forge.PluginResult{PluginID: id, Success: err == nil}
	}
	result.Duration = time.Since(start)

	m.mu.Lock()
	delete(m.configs, id)
	m.mu.Unlock()

	if err != nil {
		return result, fmt.Errorf("uninstalling %s: %w", id, err)
	}
	return result, nil
}

// Update re-runs the plugin's install; blueprints overwrite idempotently
func (m *Manager) Update(ctx context.Context, id string, fctx *forge.Context) (*forge.PluginResult, error) {
	plugin, ok := m.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", forgeerr.ErrPluginNotFound, id)
	}

	if fctx.Executor == nil {
		fctx.Executor = m.executor
	}

	start := time.Now()
	result, err := plugin.Update(fctx)
	if result == nil {
		result = &forge.PluginResult{PluginID: id, Success: err == nil}
	}
	result.Duration = time.Since(start)

	if err != nil {
		return result, fmt.Errorf("updating %s: %w", id, err)
	}

	m.setConfig(id, plugin.DefaultConfig())
	return result, nil
}

// InstallAll installs plugins in the given order and stops at the first
// failure: a broken dependency chain means later plugins in the same
// batch are unlikely to succeed.
func (m *Manager) InstallAll(ctx context.Context, ids []string, fctx *forge.Context) (*InstallRun, error) {
	run := &InstallRun{RunID: uuid.New().String()}
	start := time.Now()

	for _, id := range ids {
		result, err := m.Install(ctx, id, fctx)
		if result != nil {
			run.Results = append(run.Results, result)
		}
		if err != nil {
			run.Duration = time.Since(start)
			return run, fmt.Errorf("batch install stopped at %s: %w", id, err)
		}
	}

	run.Duration = time.Since(start)
	return run, nil
}

// UninstallAll removes plugins best-effort: every id is attempted and
// all results are collected regardless of individual failure
func (m *Manager) UninstallAll(ctx context.Context, ids []string, fctx *forge.Context) (*InstallRun, error) {
	run := &InstallRun{RunID: uuid.New().String()}
	start := time.Now()

	var firstErr error
	for _, id := range ids {
		result, err := m.Uninstall(ctx, id, fctx)
		if result != nil {
			run.Results = append(run.Results, result)
		}
		if err != nil {
			m.logger.Warn("uninstall failed, continuing", "plugin", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	run.Duration = time.Since(start)
	return run, firstErr
}

// Config returns the recorded configuration for an installed plugin
func (m *Manager) Config(id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	config, ok := m.configs[id]
	return config, ok
}

func (m *Manager) setConfig(id string, config map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if config == nil {
		config = map[string]any{}
	}
	m.configs[id] = config
}
