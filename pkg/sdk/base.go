// Package sdk provides utilities for building stackforge plugins
package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dotcommander/stackforge/pkg/forge"
)

// BasePlugin provides default lifecycle behavior so concrete plugins
// only override what they need. Install applies the declared blueprints
// through the context's executor; Update re-runs Install.
type BasePlugin struct {
	meta       forge.Metadata
	deps       []string
	conflicts  []string
	blueprints []*forge.Blueprint
	defaults   map[string]any
	schema     json.RawMessage
}

// NewBasePlugin creates a base plugin with the given metadata
func NewBasePlugin(meta forge.Metadata) BasePlugin {
	return BasePlugin{
		meta:     meta,
		defaults: map[string]any{},
	}
}

// SetDependencies declares plugin ids that must install first
func (p *BasePlugin) SetDependencies(ids ...string) {
	p.deps = ids
}

// SetConflicts declares plugin ids this plugin cannot coexist with
func (p *BasePlugin) SetConflicts(ids ...string) {
	p.conflicts = ids
}

// SetBlueprints declares the blueprints Install applies
func (p *BasePlugin) SetBlueprints(blueprints ...*forge.Blueprint) {
	p.blueprints = blueprints
}

// SetDefaultConfig sets the default configuration values
func (p *BasePlugin) SetDefaultConfig(defaults map[string]any) {
	p.defaults = defaults
}

// SetConfigSchema sets the configuration schema
func (p *BasePlugin) SetConfigSchema(schema json.RawMessage) {
	p.schema = schema
}

// Metadata returns plugin identity information
func (p *BasePlugin) Metadata() forge.Metadata {
	return p.meta
}

// Dependencies returns the declared dependency ids
func (p *BasePlugin) Dependencies() []string {
	return p.deps
}

// Conflicts returns the declared conflict ids
func (p *BasePlugin) Conflicts() []string {
	return p.conflicts
}

// Blueprints returns the declared blueprints
func (p *BasePlugin) Blueprints() []*forge.Blueprint {
	return p.blueprints
}

// DefaultConfig returns the default configuration values
func (p *BasePlugin) DefaultConfig() map[string]any {
	return p.defaults
}

// ConfigSchema returns the configuration schema
func (p *BasePlugin) ConfigSchema() json.RawMessage {
	return p.schema
}

// Validate provides default precondition checks
func (p *BasePlugin) Validate(ctx *forge.Context) forge.ValidationResult {
	if ctx == nil || ctx.ProjectPath == "" {
		return forge.ValidationResult{
			Valid:  false,
			Errors: []string{"project path is required"},
		}
	}
	if ctx.Executor == nil {
		return forge.ValidationResult{
			Valid:  false,
			Errors: []string{"blueprint executor is required"},
		}
	}
	return forge.ValidationResult{Valid: true}
}

// Install applies every declared blueprint in order and aggregates the
// outcome into a PluginResult
func (p *BasePlugin) Install(ctx *forge.Context) (*forge.PluginResult, error) {
	result := &forge.PluginResult{
		PluginID: p.meta.Name,
		Success:  true,
		Scripts:  map[string]string{},
		EnvVars:  map[string]string{},
	}

	for _, bp := range p.blueprints {
		exec, err := ctx.Executor.Execute(context.Background(), bp)
		if exec != nil {
			for _, path := range exec.FilesWritten {
				result.Artifacts = append(result.Artifacts, forge.Artifact{
					Path: path,
					Kind: forge.ArtifactFile,
				})
			}
		}
		if err != nil {
			result.Success = false
			result.Errors = append(result.Errors, err.Error())
			return result, fmt.Errorf("executing blueprint %s: %w", bp.ID, err)
		}
		p.collectDeclarations(bp, result)
	}

	return result, nil
}

// collectDeclarations records scripts, env vars and packages a
// blueprint declared, so the caller sees them without re-reading disk
func (p *BasePlugin) collectDeclarations(bp *forge.Blueprint, result *forge.PluginResult) {
	for _, action := range bp.Actions {
		switch action.Type {
		case forge.ActionAddScript:
			result.Scripts[action.Name] = action.Script
			result.Artifacts = append(result.Artifacts, forge.Artifact{Path: action.Name, Kind: forge.ArtifactScript})
		case forge.ActionAddEnvVar:
			result.EnvVars[action.Key] = action.Value
			result.Artifacts = append(result.Artifacts, forge.Artifact{Path: action.Key, Kind: forge.ArtifactEnvVar})
		case forge.ActionInstallPackages:
			result.Dependencies = append(result.Dependencies, action.Packages...)
			for _, pkg := range action.Packages {
				result.Artifacts = append(result.Artifacts, forge.Artifact{Path: pkg, Kind: forge.ArtifactDependency})
			}
		}
	}
}

// Uninstall is a no-op by default; plugins with removable state override it
func (p *BasePlugin) Uninstall(ctx *forge.Context) (*forge.PluginResult, error) {
	return &forge.PluginResult{
		PluginID: p.meta.Name,
		Success:  true,
		Warnings: []string{fmt.Sprintf("plugin %s does not define an uninstall step", p.meta.Name)},
	}, nil
}

// Update re-runs Install; blueprints are idempotent by overwrite
func (p *BasePlugin) Update(ctx *forge.Context) (*forge.PluginResult, error) {
	return p.Install(ctx)
}
