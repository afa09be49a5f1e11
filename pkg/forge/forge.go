// Package forge provides the public API for stackforge plugins
package forge

import (
	"context"
	"encoding/json"
	"time"
)

// Category classifies plugins by the project concern they scaffold
type Category string

const (
	CategoryDatabase   Category = "database"
	CategoryORM        Category = "orm"
	CategoryAuth       Category = "auth"
	CategoryUI         Category = "ui"
	CategoryDeployment Category = "deployment"
	CategoryTesting    Category = "testing"
	CategoryEmail      Category = "email"
	CategoryMonitoring Category = "monitoring"
	CategoryPayment    Category = "payment"
	CategoryBlockchain Category = "blockchain"
	CategoryFramework  Category = "framework"
)

// Metadata contains plugin identity and discovery information
type Metadata struct {
	// Name is the unique plugin identifier
	Name string `json:"name" yaml:"name" validate:"required"`

	// Version is the plugin version
	Version string `json:"version" yaml:"version" validate:"required,semver"`

	// Description explains what the plugin scaffolds
	Description string `json:"description" yaml:"description"`

	// Author is the plugin creator
	Author string `json:"author" yaml:"author"`

	// Category is the project concern this plugin covers
	Category Category `json:"category" yaml:"category" validate:"required"`

	// Tags are free-form search keywords
	Tags []string `json:"tags" yaml:"tags,omitempty"`

	// Homepage is an optional project URL
	Homepage string `json:"homepage" yaml:"homepage,omitempty" validate:"omitempty,url"`
}

// Plugin defines the contract every stackforge plugin must implement.
// The engine never inspects a plugin's file-generation logic; it only
// drives this interface.
type Plugin interface {
	// Metadata returns plugin identity information
	Metadata() Metadata

	// Dependencies returns ids of plugins that must install first
	Dependencies() []string

	// Conflicts returns ids of plugins this plugin cannot coexist with
	Conflicts() []string

	// Validate checks preconditions before any lifecycle call
	Validate(ctx *Context) ValidationResult

	// Install materializes the plugin's blueprints into the project
	Install(ctx *Context) (*PluginResult, error)

	// Uninstall reverses an install as far as practical
	Uninstall(ctx *Context) (*PluginResult, error)

	// Update re-applies the plugin's blueprints (idempotent overwrite)
	Update(ctx *Context) (*PluginResult, error)

	// Blueprints returns the blueprints this plugin applies on install
	Blueprints() []*Blueprint

	// DefaultConfig returns default configuration values
	DefaultConfig() map[string]any

	// ConfigSchema describes the plugin's configuration, if any
	ConfigSchema() json.RawMessage
}

// ValidationResult is the outcome of a plugin's precondition check
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ArtifactKind labels what a plugin emitted into the project
type ArtifactKind string

const (
	ArtifactFile       ArtifactKind = "file"
	ArtifactScript     ArtifactKind = "script"
	ArtifactDependency ArtifactKind = "dependency"
	ArtifactEnvVar     ArtifactKind = "env"
)

// Artifact records one thing a plugin emitted
type Artifact struct {
	Path string       `json:"path"`
	Kind ArtifactKind `json:"kind"`
}

// PluginResult is the outcome of one plugin lifecycle call. It is
// returned to the caller and not stored beyond logging.
type PluginResult struct {
	// PluginID identifies the plugin that produced this result
	PluginID string `json:"plugin_id"`

	// Success reports whether the lifecycle call completed
	Success bool `json:"success"`

	// Artifacts lists emitted files, scripts, dependencies and env vars
	Artifacts []Artifact `json:"artifacts,omitempty"`

	// Dependencies lists packages the plugin asked to install
	Dependencies []string `json:"dependencies,omitempty"`

	// Scripts maps manifest script names to their commands
	Scripts map[string]string `json:"scripts,omitempty"`

	// EnvVars maps environment keys the plugin declared
	EnvVars map[string]string `json:"env_vars,omitempty"`

	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	// Duration is the elapsed lifecycle time
	Duration time.Duration `json:"duration"`
}

// ExecutionMode selects how a blueprint's actions reach the disk
type ExecutionMode string

const (
	// ModeDirect applies each action immediately to disk
	ModeDirect ExecutionMode = "direct"

	// ModeTransactional stages actions in a VFS overlay and flushes
	// all-or-nothing
	ModeTransactional ExecutionMode = "transactional"
)

// ActionResult is the per-action detail inside an ExecutionResult
type ActionResult struct {
	Index   int        `json:"index"`
	Type    ActionType `json:"type"`
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Output  string     `json:"output,omitempty"`
}

// ExecutionResult is the outcome of applying one blueprint
type ExecutionResult struct {
	BlueprintID  string         `json:"blueprint_id"`
	Success      bool           `json:"success"`
	Mode         ExecutionMode  `json:"mode"`
	Actions      []ActionResult `json:"actions"`
	FilesWritten []string       `json:"files_written,omitempty"`
	Duration     time.Duration  `json:"duration"`
}

// BlueprintExecutor applies a blueprint's actions to the project tree
type BlueprintExecutor interface {
	Execute(ctx context.Context, blueprint *Blueprint) (*ExecutionResult, error)
}
