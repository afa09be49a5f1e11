// Package errors defines the stackforge error taxonomy
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's failure classes
var (
	// ErrPluginNotFound indicates a plugin id is absent from the registry
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrDuplicatePlugin indicates a plugin id was registered twice
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrDependencyNotFound indicates a phase dependency names no phase
	ErrDependencyNotFound = errors.New("phase dependency not found")

	// ErrConflict indicates a declared mutual incompatibility
	ErrConflict = errors.New("plugin conflict")

	// ErrCircularDependency indicates a dependency cycle
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrValidation indicates a plugin-specific precondition is unmet
	ErrValidation = errors.New("plugin validation failed")

	// ErrFileNotFound indicates an action's required target file is absent
	ErrFileNotFound = errors.New("target file not found")

	// ErrParse indicates existing file content could not be parsed
	ErrParse = errors.New("parse error")

	// ErrCommandFailed indicates an external command exited non-zero
	ErrCommandFailed = errors.New("command failed")

	// ErrUnsupportedAction indicates an unknown action tag; always fatal
	// to the blueprint regardless of execution mode
	ErrUnsupportedAction = errors.New("unsupported action")
)

// ActionError carries the blueprint id and action index of a failed
// blueprint action
type ActionError struct {
	BlueprintID string
	Index       int
	Type        string
	Err         error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("blueprint %s action %d (%s): %v", e.BlueprintID, e.Index, e.Type, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError creates an ActionError for one failed action
func NewActionError(blueprintID string, index int, actionType string, err error) *ActionError {
	return &ActionError{
		BlueprintID: blueprintID,
		Index:       index,
		Type:        actionType,
		Err:         err,
	}
}

// ValidationError aggregates a plugin's precondition failures
type ValidationError struct {
	PluginID string
	Errors   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plugin %s validation failed: %v", e.PluginID, e.Errors)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsNotFound checks if an error is a plugin or dependency lookup failure
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPluginNotFound) || errors.Is(err, ErrDependencyNotFound) ||
		errors.Is(err, ErrFileNotFound)
}

// IsUnsupportedAction checks for the unknown-action-tag failure class
func IsUnsupportedAction(err error) bool {
	return errors.Is(err, ErrUnsupportedAction)
}

// AsActionError extracts an ActionError from an error chain
func AsActionError(err error) (*ActionError, bool) {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr, true
	}
	return nil, false
}
