// Package blueprint analyzes and executes plugin blueprints against the
// project tree
package blueprint

import (
	"github.com/dotcommander/stackforge/pkg/forge"
)

// Complexity is a coarse execution-strategy signal derived from how many
// VFS-required actions a blueprint carries. It has no effect on
// correctness.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Analysis is the derived, non-persisted judgement of one blueprint
type Analysis struct {
	BlueprintID string `json:"blueprint_id"`

	// NeedsVFS is true when any action must read current file state
	// before writing
	NeedsVFS bool `json:"needs_vfs"`

	// Complexity grades the blueprint by its VFS-required action count
	Complexity Complexity `json:"complexity"`

	// ActionTypes lists the distinct action type names present, in
	// first-appearance order, including unrecognized ones
	ActionTypes []string `json:"action_types"`

	// VFSActions is the subset of ActionTypes requiring the VFS
	VFSActions []forge.ActionType `json:"vfs_actions,omitempty"`
}

// Analyze classifies a blueprint as requiring the transactional VFS or
// eligible for direct-to-disk execution. Unrecognized action types are
// reported in ActionTypes but never classified as VFS-required; the
// executor rejects them at execution time.
func Analyze(bp *forge.Blueprint) Analysis {
	analysis := Analysis{BlueprintID: bp.ID}

	seenType := make(map[forge.ActionType]bool)
	seenVFS := make(map[forge.ActionType]bool)
	vfsCount := 0

	for _, action := range bp.Actions {
		if !seenType[action.Type] {
			seenType[action.Type] = true
			analysis.ActionTypes = append(analysis.ActionTypes, string(action.Type))
		}
		if action.Type.RequiresVFS() {
			vfsCount++
			if !seenVFS[action.Type] {
				seenVFS[action.Type] = true
				analysis.VFSActions = append(analysis.VFSActions, action.Type)
			}
		}
	}

	analysis.NeedsVFS = vfsCount > 0
	switch {
	case vfsCount == 0:
		analysis.Complexity = ComplexitySimple
	case vfsCount <= 3:
		analysis.Complexity = ComplexityModerate
	default:
		analysis.Complexity = ComplexityComplex
	}

	return analysis
}
