// Package resolver computes install order and conflicts for a requested
// plugin set
package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dotcommander/stackforge/internal/registry"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// Severity grades a reported conflict
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict is an unordered plugin pair with a human-readable reason.
// A conflict declared by either party in the pair is sufficient; a
// circular dependency reports the participating id in both fields.
type Conflict struct {
	PluginA  string   `json:"plugin_a"`
	PluginB  string   `json:"plugin_b"`
	Reason   string   `json:"reason"`
	Severity Severity `json:"severity"`
}

// Resolution is the full outcome of one resolve request. It is computed
// fresh per request and never persisted.
type Resolution struct {
	// Requested is the deduplicated requested id set
	Requested []string `json:"requested"`

	// Order is a topologically valid install order; dependencies
	// precede dependents. Ids participating in a cycle are excluded.
	Order []string `json:"order"`

	// Conflicts lists pairwise conflicts and detected cycles
	Conflicts []Conflict `json:"conflicts,omitempty"`

	// Missing lists ids absent from the registry
	Missing []string `json:"missing,omitempty"`
}

// HasErrors reports whether the caller should treat the resolution as
// fatal. The resolver itself never aborts on conflicts; the caller
// decides.
func (r *Resolution) HasErrors() bool {
	if len(r.Missing) > 0 {
		return true
	}
	for _, c := range r.Conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Resolver orders a requested plugin set over its declared dependency
// graph
type Resolver struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// New creates a resolver over a registry
func New(reg *registry.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: reg, logger: logger}
}

// node colors for the depth-first traversal
const (
	colorWhite = iota
	colorGrey
	colorBlack
	colorFailed
)

// Resolve computes a Resolution for the requested ids. Duplicates
// collapse to one node. The only hard error is malformed input (a blank
// id); conflicts, cycles and missing ids are reported, not thrown.
func (r *Resolver) Resolve(ids []string) (*Resolution, error) {
	requested, err := normalize(ids)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Requested: requested}

	missingSeen := make(map[string]bool)
	addMissing := func(id string) {
		if !missingSeen[id] {
			missingSeen[id] = true
			res.Missing = append(res.Missing, id)
		}
	}

	res.Conflicts = append(res.Conflicts, r.ScanConflicts(requested)...)

	// Depth-first topological sort. Grey means on the current visit
	// path; hitting a grey node again is a cycle, which fails that
	// node's whole subtree while the rest of the request still resolves.
	state := make(map[string]int)
	cycleSeen := make(map[string]bool)

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case colorBlack:
			return true
		case colorFailed:
			return false
		case colorGrey:
			if !cycleSeen[id] {
				cycleSeen[id] = true
				res.Conflicts = append(res.Conflicts, Conflict{
					PluginA:  id,
					PluginB:  id,
					Reason:   "Circular dependency detected",
					Severity: SeverityError,
				})
				r.logger.Warn("dependency cycle", "plugin", id)
			}
			return false
		}

		plugin, ok := r.registry.Get(id)
		if !ok {
			addMissing(id)
			state[id] = colorFailed
			return false
		}

		state[id] = colorGrey
		for _, dep := range plugin.Dependencies() {
			if !visit(dep) {
				state[id] = colorFailed
				return false
			}
		}
		state[id] = colorBlack
		res.Order = append(res.Order, id)
		return true
	}

	for _, id := range requested {
		visit(id)
	}

	return res, nil
}

// ScanConflicts runs the pairwise conflict scan over a requested set.
// O(n^2) over the request, which stays in the tens for realistic runs.
func (r *Resolver) ScanConflicts(ids []string) []Conflict {
	requested, err := normalize(ids)
	if err != nil {
		return nil
	}

	var conflicts []Conflict
	for i := 0; i < len(requested); i++ {
		a, ok := r.registry.Get(requested[i])
		if !ok {
			continue
		}
		for j := i + 1; j < len(requested); j++ {
			b, ok := r.registry.Get(requested[j])
			if !ok {
				continue
			}
			if declares(a.Conflicts(), requested[j]) || declares(b.Conflicts(), requested[i]) {
				conflicts = append(conflicts, Conflict{
					PluginA:  requested[i],
					PluginB:  requested[j],
					Reason:   "Direct conflict between plugins",
					Severity: SeverityError,
				})
			}
		}
	}
	return conflicts
}

func declares(conflicts []string, id string) bool {
	for _, c := range conflicts {
		if c == id {
			return true
		}
	}
	return false
}

// normalize trims, rejects blank ids and collapses duplicates while
// preserving first-seen order
func normalize(ids []string) ([]string, error) {
	seen := make(map[string]bool)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: blank plugin id", forgeerr.ErrValidation)
		}
		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out, nil
}
