// Package registry holds the in-memory plugin catalog
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// Registry is the process-wide plugin catalog. Registration happens once
// at process start; every other operation is a read and is safe to call
// concurrently. Plugins are immutable once registered.
type Registry struct {
	mu       sync.RWMutex
	plugins  map[string]forge.Plugin
	validate *validator.Validate
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		plugins:  make(map[string]forge.Plugin),
		validate: validator.New(),
	}
}

// Register adds a plugin to the catalog. A duplicate id or invalid
// metadata is rejected.
func (r *Registry) Register(plugin forge.Plugin) error {
	meta := plugin.Metadata()
	if err := r.validate.Struct(meta); err != nil {
		return fmt.Errorf("plugin metadata invalid: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[meta.Name]; exists {
		return fmt.Errorf("%w: %s", forgeerr.ErrDuplicatePlugin, meta.Name)
	}
	r.plugins[meta.Name] = plugin
	return nil
}

// Get returns the plugin for an id
func (r *Registry) Get(id string) (forge.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.plugins[id]
	return plugin, ok
}

// ByCategory returns all plugins in a category, sorted by id
func (r *Registry) ByCategory(category forge.Category) []forge.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []forge.Plugin
	for _, plugin := range r.plugins {
		if plugin.Metadata().Category == category {
			matches = append(matches, plugin)
		}
	}
	sortByID(matches)
	return matches
}

// All returns every registered plugin, sorted by id
func (r *Registry) All() []forge.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]forge.Plugin, 0, len(r.plugins))
	for _, plugin := range r.plugins {
		plugins = append(plugins, plugin)
	}
	sortByID(plugins)
	return plugins
}

// Search returns plugins whose id, description or tags contain the
// query, case-insensitively, sorted by id
func (r *Registry) Search(query string) []forge.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}

	var matches []forge.Plugin
	for _, plugin := range r.plugins {
		if pluginMatches(plugin.Metadata(), needle) {
			matches = append(matches, plugin)
		}
	}
	sortByID(matches)
	return matches
}

// Count returns the number of registered plugins
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

func pluginMatches(meta forge.Metadata, needle string) bool {
	if strings.Contains(strings.ToLower(meta.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(meta.Description), needle) {
		return true
	}
	for _, tag := range meta.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func sortByID(plugins []forge.Plugin) {
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Metadata().Name < plugins[j].Metadata().Name
	})
}
