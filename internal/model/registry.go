// Package model provides target functions for sensitivity runs: a registry
// of built-in models and an adapter that evaluates an external command.
package model

import (
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/sensitivity/internal/sensitivity"
)

// Definition describes a registered model.
type Definition struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	// Parameters lists the argument names the model reads. Empty means the
	// model accepts any set of numeric arguments.
	Parameters []string `json:"parameters,omitempty"`
	// Defaults are passed as fixed arguments unless overridden.
	Defaults map[string]any `json:"defaults,omitempty"`
	// Func evaluates the model.
	Func sensitivity.Func `json:"-"`
}

// Info is a summary of a registered model.
type Info struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Parameters  []string       `json:"parameters,omitempty"`
	Defaults    map[string]any `json:"defaults,omitempty"`
}

// Registry holds registered model definitions.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Definition
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Definition)}
}

// Register adds a model definition, replacing any model of the same name.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[def.Name] = def
}

// Get retrieves a model definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.models[name]
	return def, ok
}

// Lookup is Get returning a ConfigurationError for unknown names.
func (r *Registry) Lookup(name string) (*Definition, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, &sensitivity.ConfigurationError{Msg: fmt.Sprintf("unknown model %q", name)}
	}
	return def, nil
}

// List returns summaries of all registered models sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.models))
	for _, def := range r.models {
		infos = append(infos, Info{
			Name:        def.Name,
			Version:     def.Version,
			Description: def.Description,
			Parameters:  def.Parameters,
			Defaults:    def.Defaults,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// FixedArgs merges the model defaults with overrides. Overrides win.
func (d *Definition) FixedArgs(overrides map[string]any) map[string]any {
	if len(d.Defaults) == 0 && len(overrides) == 0 {
		return nil
	}
	out := make(map[string]any, len(d.Defaults)+len(overrides))
	for k, v := range d.Defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
