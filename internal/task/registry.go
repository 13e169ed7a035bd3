package task

import (
	"fmt"
	"sync"
)

// Registry is the explicit command table: every task a run may invoke.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: map[string]Definition{}}
}

// Register installs a task. Returns an error if the name already exists.
func (r *Registry) Register(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Name]; exists {
		return fmt.Errorf("task: %s already registered", def.Name)
	}
	r.defs[def.Name] = def.clone()
	r.order = append(r.order, def.Name)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns a task by name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// Names returns task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Definitions returns every task in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name].clone())
	}
	return out
}

// Validate checks the table as a whole: every dependency must be
// registered and the graph must be acyclic.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		for _, dep := range r.defs[name].DependsOn {
			if _, ok := r.defs[dep]; !ok {
				return fmt.Errorf("task: dependency %s referenced by %s not registered", dep, name)
			}
		}
	}
	const (
		_ = iota
		visiting
		done
	)
	marks := make(map[string]int, len(r.defs))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("task: dependency cycle %s", formatCycle(append(path, name), name))
		}
		marks[name] = visiting
		for _, dep := range r.defs[name].DependsOn {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		marks[name] = done
		return nil
	}
	for _, name := range r.order {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

func formatCycle(path []string, start string) string {
	idx := 0
	for i, name := range path {
		if name == start {
			idx = i
			break
		}
	}
	out := ""
	for i, name := range path[idx:] {
		if i > 0 {
			out += " -> "
		}
		out += name
	}
	return out
}
