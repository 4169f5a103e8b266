package button

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/gray-logic-deck/internal/face"
)

// EmptyName is the reserved button shown on slots no page claims.
const EmptyName = "empty"

// Registry maps button names to setups.
//
// It is filled once at startup. Afterwards the only change is Replace,
// which swaps a whole Setup. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	setups map[string]*Setup
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{setups: make(map[string]*Setup)}
}

// Load builds every spec and adds it under its name, then synthesizes
// the "empty" button unless one was declared.
func Load(specs []Spec, b *Builder) (*Registry, error) {
	r := NewRegistry()
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("buttons[%d]: %w", i, ErrInvalidName)
		}
		if r.Has(spec.Name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, spec.Name)
		}
		s, err := b.Build(spec)
		if err != nil {
			return nil, fmt.Errorf("button %q: %w", spec.Name, err)
		}
		if err := r.Add(spec.Name, s); err != nil {
			return nil, err
		}
	}

	if !r.Has(EmptyName) {
		s, err := b.Build(Spec{UpFace: &face.Spec{Color: face.Hex("#000000")}})
		if err != nil {
			return nil, fmt.Errorf("button %q: %w", EmptyName, err)
		}
		if err := r.Add(EmptyName, s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers s under name. It fails if the name is taken.
func (r *Registry) Add(name string, s *Setup) error {
	if name == "" {
		return ErrInvalidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.setups[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.setups[name] = s
	return nil
}

// Replace swaps the setup stored under an existing name. It reports
// false if the name is unknown.
func (r *Registry) Replace(name string, s *Setup) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.setups[name]; !exists {
		return false
	}
	r.setups[name] = s
	return true
}

// Get returns the setup stored under name.
func (r *Registry) Get(name string) (*Setup, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.setups[name]
	return s, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.setups))
	for name := range r.setups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered buttons.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.setups)
}
