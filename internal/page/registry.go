package page

import "fmt"

// Registry holds the built pages in declaration order. It is filled at
// startup and read-only afterwards, so concurrent reads need no locking.
type Registry struct {
	pages map[string]*Page
	order []string
}

// NewRegistry creates an empty page registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string]*Page)}
}

// Add registers p. Page names must be unique.
func (r *Registry) Add(p *Page) error {
	if _, exists := r.pages[p.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePage, p.Name)
	}
	r.pages[p.Name] = p
	r.order = append(r.order, p.Name)
	return nil
}

// Get returns the page called name.
func (r *Registry) Get(name string) (*Page, bool) {
	p, ok := r.pages[name]
	return p, ok
}

// Names returns page names in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns the pages in declaration order.
func (r *Registry) All() []*Page {
	out := make([]*Page, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.pages[name])
	}
	return out
}

// Len returns the number of pages.
func (r *Registry) Len() int {
	return len(r.order)
}
