package button

// Occupant is what a slot shows: a reference by name into the Registry,
// or a Setup held inline. The zero value refers to nothing.
type Occupant struct {
	name  string
	setup *Setup
}

// Named returns an occupant that is looked up in the registry on every use.
func Named(name string) Occupant {
	return Occupant{name: name}
}

// Inline returns an occupant that owns its setup directly.
func Inline(s *Setup) Occupant {
	return Occupant{setup: s}
}

// Name returns the referenced name and true for named occupants.
func (o Occupant) Name() (string, bool) {
	return o.name, o.setup == nil && o.name != ""
}

// IsInline reports whether the occupant carries its own setup.
func (o Occupant) IsInline() bool {
	return o.setup != nil
}

// Resolve returns the setup the occupant currently stands for, or nil if
// it names a button the registry does not know.
func (o Occupant) Resolve(r *Registry) *Setup {
	if o.setup != nil {
		return o.setup
	}
	if o.name == "" || r == nil {
		return nil
	}
	s, _ := r.Get(o.name)
	return s
}

// String returns the name, or "(inline)" for inline occupants.
func (o Occupant) String() string {
	if o.setup != nil {
		return "(inline)"
	}
	return o.name
}
