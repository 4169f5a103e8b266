package page

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-deck/internal/button"
	"github.com/nerrad567/gray-logic-deck/internal/window"
)

// Spec is a page as written in the layout.
type Spec struct {
	Name    string       `yaml:"name" validate:"required,max=128"`
	OnApp   *Trigger     `yaml:"on_app,omitempty"`
	Buttons []ButtonSpec `yaml:"buttons" validate:"dive"`
}

// Trigger loads the page when the focused window matches any condition.
// With Remove set, a loaded page is unloaded when no condition matches.
type Trigger struct {
	Conditions []ConditionSpec `yaml:"conditions"`
	Remove     bool            `yaml:"remove,omitempty"`
}

// ButtonSpec places a button on the page.
type ButtonSpec struct {
	Position PositionSpec `yaml:"position"`
	Button   ButtonRef    `yaml:"button"`
}

// ButtonRef is either the name of a registered button or an inline
// button declaration.
type ButtonRef struct {
	Name  string
	Setup *button.Spec
}

// UnmarshalYAML accepts a bare name or a button mapping.
func (r *ButtonRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return fmt.Errorf("%w: line %d: empty button name", ErrInvalidButton, node.Line)
		}
		*r = ButtonRef{Name: node.Value}
		return nil
	case yaml.MappingNode:
		var spec button.Spec
		if err := node.Decode(&spec); err != nil {
			return err
		}
		*r = ButtonRef{Setup: &spec}
		return nil
	default:
		return fmt.Errorf("%w: line %d: expected name or button mapping", ErrInvalidButton, node.Line)
	}
}

// Binding assigns an occupant to a slot.
type Binding struct {
	Position Position
	Slot     int
	Occupant button.Occupant
}

// Page is a built page. Pages are not modified after Build.
type Page struct {
	Name             string
	Bindings         []Binding
	Conditions       []Condition
	RemoveOnMismatch bool
}

// NamedSetup is an inline button that Build registered under a name.
type NamedSetup struct {
	Name  string
	Setup *button.Setup
}

// SyntheticName is the name given to an unnamed inline button.
func SyntheticName(page string, slot int) string {
	return fmt.Sprintf("%s#%d", page, slot)
}

// Build compiles the conditions of spec and builds its inline buttons.
// Every binding refers to its button by name; inline buttons are returned
// for the caller to add to the registry.
func Build(spec Spec, grid Grid, b *button.Builder) (*Page, []NamedSetup, error) {
	p := &Page{Name: spec.Name}

	if spec.OnApp != nil {
		p.RemoveOnMismatch = spec.OnApp.Remove
		for i, cs := range spec.OnApp.Conditions {
			c, err := cs.Compile()
			if err != nil {
				return nil, nil, fmt.Errorf("page %q condition %d: %w", spec.Name, i, err)
			}
			p.Conditions = append(p.Conditions, c)
		}
	}

	var named []NamedSetup
	for i, bs := range spec.Buttons {
		pos := bs.Position.Position()
		slot := pos.Index(grid)

		switch {
		case bs.Button.Setup != nil:
			setup, err := b.Build(*bs.Button.Setup)
			if err != nil {
				return nil, nil, fmt.Errorf("page %q button %d: %w", spec.Name, i, err)
			}
			name := bs.Button.Setup.Name
			if name == "" {
				name = SyntheticName(spec.Name, slot)
			}
			named = append(named, NamedSetup{Name: name, Setup: setup})
			p.Bindings = append(p.Bindings, Binding{Position: pos, Slot: slot, Occupant: button.Named(name)})
		case bs.Button.Name != "":
			p.Bindings = append(p.Bindings, Binding{Position: pos, Slot: slot, Occupant: button.Named(bs.Button.Name)})
		default:
			return nil, nil, fmt.Errorf("page %q button %d: %w", spec.Name, i, ErrInvalidButton)
		}
	}
	return p, named, nil
}

// Matches reports whether any of the page's conditions matches the window.
// A page without conditions never matches.
func (p *Page) Matches(info window.Info) bool {
	for _, c := range p.Conditions {
		if c.Matches(info) {
			return true
		}
	}
	return false
}

// Occupant returns the occupant the page puts on slot. When several
// bindings share a slot the last one wins.
func (p *Page) Occupant(slot int) (button.Occupant, bool) {
	for i := len(p.Bindings) - 1; i >= 0; i-- {
		if p.Bindings[i].Slot == slot {
			return p.Bindings[i].Occupant, true
		}
	}
	return button.Occupant{}, false
}

// Slots returns the distinct slots the page claims, in ascending order.
func (p *Page) Slots() []int {
	seen := make(map[int]struct{}, len(p.Bindings))
	slots := make([]int, 0, len(p.Bindings))
	for _, b := range p.Bindings {
		if _, ok := seen[b.Slot]; ok {
			continue
		}
		seen[b.Slot] = struct{}{}
		slots = append(slots, b.Slot)
	}
	sort.Ints(slots)
	return slots
}
