package face

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TextSpec is one text layer: the text and an optional colour override.
type TextSpec struct {
	Text  string     `yaml:"text" json:"text"`
	Color *ColorSpec `yaml:"color,omitempty" json:"color,omitempty"`
}

// UnmarshalYAML accepts a bare string or a {text, color} mapping.
func (t *TextSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = TextSpec{Text: node.Value}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Text  *string    `yaml:"text"`
			Color *ColorSpec `yaml:"color"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if raw.Text == nil {
			return fmt.Errorf("%w: line %d: text is required", ErrInvalidText, node.Line)
		}
		*t = TextSpec{Text: *raw.Text, Color: raw.Color}
		return nil
	default:
		return fmt.Errorf("%w: line %d: expected string or {text, color}", ErrInvalidText, node.Line)
	}
}

// Spec describes what to draw on a key. It is not itself an image.
type Spec struct {
	Color      *ColorSpec `yaml:"color,omitempty" json:"color,omitempty"`
	File       string     `yaml:"file,omitempty" json:"file,omitempty"`
	Label      *TextSpec  `yaml:"label,omitempty" json:"label,omitempty"`
	Sublabel   *TextSpec  `yaml:"sublabel,omitempty" json:"sublabel,omitempty"`
	Superlabel *TextSpec  `yaml:"superlabel,omitempty" json:"superlabel,omitempty"`
}

// TextUpdate changes the text and/or colour of one layer.
type TextUpdate struct {
	Text  *string    `json:"text,omitempty"`
	Color *ColorSpec `json:"color,omitempty"`
}

// Update is a partial change to a Spec. Nil fields leave the current value.
type Update struct {
	Color      *ColorSpec  `json:"color,omitempty"`
	File       *string     `json:"file,omitempty"`
	Label      *TextUpdate `json:"label,omitempty"`
	Sublabel   *TextUpdate `json:"sublabel,omitempty"`
	Superlabel *TextUpdate `json:"superlabel,omitempty"`
}

// IsZero reports whether the update changes nothing.
func (u Update) IsZero() bool {
	return u.Color == nil && u.File == nil && u.Label == nil && u.Sublabel == nil && u.Superlabel == nil
}

// Merge returns a copy of s with u applied. s is not modified.
func (s Spec) Merge(u Update) Spec {
	out := s
	if u.Color != nil {
		c := *u.Color
		out.Color = &c
	}
	if u.File != nil {
		out.File = *u.File
	}
	out.Label = mergeText(s.Label, u.Label)
	out.Sublabel = mergeText(s.Sublabel, u.Sublabel)
	out.Superlabel = mergeText(s.Superlabel, u.Superlabel)
	return out
}

func mergeText(cur *TextSpec, u *TextUpdate) *TextSpec {
	if u == nil {
		return cur
	}
	next := TextSpec{}
	if cur != nil {
		next = *cur
	}
	if u.Text != nil {
		next.Text = *u.Text
	}
	if u.Color != nil {
		c := *u.Color
		next.Color = &c
	}
	return &next
}
