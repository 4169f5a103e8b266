package face

import (
	"fmt"
	"image/color"
)

// DefaultsSpec is the optional defaults section of a deck layout.
type DefaultsSpec struct {
	BackgroundColor *ColorSpec `yaml:"background_color,omitempty"`
	LabelColor      *ColorSpec `yaml:"label_color,omitempty"`
	SublabelColor   *ColorSpec `yaml:"sublabel_color,omitempty"`
	SuperlabelColor *ColorSpec `yaml:"superlabel_color,omitempty"`
}

// Defaults holds the concrete fallback colours used by the compositor.
type Defaults struct {
	Background color.NRGBA
	Label      color.NRGBA
	Sublabel   color.NRGBA
	Superlabel color.NRGBA
}

// BuiltinDefaults returns the fallbacks used for unset default colours.
func BuiltinDefaults() Defaults {
	return Defaults{
		Background: color.NRGBA{A: 0xFF},
		Label:      color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Sublabel:   color.NRGBA{G: 0xFF, B: 0xFF, A: 0xFF},
		Superlabel: color.NRGBA{R: 0xFF, G: 0xFF, A: 0xFF},
	}
}

// ResolveDefaults turns an optional DefaultsSpec into concrete colours.
// A nil spec yields BuiltinDefaults.
func ResolveDefaults(spec *DefaultsSpec) (Defaults, error) {
	d := BuiltinDefaults()
	if spec == nil {
		return d, nil
	}

	fields := []struct {
		name string
		src  *ColorSpec
		dst  *color.NRGBA
	}{
		{"background_color", spec.BackgroundColor, &d.Background},
		{"label_color", spec.LabelColor, &d.Label},
		{"sublabel_color", spec.SublabelColor, &d.Sublabel},
		{"superlabel_color", spec.SuperlabelColor, &d.Superlabel},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		c, err := f.src.Resolve()
		if err != nil {
			return Defaults{}, fmt.Errorf("defaults %s: %w", f.name, err)
		}
		*f.dst = c
	}
	return d, nil
}
