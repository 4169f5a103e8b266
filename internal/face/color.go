package face

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// RGB is an explicit opaque colour triple.
type RGB struct {
	Red   uint8 `yaml:"red" json:"red"`
	Green uint8 `yaml:"green" json:"green"`
	Blue  uint8 `yaml:"blue" json:"blue"`
}

// ColorSpec is a colour as written in configuration: either a hex string
// or an explicit RGB triple. Exactly one of Hex or RGB is meaningful; RGB
// takes precedence when set.
type ColorSpec struct {
	Hex string
	RGB *RGB
}

// Hex returns a ColorSpec for a hex string such as "#FF0000".
func Hex(s string) *ColorSpec {
	return &ColorSpec{Hex: s}
}

// Resolve converts the spec to a non-premultiplied colour.
func (c ColorSpec) Resolve() (color.NRGBA, error) {
	if c.RGB != nil {
		return color.NRGBA{R: c.RGB.Red, G: c.RGB.Green, B: c.RGB.Blue, A: 0xFF}, nil
	}
	return ParseHex(c.Hex)
}

// String returns the colour in its configuration form.
func (c ColorSpec) String() string {
	if c.RGB != nil {
		return fmt.Sprintf("#%02X%02X%02X", c.RGB.Red, c.RGB.Green, c.RGB.Blue)
	}
	return c.Hex
}

// ParseHex parses "#RRGGBB" or "#RRGGBBAA". Six digits imply full opacity.
func ParseHex(s string) (color.NRGBA, error) {
	digits, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: %q must start with '#'", ErrInvalidColor, s)
	}
	if len(digits) != 6 && len(digits) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q must have 6 or 8 hex digits", ErrInvalidColor, s)
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	if len(digits) == 6 {
		n = n<<8 | 0xFF
	}
	return color.NRGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}

// rgbFields mirrors RGB with pointers so missing channels can be reported.
type rgbFields struct {
	Red   *uint8 `yaml:"red" json:"red"`
	Green *uint8 `yaml:"green" json:"green"`
	Blue  *uint8 `yaml:"blue" json:"blue"`
}

func (f rgbFields) toRGB() (*RGB, error) {
	if f.Red == nil || f.Green == nil || f.Blue == nil {
		return nil, fmt.Errorf("%w: red, green and blue are all required", ErrInvalidColor)
	}
	return &RGB{Red: *f.Red, Green: *f.Green, Blue: *f.Blue}, nil
}

// UnmarshalYAML accepts a hex scalar or a {red, green, blue} mapping.
func (c *ColorSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = ColorSpec{Hex: node.Value}
		return nil
	case yaml.MappingNode:
		var f rgbFields
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidColor, err)
		}
		rgb, err := f.toRGB()
		if err != nil {
			return err
		}
		*c = ColorSpec{RGB: rgb}
		return nil
	default:
		return fmt.Errorf("%w: line %d: expected hex string or {red, green, blue}", ErrInvalidColor, node.Line)
	}
}

// UnmarshalJSON accepts a hex string or a {"red","green","blue"} object.
func (c *ColorSpec) UnmarshalJSON(data []byte) error {
	var hex string
	if err := json.Unmarshal(data, &hex); err == nil {
		*c = ColorSpec{Hex: hex}
		return nil
	}
	var f rgbFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}
	rgb, err := f.toRGB()
	if err != nil {
		return err
	}
	*c = ColorSpec{RGB: rgb}
	return nil
}

// MarshalJSON writes the colour in its configuration form.
func (c ColorSpec) MarshalJSON() ([]byte, error) {
	if c.RGB != nil {
		return json.Marshal(*c.RGB)
	}
	return json.Marshal(c.Hex)
}
