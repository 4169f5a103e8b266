package page

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Grid is the key layout of a device.
type Grid struct {
	Rows int
	Cols int
}

// Slots returns the total number of keys.
func (g Grid) Slots() int {
	return g.Rows * g.Cols
}

// Axis is a row or column measured from the start or the end of the grid.
type Axis struct {
	FromEnd bool
	Offset  int
}

// AxisOf converts an array-style index. Negative values count from the
// end: -1 is the last position, -2 the one before it.
func AxisOf(index int) Axis {
	if index < 0 {
		return Axis{FromEnd: true, Offset: -index - 1}
	}
	return Axis{Offset: index}
}

// Position is a key position on the grid.
type Position struct {
	Row Axis
	Col Axis
}

// At returns the position for array-style row and column indices.
func At(row, col int) Position {
	return Position{Row: AxisOf(row), Col: AxisOf(col)}
}

// Index resolves the position to a zero-based slot index on g. The
// column axis is mirrored and both axes are clamped to the grid.
func (p Position) Index(g Grid) int {
	row := p.Row.Offset
	if p.Row.FromEnd {
		row = g.Rows - (p.Row.Offset + 1)
	}
	col := g.Cols - (p.Col.Offset + 1)
	if p.Col.FromEnd {
		col = p.Col.Offset
	}
	row = clamp(row, 0, g.Rows-1)
	col = clamp(col, 0, g.Cols-1)
	return col + row*g.Cols
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// PositionSpec is a position as written in the layout. It accepts
// {row: 0, col: 1}, [0, 1] or "0,1".
type PositionSpec struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// Position converts the spec.
func (s PositionSpec) Position() Position {
	return At(s.Row, s.Col)
}

// UnmarshalYAML implements the accepted position forms.
func (s *PositionSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var raw struct {
			Row *int `yaml:"row"`
			Col *int `yaml:"col"`
		}
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		if raw.Row == nil || raw.Col == nil {
			return fmt.Errorf("%w: line %d: row and col are required", ErrInvalidPosition, node.Line)
		}
		*s = PositionSpec{Row: *raw.Row, Col: *raw.Col}
		return nil
	case yaml.SequenceNode:
		var pair []int
		if err := node.Decode(&pair); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("%w: line %d: want [row, col]", ErrInvalidPosition, node.Line)
		}
		*s = PositionSpec{Row: pair[0], Col: pair[1]}
		return nil
	case yaml.ScalarNode:
		parsed, err := ParsePosition(node.Value)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	default:
		return fmt.Errorf("%w: line %d", ErrInvalidPosition, node.Line)
	}
}

// ParsePosition parses the "row,col" form. Surrounding parentheses are allowed.
func ParsePosition(v string) (PositionSpec, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(strings.TrimPrefix(v, "("), ")")
	rowStr, colStr, ok := strings.Cut(v, ",")
	if !ok {
		return PositionSpec{}, fmt.Errorf("%w: %q: want \"row,col\"", ErrInvalidPosition, v)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return PositionSpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, v, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return PositionSpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidPosition, v, err)
	}
	return PositionSpec{Row: row, Col: col}, nil
}
