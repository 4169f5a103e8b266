package page

import (
	"errors"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPosition_Index(t *testing.T) {
	grid := Grid{Rows: 3, Cols: 5}

	tests := []struct {
		name     string
		row, col int
		want     int
	}{
		{name: "top row leftmost", row: 0, col: -1, want: 0},
		{name: "bottom row rightmost", row: -1, col: 0, want: 14},
		{name: "top row rightmost", row: 0, col: 0, want: 4},
		{name: "column is mirrored", row: 0, col: 4, want: 0},
		{name: "second row", row: 1, col: 1, want: 8},
		{name: "negative row", row: -2, col: -2, want: 6},
		{name: "row clamped high", row: 7, col: 0, want: 14},
		{name: "row clamped low", row: -9, col: -1, want: 0},
		{name: "col clamped", row: 0, col: 40, want: 0},
		{name: "negative col clamped", row: 0, col: -40, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := At(tt.row, tt.col).Index(grid); got != tt.want {
				t.Errorf("At(%d, %d).Index() = %d, want %d", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestPosition_CornersOnAnyGrid(t *testing.T) {
	for _, g := range []Grid{{Rows: 2, Cols: 3}, {Rows: 3, Cols: 5}, {Rows: 4, Cols: 8}, {Rows: 1, Cols: 1}} {
		if got := At(0, -1).Index(g); got != 0 {
			t.Errorf("%+v: At(0,-1) = %d, want 0", g, got)
		}
		if got := At(-1, 0).Index(g); got != g.Slots()-1 {
			t.Errorf("%+v: At(-1,0) = %d, want %d", g, got, g.Slots()-1)
		}
	}
}

func TestAxisOf(t *testing.T) {
	if got := AxisOf(-1); got != (Axis{FromEnd: true, Offset: 0}) {
		t.Errorf("AxisOf(-1) = %+v", got)
	}
	if got := AxisOf(-3); got != (Axis{FromEnd: true, Offset: 2}) {
		t.Errorf("AxisOf(-3) = %+v", got)
	}
	if got := AxisOf(2); got != (Axis{Offset: 2}) {
		t.Errorf("AxisOf(2) = %+v", got)
	}
}

func TestPositionSpec_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    PositionSpec
		wantErr bool
	}{
		{name: "mapping", src: "row: 1\ncol: -2", want: PositionSpec{Row: 1, Col: -2}},
		{name: "sequence", src: "[-1, 3]", want: PositionSpec{Row: -1, Col: 3}},
		{name: "string", src: "'2, 0'", want: PositionSpec{Row: 2, Col: 0}},
		{name: "tuple string", src: "'(0,-1)'", want: PositionSpec{Row: 0, Col: -1}},
		{name: "missing col", src: "row: -1", wantErr: true},
		{name: "short sequence", src: "[1]", wantErr: true},
		{name: "garbage string", src: "left", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got PositionSpec
			err := yaml.Unmarshal([]byte(tt.src), &got)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPosition) {
					t.Fatalf("Unmarshal() error = %v, want ErrInvalidPosition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
