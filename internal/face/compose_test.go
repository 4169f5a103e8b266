package face

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

var keySize = image.Pt(72, 72)

func newTestCompositor(t *testing.T, opts ...Option) *Compositor {
	t.Helper()
	c, err := NewCompositor(keySize, BuiltinDefaults(), opts...)
	if err != nil {
		t.Fatalf("NewCompositor() error = %v", err)
	}
	return c
}

func writePNG(t *testing.T, dir, name string, size image.Point, fill color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rectangle{Max: size})
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func countNot(f *Face, c color.RGBA) int {
	n := 0
	size := f.Size()
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if f.At(x, y) != c {
				n++
			}
		}
	}
	return n
}

func TestCompose_SolidBackground(t *testing.T) {
	c := newTestCompositor(t)

	f, err := c.Compose(Spec{Color: Hex("#FF0000")})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if f.Size() != keySize {
		t.Fatalf("Size() = %v, want %v", f.Size(), keySize)
	}
	if n := countNot(f, color.RGBA{R: 255, A: 255}); n != 0 {
		t.Errorf("%d pixels are not pure red", n)
	}
}

func TestCompose_DefaultBackground(t *testing.T) {
	c := newTestCompositor(t)

	f, err := c.Compose(Spec{})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if n := countNot(f, color.RGBA{A: 255}); n != 0 {
		t.Errorf("%d pixels are not black", n)
	}
}

func TestCompose_AlphaIsDiscarded(t *testing.T) {
	c := newTestCompositor(t)

	tests := []struct {
		color string
		want  color.RGBA
	}{
		{"#0000FF80", color.RGBA{B: 255, A: 255}},
		{"#FF000000", color.RGBA{R: 255, A: 255}},
		{"#12345601", color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			f, err := c.Compose(Spec{Color: Hex(tt.color)})
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got := f.At(10, 10); got != tt.want {
				t.Errorf("At(10,10) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompose_TransparentImageOverTransparentBackground(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "clear.png", image.Pt(16, 16), color.NRGBA{})
	c := newTestCompositor(t, WithBaseDir(dir))

	f, err := c.Compose(Spec{Color: Hex("#FF000000"), File: "clear.png"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if n := countNot(f, color.RGBA{R: 255, A: 255}); n != 0 {
		t.Errorf("%d pixels are not the red background", n)
	}
}

func TestCompose_TransparentImageShowsBackground(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "clear.png", image.Pt(16, 16), color.NRGBA{})
	c := newTestCompositor(t, WithBaseDir(dir))

	f, err := c.Compose(Spec{Color: Hex("#00FF00"), File: "clear.png"})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if n := countNot(f, color.RGBA{G: 255, A: 255}); n != 0 {
		t.Errorf("%d pixels are not the green background", n)
	}
}

func TestCompose_OpaqueImageIsResized(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "blue.png", image.Pt(200, 120), color.NRGBA{B: 255, A: 255})
	c := newTestCompositor(t)

	f, err := c.Compose(Spec{Color: Hex("#FF0000"), File: path})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if f.Size() != keySize {
		t.Fatalf("Size() = %v, want %v", f.Size(), keySize)
	}
	for _, p := range []image.Point{{0, 0}, {36, 36}, {71, 71}} {
		got := f.At(p.X, p.Y)
		if got.R > 1 || got.B < 254 {
			t.Errorf("At(%v) = %v, want blue", p, got)
		}
	}
}

func TestCompose_Label(t *testing.T) {
	c := newTestCompositor(t)

	f, err := c.Compose(Spec{Label: &TextSpec{Text: "A"}})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if n := countNot(f, color.RGBA{A: 255}); n == 0 {
		t.Fatal("label drew no pixels")
	}

	// The label is centred, so the middle row must carry ink.
	ink := false
	for x := 0; x < keySize.X; x++ {
		if f.At(x, keySize.Y/2) != (color.RGBA{A: 255}) {
			ink = true
			break
		}
	}
	if !ink {
		t.Error("no ink on the centre row")
	}
}

func TestCompose_LongLabelIsShrunk(t *testing.T) {
	c := newTestCompositor(t)

	f, err := c.Compose(Spec{Label: &TextSpec{Text: "WWWWWWWWWWWW"}})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	for y := 0; y < keySize.Y; y++ {
		for _, x := range []int{0, keySize.X - 1} {
			if got := f.At(x, y); got != (color.RGBA{A: 255}) {
				t.Fatalf("At(%d,%d) = %v, want background at the key edge", x, y, got)
			}
		}
	}
}

func TestCompose_LayerPlacement(t *testing.T) {
	c := newTestCompositor(t)

	f, err := c.Compose(Spec{
		Sublabel:   &TextSpec{Text: "sub"},
		Superlabel: &TextSpec{Text: "sup"},
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	cyan := 0
	yellow := 0
	size := f.Size()
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			p := f.At(x, y)
			switch {
			case p.R == 0 && p.G > 128 && p.B > 128:
				if y < size.Y/2 {
					t.Fatalf("sublabel ink at y=%d, want lower half", y)
				}
				cyan++
			case p.R > 128 && p.G > 128 && p.B == 0:
				if y > size.Y/2 {
					t.Fatalf("superlabel ink at y=%d, want upper half", y)
				}
				yellow++
			}
		}
	}
	if cyan == 0 || yellow == 0 {
		t.Errorf("cyan=%d yellow=%d, want ink for both layers", cyan, yellow)
	}
}

func TestCompose_Deterministic(t *testing.T) {
	c := newTestCompositor(t)
	spec := Spec{Color: Hex("#123456"), Label: &TextSpec{Text: "go", Color: Hex("#ABCDEF")}}

	a, err := c.Compose(spec)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	b, err := c.Compose(spec)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !bytes.Equal(a.Image().(*image.RGBA).Pix, b.Image().(*image.RGBA).Pix) {
		t.Error("Compose() is not deterministic")
	}
}

func TestCompose_Errors(t *testing.T) {
	dir := t.TempDir()
	notImage := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notImage, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	c := newTestCompositor(t)

	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{name: "bad background", spec: Spec{Color: Hex("red")}, want: ErrInvalidColor},
		{name: "bad label colour", spec: Spec{Label: &TextSpec{Text: "x", Color: Hex("#1")}}, want: ErrInvalidColor},
		{name: "missing image", spec: Spec{File: filepath.Join(dir, "missing.png")}, want: ErrImage},
		{name: "undecodable image", spec: Spec{File: notImage}, want: ErrImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compose(tt.spec)
			if !errors.Is(err, tt.want) {
				t.Errorf("Compose() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewCompositor_InvalidFont(t *testing.T) {
	_, err := NewCompositor(keySize, BuiltinDefaults(), WithFont([]byte("definitely not a font")))
	if !errors.Is(err, ErrInvalidFont) {
		t.Fatalf("NewCompositor() error = %v, want ErrInvalidFont", err)
	}
}

func TestSpec_Merge(t *testing.T) {
	text := "new"
	base := Spec{Color: Hex("#000000"), Label: &TextSpec{Text: "old", Color: Hex("#FFFFFF")}}

	got := base.Merge(Update{
		Color: Hex("#FF0000"),
		Label: &TextUpdate{Text: &text},
		Sublabel: &TextUpdate{
			Color: Hex("#00FF00"),
		},
	})

	if got.Color.Hex != "#FF0000" {
		t.Errorf("Color = %v", got.Color)
	}
	if got.Label.Text != "new" || got.Label.Color.Hex != "#FFFFFF" {
		t.Errorf("Label = %+v", got.Label)
	}
	if got.Sublabel == nil || got.Sublabel.Color.Hex != "#00FF00" {
		t.Errorf("Sublabel = %+v", got.Sublabel)
	}
	if base.Label.Text != "old" || base.Color.Hex != "#000000" {
		t.Error("Merge() modified the receiver")
	}
}
