package face

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// drawText renders one text layer onto dst. The starting font size is
// shrunk proportionally when the text would exceed 90% of the key width.
// The glyph box is centred horizontally and vertically centred on anchor.
func (c *Compositor) drawText(dst *image.RGBA, t TextSpec, fallback color.NRGBA, size, anchor float64) error {
	if t.Text == "" {
		return nil
	}

	col := fallback
	if t.Color != nil {
		var err error
		if col, err = t.Color.Resolve(); err != nil {
			return err
		}
	}

	face, err := c.fontFace(size)
	if err != nil {
		return err
	}

	width := toFloat(font.MeasureString(face, t.Text))
	limit := maxTextWidth * float64(c.size.X)
	if width > limit {
		_ = face.Close()
		size = size * limit / width
		if face, err = c.fontFace(size); err != nil {
			return err
		}
		width = toFloat(font.MeasureString(face, t.Text))
	}
	defer face.Close()

	bounds, _ := font.BoundString(face, t.Text)
	top, bottom := toFloat(bounds.Min.Y), toFloat(bounds.Max.Y)

	x := (float64(c.size.X) - width) / 2
	baseline := anchor - (top+bottom)/2

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fromFloat(x), Y: fromFloat(baseline)},
	}
	d.DrawString(t.Text)
	return nil
}

// fontFace returns a face whose em size is size pixels.
func (c *Compositor) fontFace(size float64) (font.Face, error) {
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	return face, nil
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func fromFloat(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
