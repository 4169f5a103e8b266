package face

import (
	"image"
	"image/color"
)

// Face is a rendered, opaque key image. It is immutable once created and
// may be shared freely between slots and goroutines.
type Face struct {
	spec Spec
	img  *image.RGBA
}

// Image returns the rendered pixels. Callers must not modify the image.
func (f *Face) Image() image.Image {
	return f.img
}

// Size returns the face dimensions in pixels.
func (f *Face) Size() image.Point {
	return f.img.Rect.Size()
}

// Spec returns the specification the face was rendered from.
func (f *Face) Spec() Spec {
	return f.spec
}

// At returns the colour of a single pixel.
func (f *Face) At(x, y int) color.RGBA {
	return f.img.RGBAAt(x, y)
}
