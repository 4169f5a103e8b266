package face

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Layer geometry, as fractions of the key height.
const (
	labelScaleDivisor = 1.1
	smallScaleDivisor = 4.0
	maxTextWidth      = 0.9
)

// Compositor renders face specs for one key size and set of defaults.
// A Compositor is safe for concurrent use.
type Compositor struct {
	size     image.Point
	defaults Defaults
	font     *opentype.Font
	fontData []byte
	baseDir  string
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithBaseDir resolves relative image paths against dir.
func WithBaseDir(dir string) Option {
	return func(c *Compositor) {
		c.baseDir = dir
	}
}

// WithFont uses the given TrueType/OpenType font data instead of Go Regular.
func WithFont(data []byte) Option {
	return func(c *Compositor) {
		c.fontData = data
	}
}

// NewCompositor creates a compositor producing faces of the given size.
func NewCompositor(size image.Point, defaults Defaults, opts ...Option) (*Compositor, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("face: invalid key size %v", size)
	}
	c := &Compositor{
		size:     size,
		defaults: defaults,
		fontData: goregular.TTF,
	}
	for _, opt := range opts {
		opt(c)
	}

	f, err := opentype.Parse(c.fontData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	if f.NumGlyphs() == 0 {
		return nil, fmt.Errorf("%w: font has no glyphs", ErrInvalidFont)
	}
	c.font = f
	return c, nil
}

// Size returns the key size faces are rendered at.
func (c *Compositor) Size() image.Point {
	return c.size
}

// Defaults returns the default colours.
func (c *Compositor) Defaults() Defaults {
	return c.defaults
}

// Compose renders spec into a new Face. It is deterministic for a given
// spec, key size, defaults and image file content.
func (c *Compositor) Compose(spec Spec) (*Face, error) {
	bounds := image.Rect(0, 0, c.size.X, c.size.Y)

	bg := c.defaults.Background
	if spec.Color != nil {
		var err error
		if bg, err = spec.Color.Resolve(); err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
	}

	canvas := image.NewNRGBA(bounds)
	fill(canvas, bg)

	if spec.File != "" {
		img, err := c.loadImage(spec.File)
		if err != nil {
			return nil, err
		}
		overlay(canvas, img)
	}

	out := flatten(canvas)

	h := float64(c.size.Y)
	layers := []struct {
		text     *TextSpec
		fallback color.NRGBA
		scale    float64
		anchor   float64
	}{
		{spec.Label, c.defaults.Label, h / labelScaleDivisor, h / 2},
		{spec.Sublabel, c.defaults.Sublabel, h / smallScaleDivisor, h * 4 / 5},
		{spec.Superlabel, c.defaults.Superlabel, h / smallScaleDivisor, h / 5},
	}
	for i, l := range layers {
		if l.text == nil {
			continue
		}
		if err := c.drawText(out, *l.text, l.fallback, l.scale, l.anchor); err != nil {
			return nil, fmt.Errorf("text layer %d: %w", i, err)
		}
	}

	return &Face{spec: spec, img: out}, nil
}

// loadImage decodes path and resizes it to exactly the key size.
func (c *Compositor) loadImage(path string) (image.Image, error) {
	if !filepath.IsAbs(path) && c.baseDir != "" {
		path = filepath.Join(c.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImage, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrImage, path, err)
	}

	g := gift.New(gift.Resize(c.size.X, c.size.Y, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst, nil
}

// fill sets every pixel of dst to c. The values are stored as given, so a
// transparent background keeps its colour for flatten.
func fill(dst *image.NRGBA, c color.NRGBA) {
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// overlay blends src over dst in straight alpha. Fully transparent source
// pixels leave dst as it is, whatever its own alpha.
func overlay(dst *image.NRGBA, src image.Image) {
	b := dst.Rect.Intersect(src.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA) //nolint:forcetypeassert // NRGBAModel always returns color.NRGBA
			if s.A == 0 {
				continue
			}
			d := dst.NRGBAAt(x, y)
			sa, da := float64(s.A)/0xFF, float64(d.A)/0xFF
			a := sa + da*(1-sa)
			mix := func(sc, dc uint8) uint8 {
				return uint8(math.Round((float64(sc)*sa + float64(dc)*da*(1-sa)) / a))
			}
			dst.SetNRGBA(x, y, color.NRGBA{
				R: mix(s.R, d.R),
				G: mix(s.G, d.G),
				B: mix(s.B, d.B),
				A: uint8(math.Round(a * 0xFF)),
			})
		}
	}
}

// flatten drops the alpha channel, keeping the straight RGB values.
func flatten(src *image.NRGBA) *image.RGBA {
	out := image.NewRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		out.Pix[i] = src.Pix[i]
		out.Pix[i+1] = src.Pix[i+1]
		out.Pix[i+2] = src.Pix[i+2]
		out.Pix[i+3] = 0xFF
	}
	return out
}
