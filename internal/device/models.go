package device

import (
	"fmt"
	"image"
	"sort"

	"github.com/nerrad567/gray-logic-deck/internal/page"
)

// VendorID is Elgato's USB vendor ID.
const VendorID uint16 = 0x0fd9

// Format is the key image encoding a model expects.
type Format string

const (
	FormatBMP  Format = "bmp"
	FormatJPEG Format = "jpeg"
)

// Transform is applied to a face before encoding, to undo the panel's
// mounting orientation.
type Transform uint8

const (
	TransformNone Transform = iota
	TransformRotate180
	TransformRotate90FlipV
)

// Model describes one Stream Deck hardware revision.
type Model struct {
	Name       string
	ProductIDs []uint16
	Rows       int
	Cols       int
	ImageSize  image.Point
	Format     Format
	Transform  Transform

	// Mirrored is true when the hardware numbers columns from the right,
	// which is how slots are numbered.
	Mirrored bool

	// KeyOffset is where key states start in an input report.
	KeyOffset int

	// ReportSize is the length of one key image output report.
	ReportSize int

	// FeatureSize is the length of reset and brightness feature reports.
	FeatureSize int

	resetReport      []byte
	brightnessPrefix []byte
	imageHeader      func(key, page, length int, last bool) []byte

	// splitHalves sends the image in two equal halves instead of
	// report-sized chunks.
	splitHalves bool
}

// Keys returns the number of keys.
func (m Model) Keys() int {
	return m.Rows * m.Cols
}

// Grid returns the key grid for building pages.
func (m Model) Grid() page.Grid {
	return page.Grid{Rows: m.Rows, Cols: m.Cols}
}

// KeyForSlot maps a slot index to the hardware key index.
func (m Model) KeyForSlot(slot int) (int, error) {
	if slot < 0 || slot >= m.Keys() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if m.Mirrored {
		return slot, nil
	}
	return flipColumn(slot, m.Cols), nil
}

// SlotForKey maps a hardware key index to a slot index.
func (m Model) SlotForKey(key int) (int, error) {
	if key < 0 || key >= m.Keys() {
		return 0, fmt.Errorf("%w: key %d", ErrInvalidSlot, key)
	}
	if m.Mirrored {
		return key, nil
	}
	return flipColumn(key, m.Cols), nil
}

func flipColumn(i, cols int) int {
	col := i % cols
	return i - col + (cols - 1 - col)
}

func (m Model) brightnessReport(pct int) []byte {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	r := make([]byte, m.FeatureSize)
	n := copy(r, m.brightnessPrefix)
	r[n] = byte(pct)
	return r
}

func (m Model) reset() []byte {
	r := make([]byte, m.FeatureSize)
	copy(r, m.resetReport)
	return r
}

// v1Header is the 16 byte image header of the first generation decks.
func v1Header(key, page, _ int, last bool) []byte {
	h := make([]byte, 16)
	h[0] = 0x02
	h[1] = 0x01
	h[2] = byte(page + 1)
	if last {
		h[4] = 0x01
	}
	h[5] = byte(key + 1)
	return h
}

// v2Header is the 8 byte image header of the JPEG decks.
func v2Header(key, page, length int, last bool) []byte {
	h := make([]byte, 8)
	h[0] = 0x02
	h[1] = 0x07
	h[2] = byte(key)
	if last {
		h[3] = 0x01
	}
	h[4] = byte(length)
	h[5] = byte(length >> 8)
	h[6] = byte(page)
	h[7] = byte(page >> 8)
	return h
}

var models = map[string]Model{
	"original": {
		Name:             "original",
		ProductIDs:       []uint16{0x0060},
		Rows:             3,
		Cols:             5,
		ImageSize:        image.Pt(72, 72),
		Format:           FormatBMP,
		Transform:        TransformRotate180,
		Mirrored:         true,
		KeyOffset:        1,
		ReportSize:       8191,
		FeatureSize:      17,
		resetReport:      []byte{0x0b, 0x63},
		brightnessPrefix: []byte{0x05, 0x55, 0xaa, 0xd1, 0x01},
		imageHeader:      v1Header,
		splitHalves:      true,
	},
	"original-v2": {
		Name:             "original-v2",
		ProductIDs:       []uint16{0x006d},
		Rows:             3,
		Cols:             5,
		ImageSize:        image.Pt(72, 72),
		Format:           FormatJPEG,
		Transform:        TransformRotate180,
		KeyOffset:        4,
		ReportSize:       1024,
		FeatureSize:      32,
		resetReport:      []byte{0x03, 0x02},
		brightnessPrefix: []byte{0x03, 0x08},
		imageHeader:      v2Header,
	},
	"mk2": {
		Name:             "mk2",
		ProductIDs:       []uint16{0x0080},
		Rows:             3,
		Cols:             5,
		ImageSize:        image.Pt(72, 72),
		Format:           FormatJPEG,
		Transform:        TransformRotate180,
		KeyOffset:        4,
		ReportSize:       1024,
		FeatureSize:      32,
		resetReport:      []byte{0x03, 0x02},
		brightnessPrefix: []byte{0x03, 0x08},
		imageHeader:      v2Header,
	},
	"mini": {
		Name:             "mini",
		ProductIDs:       []uint16{0x0063, 0x0090},
		Rows:             2,
		Cols:             3,
		ImageSize:        image.Pt(80, 80),
		Format:           FormatBMP,
		Transform:        TransformRotate90FlipV,
		KeyOffset:        1,
		ReportSize:       1024,
		FeatureSize:      17,
		resetReport:      []byte{0x0b, 0x63},
		brightnessPrefix: []byte{0x05, 0x55, 0xaa, 0xd1, 0x01},
		imageHeader:      v1Header,
	},
	"xl": {
		Name:             "xl",
		ProductIDs:       []uint16{0x006c, 0x008f},
		Rows:             4,
		Cols:             8,
		ImageSize:        image.Pt(96, 96),
		Format:           FormatJPEG,
		Transform:        TransformRotate180,
		KeyOffset:        4,
		ReportSize:       1024,
		FeatureSize:      32,
		resetReport:      []byte{0x03, 0x02},
		brightnessPrefix: []byte{0x03, 0x08},
		imageHeader:      v2Header,
	},
}

// LookupModel returns the built-in model with the given name.
func LookupModel(name string) (Model, error) {
	m, ok := models[name]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// ModelNames returns the built-in model names in sorted order.
func ModelNames() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func modelForProduct(id uint16) (Model, bool) {
	for _, name := range ModelNames() {
		if m := models[name]; m.hasProduct(id) {
			return m, true
		}
	}
	return Model{}, false
}
