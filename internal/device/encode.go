package device

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/gift"
	"golang.org/x/image/bmp"
)

const jpegQuality = 95

// EncodeKeyImage converts img into the byte payload the model expects:
// oriented for the panel and encoded as BMP or JPEG.
func (m Model) EncodeKeyImage(img image.Image) ([]byte, error) {
	if img.Bounds().Size() != m.ImageSize {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrImageSize, img.Bounds().Size(), m.ImageSize)
	}

	oriented := m.orient(img)

	var buf bytes.Buffer
	var err error
	switch m.Format {
	case FormatBMP:
		err = bmp.Encode(&buf, oriented)
	case FormatJPEG:
		err = jpeg.Encode(&buf, oriented, &jpeg.Options{Quality: jpegQuality})
	default:
		err = fmt.Errorf("unknown image format %q", m.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding key image: %w", err)
	}
	return buf.Bytes(), nil
}

func (m Model) orient(img image.Image) image.Image {
	var g *gift.GIFT
	switch m.Transform {
	case TransformRotate180:
		g = gift.New(gift.Rotate180())
	case TransformRotate90FlipV:
		g = gift.New(gift.Rotate90(), gift.FlipVertical())
	default:
		return img
	}
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// imageReports splits an encoded key image into padded output reports.
func (m Model) imageReports(key int, data []byte) [][]byte {
	var reports [][]byte
	remaining := len(data)
	sent := 0
	half := len(data) / 2

	for page := 0; remaining > 0; page++ {
		// The header length does not depend on its content.
		room := m.ReportSize - len(m.imageHeader(0, 0, 0, false))

		n := remaining
		if n > room {
			n = room
			if m.splitHalves {
				n = half
			}
		}
		last := n == remaining

		report := make([]byte, 0, m.ReportSize)
		report = append(report, m.imageHeader(key, page, n, last)...)
		report = append(report, data[sent:sent+n]...)
		report = report[:m.ReportSize]

		reports = append(reports, report)
		remaining -= n
		sent += n
	}
	return reports
}
