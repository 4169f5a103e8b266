package face

import "errors"

// Domain errors for the face package.
var (
	// ErrInvalidColor is returned when a colour spec cannot be parsed.
	ErrInvalidColor = errors.New("face: invalid color")

	// ErrImage is returned when a background image cannot be read or decoded.
	ErrImage = errors.New("face: unreadable image")

	// ErrInvalidFont is returned when a font resource cannot be parsed or has no glyphs.
	ErrInvalidFont = errors.New("face: invalid font")

	// ErrInvalidText is returned when a text layer is malformed.
	ErrInvalidText = errors.New("face: invalid text")
)
