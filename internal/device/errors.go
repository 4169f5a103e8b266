package device

import "errors"

var (
	// ErrNotFound is returned when no matching deck is connected.
	ErrNotFound = errors.New("device: not found")

	// ErrUnknownModel is returned by LookupModel for unknown names.
	ErrUnknownModel = errors.New("device: unknown model")

	// ErrInvalidSlot is returned for slot indices outside the key grid.
	ErrInvalidSlot = errors.New("device: invalid slot")

	// ErrImageSize is returned when a face does not match the key size.
	ErrImageSize = errors.New("device: image size mismatch")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("device: closed")
)
