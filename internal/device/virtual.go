package device

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-deck/internal/face"
)

// Virtual is an in-memory deck. It records the last face pushed to each
// slot and never produces key events on its own.
type Virtual struct {
	model Model

	mu         sync.RWMutex
	faces      []*face.Face
	writes     int
	brightness int
}

// NewVirtual creates a virtual deck with the geometry of model.
func NewVirtual(model Model) *Virtual {
	return &Virtual{
		model:      model,
		faces:      make([]*face.Face, model.Keys()),
		brightness: 100,
	}
}

// Model returns the emulated model.
func (v *Virtual) Model() Model {
	return v.model
}

// SetFace records f as the face of slot.
func (v *Virtual) SetFace(slot int, f *face.Face) error {
	if slot < 0 || slot >= len(v.faces) {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	if f != nil && f.Size() != v.model.ImageSize {
		return fmt.Errorf("%w: got %v, want %v", ErrImageSize, f.Size(), v.model.ImageSize)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.faces[slot] = f
	v.writes++
	return nil
}

// SetBrightness records the brightness, clamped to 0..100.
func (v *Virtual) SetBrightness(pct int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.brightness = min(max(pct, 0), 100)
	return nil
}

// Face returns the last face pushed to slot, or nil.
func (v *Virtual) Face(slot int) *face.Face {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if slot < 0 || slot >= len(v.faces) {
		return nil
	}
	return v.faces[slot]
}

// Writes returns how many faces have been pushed.
func (v *Virtual) Writes() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.writes
}

// Brightness returns the last brightness set.
func (v *Virtual) Brightness() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.brightness
}

// Close is a no-op.
func (v *Virtual) Close() error {
	return nil
}
