package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/karalabe/hid"

	"github.com/nerrad567/gray-logic-deck/internal/face"
)

// inputReportSize covers the largest key state report of the supported models.
const inputReportSize = 512

// conn is the subset of a HID handle the deck needs.
type conn interface {
	Close() error
	SendFeatureReport([]byte) (int, error)
	Write([]byte) (int, error)
	Read([]byte) (int, error)
}

// KeyEvent is a key state change.
type KeyEvent struct {
	Slot    int
	Pressed bool
}

// Info describes a connected deck.
type Info struct {
	Model  string `json:"model"`
	Serial string `json:"serial"`
	Path   string `json:"path"`
}

// Enumerate lists connected decks of known models.
func Enumerate() []Info {
	var out []Info
	for _, d := range hid.Enumerate(VendorID, 0) {
		m, ok := modelForProduct(d.ProductID)
		if !ok {
			continue
		}
		out = append(out, Info{Model: m.Name, Serial: d.Serial, Path: d.Path})
	}
	return out
}

// HID is a Stream Deck connected over USB.
type HID struct {
	model  Model
	serial string

	mu     sync.Mutex
	conn   conn
	closed bool
}

// Open opens the first connected deck of the given model. An empty serial
// matches any device.
func Open(model Model, serial string) (*HID, error) {
	if !hid.Supported() {
		return nil, fmt.Errorf("%w: hid not supported on this platform", ErrNotFound)
	}

	for _, info := range hid.Enumerate(VendorID, 0) {
		if !model.hasProduct(info.ProductID) {
			continue
		}
		if serial != "" && info.Serial != serial {
			continue
		}
		dev, err := info.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", info.Path, err)
		}
		return newHID(model, info.Serial, dev), nil
	}
	return nil, fmt.Errorf("%w: model %s serial %q", ErrNotFound, model.Name, serial)
}

func newHID(model Model, serial string, c conn) *HID {
	return &HID{model: model, serial: serial, conn: c}
}

// Model returns the deck model.
func (d *HID) Model() Model {
	return d.model
}

// Serial returns the device serial number.
func (d *HID) Serial() string {
	return d.serial
}

// Reset clears every key and shows the vendor logo.
func (d *HID) Reset() error {
	return d.sendFeature(d.model.reset())
}

// SetBrightness sets the backlight level in percent, clamped to 0..100.
func (d *HID) SetBrightness(pct int) error {
	return d.sendFeature(d.model.brightnessReport(pct))
}

// SetFace shows f on the key at slot.
func (d *HID) SetFace(slot int, f *face.Face) error {
	key, err := d.model.KeyForSlot(slot)
	if err != nil {
		return err
	}
	data, err := d.model.EncodeKeyImage(f.Image())
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	for _, report := range d.model.imageReports(key, data) {
		if _, err := d.conn.Write(report); err != nil {
			return fmt.Errorf("writing key %d image: %w", key, err)
		}
	}
	return nil
}

// Listen reads key state reports and sends one KeyEvent per change until
// ctx is cancelled or the device fails. Cancelling ctx closes the device.
func (d *HID) Listen(ctx context.Context, out chan<- KeyEvent) error {
	stop := context.AfterFunc(ctx, func() { _ = d.Close() })
	defer stop()

	pressed := make([]bool, d.model.Keys())
	buf := make([]byte, inputReportSize)
	for {
		n, err := d.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading key state: %w", err)
		}
		for _, ev := range d.model.keyChanges(buf[:n], pressed) {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close releases the device. It is safe to call more than once.
func (d *HID) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.conn.Close()
}

func (d *HID) sendFeature(report []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if _, err := d.conn.SendFeatureReport(report); err != nil {
		return fmt.Errorf("sending feature report: %w", err)
	}
	return nil
}

// keyChanges compares a key state report with pressed, updates it and
// returns the resulting events in key order.
func (m Model) keyChanges(report []byte, pressed []bool) []KeyEvent {
	if len(report) < m.KeyOffset+m.Keys() || report[0] != 0x01 {
		return nil
	}
	var events []KeyEvent
	for key := range pressed {
		down := report[m.KeyOffset+key] != 0
		if down == pressed[key] {
			continue
		}
		pressed[key] = down
		slot, err := m.SlotForKey(key)
		if err != nil {
			continue
		}
		events = append(events, KeyEvent{Slot: slot, Pressed: down})
	}
	return events
}

func (m Model) hasProduct(id uint16) bool {
	for _, pid := range m.ProductIDs {
		if pid == id {
			return true
		}
	}
	return false
}

