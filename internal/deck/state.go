package deck

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/nerrad567/gray-logic-deck/internal/button"
	"github.com/nerrad567/gray-logic-deck/internal/face"
	"github.com/nerrad567/gray-logic-deck/internal/layout"
	"github.com/nerrad567/gray-logic-deck/internal/page"
	"github.com/nerrad567/gray-logic-deck/internal/window"
)

// Logger defines the logging interface used by State.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// renderState is the press state a slot was last drawn in.
type renderState uint8

const (
	renderNone renderState = iota
	renderUp
	renderDown
)

type slot struct {
	occupant button.Occupant
	pressed  bool
	rendered renderState
}

func (s *slot) needsRendering() bool {
	switch s.rendered {
	case renderUp:
		return s.pressed
	case renderDown:
		return !s.pressed
	default:
		return true
	}
}

// SlotFace is a face to push to one slot.
type SlotFace struct {
	Slot int
	Face *face.Face
}

// Switch lists the pages a window change loaded and unloaded.
type Switch struct {
	Loaded   []string
	Unloaded []string
}

// State is the live deck model.
type State struct {
	grid       page.Grid
	compositor *face.Compositor
	buttons    *button.Registry
	pages      *page.Registry
	slots      []slot
	stack      []string
	init       *button.Handler
	window     *window.Info
	logger     Logger
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds the deck state for a device with the given grid and key size.
//
// It fails on malformed colours, unreadable images or handler files,
// invalid window patterns, duplicate button names and unknown default
// pages.
func New(l *layout.Layout, grid page.Grid, keySize image.Point, opts ...Option) (*State, error) {
	if grid.Rows <= 0 || grid.Cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d grid", ErrInvalidGeometry, grid.Rows, grid.Cols)
	}
	if keySize.X <= 0 || keySize.Y <= 0 {
		return nil, fmt.Errorf("%w: key size %v", ErrInvalidGeometry, keySize)
	}

	s := &State{grid: grid, logger: noopLogger{}}
	for _, opt := range opts {
		opt(s)
	}

	defaults, err := face.ResolveDefaults(l.Defaults)
	if err != nil {
		return nil, err
	}

	faceOpts := []face.Option{face.WithBaseDir(l.BaseDir)}
	if l.Font != "" {
		data, readErr := os.ReadFile(l.Path(l.Font))
		if readErr != nil {
			return nil, fmt.Errorf("%w: %v", face.ErrInvalidFont, readErr)
		}
		faceOpts = append(faceOpts, face.WithFont(data))
	}
	if s.compositor, err = face.NewCompositor(keySize, defaults, faceOpts...); err != nil {
		return nil, err
	}

	builder := button.NewBuilder(s.compositor, l.BaseDir)
	if s.buttons, err = button.Load(l.Buttons, builder); err != nil {
		return nil, err
	}

	s.pages = page.NewRegistry()
	for _, spec := range l.Pages {
		p, named, buildErr := page.Build(spec, grid, builder)
		if buildErr != nil {
			return nil, buildErr
		}
		if err := s.pages.Add(p); err != nil {
			return nil, err
		}
		for _, n := range named {
			if err := s.buttons.Add(n.Name, n.Setup); err != nil {
				return nil, fmt.Errorf("page %q: %w", p.Name, err)
			}
		}
	}

	s.slots = make([]slot, grid.Slots())
	for i := range s.slots {
		s.slots[i].occupant = button.Named(button.EmptyName)
	}

	if l.InitScript != nil {
		if s.init, err = l.InitScript.Build(l.BaseDir); err != nil {
			return nil, fmt.Errorf("init_script: %w", err)
		}
	}

	for _, name := range l.DefaultPages {
		if err := s.LoadPage(name); err != nil {
			return nil, fmt.Errorf("default page: %w", err)
		}
	}

	s.logger.Info("deck state built",
		"buttons", s.buttons.Len(),
		"pages", s.pages.Len(),
		"slots", len(s.slots),
	)
	return s, nil
}

// InitHandler returns the handler to run once at startup, or nil.
func (s *State) InitHandler() *button.Handler {
	return s.init
}

// OnButtonPressed marks slot as pressed and returns its down handler.
// Unknown slots are ignored.
func (s *State) OnButtonPressed(slot int) *button.Handler {
	return s.setPressed(slot, true)
}

// OnButtonReleased marks slot as released and returns its up handler.
// Unknown slots are ignored.
func (s *State) OnButtonReleased(slot int) *button.Handler {
	return s.setPressed(slot, false)
}

func (s *State) setPressed(i int, pressed bool) *button.Handler {
	if i < 0 || i >= len(s.slots) {
		return nil
	}
	sl := &s.slots[i]
	sl.pressed = pressed
	return sl.occupant.Resolve(s.buttons).Handler(pressed)
}

// FlushDirtyFaces returns the face to draw for every slot that needs
// redrawing and marks those slots drawn. Slots whose occupant has no face
// are marked drawn but not returned.
func (s *State) FlushDirtyFaces() []SlotFace {
	var out []SlotFace
	for i := range s.slots {
		sl := &s.slots[i]
		if !sl.needsRendering() {
			continue
		}
		sl.rendered = renderUp
		if sl.pressed {
			sl.rendered = renderDown
		}
		if f := sl.occupant.Resolve(s.buttons).Face(sl.pressed); f != nil {
			out = append(out, SlotFace{Slot: i, Face: f})
		}
	}
	return out
}

// LoadPage pushes a page onto the stack and applies its bindings. A page
// that is already loaded moves to the top.
func (s *State) LoadPage(name string) error {
	p, ok := s.pages.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrPageNotFound, name)
	}

	s.removeFromStack(name)
	s.stack = append(s.stack, name)
	for _, b := range p.Bindings {
		s.setOccupant(b.Slot, b.Occupant)
	}

	s.logger.Debug("page loaded", "page", name, "stack", s.stack)
	return nil
}

// UnloadPage removes a page from the stack. Each slot it claimed is reset
// to "empty" and then given to the most recently loaded remaining page
// that claims it.
func (s *State) UnloadPage(name string) error {
	p, ok := s.pages.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrPageNotFound, name)
	}

	s.removeFromStack(name)
	for _, i := range p.Slots() {
		s.setOccupant(i, button.Named(button.EmptyName))
		for _, remaining := range s.stack {
			rp, ok := s.pages.Get(remaining)
			if !ok {
				continue
			}
			if o, claimed := rp.Occupant(i); claimed {
				s.setOccupant(i, o)
			}
		}
	}

	s.logger.Debug("page unloaded", "page", name, "stack", s.stack)
	return nil
}

// OnForegroundWindow loads every page whose conditions match info and
// unloads every loaded page marked for removal whose conditions do not.
// All loads are applied before any unload.
func (s *State) OnForegroundWindow(info window.Info) (Switch, error) {
	var sw Switch
	for _, p := range s.pages.All() {
		switch {
		case p.Matches(info):
			sw.Loaded = append(sw.Loaded, p.Name)
		case p.RemoveOnMismatch && s.IsLoaded(p.Name):
			sw.Unloaded = append(sw.Unloaded, p.Name)
		}
	}

	w := info
	s.window = &w

	var errs []error
	for _, name := range sw.Loaded {
		if err := s.LoadPage(name); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range sw.Unloaded {
		if err := s.UnloadPage(name); err != nil {
			errs = append(errs, err)
		}
	}
	return sw, errors.Join(errs...)
}

// SetNamedButtonUpFace applies u to the up face of a named button and
// re-renders it. Slots showing that button are marked dirty.
func (s *State) SetNamedButtonUpFace(name string, u face.Update) error {
	cur, ok := s.buttons.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrButtonNotFound, name)
	}

	var spec face.Spec
	if cur.UpFace != nil {
		spec = cur.UpFace.Spec()
	}
	f, err := s.compositor.Compose(spec.Merge(u))
	if err != nil {
		return fmt.Errorf("button %q: %w", name, err)
	}
	s.buttons.Replace(name, cur.WithUpFace(f))

	for i := range s.slots {
		if n, named := s.slots[i].occupant.Name(); named && n == name {
			s.slots[i].rendered = renderNone
		}
	}
	return nil
}

// IsLoaded reports whether the page is on the stack.
func (s *State) IsLoaded(name string) bool {
	for _, n := range s.stack {
		if n == name {
			return true
		}
	}
	return false
}

// LoadedPages returns the page stack, oldest first.
func (s *State) LoadedPages() []string {
	return append([]string(nil), s.stack...)
}

// ForegroundWindow returns the last window seen by OnForegroundWindow.
func (s *State) ForegroundWindow() (window.Info, bool) {
	if s.window == nil {
		return window.Info{}, false
	}
	return *s.window, true
}

// SlotCount returns the number of slots.
func (s *State) SlotCount() int {
	return len(s.slots)
}

// Grid returns the device grid.
func (s *State) Grid() page.Grid {
	return s.grid
}

// KeySize returns the face size in pixels.
func (s *State) KeySize() image.Point {
	return s.compositor.Size()
}

// Occupant returns the occupant of slot.
func (s *State) Occupant(slot int) (button.Occupant, bool) {
	if slot < 0 || slot >= len(s.slots) {
		return button.Occupant{}, false
	}
	return s.slots[slot].occupant, true
}

// Pressed reports whether slot is currently held down.
func (s *State) Pressed(slot int) bool {
	if slot < 0 || slot >= len(s.slots) {
		return false
	}
	return s.slots[slot].pressed
}

// Face returns the face slot currently shows, or nil.
func (s *State) Face(slot int) *face.Face {
	if slot < 0 || slot >= len(s.slots) {
		return nil
	}
	sl := s.slots[slot]
	return sl.occupant.Resolve(s.buttons).Face(sl.pressed)
}

// Buttons returns the named button registry.
func (s *State) Buttons() *button.Registry {
	return s.buttons
}

// Pages returns the page registry.
func (s *State) Pages() *page.Registry {
	return s.pages
}

func (s *State) setOccupant(i int, o button.Occupant) {
	if i < 0 || i >= len(s.slots) {
		return
	}
	s.slots[i].occupant = o
	s.slots[i].rendered = renderNone
}

func (s *State) removeFromStack(name string) {
	kept := s.stack[:0]
	for _, n := range s.stack {
		if n != name {
			kept = append(kept, n)
		}
	}
	s.stack = kept
}
