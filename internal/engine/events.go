package engine

import (
	"github.com/nerrad567/gray-logic-deck/internal/face"
	"github.com/nerrad567/gray-logic-deck/internal/window"
)

// Event is something the control loop applies to the deck.
type Event interface {
	// Origin names where the event came from, for the audit log.
	Origin() string
}

// ButtonEvent is a key going down or up.
type ButtonEvent struct {
	Slot    int
	Pressed bool
	Source  string
}

// WindowEvent reports a new foreground window.
type WindowEvent struct {
	Info window.Info
}

// PageCommand loads or unloads a page.
type PageCommand struct {
	Name   string
	Unload bool
	Source string
}

// FaceCommand edits the up face of a named button.
type FaceCommand struct {
	Button string
	Update face.Update
	Source string
}

// Origin implements Event.
func (e ButtonEvent) Origin() string { return orDefault(e.Source, SourceDevice) }

// Origin implements Event.
func (WindowEvent) Origin() string { return SourceWindow }

// Origin implements Event.
func (e PageCommand) Origin() string { return orDefault(e.Source, SourceAPI) }

// Origin implements Event.
func (e FaceCommand) Origin() string { return orDefault(e.Source, SourceAPI) }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
