// Package deck holds the live state of a deck: which button occupies
// each slot, which pages are loaded and which slots need redrawing.
//
// State is built once from a layout. It resolves default colours, renders
// every declared button, builds the pages (merging their inline buttons
// into the shared registry) and loads the default pages.
//
// Page stack:
//
//	LoadPage("a")   stack: [a]        a's bindings applied
//	LoadPage("b")   stack: [a b]      b's bindings applied over a
//	UnloadPage("b") stack: [a]        b's slots reset to "empty", then a replayed
//
// A slot needs redrawing when its last drawn press state differs from its
// current one, or when its occupant changed. FlushDirtyFaces returns the
// face to draw for each such slot and marks it drawn.
//
// # Thread Safety
//
// State is not safe for concurrent use. It is owned by a single control
// goroutine (see package engine); other goroutines talk to it by sending
// events to that goroutine.
package deck
