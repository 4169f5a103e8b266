// Package page builds deck pages and matches them against the focused window.
//
// A Page binds button occupants to slots. Positions are written as
// (row, col) pairs where negative values count from the far edge, and
// are resolved against the device Grid into a flat slot index. Columns
// are mirrored because the hardware numbers keys right to left:
//
//	At(0, 0)   → top row, rightmost key
//	At(0, -1)  → top row, leftmost key   (slot 0)
//	At(-1, 0)  → bottom row, rightmost key (last slot)
//
// Out-of-range positions are clamped onto the grid.
//
// Pages may carry foreground window conditions. Each condition holds up
// to three regular expressions (title, executable, class); a pattern that
// is not set always matches. A page matches a window when any of its
// conditions does.
//
// Inline buttons declared inside a page are always given a name: the one
// written in the layout, or "<page>#<slot>" otherwise. Build returns them
// so the caller can merge them into the shared button registry.
package page
