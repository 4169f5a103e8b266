// Package panel serves a browser view of the deck.
//
// The page draws every key from /api/v1/slots/{n}/face.png at its physical
// row and column, forwards mouse presses to the press and release routes,
// and reloads faces when the WebSocket stream reports a change. It is the
// usual way to drive a virtual deck.
package panel
