// Package api implements the HTTP control API and WebSocket event stream.
//
// All routes live under /api/v1. Reads come from engine snapshots and the
// read-only page and button registries. Writes are turned into engine events
// and answered with 202 Accepted once queued, so a handler script calling
// back into the API never waits on the control loop it is running in.
//
// # WebSocket
//
// GET /api/v1/ws sends the current snapshot as a "state" event, then relays
// engine broadcasts for the channels the client subscribes to:
//
//	{"type":"subscribe","id":"1","payload":{"channels":["button","page"]}}
//
// The channel "*" subscribes to everything.
package api
