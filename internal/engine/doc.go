// Package engine runs the deck's control loop.
//
// A single goroutine owns the deck.State. Everything that wants to change
// the deck (key presses from the device, foreground window changes, API
// requests, MQTT commands) becomes an Event submitted to a buffered queue.
// Each turn of the loop:
//
//  1. pushes every dirty face to the sink
//  2. publishes a snapshot for concurrent readers
//  3. waits for the next event or cancellation
//  4. applies the event to the state
//  5. runs the returned handler, if any
//  6. notifies observers (MQTT, InfluxDB, audit log, WebSocket)
//
// Handlers run synchronously on the loop goroutine, so a handler that calls
// back into the control API only ever enqueues work; it never waits on the
// loop.
//
// Observers are optional. A nil observer is skipped, and observer failures
// are logged without stopping the loop.
package engine
