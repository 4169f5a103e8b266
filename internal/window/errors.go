package window

import "errors"

var (
	// ErrAlreadyStarted is returned when a watcher is already running in this process.
	ErrAlreadyStarted = errors.New("window: watcher already started")

	// ErrUnsupported is returned on platforms without a window watcher.
	ErrUnsupported = errors.New("window: not supported on this platform")

	// ErrDisconnected is returned when the display connection drops.
	ErrDisconnected = errors.New("window: display connection lost")
)
