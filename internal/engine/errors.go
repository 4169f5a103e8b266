package engine

import "errors"

var (
	// ErrQueueClosed is returned by Submit after Run has returned.
	ErrQueueClosed = errors.New("engine: queue closed")

	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("engine: already running")

	// ErrInvalidCommand is returned for malformed MQTT commands.
	ErrInvalidCommand = errors.New("engine: invalid command")
)
