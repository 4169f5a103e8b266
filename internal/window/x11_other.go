//go:build !linux

package window

import "context"

// X11Watcher is unavailable on this platform.
type X11Watcher struct{}

// NewX11Watcher creates a watcher that always fails to start.
func NewX11Watcher() *X11Watcher {
	return &X11Watcher{}
}

// SetLogger is a no-op.
func (w *X11Watcher) SetLogger(Logger) {}

// Start returns ErrUnsupported.
func (w *X11Watcher) Start(context.Context, chan<- Info) error {
	return ErrUnsupported
}
