package window

import (
	"bytes"
	"sync/atomic"
)

// Info identifies the focused top-level window.
type Info struct {
	Title      string `json:"title"`
	Executable string `json:"executable"`
	Class      string `json:"class"`
}

// Logger defines the logging interface used by watchers.
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

var started atomic.Bool

// claim marks the process-wide watcher slot as taken. It reports false if
// it already was.
func claim() bool {
	return started.CompareAndSwap(false, true)
}

// release frees the slot taken by claim.
func release() {
	started.Store(false)
}

// changeTracker filters out repeated notifications for the same window.
type changeTracker struct {
	last uint32
	seen bool
}

// changed reports whether id differs from the last window seen. Window 0
// means nothing has focus; it is never a change and is not remembered.
func (t *changeTracker) changed(id uint32) bool {
	if id == 0 {
		return false
	}
	if t.seen && t.last == id {
		return false
	}
	t.last, t.seen = id, true
	return true
}

// executableFromCmdline returns the first NUL separated field of a
// /proc/<pid>/cmdline file.
func executableFromCmdline(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return string(data)
}

// classFromWMClass returns the class part of a WM_CLASS value, which holds
// the instance and class names as two NUL terminated strings.
func classFromWMClass(data []byte) string {
	parts := bytes.Split(bytes.TrimRight(data, "\x00"), []byte{0})
	if len(parts) < 2 {
		return string(parts[0])
	}
	return string(parts[1])
}
