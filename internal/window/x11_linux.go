//go:build linux

package window

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// maxPropertyLen bounds property reads, in 32-bit units.
const maxPropertyLen = 1 << 16

// X11Watcher follows the focused window on an X11 display.
type X11Watcher struct {
	logger Logger

	conn  *xgb.Conn
	root  xproto.Window
	atoms struct {
		activeWindow xproto.Atom
		wmName       xproto.Atom
		wmPID        xproto.Atom
		utf8         xproto.Atom
	}
}

// NewX11Watcher creates a watcher for the display named by $DISPLAY.
func NewX11Watcher() *X11Watcher {
	return &X11Watcher{logger: noopLogger{}}
}

// SetLogger sets the logger.
func (w *X11Watcher) SetLogger(l Logger) {
	if l != nil {
		w.logger = l
	}
}

// Start sends the focused window to out, then again on every focus change,
// until ctx is cancelled. It blocks. While one Start runs, another in the
// same process returns ErrAlreadyStarted. Nothing is sent while no window
// has focus.
func (w *X11Watcher) Start(ctx context.Context, out chan<- Info) error {
	if !claim() {
		return ErrAlreadyStarted
	}
	defer release()

	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("connecting to X display: %w", err)
	}
	w.conn = conn
	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(conn.Close) }
	defer closeConn()

	if err := w.setup(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, closeConn)
	defer stop()

	var tracker changeTracker
	emit := func() error {
		id, err := w.activeWindow()
		if err != nil {
			w.logger.Warn("reading active window", "error", err)
			return nil
		}
		if !tracker.changed(uint32(id)) {
			if id == 0 {
				w.logger.Debug("no active window")
			}
			return nil
		}
		info := w.describe(id)
		w.logger.Debug("foreground window changed", "title", info.Title, "executable", info.Executable, "class", info.Class)
		select {
		case out <- info:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := emit(); err != nil {
		return err
	}
	w.logger.Info("window watcher started")

	for {
		ev, xerr := conn.WaitForEvent()
		switch {
		case ev == nil && xerr == nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrDisconnected
		case xerr != nil:
			w.logger.Warn("x11 error", "error", xerr)
			continue
		}

		pn, ok := ev.(xproto.PropertyNotifyEvent)
		if !ok || pn.Window != w.root || pn.Atom != w.atoms.activeWindow {
			continue
		}
		if err := emit(); err != nil {
			return err
		}
	}
}

func (w *X11Watcher) setup() error {
	w.root = xproto.Setup(w.conn).DefaultScreen(w.conn).Root

	for name, dst := range map[string]*xproto.Atom{
		"_NET_ACTIVE_WINDOW": &w.atoms.activeWindow,
		"_NET_WM_NAME":       &w.atoms.wmName,
		"_NET_WM_PID":        &w.atoms.wmPID,
		"UTF8_STRING":        &w.atoms.utf8,
	} {
		reply, err := xproto.InternAtom(w.conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return fmt.Errorf("interning %s: %w", name, err)
		}
		*dst = reply.Atom
	}

	err := xproto.ChangeWindowAttributesChecked(w.conn, w.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return fmt.Errorf("selecting root window events: %w", err)
	}
	return nil
}

func (w *X11Watcher) activeWindow() (xproto.Window, error) {
	value, err := w.property(w.root, w.atoms.activeWindow)
	if err != nil {
		return 0, err
	}
	if len(value) < 4 {
		return 0, nil
	}
	return xproto.Window(xgb.Get32(value)), nil
}

// describe collects the details of id. Missing properties leave fields empty.
func (w *X11Watcher) describe(id xproto.Window) Info {
	var info Info

	if v, err := w.property(id, w.atoms.wmName); err == nil && len(v) > 0 {
		info.Title = string(v)
	} else if v, err := w.property(id, xproto.AtomWmName); err == nil {
		info.Title = string(v)
	}

	if v, err := w.property(id, xproto.AtomWmClass); err == nil && len(v) > 0 {
		info.Class = classFromWMClass(v)
	}

	if v, err := w.property(id, w.atoms.wmPID); err == nil && len(v) >= 4 {
		pid := xgb.Get32(v)
		data, err := os.ReadFile("/proc/" + strconv.FormatUint(uint64(pid), 10) + "/cmdline")
		if err != nil {
			w.logger.Debug("reading process cmdline", "pid", pid, "error", err)
		} else {
			info.Executable = executableFromCmdline(data)
		}
	}
	return info
}

func (w *X11Watcher) property(win xproto.Window, atom xproto.Atom) ([]byte, error) {
	reply, err := xproto.GetProperty(w.conn, false, win, atom, xproto.GetPropertyTypeAny, 0, maxPropertyLen).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}
