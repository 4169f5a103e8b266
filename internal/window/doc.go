// Package window reports which top-level window has keyboard focus.
//
// On Linux, X11Watcher follows the root window's _NET_ACTIVE_WINDOW
// property through github.com/jezek/xgb and sends an Info every time the
// focused window changes. Only one watcher may run per process.
package window
