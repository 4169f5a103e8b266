package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/nerrad567/gray-logic-deck/internal/button"
)

// Event kinds.
const (
	EventInit    = "init"
	EventPress   = "press"
	EventRelease = "release"
)

// maxLineLength caps a single logged output line.
const maxLineLength = 64 * 1024

// outputWaitDelay is how long Run keeps reading output after the handler
// exits. Background processes it started may hold the pipes open forever.
const outputWaitDelay = 200 * time.Millisecond

// Config holds interpreter settings.
type Config struct {
	// Interpreter is the executable handler source is passed to.
	Interpreter string

	// Args come before the handler source.
	Args []string

	// Env are extra environment variables (key=value format) on top of
	// the parent environment.
	Env []string

	// WorkDir is the working directory. If empty, inherits from the parent.
	WorkDir string

	// APIURL is exported as GRAYDECK_API when set.
	APIURL string
}

// DefaultConfig runs handlers with sh -c.
func DefaultConfig() Config {
	return Config{Interpreter: "sh", Args: []string{"-c"}}
}

// Event describes why a handler runs.
type Event struct {
	Kind   string
	Slot   int
	Button string
}

// Logger defines the logging interface for the runner.
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

// Runner executes handlers.
type Runner struct {
	config Config
	logger Logger
}

// NewRunner creates a runner. An empty interpreter selects sh -c.
func NewRunner(cfg Config) *Runner {
	if cfg.Interpreter == "" {
		def := DefaultConfig()
		cfg.Interpreter, cfg.Args = def.Interpreter, def.Args
	}
	return &Runner{config: cfg, logger: noopLogger{}}
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Run executes h and waits for it to exit. A nil handler is a no-op.
// Cancelling ctx kills the handler's whole process group.
func (r *Runner) Run(ctx context.Context, h *button.Handler, ev Event) error {
	if h == nil {
		return nil
	}

	args := append(append([]string(nil), r.config.Args...), h.Source)
	cmd := exec.CommandContext(ctx, r.config.Interpreter, args...) //nolint:gosec // handler source comes from the operator's layout file
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.Env = append(append(os.Environ(), r.config.Env...), eventEnv(ev, r.config.APIURL)...)
	if r.config.WorkDir != "" {
		cmd.Dir = r.config.WorkDir
	}

	stdout := &lineWriter{logger: r.logger, stream: "stdout"}
	stderr := &lineWriter{logger: r.logger, stream: "stderr"}
	cmd.Stdout, cmd.Stderr = stdout, stderr
	cmd.WaitDelay = outputWaitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting handler: %w", err)
	}

	r.logger.Debug("handler started",
		"event", ev.Kind,
		"slot", ev.Slot,
		"button", ev.Button,
		"origin", h.Origin,
		"pid", cmd.Process.Pid,
	)

	err := cmd.Wait()
	elapsed := time.Since(start)
	stdout.flush()
	stderr.flush()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.logger.Debug("handler finished", "event", ev.Kind, "slot", ev.Slot, "duration", elapsed)
		return nil
	case errors.Is(err, exec.ErrWaitDelay):
		// The handler exited but left a background process holding its output.
		r.logger.Debug("handler finished, background output detached", "event", ev.Kind, "slot", ev.Slot, "duration", elapsed)
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("handler cancelled: %w", ctx.Err())
	case errors.As(err, &exitErr):
		return fmt.Errorf("handler exited with status %d: %w", exitErr.ExitCode(), err)
	default:
		return fmt.Errorf("waiting for handler: %w", err)
	}
}

// lineWriter logs everything written to it one line at a time.
type lineWriter struct {
	logger Logger
	stream string

	mu  sync.Mutex
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) >= maxLineLength {
		w.emit(w.buf)
		w.buf = nil
	}
	return len(p), nil
}

// flush logs a trailing line that had no newline.
func (w *lineWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	w.logger.Info("handler output", "stream", w.stream, "line", string(bytes.TrimSuffix(line, []byte("\r"))))
}

func eventEnv(ev Event, apiURL string) []string {
	slot := ""
	if ev.Kind != EventInit {
		slot = strconv.Itoa(ev.Slot)
	}
	env := []string{
		"GRAYDECK_EVENT=" + ev.Kind,
		"GRAYDECK_SLOT=" + slot,
		"GRAYDECK_BUTTON=" + ev.Button,
	}
	if apiURL != "" {
		env = append(env, "GRAYDECK_API="+apiURL)
	}
	return env
}
