package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-deck/internal/audit"
	"github.com/nerrad567/gray-logic-deck/internal/button"
	"github.com/nerrad567/gray-logic-deck/internal/deck"
	"github.com/nerrad567/gray-logic-deck/internal/face"
	"github.com/nerrad567/gray-logic-deck/internal/script"
)

// Event sources.
const (
	SourceDevice = audit.SourceDevice
	SourceWindow = audit.SourceWindow
	SourceAPI    = audit.SourceAPI
	SourceMQTT   = audit.SourceMQTT
	SourceInit   = audit.SourceInit
)

// WebSocket channels and MQTT event kinds.
const (
	ChannelButton = "button"
	ChannelPage   = "page"
	ChannelWindow = "window"
	ChannelFace   = "face"
	ChannelState  = "state"
)

// DefaultQueueSize is the event queue capacity unless WithQueueSize is used.
const DefaultQueueSize = 1024

// Sink receives rendered faces. *device.HID and *device.Virtual satisfy it.
type Sink interface {
	SetFace(slot int, f *face.Face) error
}

// Runner executes handler source. *script.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, h *button.Handler, ev script.Event) error
}

// Publisher sends events and snapshots to the message bus.
type Publisher interface {
	PublishEvent(kind string, v any) error
	PublishState(v any) error
}

// Telemetry records time-series points.
type Telemetry interface {
	RecordButton(slot int, button string, pressed bool)
	RecordPage(page string, loaded bool, source string)
	RecordHandler(button, event string, took time.Duration, err error)
}

// Repository persists audit entries.
type Repository interface {
	Create(ctx context.Context, e *audit.Entry) error
}

// Hub broadcasts to WebSocket subscribers.
type Hub interface {
	Broadcast(channel string, payload any)
}

// Logger defines the logging interface used by the engine.
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

// Engine serialises all access to a deck.State.
//
// Thread Safety: Submit, Snapshot, HandleCommand, HasPage and HasButton are
// safe for concurrent use. Run must be called once.
type Engine struct {
	state  *deck.State
	sink   Sink
	runner Runner

	publisher Publisher
	telemetry Telemetry
	repo      Repository
	hub       Hub
	logger    Logger

	queueSize int
	queue     chan Event
	done      chan struct{}
	running   atomic.Bool

	snapMu    sync.RWMutex
	snapshot  Snapshot
	lastPages []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets the message bus publisher.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithTelemetry sets the telemetry writer.
func WithTelemetry(t Telemetry) Option {
	return func(e *Engine) { e.telemetry = t }
}

// WithRepository sets the audit repository.
func WithRepository(r Repository) Option {
	return func(e *Engine) { e.repo = r }
}

// WithHub sets the WebSocket hub.
func WithHub(h Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// New creates an engine owning state. runner may be nil, in which case
// handlers are logged and skipped.
func New(state *deck.State, sink Sink, runner Runner, opts ...Option) *Engine {
	e := &Engine{
		state:     state,
		sink:      sink,
		runner:    runner,
		logger:    noopLogger{},
		queueSize: DefaultQueueSize,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = make(chan Event, e.queueSize)
	e.snapshot = e.takeSnapshot()
	return e
}

// Submit enqueues ev. It blocks while the queue is full, until ctx is done.
func (e *Engine) Submit(ctx context.Context, ev Event) error {
	select {
	case <-e.done:
		return ErrQueueClosed
	default:
	}

	select {
	case e.queue <- ev:
		return nil
	case <-e.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes the init handler and then processes events until ctx is
// cancelled, returning ctx.Err().
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(e.done)

	if h := e.state.InitHandler(); h != nil {
		e.runHandler(ctx, h, script.Event{Kind: script.EventInit, Slot: -1}, "", SourceInit)
	}

	e.logger.Info("engine started", "slots", e.state.SlotCount(), "pages", e.state.LoadedPages())

	for {
		e.flush()
		e.publishSnapshot()

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "reason", ctx.Err())
			return ctx.Err()
		case ev := <-e.queue:
			e.apply(ctx, ev)
		}
	}
}

// flush pushes every dirty face to the sink.
func (e *Engine) flush() {
	for _, sf := range e.state.FlushDirtyFaces() {
		if err := e.sink.SetFace(sf.Slot, sf.Face); err != nil {
			e.logger.Warn("failed to draw face", "slot", sf.Slot, "error", err)
		}
	}
}

func (e *Engine) apply(ctx context.Context, ev Event) {
	switch ev := ev.(type) {
	case ButtonEvent:
		e.applyButton(ctx, ev)
	case WindowEvent:
		e.applyWindow(ctx, ev)
	case PageCommand:
		e.applyPage(ctx, ev)
	case FaceCommand:
		e.applyFace(ctx, ev)
	default:
		e.logger.Warn("unknown event ignored", "type", fmt.Sprintf("%T", ev))
	}
}

func (e *Engine) applyButton(ctx context.Context, ev ButtonEvent) {
	var h *button.Handler
	if ev.Pressed {
		h = e.state.OnButtonPressed(ev.Slot)
	} else {
		h = e.state.OnButtonReleased(ev.Slot)
	}

	name := ""
	if o, ok := e.state.Occupant(ev.Slot); ok {
		name = o.String()
	}

	if h != nil {
		kind := script.EventRelease
		if ev.Pressed {
			kind = script.EventPress
		}
		e.runHandler(ctx, h, script.Event{Kind: kind, Slot: ev.Slot, Button: name}, name, ev.Origin())
	}

	payload := map[string]any{"slot": ev.Slot, "button": name, "pressed": ev.Pressed}
	if e.telemetry != nil {
		e.telemetry.RecordButton(ev.Slot, name, ev.Pressed)
	}
	e.publishEvent(ChannelButton, payload)
	e.broadcast(ChannelButton, payload)
}

func (e *Engine) applyWindow(ctx context.Context, ev WindowEvent) {
	sw, err := e.state.OnForegroundWindow(ev.Info)
	if err != nil {
		e.logger.Warn("window change partly applied", "error", err)
	}

	e.logger.Debug("foreground window changed",
		"title", ev.Info.Title,
		"executable", ev.Info.Executable,
		"class", ev.Info.Class,
		"loaded", sw.Loaded,
		"unloaded", sw.Unloaded,
	)

	e.publishEvent(ChannelWindow, ev.Info)
	e.broadcast(ChannelWindow, ev.Info)

	for _, name := range sw.Loaded {
		e.pageChanged(ctx, name, true, ev.Origin(), ev.Info.Title)
	}
	for _, name := range sw.Unloaded {
		e.pageChanged(ctx, name, false, ev.Origin(), ev.Info.Title)
	}

	// Focus changes that switch no page are not audited.
	if len(sw.Loaded)+len(sw.Unloaded) > 0 {
		e.record(ctx, &audit.Entry{
			Kind:    audit.KindWindow,
			Subject: ev.Info.Title,
			Source:  ev.Origin(),
			Detail: map[string]any{
				"executable": ev.Info.Executable,
				"class":      ev.Info.Class,
				"loaded":     sw.Loaded,
				"unloaded":   sw.Unloaded,
			},
		})
	}
}

func (e *Engine) applyPage(ctx context.Context, ev PageCommand) {
	var err error
	if ev.Unload {
		err = e.state.UnloadPage(ev.Name)
	} else {
		err = e.state.LoadPage(ev.Name)
	}
	if err != nil {
		e.logger.Warn("page command failed", "page", ev.Name, "unload", ev.Unload, "error", err)
		return
	}
	e.pageChanged(ctx, ev.Name, !ev.Unload, ev.Origin(), "")
}

func (e *Engine) pageChanged(ctx context.Context, name string, loaded bool, source, window string) {
	payload := map[string]any{"page": name, "loaded": loaded, "source": source}

	if e.telemetry != nil {
		e.telemetry.RecordPage(name, loaded, source)
	}
	e.publishEvent(ChannelPage, payload)
	e.broadcast(ChannelPage, payload)

	kind := audit.KindPageUnload
	if loaded {
		kind = audit.KindPageLoad
	}
	var detail map[string]any
	if window != "" {
		detail = map[string]any{"window": window}
	}
	e.record(ctx, &audit.Entry{Kind: kind, Subject: name, Source: source, Detail: detail})
}

func (e *Engine) applyFace(ctx context.Context, ev FaceCommand) {
	if err := e.state.SetNamedButtonUpFace(ev.Button, ev.Update); err != nil {
		e.logger.Warn("face update failed", "button", ev.Button, "error", err)
		return
	}

	payload := map[string]any{"button": ev.Button, "update": ev.Update}
	e.publishEvent(ChannelFace, payload)
	e.broadcast(ChannelFace, payload)
	e.record(ctx, &audit.Entry{
		Kind:    audit.KindFace,
		Subject: ev.Button,
		Source:  ev.Origin(),
		Detail:  map[string]any{"update": ev.Update},
	})
}

// runHandler executes h and records the outcome. Failures are logged; the
// loop always continues.
func (e *Engine) runHandler(ctx context.Context, h *button.Handler, ev script.Event, name, source string) {
	if e.runner == nil {
		e.logger.Warn("no script runner, handler skipped", "button", name, "event", ev.Kind)
		return
	}

	start := time.Now()
	err := e.runner.Run(ctx, h, ev)
	took := time.Since(start)

	if err != nil {
		e.logger.Warn("handler failed", "button", name, "event", ev.Kind, "slot", ev.Slot, "error", err)
	} else {
		e.logger.Debug("handler finished", "button", name, "event", ev.Kind, "slot", ev.Slot, "took", took)
	}

	if e.telemetry != nil {
		e.telemetry.RecordHandler(name, ev.Kind, took, err)
	}

	detail := map[string]any{
		"event":       ev.Kind,
		"duration_ms": took.Milliseconds(),
		"ok":          err == nil,
	}
	if err != nil {
		detail["error"] = err.Error()
	}
	entry := &audit.Entry{Kind: audit.KindHandler, Subject: name, Source: source, Detail: detail}
	if ev.Kind != script.EventInit {
		slot := ev.Slot
		entry.Slot = &slot
	}
	e.record(ctx, entry)
}

func (e *Engine) publishEvent(kind string, payload any) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEvent(kind, payload); err != nil {
		e.logger.Debug("event not published", "kind", kind, "error", err)
	}
}

func (e *Engine) broadcast(channel string, payload any) {
	if e.hub != nil {
		e.hub.Broadcast(channel, payload)
	}
}

func (e *Engine) record(ctx context.Context, entry *audit.Entry) {
	if e.repo == nil {
		return
	}
	// The loop context may already be cancelled during shutdown.
	if err := e.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		e.logger.Warn("failed to write audit entry", "kind", entry.Kind, "subject", entry.Subject, "error", err)
	}
}

// HasPage reports whether a page with this name exists.
func (e *Engine) HasPage(name string) bool {
	_, ok := e.state.Pages().Get(name)
	return ok
}

// HasButton reports whether a named button exists.
func (e *Engine) HasButton(name string) bool {
	return e.state.Buttons().Has(name)
}

// PageNames lists every page the layout defines.
func (e *Engine) PageNames() []string {
	return e.state.Pages().Names()
}

// ButtonNames lists every named button.
func (e *Engine) ButtonNames() []string {
	return e.state.Buttons().Names()
}

// SlotCount returns the number of slots on the deck.
func (e *Engine) SlotCount() int {
	return e.state.SlotCount()
}
