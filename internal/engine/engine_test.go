package engine

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-deck/internal/audit"
	"github.com/nerrad567/gray-logic-deck/internal/button"
	"github.com/nerrad567/gray-logic-deck/internal/deck"
	"github.com/nerrad567/gray-logic-deck/internal/device"
	"github.com/nerrad567/gray-logic-deck/internal/face"
	"github.com/nerrad567/gray-logic-deck/internal/layout"
	"github.com/nerrad567/gray-logic-deck/internal/page"
	"github.com/nerrad567/gray-logic-deck/internal/script"
	"github.com/nerrad567/gray-logic-deck/internal/window"
)

const testLayout = `
buttons:
  - name: mute
    up_face: {color: '#FF0000'}
    down_face: {color: '#00FF00'}
    up_handler: {code: mute-up}
    down_handler: {code: mute-down}
pages:
  - name: main
    buttons:
      - position: [0, 0]
        button: mute
  - name: editor
    on_app:
      conditions:
        - class_name: ^Code$
      remove: true
    buttons:
      - position: [0, 0]
        button:
          name: save
          up_face: {color: '#0000FF'}
          down_handler: {code: save}
  - name: extra
    buttons:
      - position: [2, 4]
        button: mute
default_pages: [main]
init_script: {code: init}
`

var (
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	green = color.RGBA{G: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
)

// ─── Mocks ──────────────────────────────────────────────────────────

// journal records the order of sink and runner calls across mocks.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

type recordingSink struct {
	*device.Virtual
	j *journal
}

func (s *recordingSink) SetFace(slot int, f *face.Face) error {
	s.j.add("face")
	return s.Virtual.SetFace(slot, f)
}

type mockRunner struct {
	mu     sync.Mutex
	j      *journal
	events []script.Event
	codes  []string
	err    error
}

func (r *mockRunner) Run(_ context.Context, h *button.Handler, ev script.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.j != nil {
		r.j.add("run:" + ev.Kind)
	}
	r.events = append(r.events, ev)
	r.codes = append(r.codes, h.Source)
	return r.err
}

func (r *mockRunner) calls() ([]script.Event, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events), slices.Clone(r.codes)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []string
	states int
}

func (p *mockPublisher) PublishEvent(kind string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, kind)
	return nil
}

func (p *mockPublisher) PublishState(any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states++
	return errors.New("not connected")
}

func (p *mockPublisher) counts() ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events), p.states
}

type mockTelemetry struct {
	mu       sync.Mutex
	buttons  int
	pages    []string
	handlers []string
}

func (m *mockTelemetry) RecordButton(int, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buttons++
}

func (m *mockTelemetry) RecordPage(page string, loaded bool, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if loaded {
		m.pages = append(m.pages, "+"+page)
	} else {
		m.pages = append(m.pages, "-"+page)
	}
}

func (m *mockTelemetry) RecordHandler(button, event string, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, button+":"+event)
}

type mockRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *mockRepo) Create(_ context.Context, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *mockRepo) all() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

type mockHub struct {
	mu       sync.Mutex
	channels []string
}

func (h *mockHub) Broadcast(channel string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels = append(h.channels, channel)
}

func (h *mockHub) all() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.channels)
}

// ─── Fixture ────────────────────────────────────────────────────────

type fixture struct {
	engine    *Engine
	sink      *recordingSink
	runner    *mockRunner
	publisher *mockPublisher
	telemetry *mockTelemetry
	repo      *mockRepo
	hub       *mockHub
	journal   *journal
	grid      page.Grid
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	model, err := device.LookupModel("original")
	if err != nil {
		t.Fatalf("LookupModel() error = %v", err)
	}
	l, err := layout.Parse([]byte(testLayout), t.TempDir())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	state, err := deck.New(l, model.Grid(), model.ImageSize)
	if err != nil {
		t.Fatalf("deck.New() error = %v", err)
	}

	j := &journal{}
	f := &fixture{
		sink:      &recordingSink{Virtual: device.NewVirtual(model), j: j},
		runner:    &mockRunner{j: j},
		publisher: &mockPublisher{},
		telemetry: &mockTelemetry{},
		repo:      &mockRepo{},
		hub:       &mockHub{},
		journal:   j,
		grid:      model.Grid(),
	}
	f.engine = New(state, f.sink, f.runner,
		WithPublisher(f.publisher),
		WithTelemetry(f.telemetry),
		WithRepository(f.repo),
		WithHub(f.hub),
		WithQueueSize(16),
	)
	return f
}

// start runs the engine until the test ends.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.engine.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (f *fixture) submit(t *testing.T, ev Event) {
	t.Helper()
	if err := f.engine.Submit(context.Background(), ev); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func (f *fixture) slot(row, col int) int {
	return page.At(row, col).Index(f.grid)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func corner(f *face.Face) color.RGBA {
	if f == nil {
		return color.RGBA{}
	}
	return f.At(0, 0)
}

// ─── Lifecycle ──────────────────────────────────────────────────────

func TestRun_InitHandlerBeforeFirstFlush(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	waitFor(t, "first faces", func() bool { return f.sink.Writes() > 0 })

	entries := f.journal.all()
	if entries[0] != "run:init" {
		t.Errorf("journal = %v, want init handler first", entries)
	}
	events, codes := f.runner.calls()
	if len(events) != 1 || events[0].Slot != -1 || codes[0] != "init" {
		t.Errorf("init run = %+v %v", events, codes)
	}

	waitFor(t, "init audit", func() bool { return len(f.repo.all()) == 1 })
	if e := f.repo.all()[0]; e.Kind != audit.KindHandler || e.Source != SourceInit || e.Slot != nil {
		t.Errorf("init audit = %+v", e)
	}
}

func TestRun_FirstFlushDrawsEverySlot(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	waitFor(t, "15 faces", func() bool { return f.sink.Writes() == 15 })

	if got := corner(f.sink.Face(f.slot(0, 0))); got != red {
		t.Errorf("mute slot colour = %v, want red", got)
	}
	if got := corner(f.sink.Face(f.slot(1, 1))); got != (color.RGBA{A: 0xFF}) {
		t.Errorf("empty slot colour = %v, want black", got)
	}
}

func TestRun_CancelReturnsContextError(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.engine.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if err := f.engine.Submit(context.Background(), ButtonEvent{Slot: 0, Pressed: true}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Submit() after Run error = %v, want ErrQueueClosed", err)
	}
}

func TestRun_Twice(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	waitFor(t, "engine running", func() bool { return f.sink.Writes() > 0 })
	if err := f.engine.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestSubmit_FullQueueHonoursContext(t *testing.T) {
	f := newFixture(t)

	// Not running: the queue of 16 fills up.
	for i := 0; i < 16; i++ {
		f.submit(t, ButtonEvent{Slot: 0, Pressed: i%2 == 0})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.engine.Submit(ctx, ButtonEvent{Slot: 0}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() on full queue error = %v, want DeadlineExceeded", err)
	}
}

// ─── Buttons ────────────────────────────────────────────────────────

func TestButtonEvent_PressRunsDownHandler(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	slot := f.slot(0, 0)

	f.submit(t, ButtonEvent{Slot: slot, Pressed: true})
	waitFor(t, "pressed snapshot", func() bool { return f.engine.Snapshot().Slots[slot].Pressed })

	events, codes := f.runner.calls()
	last := events[len(events)-1]
	if last.Kind != script.EventPress || last.Slot != slot || last.Button != "mute" || codes[len(codes)-1] != "mute-down" {
		t.Errorf("press run = %+v %q", last, codes[len(codes)-1])
	}
	if got := corner(f.sink.Face(slot)); got != green {
		t.Errorf("pressed face = %v, want down face", got)
	}

	pubEvents, _ := f.publisher.counts()
	if !slices.Contains(pubEvents, ChannelButton) {
		t.Errorf("published %v, want button event", pubEvents)
	}
	if !slices.Contains(f.hub.all(), ChannelButton) {
		t.Errorf("broadcast %v, want button", f.hub.all())
	}

	var handler *audit.Entry
	for _, e := range f.repo.all() {
		if e.Kind == audit.KindHandler && e.Slot != nil {
			handler = &e
		}
	}
	if handler == nil || *handler.Slot != slot || handler.Subject != "mute" || handler.Source != SourceDevice {
		t.Errorf("handler audit = %+v", handler)
	}

	f.submit(t, ButtonEvent{Slot: slot, Pressed: false})
	waitFor(t, "released face", func() bool { return corner(f.sink.Face(slot)) == red })
	_, codes = f.runner.calls()
	if codes[len(codes)-1] != "mute-up" {
		t.Errorf("release ran %q, want mute-up", codes[len(codes)-1])
	}
}

func TestButtonEvent_EmptySlotHasNoHandler(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.submit(t, ButtonEvent{Slot: f.slot(1, 1), Pressed: true})
	waitFor(t, "telemetry", func() bool {
		f.telemetry.mu.Lock()
		defer f.telemetry.mu.Unlock()
		return f.telemetry.buttons == 1
	})

	events, _ := f.runner.calls()
	if len(events) != 1 {
		t.Errorf("runner calls = %+v, want only init", events)
	}
}

func TestButtonEvent_HandlerFailureAudited(t *testing.T) {
	f := newFixture(t)
	f.runner.err = errors.New("exit status 2")
	f.start(t)

	f.submit(t, ButtonEvent{Slot: f.slot(0, 0), Pressed: true})
	waitFor(t, "two audit entries", func() bool { return len(f.repo.all()) == 2 })

	e := f.repo.all()[1]
	if e.Detail["ok"] != false || e.Detail["error"] != "exit status 2" {
		t.Errorf("audit detail = %+v", e.Detail)
	}
}

func TestButtonEvent_NilRunner(t *testing.T) {
	f := newFixture(t)
	f.engine.runner = nil
	f.start(t)

	slot := f.slot(0, 0)
	f.submit(t, ButtonEvent{Slot: slot, Pressed: true})
	waitFor(t, "pressed", func() bool { return f.engine.Snapshot().Slots[slot].Pressed })

	if len(f.repo.all()) != 0 {
		t.Errorf("audit = %+v, want nothing without a runner", f.repo.all())
	}
}

// ─── Pages and windows ──────────────────────────────────────────────

func TestWindowEvent_LoadsAndUnloadsPage(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	slot := f.slot(0, 0)

	f.submit(t, WindowEvent{Info: window.Info{Title: "main.go", Class: "Code"}})
	waitFor(t, "editor loaded", func() bool {
		return slices.Equal(f.engine.Snapshot().Pages, []string{"main", "editor"})
	})

	snap := f.engine.Snapshot()
	if snap.Slots[slot].Button != "save" {
		t.Errorf("slot button = %q, want save", snap.Slots[slot].Button)
	}
	if snap.Window == nil || snap.Window.Class != "Code" {
		t.Errorf("snapshot window = %+v", snap.Window)
	}
	waitFor(t, "save face", func() bool { return corner(f.sink.Face(slot)) == blue })

	f.submit(t, WindowEvent{Info: window.Info{Title: "bash", Class: "Terminal"}})
	waitFor(t, "editor unloaded", func() bool {
		return slices.Equal(f.engine.Snapshot().Pages, []string{"main"})
	})
	waitFor(t, "mute face restored", func() bool { return corner(f.sink.Face(slot)) == red })

	var kinds []audit.Kind
	for _, e := range f.repo.all() {
		if e.Subject == "editor" {
			kinds = append(kinds, e.Kind)
			if e.Source != SourceWindow || e.Detail["window"] == nil {
				t.Errorf("page audit = %+v", e)
			}
		}
	}
	if !slices.Equal(kinds, []audit.Kind{audit.KindPageLoad, audit.KindPageUnload}) {
		t.Errorf("editor audit kinds = %v", kinds)
	}

	var windows []string
	for _, e := range f.repo.all() {
		if e.Kind == audit.KindWindow {
			windows = append(windows, e.Subject)
		}
	}
	if !slices.Equal(windows, []string{"main.go", "bash"}) {
		t.Errorf("window audit subjects = %v, want [main.go bash]", windows)
	}

	f.telemetry.mu.Lock()
	pages := slices.Clone(f.telemetry.pages)
	f.telemetry.mu.Unlock()
	if !slices.Equal(pages, []string{"+editor", "-editor"}) {
		t.Errorf("telemetry pages = %v", pages)
	}
}

func TestPageCommand(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.submit(t, PageCommand{Name: "missing"})
	f.submit(t, PageCommand{Name: "extra"})
	waitFor(t, "extra loaded", func() bool {
		return slices.Equal(f.engine.Snapshot().Pages, []string{"main", "extra"})
	})
	if b := f.engine.Snapshot().Slots[f.slot(2, 4)].Button; b != "mute" {
		t.Errorf("slot button = %q, want mute", b)
	}

	f.submit(t, PageCommand{Name: "extra", Unload: true})
	waitFor(t, "extra unloaded", func() bool {
		return slices.Equal(f.engine.Snapshot().Pages, []string{"main"})
	})

	for _, e := range f.repo.all() {
		if e.Subject == "missing" {
			t.Errorf("unknown page audited: %+v", e)
		}
		if e.Subject == "extra" && e.Source != SourceAPI {
			t.Errorf("page command source = %q, want api", e.Source)
		}
	}
}

func TestPublishSnapshot_OnlyOnStackChange(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	slot := f.slot(0, 0)

	waitFor(t, "first state", func() bool { _, n := f.publisher.counts(); return n == 1 })

	f.submit(t, ButtonEvent{Slot: slot, Pressed: true})
	f.submit(t, ButtonEvent{Slot: slot, Pressed: false})
	f.submit(t, PageCommand{Name: "extra"})
	waitFor(t, "second state", func() bool { _, n := f.publisher.counts(); return n == 2 })

	// A further event with no stack change publishes nothing new.
	f.submit(t, ButtonEvent{Slot: slot, Pressed: true})
	waitFor(t, "pressed", func() bool { return f.engine.Snapshot().Slots[slot].Pressed })
	if _, n := f.publisher.counts(); n != 2 {
		t.Errorf("state published %d times, want 2", n)
	}
	if got := f.hub.all(); !slices.Contains(got, ChannelState) {
		t.Errorf("broadcast %v, want state", got)
	}
}

// ─── Faces ──────────────────────────────────────────────────────────

func TestFaceCommand_RedrawsNamedButton(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	slot := f.slot(0, 0)
	waitFor(t, "first flush", func() bool { return corner(f.sink.Face(slot)) == red })

	f.submit(t, FaceCommand{Button: "mute", Update: face.Update{Color: face.Hex("#0000FF")}})
	waitFor(t, "recoloured face", func() bool { return corner(f.sink.Face(slot)) == blue })

	f.submit(t, FaceCommand{Button: "nope", Update: face.Update{Color: face.Hex("#0000FF")}})
	f.submit(t, PageCommand{Name: "extra"})
	waitFor(t, "extra loaded", func() bool { return len(f.engine.Snapshot().Pages) == 2 })

	var faces int
	for _, e := range f.repo.all() {
		if e.Kind == audit.KindFace {
			faces++
			if e.Subject != "mute" {
				t.Errorf("face audit subject = %q", e.Subject)
			}
		}
	}
	if faces != 1 {
		t.Errorf("face audit entries = %d, want 1", faces)
	}
}

// ─── Snapshot ───────────────────────────────────────────────────────

func TestSnapshot_IsACopy(t *testing.T) {
	f := newFixture(t)

	snap := f.engine.Snapshot()
	if len(snap.Slots) != 15 || !slices.Equal(snap.Pages, []string{"main"}) {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Face(f.slot(0, 0)) == nil || snap.Face(-1) != nil || snap.Face(15) != nil {
		t.Error("Face() bounds wrong")
	}

	snap.Pages[0] = "mutated"
	snap.Slots[0].Button = "mutated"
	again := f.engine.Snapshot()
	if again.Pages[0] != "main" || again.Slots[0].Button == "mutated" {
		t.Error("Snapshot() shares memory with the engine")
	}
}

func TestLookups(t *testing.T) {
	f := newFixture(t)

	if !f.engine.HasPage("editor") || f.engine.HasPage("nope") {
		t.Error("HasPage() wrong")
	}
	if !f.engine.HasButton("save") || !f.engine.HasButton(button.EmptyName) || f.engine.HasButton("nope") {
		t.Error("HasButton() wrong")
	}
	if f.engine.SlotCount() != 15 {
		t.Errorf("SlotCount() = %d", f.engine.SlotCount())
	}
	if got := f.engine.PageNames(); len(got) != 3 {
		t.Errorf("PageNames() = %v", got)
	}
	if got := f.engine.ButtonNames(); !slices.Contains(got, "mute") {
		t.Errorf("ButtonNames() = %v", got)
	}
}

func TestSnapshot_Geometry(t *testing.T) {
	f := newFixture(t)
	snap := f.engine.Snapshot()

	if snap.Rows != 3 || snap.Cols != 5 {
		t.Fatalf("grid = %dx%d, want 3x5", snap.Rows, snap.Cols)
	}
	for _, pos := range [][2]int{{0, 0}, {1, 2}, {2, 4}} {
		st := snap.Slots[f.slot(pos[0], pos[1])]
		if st.Row != pos[0] || st.Col != pos[1] {
			t.Errorf("slot %d at (%d,%d), want (%d,%d)", st.Slot, st.Row, st.Col, pos[0], pos[1])
		}
	}
}
