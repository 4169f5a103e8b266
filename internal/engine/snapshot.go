package engine

import (
	"slices"
	"time"

	"github.com/nerrad567/gray-logic-deck/internal/face"
	"github.com/nerrad567/gray-logic-deck/internal/page"
	"github.com/nerrad567/gray-logic-deck/internal/window"
)

// SlotState describes one slot in a Snapshot.
type SlotState struct {
	Slot    int    `json:"slot"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Button  string `json:"button"`
	Pressed bool   `json:"pressed"`
	HasFace bool   `json:"has_face"`
}

// Snapshot is a copy of the deck state taken by the control loop.
type Snapshot struct {
	Rows      int          `json:"rows"`
	Cols      int          `json:"cols"`
	Pages     []string     `json:"pages"`
	Slots     []SlotState  `json:"slots"`
	Window    *window.Info `json:"window,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`

	faces []*face.Face
}

// Face returns the face currently shown on slot, or nil.
func (s Snapshot) Face(slot int) *face.Face {
	if slot < 0 || slot >= len(s.faces) {
		return nil
	}
	return s.faces[slot]
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Pages = slices.Clone(s.Pages)
	out.Slots = slices.Clone(s.Slots)
	out.faces = slices.Clone(s.faces)
	if s.Window != nil {
		w := *s.Window
		out.Window = &w
	}
	return out
}

// Snapshot returns the state as of the last loop iteration.
func (e *Engine) Snapshot() Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.snapshot.clone()
}

// takeSnapshot reads the state. Only the loop goroutine (or New) calls it.
func (e *Engine) takeSnapshot() Snapshot {
	n := e.state.SlotCount()
	grid := e.state.Grid()
	snap := Snapshot{
		Rows:      grid.Rows,
		Cols:      grid.Cols,
		Pages:     e.state.LoadedPages(),
		Slots:     make([]SlotState, n),
		UpdatedAt: time.Now().UTC(),
		faces:     make([]*face.Face, n),
	}
	if snap.Pages == nil {
		snap.Pages = []string{}
	}
	for i := range n {
		f := e.state.Face(i)
		snap.faces[i] = f
		st := SlotState{Slot: i, Pressed: e.state.Pressed(i), HasFace: f != nil}
		if o, ok := e.state.Occupant(i); ok {
			st.Button = o.String()
		}
		snap.Slots[i] = st
	}
	for row := range grid.Rows {
		for col := range grid.Cols {
			i := page.At(row, col).Index(grid)
			snap.Slots[i].Row, snap.Slots[i].Col = row, col
		}
	}
	if w, ok := e.state.ForegroundWindow(); ok {
		snap.Window = &w
	}
	return snap
}

// publishSnapshot stores a fresh snapshot. The bus and WebSocket clients
// are told only when the page stack changed.
func (e *Engine) publishSnapshot() {
	snap := e.takeSnapshot()

	e.snapMu.Lock()
	e.snapshot = snap
	e.snapMu.Unlock()

	if slices.Equal(snap.Pages, e.lastPages) && e.lastPages != nil {
		return
	}
	e.lastPages = slices.Clone(snap.Pages)

	if e.publisher != nil {
		if err := e.publisher.PublishState(snap); err != nil {
			e.logger.Debug("state not published", "error", err)
		}
	}
	e.broadcast(ChannelState, snap)
}
