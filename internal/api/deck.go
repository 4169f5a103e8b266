package api

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-deck/internal/engine"
	"github.com/nerrad567/gray-logic-deck/internal/face"
)

// PageInfo describes one page in GET /pages.
type PageInfo struct {
	Name   string `json:"name"`
	Loaded bool   `json:"loaded"`
}

// acceptedResponse is returned by every mutating route.
type acceptedResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deck.Snapshot())
}

func (s *Server) handleListPages(w http.ResponseWriter, _ *http.Request) {
	snap := s.deck.Snapshot()
	loaded := make(map[string]bool, len(snap.Pages))
	for _, name := range snap.Pages {
		loaded[name] = true
	}

	names := s.deck.PageNames()
	pages := make([]PageInfo, 0, len(names))
	for _, name := range names {
		pages = append(pages, PageInfo{Name: name, Loaded: loaded[name]})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pages": pages,
		"stack": snap.Pages,
	})
}

func (s *Server) handleLoadPage(w http.ResponseWriter, r *http.Request) {
	s.pageCommand(w, r, false)
}

func (s *Server) handleUnloadPage(w http.ResponseWriter, r *http.Request) {
	s.pageCommand(w, r, true)
}

func (s *Server) pageCommand(w http.ResponseWriter, r *http.Request, unload bool) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	if !s.deck.HasPage(name) {
		writeError(w, http.StatusNotFound, "page not found: %s", name)
		return
	}
	s.submit(w, r, engine.PageCommand{Name: name, Unload: unload, Source: engine.SourceAPI})
}

func (s *Server) handleListButtons(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"buttons": s.deck.ButtonNames()})
}

func (s *Server) handleSetUpFace(w http.ResponseWriter, r *http.Request) {
	name, ok := pathName(w, r)
	if !ok {
		return
	}
	if !s.deck.HasButton(name) {
		writeError(w, http.StatusNotFound, "button not found: %s", name)
		return
	}

	var u face.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid face update: %v", err)
		return
	}
	if u.IsZero() {
		writeError(w, http.StatusBadRequest, "face update is empty")
		return
	}
	if err := checkColors(u); err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	s.submit(w, r, engine.FaceCommand{Button: name, Update: u, Source: engine.SourceAPI})
}

func (s *Server) handlePressSlot(w http.ResponseWriter, r *http.Request) {
	s.slotCommand(w, r, true)
}

func (s *Server) handleReleaseSlot(w http.ResponseWriter, r *http.Request) {
	s.slotCommand(w, r, false)
}

func (s *Server) slotCommand(w http.ResponseWriter, r *http.Request, pressed bool) {
	slot, ok := s.pathSlot(w, r)
	if !ok {
		return
	}
	s.submit(w, r, engine.ButtonEvent{Slot: slot, Pressed: pressed, Source: engine.SourceAPI})
}

// handleSlotFace renders the face currently shown on a slot as PNG.
func (s *Server) handleSlotFace(w http.ResponseWriter, r *http.Request) {
	slot, ok := s.pathSlot(w, r)
	if !ok {
		return
	}
	f := s.deck.Snapshot().Face(slot)
	if f == nil {
		writeError(w, http.StatusNotFound, "slot has no face")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, f.Image()); err != nil {
		s.logger.Warn("failed to encode face", "slot", slot, "error", err)
	}
}

// submit enqueues ev and answers 202, or 503 when the engine cannot take it.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, ev engine.Event) {
	ctx, cancel := context.WithTimeout(r.Context(), submitTimeout)
	defer cancel()

	if err := s.deck.Submit(ctx, ev); err != nil {
		s.logger.Warn("event not queued", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusServiceUnavailable, "engine unavailable: %v", err)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

// pathName returns the unescaped {name} parameter. Inline button names
// contain '#', which clients send as %23.
func pathName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "invalid name")
		return "", false
	}
	return name, true
}

func (s *Server) pathSlot(w http.ResponseWriter, r *http.Request) (int, bool) {
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "slot must be an integer")
		return 0, false
	}
	if slot < 0 || slot >= s.deck.SlotCount() {
		writeError(w, http.StatusNotFound, "slot %d out of range", slot)
		return 0, false
	}
	return slot, true
}

// checkColors rejects colours the compositor would fail on later, inside the loop.
func checkColors(u face.Update) error {
	colors := []*face.ColorSpec{u.Color}
	for _, t := range []*face.TextUpdate{u.Label, u.Sublabel, u.Superlabel} {
		if t != nil {
			colors = append(colors, t.Color)
		}
	}
	for _, c := range colors {
		if c == nil {
			continue
		}
		if _, err := c.Resolve(); err != nil {
			return err
		}
	}
	return nil
}
