package engine

import (
	"errors"
	"slices"
	"testing"

	"github.com/nerrad567/gray-logic-deck/internal/deck"
)

func TestHandleCommand_Rejected(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		topic   string
		payload string
		want    error
	}{
		{"invalid json", "graydeck/desk/command", `{`, ErrInvalidCommand},
		{"unknown action", "graydeck/desk/command", `{"action":"explode"}`, ErrInvalidCommand},
		{"load without page", "graydeck/desk/command", `{"action":"load"}`, ErrInvalidCommand},
		{"unknown page", "graydeck/desk/command", `{"action":"load","page":"nope"}`, deck.ErrPageNotFound},
		{"press without slot", "graydeck/desk/command", `{"action":"press"}`, ErrInvalidCommand},
		{"slot out of range", "graydeck/desk/command", `{"action":"press","slot":15}`, ErrInvalidCommand},
		{"negative slot", "graydeck/desk/command", `{"action":"release","slot":-1}`, ErrInvalidCommand},
		{"face without update", "graydeck/desk/command", `{"action":"face","button":"mute"}`, ErrInvalidCommand},
		{"unknown button", "graydeck/desk/command", `{"action":"face","button":"nope","face":{}}`, deck.ErrButtonNotFound},
		{"bad topic verb", "graydeck/desk/command/explode", `{"page":"main"}`, ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.engine.HandleCommand(tt.topic, []byte(tt.payload)); !errors.Is(err, tt.want) {
				t.Errorf("HandleCommand() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandleCommand_Accepted(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		topic   string
		payload string
		want    Event
	}{
		{"graydeck/desk/command", `{"action":"load","page":"extra"}`, PageCommand{Name: "extra", Source: SourceMQTT}},
		{"graydeck/desk/command/unload", `{"page":"extra"}`, PageCommand{Name: "extra", Unload: true, Source: SourceMQTT}},
		{"graydeck/desk/command", `{"action":"press","slot":4}`, ButtonEvent{Slot: 4, Pressed: true, Source: SourceMQTT}},
		{"graydeck/desk/command/release", `{"slot":0}`, ButtonEvent{Slot: 0, Source: SourceMQTT}},
	}

	for _, tt := range tests {
		if err := f.engine.HandleCommand(tt.topic, []byte(tt.payload)); err != nil {
			t.Fatalf("HandleCommand(%s) error = %v", tt.payload, err)
		}
		if got := <-f.engine.queue; got != tt.want {
			t.Errorf("HandleCommand(%s) queued %#v, want %#v", tt.payload, got, tt.want)
		}
	}
}

func TestHandleCommand_Face(t *testing.T) {
	f := newFixture(t)

	err := f.engine.HandleCommand("graydeck/desk/command/face",
		[]byte(`{"button":"mute","face":{"color":"#00FF00","label":{"text":"MUTED"}}}`))
	if err != nil {
		t.Fatalf("HandleCommand() error = %v", err)
	}

	ev, ok := (<-f.engine.queue).(FaceCommand)
	if !ok {
		t.Fatalf("queued %T, want FaceCommand", ev)
	}
	if ev.Button != "mute" || ev.Source != SourceMQTT {
		t.Errorf("FaceCommand = %+v", ev)
	}
	if ev.Update.Color == nil || ev.Update.Color.Hex != "#00FF00" || *ev.Update.Label.Text != "MUTED" {
		t.Errorf("Update = %+v", ev.Update)
	}
}

func TestHandleCommand_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	if err := f.engine.HandleCommand("graydeck/desk/command/load", []byte(`{"page":"extra"}`)); err != nil {
		t.Fatalf("HandleCommand() error = %v", err)
	}
	waitFor(t, "extra loaded", func() bool {
		return slices.Equal(f.engine.Snapshot().Pages, []string{"main", "extra"})
	})

	var sources []string
	for _, e := range f.repo.all() {
		if e.Subject == "extra" {
			sources = append(sources, e.Source)
		}
	}
	if !slices.Equal(sources, []string{SourceMQTT}) {
		t.Errorf("audit sources = %v, want [mqtt]", sources)
	}
}
