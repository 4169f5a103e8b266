package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/nerrad567/gray-logic-deck/internal/deck"
	"github.com/nerrad567/gray-logic-deck/internal/face"
)

// submitTimeout bounds how long a bus command waits for queue space.
const submitTimeout = 2 * time.Second

// Command actions.
const (
	ActionLoad    = "load"
	ActionUnload  = "unload"
	ActionPress   = "press"
	ActionRelease = "release"
	ActionFace    = "face"
)

// Command is the JSON body of an MQTT command:
//
//	{"action":"load","page":"editor"}
//	{"action":"press","slot":3}
//	{"action":"face","button":"mute","face":{"label":{"text":"MUTED"}}}
//
// When action is empty the last topic segment is used, so
// graydeck/<deck>/command/load with {"page":"editor"} also works.
type Command struct {
	Action string       `json:"action"`
	Page   string       `json:"page,omitempty"`
	Slot   *int         `json:"slot,omitempty"`
	Button string       `json:"button,omitempty"`
	Face   *face.Update `json:"face,omitempty"`
}

// HandleCommand decodes an MQTT command and submits the matching event.
// It has the signature of an MQTT message handler.
func (e *Engine) HandleCommand(topic string, payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if cmd.Action == "" {
		cmd.Action = path.Base(topic)
	}

	ev, err := e.commandEvent(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	return e.Submit(ctx, ev)
}

func (e *Engine) commandEvent(cmd Command) (Event, error) {
	switch cmd.Action {
	case ActionLoad, ActionUnload:
		if cmd.Page == "" {
			return nil, fmt.Errorf("%w: page is required", ErrInvalidCommand)
		}
		if !e.HasPage(cmd.Page) {
			return nil, fmt.Errorf("%w: %q", deck.ErrPageNotFound, cmd.Page)
		}
		return PageCommand{Name: cmd.Page, Unload: cmd.Action == ActionUnload, Source: SourceMQTT}, nil

	case ActionPress, ActionRelease:
		if cmd.Slot == nil {
			return nil, fmt.Errorf("%w: slot is required", ErrInvalidCommand)
		}
		if *cmd.Slot < 0 || *cmd.Slot >= e.SlotCount() {
			return nil, fmt.Errorf("%w: slot %d out of range", ErrInvalidCommand, *cmd.Slot)
		}
		return ButtonEvent{Slot: *cmd.Slot, Pressed: cmd.Action == ActionPress, Source: SourceMQTT}, nil

	case ActionFace:
		if cmd.Button == "" || cmd.Face == nil {
			return nil, fmt.Errorf("%w: button and face are required", ErrInvalidCommand)
		}
		if !e.HasButton(cmd.Button) {
			return nil, fmt.Errorf("%w: %q", deck.ErrButtonNotFound, cmd.Button)
		}
		return FaceCommand{Button: cmd.Button, Update: *cmd.Face, Source: SourceMQTT}, nil

	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, cmd.Action)
	}
}
