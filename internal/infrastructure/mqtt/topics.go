package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every graydeck topic.
const TopicPrefix = "graydeck"

// Event kinds published under graydeck/<deck>/event/<kind>.
const (
	EventButton = "button"
	EventPage   = "page"
	EventWindow = "window"
	EventFace   = "face"
)

// Topics builds topics for one deck.
//
//	topics := mqtt.Topics{Deck: "desk"}
//	topics.Event(mqtt.EventButton)
//	// Returns: "graydeck/desk/event/button"
type Topics struct {
	Deck string
}

func (t Topics) base() string {
	return TopicPrefix + "/" + t.Deck
}

// Status returns the retained online/offline topic.
func (t Topics) Status() string {
	return t.base() + "/status"
}

// State returns the retained snapshot topic.
func (t Topics) State() string {
	return t.base() + "/state"
}

// Event returns the topic for events of one kind.
func (t Topics) Event(kind string) string {
	return fmt.Sprintf("%s/event/%s", t.base(), kind)
}

// AllEvents returns a wildcard matching every event of this deck.
func (t Topics) AllEvents() string {
	return t.base() + "/event/#"
}

// Command returns the topic for one command verb.
func (t Topics) Command(verb string) string {
	return fmt.Sprintf("%s/command/%s", t.base(), verb)
}

// AllCommands returns the subscription for inbound commands.
func (t Topics) AllCommands() string {
	return t.base() + "/command/#"
}

// CommandVerb extracts the verb from a command topic of this deck, or
// returns "" when topic is not one.
func (t Topics) CommandVerb(topic string) string {
	prefix := t.base() + "/command/"
	if !strings.HasPrefix(topic, prefix) {
		return ""
	}
	return strings.TrimPrefix(topic, prefix)
}

// validatePublishTopic rejects empty topics and topics carrying wildcards.
func validatePublishTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcard in publish topic %q", ErrInvalidTopic, topic)
	}
	return nil
}
