package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementButton  = "deck_button"
	MeasurementPage    = "deck_page"
	MeasurementHandler = "deck_handler"
)

// RecordButton writes a press or release of slot.
func (c *Client) RecordButton(slot int, button string, pressed bool) {
	c.write(buttonPoint(c.deck, slot, button, pressed, time.Now()))
}

// RecordPage writes a page load or unload. source names what caused it.
func (c *Client) RecordPage(page string, loaded bool, source string) {
	c.write(pagePoint(c.deck, page, loaded, source, time.Now()))
}

// RecordHandler writes one handler run.
func (c *Client) RecordHandler(button, event string, took time.Duration, runErr error) {
	c.write(handlerPoint(c.deck, button, event, took, runErr, time.Now()))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func buttonPoint(deck string, slot int, button string, pressed bool, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementButton,
		map[string]string{
			"deck": deck,
			"slot": strconv.Itoa(slot),
		},
		map[string]interface{}{
			"button":  button,
			"pressed": pressed,
		},
		at,
	)
}

func pagePoint(deck, page string, loaded bool, source string, at time.Time) *write.Point {
	action := "unload"
	if loaded {
		action = "load"
	}
	return write.NewPoint(
		MeasurementPage,
		map[string]string{
			"deck":   deck,
			"page":   page,
			"action": action,
		},
		map[string]interface{}{
			"source": source,
		},
		at,
	)
}

func handlerPoint(deck, button, event string, took time.Duration, runErr error, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementHandler,
		map[string]string{
			"deck":  deck,
			"event": event,
		},
		map[string]interface{}{
			"button":      button,
			"duration_ms": float64(took.Microseconds()) / 1000,
			"ok":          runErr == nil,
		},
		at,
	)
}
