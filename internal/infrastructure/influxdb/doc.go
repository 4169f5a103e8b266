// Package influxdb records deck telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 with the non-blocking, batched write API.
// Three measurements are written, all tagged with the deck ID:
//   - deck_button: one point per press or release (slot, button, pressed)
//   - deck_page: one point per page load or unload (page, action, source)
//   - deck_handler: one point per handler run (button, event, duration, ok)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Deck.ID)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.RecordButton(3, "mute", true)
//
// Write errors are delivered asynchronously to the SetOnError callback.
package influxdb
