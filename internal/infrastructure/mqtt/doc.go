// Package mqtt connects graydeck to an MQTT broker.
//
// The deck publishes what happens on it and accepts page and slot commands:
//
//	graydeck/<deck>/status          online/offline (retained, LWT)
//	graydeck/<deck>/state           snapshot of loaded pages (retained)
//	graydeck/<deck>/event/<kind>    button, page, window and face events
//	graydeck/<deck>/command/<verb>  inbound commands (subscribed with #)
//
// The client reconnects with exponential backoff and restores its
// subscriptions after every reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Deck.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllCommands(), 1, eng.HandleCommand)
//	err = client.PublishEvent("page", map[string]any{"page": "main", "loaded": true})
package mqtt
