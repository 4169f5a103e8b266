// Package device drives Elgato Stream Deck hardware.
//
// A Model describes one hardware revision: its key grid, key image size,
// image encoding and the USB HID report layout used to talk to it. HID
// opens a real deck over USB; Virtual keeps faces in memory for headless
// runs and tests. Both satisfy the engine's face sink.
//
// # Slot numbering
//
// Slots are numbered the way the original Stream Deck reports its keys:
// row-major from the top, with columns counted from the right. Models that
// report keys left to right are translated in both directions, so a given
// slot is the same physical key on every model.
//
// # Usage
//
//	model, err := device.LookupModel("mk2")
//	deck, err := device.Open(model, "")
//	defer deck.Close()
//
//	events := make(chan device.KeyEvent, 64)
//	go deck.Listen(ctx, events)
//	deck.SetFace(0, f)
package device
