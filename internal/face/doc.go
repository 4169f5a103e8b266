// Package face renders the images shown on deck keys.
//
// A key face is described declaratively by a Spec (background colour,
// optional background image, up to three text layers) and rendered once
// by a Compositor into an immutable Face. Faces are shared read-only by
// every slot that displays them and are never modified after Compose
// returns.
//
// Rendering pipeline:
//
//	┌─────────────┐   ┌──────────────┐   ┌──────────┐   ┌──────────────┐
//	│ fill colour │──▶│ image (over) │──▶│ flatten  │──▶│ label layers │
//	└─────────────┘   └──────────────┘   └──────────┘   └──────────────┘
//
// Background images are resized to the key size with a Lanczos filter
// (github.com/disintegration/gift). Text is rasterised with
// golang.org/x/image/font using the embedded Go Regular font unless a
// custom font is supplied.
//
// # Colours
//
// Colours are written as "#RRGGBB" (opaque), "#RRGGBBAA", or an explicit
// {red, green, blue} mapping. Any other form fails with ErrInvalidColor.
//
// # Defaults
//
// ResolveDefaults fills unset default colours with built-in fallbacks:
// black background, white label, cyan sublabel, yellow superlabel.
package face
