package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-deck/internal/deck"
	"github.com/nerrad567/gray-logic-deck/internal/page"
)

// keyGap is the spacing between keys in a whole-deck render, in pixels.
const keyGap = 8

type renderOptions struct {
	Layout  string
	Model   string
	Pages   []string
	Slot    int
	Pressed bool
	Out     string
}

func newRenderCmd() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render <layout-file>",
		Short: "Render one key, or the whole deck, to PNG",
		Long: `Render builds the deck as it looks after startup, loads any extra
--page in order, and writes the face of --slot. Without --slot the whole
deck is drawn as laid out on the device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Layout = args[0]
			if opts.Out == "" || opts.Out == "-" {
				return renderLayout(cmd.OutOrStdout(), opts)
			}
			f, err := os.Create(opts.Out)
			if err != nil {
				return err
			}
			if err := renderLayout(f, opts); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "original", "device model")
	cmd.Flags().StringSliceVarP(&opts.Pages, "page", "p", nil, "page to load on top of the default pages (repeatable)")
	cmd.Flags().IntVarP(&opts.Slot, "slot", "s", -1, "slot to render; -1 renders the whole deck")
	cmd.Flags().BoolVar(&opts.Pressed, "pressed", false, "render the down face")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func renderLayout(w io.Writer, opts renderOptions) error {
	state, err := buildState(opts.Layout, opts.Model)
	if err != nil {
		return err
	}
	for _, name := range opts.Pages {
		if err := state.LoadPage(name); err != nil {
			return err
		}
	}

	if opts.Slot >= 0 {
		if opts.Slot >= state.SlotCount() {
			return fmt.Errorf("slot %d out of range (deck has %d)", opts.Slot, state.SlotCount())
		}
		return png.Encode(w, slotImage(state, opts.Slot, opts.Pressed))
	}
	return png.Encode(w, deckImage(state, opts.Pressed))
}

func slotImage(state *deck.State, slot int, pressed bool) image.Image {
	if pressed {
		state.OnButtonPressed(slot)
	}
	if f := state.Face(slot); f != nil {
		return f.Image()
	}
	return image.NewRGBA(image.Rectangle{Max: state.KeySize()})
}

// deckImage draws every key at its physical row and column.
func deckImage(state *deck.State, pressed bool) image.Image {
	grid := state.Grid()
	size := state.KeySize()
	canvas := image.NewRGBA(image.Rect(0, 0,
		grid.Cols*size.X+(grid.Cols+1)*keyGap,
		grid.Rows*size.Y+(grid.Rows+1)*keyGap,
	))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.Gray{Y: 0x20}}, image.Point{}, draw.Src)

	for row := range grid.Rows {
		for col := range grid.Cols {
			slot := page.At(row, col).Index(grid)
			at := image.Pt(keyGap+col*(size.X+keyGap), keyGap+row*(size.Y+keyGap))
			img := slotImage(state, slot, pressed)
			draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(size)}, img, img.Bounds().Min, draw.Src)
		}
	}
	return canvas
}
