package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-deck/internal/deck"
	"github.com/nerrad567/gray-logic-deck/internal/device"
	"github.com/nerrad567/gray-logic-deck/internal/layout"
)

type checkOptions struct {
	Layout string
	Model  string
	Watch  bool
}

func newCheckCmd() *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <layout-file>",
		Short: "Validate a layout and render every face",
		Long: `Check loads the layout, compiles every page condition, reads handler
files and composes every face at the model's key size. With --watch it
checks again each time the file is saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Layout = args[0]
			if !opts.Watch {
				return checkLayout(cmd.OutOrStdout(), opts)
			}
			return watchLayout(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "original", "device model whose key size and grid to use")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-check whenever the layout file changes")
	return cmd
}

// buildState loads path and builds the deck state for modelName.
func buildState(path, modelName string) (*deck.State, error) {
	model, err := device.LookupModel(modelName)
	if err != nil {
		return nil, err
	}
	l, err := layout.Load(path)
	if err != nil {
		return nil, err
	}
	return deck.New(l, model.Grid(), model.ImageSize)
}

func checkLayout(out io.Writer, opts checkOptions) error {
	state, err := buildState(opts.Layout, opts.Model)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: ok (%d buttons, %d pages, default %v)\n",
		opts.Layout, state.Buttons().Len(), state.Pages().Len(), state.LoadedPages())
	return nil
}

// watchLayout re-checks on every write. The directory is watched rather
// than the file so editors that replace the file on save are seen.
func watchLayout(ctx context.Context, out io.Writer, opts checkOptions) error {
	report := func() {
		if err := checkLayout(out, opts); err != nil {
			fmt.Fprintf(out, "%s: %v\n", opts.Layout, err)
		}
	}
	report()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(opts.Layout)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			report()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching layout: %w", werr)
		}
	}
}
