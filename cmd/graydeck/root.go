package main

import (
	"os"

	"github.com/spf13/cobra"
)

// defaultConfigPath is used when neither --config nor GRAYDECK_CONFIG is set.
const defaultConfigPath = "configs/config.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "graydeck",
		Short:         "Stream Deck pages, faces and handlers driven by a YAML layout",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newDevicesCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// getConfigPath returns GRAYDECK_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("GRAYDECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
