package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-deck/internal/device"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List connected decks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			decks := device.Enumerate()
			if len(decks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no decks found")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tSERIAL\tPATH")
			for _, d := range decks {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Model, d.Serial, d.Path)
			}
			return tw.Flush()
		},
	}
}
