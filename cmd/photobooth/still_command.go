package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStillCommand(ctx *commandContext) *cobra.Command {
	stillCmd := &cobra.Command{
		Use:   "still",
		Short: "Manage the captured still held by the daemon",
	}

	stillCmd.AddCommand(&cobra.Command{
		Use:   "set <path>",
		Short: "Upload a JPEG or PNG as the current still",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open still: %w", err)
			}
			defer file.Close()

			still, err := ctx.client().SetStill(cmd.Context(), file)
			if err != nil {
				return fmt.Errorf("set still: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Still loaded (%dx%d)\n", still.Width, still.Height)
			return nil
		},
	})

	stillCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the current still",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().ClearStill(cmd.Context()); err != nil {
				return fmt.Errorf("clear still: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Still cleared")
			return nil
		},
	})

	return stillCmd
}
