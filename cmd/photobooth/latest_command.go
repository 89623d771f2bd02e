package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photobooth/internal/fileutil"
)

func newLatestCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the URL of the most recent artifact and optionally save its PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, url, err := ctx.client().LatestArtifact(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch artifact: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, url)
			if target := strings.TrimSpace(output); target != "" {
				if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
					return fmt.Errorf("write artifact: %w", err)
				}
				fmt.Fprintf(out, "Saved %d bytes to %s\n", len(data), target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the artifact PNG to this path")
	return cmd
}
