package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photobooth/internal/delivery"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	var recipient string

	cmd := &cobra.Command{
		Use:       "send <image|video|combined>",
		Short:     "Trigger a delivery job on the running daemon",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"image", "video", "combined"},
	}
	jsonOut := addJSONFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		selection, err := delivery.ParseSelection(args[0])
		if err != nil {
			return err
		}
		outcome, err := ctx.client().Deliver(cmd.Context(), string(selection), recipient)
		if *jsonOut {
			if outcome.Status != "" {
				if encErr := writeJSON(cmd, outcome); encErr != nil {
					return encErr
				}
			}
			return err
		}
		if outcome.Status != "" {
			fmt.Fprint(cmd.OutOrStdout(), renderOutcome(outcome, shouldColorize(cmd.OutOrStdout())))
		}
		if err != nil {
			return fmt.Errorf("send %s: %w", selection, err)
		}
		return nil
	}

	cmd.Flags().StringVarP(&recipient, "to", "t", "", "Recipient email (defaults to mailer.default_recipient)")
	return cmd
}
