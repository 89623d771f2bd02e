package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// addJSONFlag registers --json on cmd and returns its target.
func addJSONFlag(cmd *cobra.Command) *bool {
	value := new(bool)
	cmd.Flags().BoolVar(value, "json", false, "Print machine-readable JSON")
	return value
}
