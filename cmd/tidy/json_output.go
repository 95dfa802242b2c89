package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

const jsonIndent = "  "

// writeJSON renders v as indented JSON on the command's stdout. HTML escaping
// is off so file paths print verbatim.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", jsonIndent)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
