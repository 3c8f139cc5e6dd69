// Package docscmder provides the docs command group for managing raw
// documents in the chartdex data directory.
package docscmder

import (
	"github.com/spf13/cobra"
)

const docsLongDesc string = `Manage raw documents.

Documents live in the raw/ directory under the chartdex data directory
and are indexed by "chartdex ingest". Supported formats: .pdf, .docx,
.txt, .md.

Use subcommands to add, list, or remove documents:
  chartdex docs add <path>      Copy a document into the raw directory
  chartdex docs list            List documents and their index status
  chartdex docs rm <filename>   Remove a document and its indexed chunks

Examples:
  chartdex docs add ./patient_12345_notes.txt
  chartdex docs list
  chartdex docs rm 3f9a1c2e_patient_12345_notes.txt`

const docsShortDesc string = "Manage raw documents"

func NewDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: docsShortDesc,
		Long:  docsLongDesc,
	}

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRmCmd())

	return cmd
}
